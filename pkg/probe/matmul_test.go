package probe

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiplyKnownValues(t *testing.T) {
	a := Matrix{Rows: 2, Cols: 3, Data: []float64{1, 2, 3, 4, 5, 6}}
	b := Matrix{Rows: 3, Cols: 2, Data: []float64{7, 8, 9, 10, 11, 12}}

	c, err := Multiply(a, b)
	require.NoError(t, err)
	assert.Equal(t, "(2, 2)", c.Shape())
	assert.Equal(t, []float64{58, 64, 139, 154}, c.Data)
}

func TestMultiplyShapeMismatch(t *testing.T) {
	_, err := Multiply(NewMatrix(2, 3), NewMatrix(2, 3))
	assert.EqualError(t, err, "shape mismatch: (2, 3) x (2, 3)")
}

func TestMultiplyIdentity(t *testing.T) {
	x := RandomNormal(8, 8, rand.New(rand.NewSource(1)))
	id := NewMatrix(8, 8)
	for i := 0; i < 8; i++ {
		id.Data[i*8+i] = 1
	}

	y, err := Multiply(x, id)
	require.NoError(t, err)
	assert.InDeltaSlice(t, x.Data, y.Data, 1e-12)
}
