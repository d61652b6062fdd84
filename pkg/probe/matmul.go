package probe

import (
	"fmt"
	"math/rand"
)

// Matrix is a dense row-major float64 matrix.
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

func NewMatrix(rows, cols int) Matrix {
	return Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// RandomNormal fills a rows×cols matrix with standard normal samples.
func RandomNormal(rows, cols int, rng *rand.Rand) Matrix {
	m := NewMatrix(rows, cols)
	for i := range m.Data {
		m.Data[i] = rng.NormFloat64()
	}
	return m
}

// Multiply returns a×b.
func Multiply(a, b Matrix) (Matrix, error) {
	if a.Cols != b.Rows {
		return Matrix{}, fmt.Errorf("shape mismatch: %s x %s", a.Shape(), b.Shape())
	}
	out := NewMatrix(a.Rows, b.Cols)
	// i-k-j order walks both b and out row-wise.
	for i := 0; i < a.Rows; i++ {
		row := out.Data[i*out.Cols : (i+1)*out.Cols]
		for k := 0; k < a.Cols; k++ {
			aik := a.Data[i*a.Cols+k]
			if aik == 0 {
				continue
			}
			bRow := b.Data[k*b.Cols : (k+1)*b.Cols]
			for j, bkj := range bRow {
				row[j] += aik * bkj
			}
		}
	}
	return out, nil
}

func (m Matrix) Sum() float64 {
	var s float64
	for _, v := range m.Data {
		s += v
	}
	return s
}

func (m Matrix) Shape() string {
	return fmt.Sprintf("(%d, %d)", m.Rows, m.Cols)
}
