package training

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimulatorDeterministicPerSeed(t *testing.T) {
	a := NewSimulator(7, 20)
	b := NewSimulator(7, 20)
	c := NewSimulator(8, 20)

	var differs bool
	for i := 0; i < 20; i++ {
		ma, mb, mc := a.Next(i), b.Next(i), c.Next(i)
		assert.Equal(t, ma, mb)
		if ma != mc {
			differs = true
		}
	}
	assert.True(t, differs, "different seeds should produce different curves")
}

func TestSimulatorBounds(t *testing.T) {
	const epochs = 100
	sim := NewSimulator(42, epochs)
	for i := 0; i < epochs; i++ {
		m := sim.Next(i)
		assert.Equal(t, i+1, m.Epoch)

		expected := 2.5 * math.Pow(0.95, float64(i))
		assert.LessOrEqual(t, math.Abs(m.Loss-expected), 0.1)

		assert.GreaterOrEqual(t, m.Accuracy, 0.0)
		assert.LessOrEqual(t, m.Accuracy, 0.95)
	}
}

func TestSimulatorAccuracyTrend(t *testing.T) {
	sim := NewSimulator(1, 10)
	for i := 0; i < 9; i++ {
		sim.Next(i)
	}
	// 0.1 + 0.85*9/10 = 0.865, noise keeps it within [0.815, 0.915].
	m := sim.Next(9)
	assert.InDelta(t, 0.865, m.Accuracy, 0.05+1e-12)
}
