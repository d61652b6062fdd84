package training

import (
	"math"
	"math/rand"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
)

const (
	baseLoss      = 2.5
	lossDecay     = 0.95
	lossNoise     = 0.1
	baseAccuracy  = 0.1
	accuracyGain  = 0.85
	accuracyCap   = 0.95
	accuracyNoise = 0.05
)

// Simulator produces synthetic loss and accuracy curves. The sequence is
// fully determined by the seed it was created with.
type Simulator struct {
	rng         *rand.Rand
	totalEpochs int
}

func NewSimulator(seed int64, totalEpochs int) *Simulator {
	return &Simulator{
		rng:         rand.New(rand.NewSource(seed)),
		totalEpochs: totalEpochs,
	}
}

// Next returns the metric for the zero-based epoch index. The returned
// Epoch field is one-based. Loss noise is drawn before accuracy noise.
func (s *Simulator) Next(index int) models.EpochMetric {
	loss := baseLoss*math.Pow(lossDecay, float64(index)) + s.uniform(-lossNoise, lossNoise)

	acc := baseAccuracy + accuracyGain*float64(index)/float64(s.totalEpochs) + s.uniform(-accuracyNoise, accuracyNoise)
	acc = math.Max(0, math.Min(accuracyCap, acc))

	return models.EpochMetric{
		Epoch:    index + 1,
		Loss:     loss,
		Accuracy: acc,
	}
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}
