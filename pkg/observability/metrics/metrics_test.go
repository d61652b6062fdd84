package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObserveAndExpose(t *testing.T) {
	Init(10)
	ObserveEpoch(3, 2.1, 0.4, 2.0, 2)
	ObserveCheckpoint()
	ObserveCheckpoint()

	snap := Current()
	assert.Equal(t, int64(3), snap.Epoch)
	assert.Equal(t, int64(10), snap.TotalEpochs)
	assert.Equal(t, 2.0, snap.BestLoss)
	assert.Equal(t, int64(2), snap.Checkpoints)
	assert.False(t, snap.Completed)

	rec := httptest.NewRecorder()
	WritePrometheus(rec)
	body := rec.Body.String()
	assert.Contains(t, body, "euler_training_epoch 3\n")
	assert.Contains(t, body, "euler_training_loss 2.1\n")
	assert.Contains(t, body, "euler_training_checkpoints_total 2\n")
	assert.Equal(t, "text/plain; version=0.0.4", rec.Header().Get("Content-Type"))
}

func TestInitResetsBestLoss(t *testing.T) {
	Init(1)
	assert.Equal(t, 0.0, Current().BestLoss)
	ObserveCompleted()
	assert.True(t, Current().Completed)
}
