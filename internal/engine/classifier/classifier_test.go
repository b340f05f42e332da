package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hejijunhao/khmerid/internal/model"
)

var t0 = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func TestClassifyThresholdBoundary(t *testing.T) {
	c := New(DefaultThreshold)

	below := c.Classify(model.ScoreResult{Total: DefaultThreshold - 1}, t0)
	assert.False(t, below.Valid)
	assert.Equal(t, DefaultThreshold-1, below.Score)

	at := c.Classify(model.ScoreResult{Total: DefaultThreshold}, t0)
	assert.True(t, at.Valid)

	above := c.Classify(model.ScoreResult{Total: 14}, t0)
	assert.True(t, above.Valid)
}

func TestClassifyCustomThreshold(t *testing.T) {
	tests := []struct {
		threshold int
		total     int
		valid     bool
	}{
		{1, 0, false},
		{1, 1, true},
		{8, 7, false},
		{8, 8, true},
		{0, 0, true},
	}
	for _, tt := range tests {
		v := New(tt.threshold).Classify(model.ScoreResult{Total: tt.total}, t0)
		assert.Equal(t, tt.valid, v.Valid, "threshold=%d total=%d", tt.threshold, tt.total)
	}
}

func TestClassifyCarriesDiagnostics(t *testing.T) {
	matched := []string{"MRZ", "KHM"}
	v := New(DefaultThreshold).Classify(model.ScoreResult{Total: 4, Matched: matched, SourceLength: 20}, t0)

	assert.Equal(t, matched, v.Matched)
	assert.Equal(t, 4, v.Score)
	assert.Equal(t, 20, v.SourceLength)
	assert.Equal(t, t0, v.ObservedAt)
}

func TestReject(t *testing.T) {
	v := Reject(t0)
	assert.False(t, v.Valid)
	assert.Zero(t, v.Score)
	assert.Empty(t, v.Matched)
	assert.Equal(t, t0, v.ObservedAt)
}
