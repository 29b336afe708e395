package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffluenceForFillRate(t *testing.T) {
	tests := []struct {
		rate float64
		want AffluenceLevel
	}{
		{0.0, AffluenceLow},
		{0.29, AffluenceLow},
		{0.3, AffluenceModerate},
		{0.59, AffluenceModerate},
		{0.6, AffluenceHigh},
		{0.79, AffluenceHigh},
		{0.8, AffluenceVeryHigh},
		{1.0, AffluenceVeryHigh},
		{1.5, AffluenceVeryHigh},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, AffluenceForFillRate(tc.rate), "rate %v", tc.rate)
	}
}

func TestServiceCanAdmit(t *testing.T) {
	t.Run("closed service refuses", func(t *testing.T) {
		svc := &Service{Status: ServiceStatusClosed}
		require.ErrorIs(t, svc.CanAdmit(), ErrServiceUnavailable)
	})

	t.Run("paused service refuses", func(t *testing.T) {
		svc := &Service{Status: ServiceStatusPaused}
		require.ErrorIs(t, svc.CanAdmit(), ErrServiceUnavailable)
	})

	t.Run("full queue refuses", func(t *testing.T) {
		svc := &Service{Status: ServiceStatusOpen, MaxQueueSize: 2, CurrentQueueSize: 2}
		require.ErrorIs(t, svc.CanAdmit(), ErrQueueFull)
	})

	t.Run("uncapped queue always admits", func(t *testing.T) {
		svc := &Service{Status: ServiceStatusOpen, MaxQueueSize: 0, CurrentQueueSize: 500}
		require.NoError(t, svc.CanAdmit())
	})

	t.Run("open with room admits", func(t *testing.T) {
		svc := &Service{Status: ServiceStatusOpen, MaxQueueSize: 10, CurrentQueueSize: 9}
		require.NoError(t, svc.CanAdmit())
	})
}

func TestServiceQueueCounting(t *testing.T) {
	svc := &Service{
		Status:            ServiceStatusOpen,
		MaxQueueSize:      10,
		AvgServiceMinutes: 5,
		AffluenceLevel:    AffluenceLow,
	}

	svc.IncrementQueue()
	svc.IncrementQueue()
	assert.Equal(t, 2, svc.CurrentQueueSize)
	assert.Equal(t, 10, svc.EstimatedWaitTime)
	assert.Equal(t, AffluenceLow, svc.AffluenceLevel)

	// 3/10 crosses the first breakpoint.
	svc.IncrementQueue()
	assert.Equal(t, AffluenceModerate, svc.AffluenceLevel)

	svc.DecrementQueue()
	svc.DecrementQueue()
	svc.DecrementQueue()
	assert.Equal(t, 0, svc.CurrentQueueSize)
	assert.Equal(t, AffluenceLow, svc.AffluenceLevel)

	// Never goes negative.
	svc.DecrementQueue()
	assert.Equal(t, 0, svc.CurrentQueueSize)
	assert.Equal(t, 0, svc.EstimatedWaitTime)
}

func TestServiceFillRateUncapped(t *testing.T) {
	// Uncapped services fall back to the reference capacity of 50 so the
	// affluence level still reacts to demand.
	svc := &Service{Status: ServiceStatusOpen, MaxQueueSize: 0, CurrentQueueSize: 40}
	assert.InDelta(t, 0.8, svc.FillRate(), 1e-9)

	svc.IncrementQueue()
	assert.Equal(t, AffluenceVeryHigh, svc.AffluenceLevel)
}

func TestCategoryBaseMinutes(t *testing.T) {
	assert.Equal(t, 15, CategoryAdministration.BaseMinutesPerPerson())
	assert.Equal(t, 10, CategoryBank.BaseMinutesPerPerson())
	assert.Equal(t, 20, CategoryHealth.BaseMinutesPerPerson())
	assert.Equal(t, 8, CategoryPost.BaseMinutesPerPerson())
	assert.Equal(t, 12, CategoryTelecom.BaseMinutesPerPerson())
	assert.Equal(t, 10, CategoryOther.BaseMinutesPerPerson())
	assert.Equal(t, 10, ServiceCategory("UNKNOWN").BaseMinutesPerPerson())
}
