package viewport

import (
	"testing"
	"time"

	"trading-dashboard-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRange() models.TimeRange {
	to := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return models.TimeRange{From: to.Add(-30 * time.Minute), To: to}
}

func TestTrackerStartsAuto(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, Auto, tr.Mode())
	assert.True(t, tr.ShouldAutoFit())
	assert.False(t, tr.Snapshot().ManuallyAdjusted)
	assert.Nil(t, tr.Snapshot().SavedRange)
}

// After a manual change no refresh auto-fits until the timeframe is switched.
func TestTrackerManualUntilTimeframeSwitch(t *testing.T) {
	tr := NewTracker()
	r := testRange()

	assert.True(t, tr.RangeChanged(r, false))
	for i := 0; i < 5; i++ {
		assert.False(t, tr.ShouldAutoFit(), "refresh %d must not auto-fit", i)
	}

	snap := tr.Snapshot()
	assert.True(t, snap.ManuallyAdjusted)
	require.NotNil(t, snap.SavedRange)
	assert.Equal(t, r, *snap.SavedRange)

	tr.SwitchTimeframe()
	assert.True(t, tr.ShouldAutoFit(), "first refresh after a switch auto-fits")
	assert.Nil(t, tr.Snapshot().SavedRange)
}

func TestTrackerIgnoresProgrammaticChanges(t *testing.T) {
	tr := NewTracker()

	assert.False(t, tr.RangeChanged(testRange(), true))
	assert.Equal(t, Auto, tr.Mode())
	assert.True(t, tr.ShouldAutoFit())

	tr.RangeChanged(testRange(), false)
	assert.True(t, tr.RangeChanged(models.TimeRange{}, true))
	assert.Equal(t, testRange(), *tr.Snapshot().SavedRange, "programmatic change keeps the saved range")
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "AUTO", Auto.String())
	assert.Equal(t, "MANUAL", Manual.String())
}
