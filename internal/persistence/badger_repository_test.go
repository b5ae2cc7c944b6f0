package persistence

import (
	"testing"
	"time"

	"trading-dashboard-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStateEmpty(t *testing.T) {
	repo, err := NewBadgerRepository(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	state, err := repo.LoadState()
	require.NoError(t, err)
	assert.Nil(t, state, "missing key yields (nil, nil)")
}

func TestSaveAndLoadState(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewBadgerRepository(dir)
	require.NoError(t, err)

	price := decimal.RequireFromString("2500.5")
	entry := models.Timestamp{Time: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	saved := &models.DashboardState{
		Timeframe: models.Timeframe15m,
		LastStatus: &models.StatusSnapshot{
			BotRunning:    true,
			Balance:       decimal.NewFromInt(1000),
			CurrentPrice:  &price,
			SARDirections: map[models.Timeframe]models.Direction{models.Timeframe1m: models.DirectionShort},
			InPosition:    true,
			Position:      &models.Position{Side: models.Short, EntryPrice: decimal.NewFromInt(2600), SizeBase: decimal.RequireFromString("0.1"), EntryTime: &entry},
			Trades:        []models.Trade{{Side: models.Long, PnL: decimal.RequireFromString("-1.25")}},
		},
		SavedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveState(saved))
	require.NoError(t, repo.Close())

	// Reopen to make sure the state survived on disk.
	repo, err = NewBadgerRepository(dir)
	require.NoError(t, err)
	defer repo.Close()

	loaded, err := repo.LoadState()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, models.Timeframe15m, loaded.Timeframe)
	assert.True(t, loaded.SavedAt.Equal(saved.SavedAt))
	require.NotNil(t, loaded.LastStatus)
	assert.True(t, loaded.LastStatus.CurrentPrice.Equal(price))
	assert.Equal(t, models.DirectionShort, loaded.LastStatus.SARDirections[models.Timeframe1m])
	require.NotNil(t, loaded.LastStatus.Position)
	assert.True(t, loaded.LastStatus.Position.EntryTime.Equal(entry.Time))
	require.Len(t, loaded.LastStatus.Trades, 1)
	assert.Equal(t, "-1.25", loaded.LastStatus.Trades[0].PnL.String())
}

func TestSaveStateOverwrites(t *testing.T) {
	repo, err := NewBadgerRepository(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.SaveState(&models.DashboardState{Timeframe: models.Timeframe1m}))
	require.NoError(t, repo.SaveState(&models.DashboardState{Timeframe: models.Timeframe5m}))

	loaded, err := repo.LoadState()
	require.NoError(t, err)
	assert.Equal(t, models.Timeframe5m, loaded.Timeframe)
	assert.Nil(t, loaded.LastStatus)

	assert.Error(t, repo.SaveState(nil))
}
