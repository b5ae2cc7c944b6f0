package valuation

import (
	"testing"
	"time"

	"trading-dashboard-go/internal/models"
	"trading-dashboard-go/internal/signal"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func TestValuateLongProfit(t *testing.T) {
	p := models.Position{Side: models.Long, EntryPrice: dec("100"), SizeBase: dec("2"), Notional: dec("200")}

	v := Valuate(p, ptr(dec("110")))
	require.True(t, v.HasPnL)
	assert.True(t, v.PnL.Equal(dec("20")), "got %s", v.PnL)
	assert.Equal(t, signal.ToneProfit, v.PnLTone)
	assert.Equal(t, "LONG", v.SideLabel)
	assert.Equal(t, signal.ToneProfit, v.SideTone)
}

func TestValuateShortLoss(t *testing.T) {
	p := models.Position{Side: models.Short, EntryPrice: dec("100"), SizeBase: dec("2")}

	v := Valuate(p, ptr(dec("110")))
	require.True(t, v.HasPnL)
	assert.True(t, v.PnL.Equal(dec("-20")), "got %s", v.PnL)
	assert.Equal(t, signal.ToneLoss, v.PnLTone)
	assert.Equal(t, signal.ToneLoss, v.SideTone)
}

func TestValuateZeroIsProfit(t *testing.T) {
	p := models.Position{Side: models.Short, EntryPrice: dec("100"), SizeBase: dec("3")}

	v := Valuate(p, ptr(dec("100")))
	assert.True(t, v.PnL.IsZero())
	assert.Equal(t, signal.ToneProfit, v.PnLTone)
}

func TestValuateWithoutPrice(t *testing.T) {
	entry := models.Timestamp{Time: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	p := models.Position{Side: models.Long, EntryPrice: dec("100"), SizeBase: dec("1"), EntryTime: &entry}

	v := Valuate(p, nil)
	assert.False(t, v.HasPnL)
	assert.Nil(t, v.MarkPrice)
	assert.Empty(t, v.PnLTone)
	require.NotNil(t, v.EntryTime)
	assert.True(t, v.EntryTime.Equal(entry.Time))
}

func TestValuateKeepsPrecision(t *testing.T) {
	p := models.Position{Side: models.Long, EntryPrice: dec("3000.12"), SizeBase: dec("0.003333")}

	v := Valuate(p, ptr(dec("3001.15")))
	assert.True(t, v.PnL.Equal(dec("0.00343299")), "got %s", v.PnL)
}
