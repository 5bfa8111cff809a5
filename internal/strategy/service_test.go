package strategy

import (
	"context"
	"testing"
	"time"

	"hedgebot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepEntersMarketOnEmptyBook(t *testing.T) {
	trader := &recordingTrader{}
	svc := NewService(trader, nil, testLog())

	foreign := order(90, models.OrderTypeBuyLimit, 9000, 1)
	foreign.MagicNumber = 7
	foreignPos := position(91, models.PositionTypeBuy, 9500, 1)
	foreignPos.MagicNumber = 7

	c := buyCycle([]models.TradeOrder{foreign}, []models.TradePosition{foreignPos})
	snap := svc.Step(context.Background(), Snapshot{}, c)

	assert.Equal(t, StatusEnterTheMarket, snap.PositionStatus)
	assert.Equal(t, StatusNone, snap.HedgeStatus)
	places := trader.ops("place")
	require.Len(t, places, 1)
	assert.Equal(t, models.OrderTypeBuy, places[0].req.Type)
	assert.Empty(t, trader.ops("delete"))
}

func fullBook() ([]models.TradeOrder, []models.TradePosition) {
	orders := []models.TradeOrder{
		order(10, models.OrderTypeBuyLimit, 9000, 1),
		order(11, models.OrderTypeBuyStop, 10500, 1),
		order(12, models.OrderTypeSellStop, 9500, 1),
		order(13, models.OrderTypeSellLimit, 10600, 1),
	}
	positions := []models.TradePosition{position(1, models.PositionTypeBuy, 10000, 1)}
	return orders, positions
}

func TestStepAdvancesMoveCursorAfterFrequencyRun(t *testing.T) {
	tr := &trace{}
	svc := NewServiceWith(NewDispatcher(tracedActions(tr), testLog()), nil, testLog())

	orders, positions := fullBook()
	earlier := testNow.Add(-time.Hour)
	prev := Snapshot{
		PositionStatus:  StatusVerifyUpdate,
		HedgeStatus:     StatusVerifyUpdate,
		Counts:          Counts{Positions: 2, PositionBackward: 1, PositionForward: 1, HedgeBackward: 1, HedgeForward: 1},
		PositionMovedAt: earlier,
		HedgeMovedAt:    earlier,
	}

	snap := svc.Step(context.Background(), prev, buyCycle(orders, positions))

	assert.Equal(t, StatusVerifyUpdate, snap.PositionStatus)
	assert.Equal(t, StatusVerifyUpdate, snap.HedgeStatus)
	assert.True(t, snap.Updated.Positions)
	assert.Contains(t, tr.ran, "position_frequency")
	assert.NotContains(t, tr.ran, "hedge_frequency")
	assert.Equal(t, testNow, snap.PositionMovedAt)
	assert.Equal(t, earlier, snap.HedgeMovedAt)
	assert.Equal(t, testNow, snap.CheckedAt)
}

func TestStepQuietCycleRunsNothing(t *testing.T) {
	tr := &trace{}
	svc := NewServiceWith(NewDispatcher(tracedActions(tr), testLog()), nil, testLog())

	orders, positions := fullBook()
	c := buyCycle(orders, positions)
	first := svc.Step(context.Background(), Snapshot{}, c)
	tr.ran = nil

	second := svc.Step(context.Background(), first, c)

	assert.False(t, second.Updated.Any())
	assert.Empty(t, tr.ran)
}

func TestOnInit(t *testing.T) {
	tr := &trace{}
	replace := tr.action("replace", nil)
	svc := NewServiceWith(NewDispatcher(tracedActions(tr), testLog()), replace, testLog())

	c := buyCycle(nil, nil)
	snap := svc.OnInit(context.Background(), Snapshot{}, c)
	assert.Equal(t, []string{"replace"}, tr.ran)
	assert.Equal(t, testNow, snap.PositionMovedAt)
	assert.Equal(t, testNow, snap.HedgeMovedAt)

	tr.ran = nil
	restored := Snapshot{PositionMovedAt: testNow.Add(-time.Hour)}
	c.Settings.Globals.TradeMode = models.TradeModeDay
	snap = svc.OnInit(context.Background(), restored, c)
	assert.Empty(t, tr.ran)
	assert.Equal(t, testNow.Add(-time.Hour), snap.PositionMovedAt)
	assert.Equal(t, testNow, snap.HedgeMovedAt)
}
