package strategy

import (
	"testing"

	"hedgebot/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPositionStatusScenarios(t *testing.T) {
	assert.Equal(t, StatusEnterTheMarket, PositionStatus(0, 0, 0))
	assert.Equal(t, StatusPlaceOrdersToBackward, PositionStatus(3, 0, 2))
	assert.Equal(t, StatusRemoveOrders, PositionStatus(0, 1, 0))
	assert.Equal(t, StatusRemoveOrders, PositionStatus(0, 0, 2))
	assert.Equal(t, StatusPlaceOrdersToForward, PositionStatus(1, 2, 0))
	assert.Equal(t, StatusVerifyUpdate, PositionStatus(1, 1, 1))
}

func TestPositionStatusIsTotal(t *testing.T) {
	for p := 0; p <= 2; p++ {
		for b := 0; b <= 2; b++ {
			for f := 0; f <= 2; f++ {
				got := PositionStatus(p, b, f)
				assert.NotEqual(t, StatusNone, got, "p=%d b=%d f=%d", p, b, f)

				var want Status
				switch {
				case p == 0 && b == 0 && f == 0:
					want = StatusEnterTheMarket
				case p == 0:
					want = StatusRemoveOrders
				case b == 0:
					want = StatusPlaceOrdersToBackward
				case f == 0:
					want = StatusPlaceOrdersToForward
				default:
					want = StatusVerifyUpdate
				}
				assert.Equal(t, want, got, "p=%d b=%d f=%d", p, b, f)
			}
		}
	}
}

func TestHedgeStatusNeverEntersMarket(t *testing.T) {
	for p := 0; p <= 2; p++ {
		for h := 0; h <= 2; h++ {
			for b := 0; b <= 2; b++ {
				for f := 0; f <= 2; f++ {
					assert.NotEqual(t, StatusEnterTheMarket, HedgeStatus(p, h, b, f))
				}
			}
		}
	}

	assert.Equal(t, StatusNone, HedgeStatus(0, 0, 0, 0))
	assert.Equal(t, StatusRemoveOrders, HedgeStatus(0, 0, 1, 0))
	assert.Equal(t, StatusPlaceOrdersToBackward, HedgeStatus(1, 0, 0, 0))
	assert.Equal(t, StatusPlaceOrdersToBackward, HedgeStatus(0, 2, 0, 3))
	assert.Equal(t, StatusPlaceOrdersToForward, HedgeStatus(2, 0, 1, 0))
	assert.Equal(t, StatusVerifyUpdate, HedgeStatus(0, 1, 1, 1))
}

func TestEvaluateBuyRoles(t *testing.T) {
	orders := []models.TradeOrder{
		order(1, models.OrderTypeBuyLimit, 990, 1),
		order(2, models.OrderTypeBuyLimit, 980, 1),
		order(3, models.OrderTypeBuyStop, 1020, 1),
		order(4, models.OrderTypeSellStop, 970, 1),
		order(5, models.OrderTypeSellLimit, 1040, 1),
	}
	positions := []models.TradePosition{
		position(10, models.PositionTypeBuy, 1000, 1),
		position(11, models.PositionTypeSell, 960, 1),
	}

	snap := Evaluate(Snapshot{}, models.DirectionBuy, orders, positions, testNow)

	assert.Equal(t, Counts{Positions: 1, Hedge: 1, PositionBackward: 2, PositionForward: 1, HedgeBackward: 1, HedgeForward: 1}, snap.Counts)
	assert.Equal(t, StatusVerifyUpdate, snap.PositionStatus)
	assert.Equal(t, StatusVerifyUpdate, snap.HedgeStatus)
	assert.Equal(t, testNow, snap.CheckedAt)
}

func TestEvaluateSellRoles(t *testing.T) {
	orders := []models.TradeOrder{
		order(1, models.OrderTypeSellLimit, 1010, 1),
		order(2, models.OrderTypeSellStop, 980, 1),
		order(3, models.OrderTypeBuyStop, 1030, 1),
		order(4, models.OrderTypeBuyLimit, 950, 1),
		order(5, models.OrderTypeBuyLimit, 940, 1),
	}
	positions := []models.TradePosition{position(10, models.PositionTypeSell, 1000, 1)}

	snap := Evaluate(Snapshot{}, models.DirectionSell, orders, positions, testNow)

	assert.Equal(t, Counts{Positions: 1, PositionBackward: 1, PositionForward: 1, HedgeBackward: 1, HedgeForward: 2}, snap.Counts)
	assert.Equal(t, StatusVerifyUpdate, snap.HedgeStatus)
}

func TestEvaluateNoDirectionCountsLikeBuy(t *testing.T) {
	positions := []models.TradePosition{position(10, models.PositionTypeBuy, 1000, 1)}

	none := Evaluate(Snapshot{}, models.DirectionNone, nil, positions, testNow)
	buy := Evaluate(Snapshot{}, models.DirectionBuy, nil, positions, testNow)

	assert.Equal(t, buy.Counts, none.Counts)
	assert.Equal(t, StatusPlaceOrdersToBackward, none.PositionStatus)
}

func TestEvaluateUpdatedFlags(t *testing.T) {
	positions := []models.TradePosition{position(10, models.PositionTypeBuy, 1000, 1)}
	orders := []models.TradeOrder{order(1, models.OrderTypeBuyLimit, 990, 1)}

	first := Evaluate(Snapshot{}, models.DirectionBuy, orders, positions, testNow)
	assert.True(t, first.Updated.Positions)
	assert.True(t, first.Updated.PositionBackward)
	assert.False(t, first.Updated.PositionForward)
	assert.False(t, first.Updated.Hedge)

	second := Evaluate(first, models.DirectionBuy, orders, positions, testNow)
	assert.False(t, second.Updated.Any())

	orders = append(orders, order(2, models.OrderTypeSellStop, 980, 1))
	third := Evaluate(second, models.DirectionBuy, orders, positions, testNow)
	assert.True(t, third.Updated.HedgeBackward)
	assert.False(t, third.Updated.PositionBackward)
}

func TestEvaluateCarriesMoveCursors(t *testing.T) {
	prev := Snapshot{PositionMovedAt: testNow.Add(-minute), HedgeMovedAt: testNow.Add(-2 * minute)}

	snap := Evaluate(prev, models.DirectionBuy, nil, nil, testNow)

	assert.Equal(t, prev.PositionMovedAt, snap.PositionMovedAt)
	assert.Equal(t, prev.HedgeMovedAt, snap.HedgeMovedAt)
}
