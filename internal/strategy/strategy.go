package strategy

import (
	"context"
	"time"

	"hedgebot/internal/config"
	"hedgebot/internal/models"
)

// Settings is the per-cycle view of the strategy configuration together with
// the symbol constants reported by the terminal.
type Settings struct {
	config.StrategyConfig
	Info models.SymbolInfo
}

// Cycle carries everything an action may look at during one polling cycle.
// All slices are already filtered by the strategy magic number.
type Cycle struct {
	Settings      Settings
	Tick          models.Tick
	Deals         []models.TradeDeal
	OrdersHistory []models.TradeOrder
	Orders        []models.TradeOrder
	Positions     []models.TradePosition
	Now           time.Time

	// Take-profit exits after these instants are not yet re-entered.
	PositionMovedAt time.Time
	HedgeMovedAt    time.Time
}

// Trader is the order router used by the actions. Every call is a blocking
// round trip to the terminal.
type Trader interface {
	Place(ctx context.Context, req models.OrderRequest) error
	ModifyOrder(ctx context.Context, order models.TradeOrder, price, stopLoss, takeProfit float64) error
	DeleteOrder(ctx context.Context, ticket int64) error
	ModifyPosition(ctx context.Context, ticket int64, stopLoss, takeProfit float64) error
	ClosePosition(ctx context.Context, position models.TradePosition) error
}

// DeletedOrders reports the pending orders the bot removed itself.
type DeletedOrders interface {
	DeletedTickets(ctx context.Context, since time.Time) (map[int64]bool, error)
}

type BufferOrder struct {
	Volume    float64
	Price     float64
	Symbol    string
	Magic     int64
	Direction models.Direction
}

func (s Settings) tickSize() float64 {
	if s.Info.TickSize > 0 {
		return s.Info.TickSize
	}
	return 1
}

func (s Settings) ticks(n int) float64 {
	return float64(n) * s.tickSize()
}
