package terminal

import (
	"context"
	"time"

	"hedgebot/internal/models"
)

// Client is the connection to the trading terminal. Implementations return
// raw broker state; magic-number filtering happens in the strategy.
type Client interface {
	GetTick(ctx context.Context, symbol string) (models.Tick, error)
	GetSymbolInfo(ctx context.Context, symbol string) (models.SymbolInfo, error)
	GetOrdersPending(ctx context.Context, symbol string) ([]models.TradeOrder, error)
	GetPositionsOpen(ctx context.Context, symbol string) ([]models.TradePosition, error)
	GetDealsHistory(ctx context.Context, from, to time.Time) ([]models.TradeDeal, error)
	GetOrdersHistory(ctx context.Context, from, to time.Time) ([]models.TradeOrder, error)
	SendOrder(ctx context.Context, req models.TradeRequest) (models.TradeResult, error)
}
