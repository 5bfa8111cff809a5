package paper

import (
	"context"
	"time"

	"hedgebot/internal/logger"
	"hedgebot/internal/models"
)

// QuoteSource provides live quotes, usually the bridge client.
type QuoteSource interface {
	GetTick(ctx context.Context, symbol string) (models.Tick, error)
}

// Follow copies quotes from src into the terminal every interval until ctx
// is done. Failed reads are logged and skipped.
func (t *Terminal) Follow(ctx context.Context, src QuoteSource, symbol string, interval time.Duration, log *logger.Logger) {
	entry := log.WithComponent("paper").WithField("symbol", symbol)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last models.Tick
	for {
		tick, err := src.GetTick(ctx, symbol)
		switch {
		case err != nil:
			entry.WithError(err).Warn("Не удалось получить котировку для симуляции.")
		case tick.Bid != last.Bid || tick.Ask != last.Ask:
			t.SetTick(tick)
			last = tick
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
