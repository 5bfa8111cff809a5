package strategy

import (
	"context"
	"errors"
	"fmt"

	"hedgebot/internal/logger"
	"hedgebot/internal/models"
)

type EnterAtMarket struct {
	trader Trader
	log    *logger.Logger
}

func (a *EnterAtMarket) Execute(ctx context.Context, c Cycle) error {
	s := c.Settings
	var types []models.OrderType
	switch s.Globals.Direction {
	case models.DirectionBuy:
		types = []models.OrderType{models.OrderTypeBuy}
	case models.DirectionSell:
		types = []models.OrderType{models.OrderTypeSell}
	case models.DirectionNone:
		types = []models.OrderType{models.OrderTypeSell, models.OrderTypeBuy}
	default:
		return fmt.Errorf("Неизвестное направление: %q", s.Globals.Direction)
	}

	var errs []error
	for _, t := range types {
		err := a.trader.Place(ctx, models.OrderRequest{
			Type:   t,
			Symbol: s.Globals.Symbol,
			Volume: s.Position.InitialLots,
			Magic:  s.Globals.MagicNumber,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("Не удалось войти в рынок (%s): %w", t, err))
			continue
		}
		actionEntry(a.log, "enter_at_market", c).WithFields(map[string]interface{}{
			"type":   t.String(),
			"volume": s.Position.InitialLots,
		}).Info("Вход в рынок.")
	}
	return errors.Join(errs...)
}

// CloseAll closes every open position of the strategy and then removes all
// of its pending orders.
type CloseAll struct {
	trader Trader
	log    *logger.Logger
}

func (a *CloseAll) Execute(ctx context.Context, c Cycle) error {
	log := actionEntry(a.log, "close_all", c)
	var errs []error

	for _, p := range c.Positions {
		if err := a.trader.ClosePosition(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("Не удалось закрыть позицию %d: %w", p.Ticket, err))
			continue
		}
		log.WithField("ticket", p.Ticket).Info("Позиция закрыта.")
	}

	for _, o := range c.Orders {
		if err := a.trader.DeleteOrder(ctx, o.Ticket); err != nil {
			errs = append(errs, fmt.Errorf("Не удалось удалить ордер %d: %w", o.Ticket, err))
			continue
		}
		log.WithField("ticket", o.Ticket).Debug("Ордер удалён.")
	}

	return errors.Join(errs...)
}
