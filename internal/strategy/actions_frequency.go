package strategy

import (
	"context"
	"errors"
	"fmt"

	"hedgebot/internal/logger"
	"hedgebot/internal/models"
)

const frequencyComment = "F"

// MoveByFrequency re-enters after every take-profit exit of the side. A full
// swing re-enters at the old entry; a short one re-enters farther away with
// a tight target to shave risk.
type MoveByFrequency struct {
	side   Side
	trader Trader
	log    *logger.Logger
}

func (a *MoveByFrequency) Execute(ctx context.Context, c Cycle) error {
	s := c.Settings
	if s.Info.TickValue <= 0 {
		return fmt.Errorf("Не задана стоимость тика для %s", s.Globals.Symbol)
	}

	since := c.PositionMovedAt
	if a.side == SideHedge {
		since = c.HedgeMovedAt
	}
	exitType := models.DealTypeSell
	if a.side.positionType(s.Globals.Direction) == models.PositionTypeSell {
		exitType = models.DealTypeBuy
	}

	reentry := float64(s.Manager.TickToReduceReentry)
	costs := float64(s.Manager.TickToOffsetCosts)
	tick := s.tickSize()
	log := actionEntry(a.log, a.side.String()+"_frequency", c)

	var errs []error
	for _, d := range c.Deals {
		if d.Entry != models.DealEntryOut || d.Reason != models.DealReasonTP || d.Type != exitType {
			continue
		}
		if !d.Time.After(since) || d.Time.After(c.Now) {
			continue
		}

		profitTicks := d.Profit / (d.Volume * s.Info.TickValue)
		price, tp := d.Price, d.Price
		orderType := models.OrderTypeSellLimit

		if d.Type == models.DealTypeBuy {
			if profitTicks >= reentry-costs {
				price += profitTicks * tick
			} else {
				price += (profitTicks + reentry) * tick
				tp = price - (reentry+2*costs)*tick
			}
		} else {
			orderType = models.OrderTypeBuyLimit
			if profitTicks >= reentry-costs {
				price -= profitTicks * tick
			} else {
				price -= (profitTicks + reentry) * tick
				tp = price + (reentry+2*costs)*tick
			}
		}
		price = RoundToStep(price, tick)
		tp = RoundToStep(tp, tick)

		entry := log.WithFields(map[string]interface{}{
			"deal":   d.Ticket,
			"type":   orderType.String(),
			"price":  price,
			"tp":     tp,
			"volume": d.Volume,
		})
		if crossed(orderType, price, c.Tick) {
			entry.Warn("Цена повторного входа уже пройдена, пропуск.")
			continue
		}

		err := a.trader.Place(ctx, models.OrderRequest{
			Type:       orderType,
			Symbol:     d.Symbol,
			Volume:     d.Volume,
			Price:      price,
			TakeProfit: tp,
			Magic:      d.MagicNumber,
			Comment:    frequencyComment,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("Не удалось выставить ордер повторного входа по сделке %d: %w", d.Ticket, err))
			continue
		}
		entry.Info("Ордер повторного входа выставлен.")
	}
	return errors.Join(errs...)
}
