package strategy

import (
	"context"
	"errors"
	"fmt"

	"hedgebot/internal/logger"
	"hedgebot/internal/models"
)

// ReduceTarget puts a break-even take profit on positions that sit more than
// one backward step beyond the front of the averaging ladder, shrinking the
// book when price comes back. The averaging rungs are limits on both sides:
// PositionBackward for the position, HedgeForward for the hedge.
type ReduceTarget struct {
	side   Side
	trader Trader
	log    *logger.Logger
}

func (a *ReduceTarget) Execute(ctx context.Context, c Cycle) error {
	s := c.Settings
	posType := a.side.positionType(s.Globals.Direction)
	positions := ClassifyPositions(c.Positions).ByType(posType)
	if len(positions) == 0 {
		return nil
	}

	buy := posType == models.PositionTypeBuy
	roles := RolesFor(s.Globals.Direction)
	limitType := roles.PositionBackward
	if a.side == SideHedge {
		limitType = roles.HedgeForward
	}
	limits := ClassifyOrders(c.Orders).ByType(limitType)

	front := frontPosition(positions, limits, buy)
	step := s.ticks(s.ladder(a.side).TicksBackward)
	costs := s.ticks(s.Manager.TickToOffsetCosts)
	log := actionEntry(a.log, a.side.String()+"_reduce", c)

	var errs []error
	for _, p := range positions {
		var tp float64
		if buy {
			if p.PriceOpen <= front+step {
				continue
			}
			tp = p.PriceOpen + costs
		} else {
			if p.PriceOpen >= front-step {
				continue
			}
			tp = p.PriceOpen - costs
		}
		tp = RoundToStep(tp, s.tickSize())
		if samePrice(p.TakeProfit, tp, s.tickSize()) {
			continue
		}
		if err := a.trader.ModifyPosition(ctx, p.Ticket, p.StopLoss, tp); err != nil {
			errs = append(errs, fmt.Errorf("Не удалось выставить цель позиции %d: %w", p.Ticket, err))
			continue
		}
		log.WithFields(map[string]interface{}{
			"ticket": p.Ticket,
			"open":   p.PriceOpen,
			"tp":     tp,
		}).Info("Цель на сокращение позиции выставлена.")
	}
	return errors.Join(errs...)
}

// frontPosition finds the price of the position closest to the resting ladder:
// for longs the lowest position at or above the highest buy limit, for shorts
// the highest position at or below the lowest sell limit. Without limits the
// extreme of all positions is used.
func frontPosition(positions []models.TradePosition, limits []models.TradeOrder, buy bool) float64 {
	candidates := positions
	if len(limits) > 0 {
		edge := limits[0].PriceOpen
		for _, o := range limits[1:] {
			if (buy && o.PriceOpen > edge) || (!buy && o.PriceOpen < edge) {
				edge = o.PriceOpen
			}
		}
		var beyond []models.TradePosition
		for _, p := range positions {
			if (buy && p.PriceOpen >= edge) || (!buy && p.PriceOpen <= edge) {
				beyond = append(beyond, p)
			}
		}
		if len(beyond) > 0 {
			candidates = beyond
		}
	}

	front := candidates[0].PriceOpen
	for _, p := range candidates[1:] {
		if (buy && p.PriceOpen < front) || (!buy && p.PriceOpen > front) {
			front = p.PriceOpen
		}
	}
	return front
}
