package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"hedgebot/internal/logger"
	"hedgebot/internal/models"
)

// ReplaceCanceled puts back pending orders the broker canceled (end of
// session, expiry) when the bot starts in swing mode. Orders the bot deleted
// itself are archived as canceled too; deleted filters them out.
type ReplaceCanceled struct {
	trader  Trader
	deleted DeletedOrders
	log     *logger.Logger
}

func NewReplaceCanceled(trader Trader, deleted DeletedOrders, log *logger.Logger) *ReplaceCanceled {
	return &ReplaceCanceled{trader: trader, deleted: deleted, log: log}
}

type orderKey struct {
	typ    models.OrderType
	price  float64
	volume float64
}

func (a *ReplaceCanceled) Execute(ctx context.Context, c Cycle) error {
	s := c.Settings
	tick := s.tickSize()
	reentry := s.ticks(s.Manager.TickToReduceReentry)
	costs := s.ticks(s.Manager.TickToOffsetCosts)
	log := actionEntry(a.log, "replace_canceled", c)

	pending := make(map[int64]bool, len(c.Orders))
	seen := make(map[orderKey]bool, len(c.Orders))
	for _, o := range c.Orders {
		pending[o.Ticket] = true
		seen[keyOf(o, tick)] = true
	}

	own, err := a.ownDeletes(ctx, c.OrdersHistory)
	if err != nil {
		return err
	}

	var errs []error
	for _, o := range c.OrdersHistory {
		if o.State != models.OrderStateCanceled || !o.Type.IsPending() || pending[o.Ticket] || own[o.Ticket] {
			continue
		}
		key := keyOf(o, tick)
		if seen[key] || coveredByPosition(o, c.Positions, tick) {
			continue
		}
		seen[key] = true

		req := models.OrderRequest{
			Type:       o.Type,
			Symbol:     o.Symbol,
			Volume:     o.VolumeCurrent,
			Price:      o.PriceOpen,
			StopLoss:   o.StopLoss,
			TakeProfit: o.TakeProfit,
			Magic:      o.MagicNumber,
			Comment:    o.Comment,
		}
		if req.Volume <= 0 {
			req.Volume = o.VolumeInitial
		}

		ask := c.Tick.Ask
		switch o.Type {
		case models.OrderTypeSellLimit:
			if ask > o.PriceOpen {
				req.Type, req.Price = models.OrderTypeSell, 0
				if req.TakeProfit == 0 && math.Abs(ask-o.PriceOpen) > reentry {
					req.TakeProfit = RoundToStep(o.PriceOpen-costs, tick)
				}
			}
		case models.OrderTypeSellStop:
			if ask <= o.PriceOpen {
				req.Type = models.OrderTypeSellLimit
			}
		case models.OrderTypeBuyLimit:
			if ask < o.PriceOpen {
				req.Type, req.Price = models.OrderTypeBuy, 0
				if req.TakeProfit == 0 && math.Abs(ask-o.PriceOpen) > reentry {
					req.TakeProfit = RoundToStep(o.PriceOpen+costs, tick)
				}
			}
		case models.OrderTypeBuyStop:
			if ask >= o.PriceOpen {
				req.Type = models.OrderTypeBuyLimit
			}
		}

		if err := a.trader.Place(ctx, req); err != nil {
			errs = append(errs, fmt.Errorf("Не удалось восстановить ордер %d: %w", o.Ticket, err))
			continue
		}
		log.WithFields(map[string]interface{}{
			"ticket": o.Ticket,
			"was":    o.Type.String(),
			"now":    req.Type.String(),
			"price":  o.PriceOpen,
			"volume": req.Volume,
			"tp":     req.TakeProfit,
		}).Info("Отменённый ордер восстановлен.")
	}
	return errors.Join(errs...)
}

// ownDeletes looks up deletions made since the oldest canceled order was set.
// Without a source nothing is filtered.
func (a *ReplaceCanceled) ownDeletes(ctx context.Context, history []models.TradeOrder) (map[int64]bool, error) {
	if a.deleted == nil {
		return nil, nil
	}
	var since time.Time
	first := true
	for _, o := range history {
		if o.State != models.OrderStateCanceled {
			continue
		}
		if first || o.TimeSetup.Before(since) {
			since, first = o.TimeSetup, false
		}
	}
	own, err := a.deleted.DeletedTickets(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("Не удалось получить ордера, удалённые ботом: %w", err)
	}
	return own, nil
}

func keyOf(o models.TradeOrder, tick float64) orderKey {
	return orderKey{typ: o.Type, price: RoundToStep(o.PriceOpen, tick), volume: o.VolumeCurrent}
}

func coveredByPosition(o models.TradeOrder, positions []models.TradePosition, tick float64) bool {
	for _, p := range positions {
		if samePrice(p.PriceOpen, o.PriceOpen, tick) && sameVolume(p.Volume, o.VolumeCurrent) {
			return true
		}
	}
	return false
}
