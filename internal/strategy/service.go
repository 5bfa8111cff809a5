package strategy

import (
	"context"
	"slices"

	"hedgebot/internal/logger"
	"hedgebot/internal/models"

	"github.com/sirupsen/logrus"
)

// Service runs one strategy instance: classify, evaluate, dispatch.
type Service struct {
	dispatcher *Dispatcher
	replace    Action
	log        *logger.Logger
}

// NewService wires the default actions. deleted may be nil when no journal
// is kept.
func NewService(trader Trader, deleted DeletedOrders, log *logger.Logger) *Service {
	return NewServiceWith(NewDispatcher(NewActions(trader, log), log), NewReplaceCanceled(trader, deleted, log), log)
}

func NewServiceWith(d *Dispatcher, replace Action, log *logger.Logger) *Service {
	return &Service{dispatcher: d, replace: replace, log: log}
}

// OnInit prepares the first snapshot. In swing mode orders canceled by the
// broker since the previous session are put back first.
func (s *Service) OnInit(ctx context.Context, prev Snapshot, c Cycle) Snapshot {
	c = ownOnly(c)
	if c.Settings.Globals.TradeMode == models.TradeModeSwing && s.replace != nil {
		if err := s.replace.Execute(ctx, c); err != nil {
			s.logEntry(c).WithError(err).Warn("Не все отменённые ордера восстановлены.")
		}
	}

	snap := prev
	if snap.PositionMovedAt.IsZero() {
		snap.PositionMovedAt = c.Now
	}
	if snap.HedgeMovedAt.IsZero() {
		snap.HedgeMovedAt = c.Now
	}
	return snap
}

// Step evaluates the live state against prev and runs the routed actions.
func (s *Service) Step(ctx context.Context, prev Snapshot, c Cycle) Snapshot {
	c = ownOnly(c)
	c.PositionMovedAt = prev.PositionMovedAt
	c.HedgeMovedAt = prev.HedgeMovedAt

	snap := Evaluate(prev, c.Settings.Globals.Direction, c.Orders, c.Positions, c.Now)
	if snap.PositionStatus != prev.PositionStatus || snap.HedgeStatus != prev.HedgeStatus {
		s.logEntry(c).WithFields(map[string]interface{}{
			"position_status": snap.PositionStatus.String(),
			"hedge_status":    snap.HedgeStatus.String(),
			"counts":          snap.Counts,
		}).Info("Статус стратегии изменился.")
	}

	ran := s.dispatcher.Dispatch(ctx, snap, c)
	if slices.Contains(ran, "position_frequency") {
		snap.PositionMovedAt = c.Now
	}
	if slices.Contains(ran, "hedge_frequency") {
		snap.HedgeMovedAt = c.Now
	}
	return snap
}

func (s *Service) logEntry(c Cycle) *logrus.Entry {
	return actionEntry(s.log, "strategy", c)
}

func ownOnly(c Cycle) Cycle {
	magic := c.Settings.Globals.MagicNumber
	c.Orders = FilterByMagic(c.Orders, magic)
	c.Positions = FilterByMagic(c.Positions, magic)
	c.Deals = FilterByMagic(c.Deals, magic)
	c.OrdersHistory = FilterByMagic(c.OrdersHistory, magic)
	return c
}
