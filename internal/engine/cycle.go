package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hedgebot/internal/models"
	"hedgebot/internal/strategy"

	"github.com/google/uuid"
)

// RunOnce executes one polling cycle: read the terminal, apply the session
// window and let the strategy act.
func (e *Engine) RunOnce(ctx context.Context) error {
	started := time.Now()
	now := e.now()
	cycleID := uuid.NewString()[:8]
	log := e.log.WithCycle(cycleID).WithFields(map[string]interface{}{
		"component": "engine",
		"symbol":    e.cfg.Strategy.Globals.Symbol,
	})

	result := "ok"
	defer func() {
		if e.metrics != nil {
			e.metrics.ObserveCycle(result, time.Since(started))
		}
	}()

	phase := PhaseTrading
	if e.cfg.Strategy.Globals.TradeMode == models.TradeModeDay {
		phase = e.session.Phase(now)
	}
	if phase == PhaseIdle {
		result = "idle"
		log.Debug("Вне торговой сессии.")
		return nil
	}

	c, err := e.loadCycle(ctx, now, e.historyFrom(now))
	if err != nil {
		result = "error"
		return err
	}

	switch phase {
	case PhaseCloseOrders:
		result = "session_close"
		return e.closeOrders(ctx, c)
	case PhaseClosePositions:
		result = "session_close"
		return e.closeAll(ctx, c)
	}

	snap := e.service.Step(ctx, e.Snapshot(), c)
	e.setSnapshot(snap)
	e.observe(snap)
	e.saveSnapshot(ctx)

	log.WithFields(map[string]interface{}{
		"position_status": snap.PositionStatus.String(),
		"hedge_status":    snap.HedgeStatus.String(),
		"duration_ms":     time.Since(started).Milliseconds(),
	}).Debug("Цикл завершён.")
	return nil
}

func (e *Engine) loadCycle(ctx context.Context, now, from time.Time) (strategy.Cycle, error) {
	symbol := e.cfg.Strategy.Globals.Symbol
	c := strategy.Cycle{Settings: e.settings(), Now: now}

	var err error
	if c.Tick, err = e.client.GetTick(ctx, symbol); err != nil {
		return c, fmt.Errorf("Не удалось получить котировку: %w", err)
	}
	if c.Orders, err = e.client.GetOrdersPending(ctx, symbol); err != nil {
		return c, fmt.Errorf("Не удалось получить отложенные ордера: %w", err)
	}
	if c.Positions, err = e.client.GetPositionsOpen(ctx, symbol); err != nil {
		return c, fmt.Errorf("Не удалось получить открытые позиции: %w", err)
	}
	if c.Deals, err = e.client.GetDealsHistory(ctx, from, now); err != nil {
		return c, fmt.Errorf("Не удалось получить историю сделок: %w", err)
	}
	if c.OrdersHistory, err = e.client.GetOrdersHistory(ctx, from, now); err != nil {
		return c, fmt.Errorf("Не удалось получить историю ордеров: %w", err)
	}
	return c, nil
}

// historyFrom starts the deal window at the older move cursor, so every
// take-profit exit not yet re-entered is still visible. The window never
// reaches further back than the configured lookback.
func (e *Engine) historyFrom(now time.Time) time.Time {
	snap := e.Snapshot()
	from := snap.PositionMovedAt
	if h := snap.HedgeMovedAt; !h.IsZero() && (from.IsZero() || h.Before(from)) {
		from = h
	}
	floor := now.Add(-e.cfg.Runtime.HistoryLookback)
	if from.IsZero() || from.After(now) || from.Before(floor) {
		return floor
	}
	return from
}

func (e *Engine) closeOrders(ctx context.Context, c strategy.Cycle) error {
	magic := e.cfg.Strategy.Globals.MagicNumber
	var errs []error
	for _, o := range strategy.FilterByMagic(c.Orders, magic) {
		if err := e.trader.DeleteOrder(ctx, o.Ticket); err != nil {
			errs = append(errs, err)
			continue
		}
		e.log.WithTicket(o.Ticket).WithField("component", "engine").Info("Ордер снят по окончании сессии.")
	}
	return errors.Join(errs...)
}

func (e *Engine) closeAll(ctx context.Context, c strategy.Cycle) error {
	magic := e.cfg.Strategy.Globals.MagicNumber
	c.Orders = strategy.FilterByMagic(c.Orders, magic)
	c.Positions = strategy.FilterByMagic(c.Positions, magic)
	if len(c.Orders) == 0 && len(c.Positions) == 0 {
		return nil
	}
	e.logEntry().WithFields(map[string]interface{}{
		"positions": len(c.Positions),
		"orders":    len(c.Orders),
	}).Info("Закрытие позиций по окончании сессии.")
	return e.closer.Execute(ctx, c)
}

func (e *Engine) observe(s strategy.Snapshot) {
	if e.metrics == nil {
		return
	}
	e.metrics.SetStatus("position", int(s.PositionStatus))
	e.metrics.SetStatus("hedge", int(s.HedgeStatus))
	e.metrics.SetPositions("position", s.Counts.Positions)
	e.metrics.SetPositions("hedge", s.Counts.Hedge)
	e.metrics.SetPendingOrders("position_backward", s.Counts.PositionBackward)
	e.metrics.SetPendingOrders("position_forward", s.Counts.PositionForward)
	e.metrics.SetPendingOrders("hedge_backward", s.Counts.HedgeBackward)
	e.metrics.SetPendingOrders("hedge_forward", s.Counts.HedgeForward)
}
