package strategy

import (
	"context"

	"hedgebot/internal/logger"
)

type routeKey struct {
	side   Side
	status Status
}

type route struct {
	name   string
	action Action
	when   func(s Snapshot, set Settings) bool
}

// Dispatcher routes a status snapshot to actions. It owns no trading logic,
// only the (side, status) table built at construction.
type Dispatcher struct {
	table map[routeKey][]route
	log   *logger.Logger
}

func NewDispatcher(a Actions, log *logger.Logger) *Dispatcher {
	always := func(Snapshot, Settings) bool { return true }
	positionBackwardOn := func(_ Snapshot, s Settings) bool { return s.Position.IsActiveBackward }
	positionForwardOn := func(_ Snapshot, s Settings) bool { return s.Position.IsActiveForward }
	hedgeBackwardOn := func(_ Snapshot, s Settings) bool { return s.Hedge.IsActiveBackward }
	hedgeForwardOn := func(_ Snapshot, s Settings) bool { return s.Hedge.IsActiveForward }

	positionMoved := func(s Snapshot, _ Settings) bool {
		return s.Updated.Positions || s.Updated.PositionBackward
	}
	hedgeMoved := func(s Snapshot, _ Settings) bool {
		return s.Updated.Hedge || s.Updated.HedgeBackward
	}
	both := func(a, b func(Snapshot, Settings) bool) func(Snapshot, Settings) bool {
		return func(s Snapshot, set Settings) bool { return a(s, set) && b(s, set) }
	}
	positionForwardMoved := func(s Snapshot, _ Settings) bool { return s.Updated.PositionForward }
	hedgeForwardMoved := func(s Snapshot, _ Settings) bool { return s.Updated.HedgeForward }

	table := map[routeKey][]route{
		{SideHedge, StatusPlaceOrdersToBackward}: {
			{"hedge_backward", a.HedgeBackward, hedgeBackwardOn},
		},
		{SideHedge, StatusPlaceOrdersToForward}: {
			{"hedge_forward", a.HedgeForward, hedgeForwardOn},
		},
		{SideHedge, StatusVerifyUpdate}: {
			{"hedge_reduce", a.ReduceHedge, hedgeMoved},
			{"hedge_frequency", a.MoveHedge, hedgeMoved},
			{"hedge_forward", a.HedgeForward, both(hedgeForwardMoved, hedgeForwardOn)},
			{"hedge_backward", a.HedgeBackward, both(hedgeForwardMoved, hedgeBackwardOn)},
		},

		{SidePosition, StatusEnterTheMarket}: {
			{"enter_at_market", a.EnterAtMarket, always},
		},
		{SidePosition, StatusRemoveOrders}: {
			{"close_all", a.CloseAll, always},
		},
		{SidePosition, StatusPlaceOrdersToBackward}: {
			{"position_backward", a.PositionBackward, positionBackwardOn},
		},
		{SidePosition, StatusPlaceOrdersToForward}: {
			{"position_forward", a.PositionForward, positionForwardOn},
		},
		{SidePosition, StatusVerifyUpdate}: {
			{"position_reduce", a.ReducePosition, positionMoved},
			{"position_frequency", a.MovePosition, positionMoved},
			{"position_forward", a.PositionForward, both(positionForwardMoved, positionForwardOn)},
			{"position_backward", a.PositionBackward, both(positionForwardMoved, positionBackwardOn)},
		},
	}

	return &Dispatcher{table: table, log: log}
}

// Dispatch runs the hedge routes first, then the position routes. A failing
// action is logged and does not stop the remaining ones. It returns the names
// of the actions that ran.
func (d *Dispatcher) Dispatch(ctx context.Context, snap Snapshot, c Cycle) []string {
	var ran []string
	for _, key := range []routeKey{{SideHedge, snap.HedgeStatus}, {SidePosition, snap.PositionStatus}} {
		for _, r := range d.table[key] {
			if r.action == nil || !r.when(snap, c.Settings) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return ran
			}
			ran = append(ran, r.name)
			if err := r.action.Execute(ctx, c); err != nil {
				d.log.WithComponent("dispatcher").WithError(err).WithFields(map[string]interface{}{
					"side":   key.side.String(),
					"status": key.status.String(),
					"action": r.name,
				}).Error("Действие завершилось с ошибкой.")
			}
		}
	}
	return ran
}
