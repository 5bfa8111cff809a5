package strategy

import (
	"context"
	"errors"
	"testing"

	"hedgebot/internal/models"

	"github.com/stretchr/testify/assert"
)

type trace struct {
	ran []string
}

func (tr *trace) action(name string, err error) Action {
	return ActionFunc(func(context.Context, Cycle) error {
		tr.ran = append(tr.ran, name)
		return err
	})
}

func tracedActions(tr *trace) Actions {
	return Actions{
		EnterAtMarket:    tr.action("enter", nil),
		CloseAll:         tr.action("close_all", nil),
		PositionBackward: tr.action("position_backward", nil),
		PositionForward:  tr.action("position_forward", nil),
		HedgeBackward:    tr.action("hedge_backward", nil),
		HedgeForward:     tr.action("hedge_forward", nil),
		ReducePosition:   tr.action("position_reduce", nil),
		ReduceHedge:      tr.action("hedge_reduce", nil),
		MovePosition:     tr.action("position_frequency", nil),
		MoveHedge:        tr.action("hedge_frequency", nil),
	}
}

func dispatch(t *testing.T, snap Snapshot, settings Settings) []string {
	t.Helper()
	tr := &trace{}
	d := NewDispatcher(tracedActions(tr), testLog())
	d.Dispatch(context.Background(), snap, Cycle{Settings: settings})
	return tr.ran
}

func TestDispatchEnterAndRemove(t *testing.T) {
	s := testSettings(models.DirectionBuy)

	assert.Equal(t, []string{"enter"}, dispatch(t, Snapshot{PositionStatus: StatusEnterTheMarket}, s))
	assert.Equal(t, []string{"close_all"}, dispatch(t, Snapshot{PositionStatus: StatusRemoveOrders}, s))
	assert.Empty(t, dispatch(t, Snapshot{HedgeStatus: StatusRemoveOrders}, s))
	assert.Empty(t, dispatch(t, Snapshot{HedgeStatus: StatusEnterTheMarket}, s))
}

func TestDispatchHedgeRunsBeforePosition(t *testing.T) {
	s := testSettings(models.DirectionBuy)
	snap := Snapshot{PositionStatus: StatusPlaceOrdersToForward, HedgeStatus: StatusPlaceOrdersToBackward}

	assert.Equal(t, []string{"hedge_backward", "position_forward"}, dispatch(t, snap, s))
}

func TestDispatchRespectsActiveFlags(t *testing.T) {
	s := testSettings(models.DirectionBuy)
	s.Position.IsActiveBackward = false
	s.Hedge.IsActiveForward = false

	assert.Empty(t, dispatch(t, Snapshot{PositionStatus: StatusPlaceOrdersToBackward}, s))
	assert.Empty(t, dispatch(t, Snapshot{HedgeStatus: StatusPlaceOrdersToForward}, s))
	assert.Equal(t, []string{"position_forward"}, dispatch(t, Snapshot{PositionStatus: StatusPlaceOrdersToForward}, s))
}

func TestDispatchVerify(t *testing.T) {
	s := testSettings(models.DirectionBuy)

	quiet := Snapshot{PositionStatus: StatusVerifyUpdate, HedgeStatus: StatusVerifyUpdate}
	assert.Empty(t, dispatch(t, quiet, s))

	filled := quiet
	filled.Updated.PositionBackward = true
	assert.Equal(t, []string{"position_reduce", "position_frequency"}, dispatch(t, filled, s))

	forward := quiet
	forward.Updated.PositionForward = true
	forward.Updated.Hedge = true
	assert.Equal(t, []string{
		"hedge_reduce", "hedge_frequency",
		"position_forward", "position_backward",
	}, dispatch(t, forward, s))

	hedgeForward := quiet
	hedgeForward.Updated.HedgeForward = true
	s.Hedge.IsActiveBackward = false
	assert.Equal(t, []string{"hedge_forward"}, dispatch(t, hedgeForward, s))
}

func TestDispatchKeepsGoingAfterActionError(t *testing.T) {
	tr := &trace{}
	actions := tracedActions(tr)
	actions.ReducePosition = tr.action("position_reduce", errors.New("rejected"))
	d := NewDispatcher(actions, testLog())

	snap := Snapshot{PositionStatus: StatusVerifyUpdate, Updated: Updated{Positions: true}}
	ran := d.Dispatch(context.Background(), snap, Cycle{Settings: testSettings(models.DirectionBuy)})

	assert.Equal(t, []string{"position_reduce", "position_frequency"}, tr.ran)
	assert.Equal(t, tr.ran, ran)
}

func TestDispatchStopsOnCanceledContext(t *testing.T) {
	tr := &trace{}
	d := NewDispatcher(tracedActions(tr), testLog())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d.Dispatch(ctx, Snapshot{PositionStatus: StatusEnterTheMarket}, Cycle{Settings: testSettings(models.DirectionBuy)})

	assert.Empty(t, tr.ran)
}
