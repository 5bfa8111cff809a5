package strategy

import (
	"context"
	"math"

	"hedgebot/internal/config"
	"hedgebot/internal/logger"
	"hedgebot/internal/models"

	"github.com/sirupsen/logrus"
)

// Action is one replaceable step of the strategy.
type Action interface {
	Execute(ctx context.Context, c Cycle) error
}

// ActionFunc adapts a plain function to Action.
type ActionFunc func(ctx context.Context, c Cycle) error

func (f ActionFunc) Execute(ctx context.Context, c Cycle) error {
	return f(ctx, c)
}

type Side int

const (
	SidePosition Side = iota
	SideHedge
)

func (s Side) String() string {
	if s == SideHedge {
		return "hedge"
	}
	return "position"
}

// Actions is the full set of steps the dispatcher routes to.
type Actions struct {
	EnterAtMarket    Action
	CloseAll         Action
	PositionBackward Action
	PositionForward  Action
	HedgeBackward    Action
	HedgeForward     Action
	ReducePosition   Action
	ReduceHedge      Action
	MovePosition     Action
	MoveHedge        Action
}

// NewActions wires the default implementations to one trader.
func NewActions(trader Trader, log *logger.Logger) Actions {
	return Actions{
		EnterAtMarket:    &EnterAtMarket{trader: trader, log: log},
		CloseAll:         &CloseAll{trader: trader, log: log},
		PositionBackward: &BackwardLadder{side: SidePosition, trader: trader, log: log},
		PositionForward:  &ForwardLadder{side: SidePosition, trader: trader, log: log},
		HedgeBackward:    &BackwardLadder{side: SideHedge, trader: trader, log: log},
		HedgeForward:     &ForwardLadder{side: SideHedge, trader: trader, log: log},
		ReducePosition:   &ReduceTarget{side: SidePosition, trader: trader, log: log},
		ReduceHedge:      &ReduceTarget{side: SideHedge, trader: trader, log: log},
		MovePosition:     &MoveByFrequency{side: SidePosition, trader: trader, log: log},
		MoveHedge:        &MoveByFrequency{side: SideHedge, trader: trader, log: log},
	}
}

func (s Settings) ladder(side Side) config.LadderConfig {
	if side == SideHedge {
		return s.Hedge
	}
	return s.Position
}

// positionType is the type of the positions a side holds for direction dir.
func (side Side) positionType(dir models.Direction) models.PositionType {
	roles := RolesFor(dir)
	if side == SideHedge {
		return roles.Hedge
	}
	return roles.Position
}

func actionEntry(log *logger.Logger, name string, c Cycle) *logrus.Entry {
	return log.WithComponent(name).WithFields(map[string]interface{}{
		"symbol": c.Settings.Globals.Symbol,
		"magic":  c.Settings.Globals.MagicNumber,
	})
}

// anchors returns the highest open buy and the lowest open sell price.
func anchors(positions PositionsByType) (buy, sell float64) {
	for _, p := range positions.Buy {
		if p.PriceOpen > buy {
			buy = p.PriceOpen
		}
	}
	for i, p := range positions.Sell {
		if i == 0 || p.PriceOpen < sell {
			sell = p.PriceOpen
		}
	}
	return buy, sell
}

// volumeBudget is how many lots a new ladder may add on top of own positions
// without breaking max_of_lots or max_of_delta. +Inf when neither is set.
func volumeBudget(m config.ManagerConfig, own, opposite []models.TradePosition) float64 {
	budget := math.Inf(1)
	used := totalVolume(own)
	if m.MaxOfLots > 0 {
		budget = m.MaxOfLots - used
	}
	if m.MaxOfDelta > 0 {
		budget = math.Min(budget, totalVolume(opposite)+m.MaxOfDelta-used)
	}
	return math.Max(budget, 0)
}

func minVolume(info models.SymbolInfo) float64 {
	if info.VolumeMin > 0 {
		return info.VolumeMin
	}
	if info.VolumeStep > 0 {
		return info.VolumeStep
	}
	return 1
}

func logReport(log *logrus.Entry, target models.OrderType, rungs int, r ReconcileReport) {
	entry := log.WithFields(map[string]interface{}{
		"type":     target.String(),
		"rungs":    rungs,
		"placed":   r.Placed,
		"modified": r.Modified,
		"kept":     r.Kept,
		"deleted":  r.Deleted,
		"skipped":  r.Skipped,
		"failed":   r.Failed,
	})
	if r.Calls() == 0 && r.Failed == 0 {
		entry.Debug("Сетка актуальна.")
		return
	}
	entry.Info("Сетка синхронизирована.")
}
