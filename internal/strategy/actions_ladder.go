package strategy

import (
	"context"
	"fmt"
	"strings"

	"hedgebot/internal/logger"
	"hedgebot/internal/models"

	"github.com/google/uuid"
)

// BackwardLadder spreads the martingale ladder against the trade using the
// exponential volume distribution.
type BackwardLadder struct {
	side   Side
	trader Trader
	log    *logger.Logger
}

func (a *BackwardLadder) Execute(ctx context.Context, c Cycle) error {
	s := c.Settings
	cfg := s.ladder(a.side)
	dir := s.Globals.Direction
	roles := RolesFor(dir)
	log := actionEntry(a.log, a.side.String()+"_backward", c)

	positions := ClassifyPositions(c.Positions)
	anchorBuy, anchorSell := anchors(positions)
	if anchorFor(dir, anchorBuy, anchorSell) <= 0 {
		log.Debug("Нет позиции для привязки сетки назад, пропуск.")
		return nil
	}

	perLevel := s.ticks(cfg.TicksBackward)
	model := NewDistribution()
	if err := model.Fit(cfg.Levels, perLevel, cfg.InitialLots, cfg.MultiplyFactorBackward); err != nil {
		return fmt.Errorf("Не удалось построить распределение объёма (%s): %w", a.side, err)
	}
	growth, base := model.Coefficients()
	log.WithFields(map[string]interface{}{
		"growth": growth,
		"base":   base,
	}).Debug("Распределение объёма построено.")

	params := LadderParams{
		Direction:      dir,
		CoverageTicks:  cfg.TicksBackward * cfg.Levels,
		TickSize:       s.tickSize(),
		SpacingTicks:   cfg.SmallerDistance,
		AnchorBuy:      anchorBuy,
		AnchorSell:     anchorSell,
		Symbol:         s.Globals.Symbol,
		Magic:          s.Globals.MagicNumber,
		Offset:         s.ticks(cfg.TicksOffset),
		Model:          model,
		MinVolumeDelta: minVolume(s.Info),
		VolumeStep:     s.Info.VolumeStep,
		Router:         RouteToPosition,
	}
	target := roles.PositionBackward
	var comment func() string
	if a.side == SideHedge {
		params.Router = RouteToHedge
		target = roles.HedgeBackward
		comment = hedgeComment
	} else {
		params.CoverageTicks += cfg.SmallerDistance
	}

	ladder, err := BuildLadder(params)
	if err != nil {
		return err
	}

	own := positions.ByType(a.side.positionType(dir))
	opposite := positions.ByType(a.side.opposite().positionType(dir))
	ladder = PruneCovered(ladder, own, perLevel)
	ladder = CapVolume(ladder, volumeBudget(s.Manager, own, opposite))

	report := Reconcile(ctx, ReconcileInput{
		Candidates: ladder,
		Existing:   ClassifyOrders(c.Orders).ByType(target),
		Tick:       c.Tick,
		Target:     target,
		TickSize:   s.tickSize(),
		Comment:    comment,
	}, a.trader, log)

	logReport(log, target, len(ladder), report)
	return nil
}

// ForwardLadder keeps a fixed number of equal-volume rungs in the trade
// direction beyond the best open price.
type ForwardLadder struct {
	side   Side
	trader Trader
	log    *logger.Logger
}

func (a *ForwardLadder) Execute(ctx context.Context, c Cycle) error {
	s := c.Settings
	cfg := s.ladder(a.side)
	log := actionEntry(a.log, a.side.String()+"_forward", c)

	positions := ClassifyPositions(c.Positions)
	anchorBuy, anchorSell := anchors(positions)
	orders := ClassifyOrders(c.Orders)

	offset := 0.0
	if a.side == SideHedge {
		offset = s.ticks(cfg.TicksOffset)
	}

	for _, leg := range forwardLegs(s.Globals.Direction) {
		roles := RolesFor(leg)
		target := roles.PositionForward
		if a.side == SideHedge {
			target = roles.HedgeForward
		}

		existing := orders.ByType(target)
		if len(existing) >= cfg.Levels {
			continue
		}

		anchor := anchorFor(leg, anchorBuy, anchorSell)
		if anchor <= 0 {
			log.WithField("leg", string(leg)).Debug("Нет позиции для привязки сетки вперёд, пропуск.")
			continue
		}

		ladder := make([]BufferOrder, 0, cfg.Levels)
		for i := 1; i <= cfg.Levels; i++ {
			distance := float64(i)*s.ticks(cfg.TicksForward) + offset
			price := anchor + distance
			if leg == models.DirectionSell {
				price = anchor - distance
			}
			ladder = append(ladder, BufferOrder{
				Volume:    cfg.InitialLots,
				Price:     RoundToStep(price, s.tickSize()),
				Symbol:    s.Globals.Symbol,
				Magic:     s.Globals.MagicNumber,
				Direction: leg,
			})
		}

		report := Reconcile(ctx, ReconcileInput{
			Candidates: ladder,
			Existing:   existing,
			Tick:       c.Tick,
			Target:     target,
			TickSize:   s.tickSize(),
		}, a.trader, log)

		logReport(log, target, len(ladder), report)
	}
	return nil
}

func forwardLegs(dir models.Direction) []models.Direction {
	switch dir {
	case models.DirectionSell:
		return []models.Direction{models.DirectionSell}
	case models.DirectionNone:
		return []models.Direction{models.DirectionBuy, models.DirectionSell}
	}
	return []models.Direction{models.DirectionBuy}
}

func anchorFor(dir models.Direction, buy, sell float64) float64 {
	if dir == models.DirectionSell {
		return sell
	}
	return buy
}

func (s Side) opposite() Side {
	if s == SideHedge {
		return SidePosition
	}
	return SideHedge
}

func hedgeComment() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:29]
}
