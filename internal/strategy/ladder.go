package strategy

import (
	"errors"
	"math"

	"hedgebot/internal/models"
)

type Predictor interface {
	Predict(distance float64) float64
}

// Router turns a ladder distance into the rung side and price.
type Router func(dir models.Direction, distance, offset, anchorBuy, anchorSell float64) (models.Direction, float64)

// RouteToPosition places rungs against the trade: below the buy anchor for a
// long book, above the sell anchor for a short one.
func RouteToPosition(dir models.Direction, distance, offset, anchorBuy, anchorSell float64) (models.Direction, float64) {
	return routeAwayFromAnchor(dir, distance, offset, anchorBuy, anchorSell)
}

// RouteToHedge uses the same price geometry; the caller opens the rungs on
// the opposite side (stops of the other direction).
func RouteToHedge(dir models.Direction, distance, offset, anchorBuy, anchorSell float64) (models.Direction, float64) {
	return routeAwayFromAnchor(dir, distance, offset, anchorBuy, anchorSell)
}

func routeAwayFromAnchor(dir models.Direction, distance, offset, anchorBuy, anchorSell float64) (models.Direction, float64) {
	if dir == models.DirectionSell {
		return models.DirectionSell, anchorSell + (distance + offset)
	}
	return models.DirectionBuy, anchorBuy - (distance + offset)
}

type LadderParams struct {
	Direction      models.Direction
	CoverageTicks  int
	TickSize       float64
	SpacingTicks   int
	AnchorBuy      float64
	AnchorSell     float64
	Seed           float64
	Symbol         string
	Magic          int64
	Offset         float64
	Model          Predictor
	MinVolumeDelta float64
	VolumeStep     float64
	Router         Router
}

var errLadderParams = errors.New("некорректные параметры сетки")

// BuildLadder walks the coverage tick by tick and emits a rung whenever the
// distance is on the spacing grid and the predicted cumulative volume moved
// by at least MinVolumeDelta since the previous rung.
func BuildLadder(p LadderParams) ([]BufferOrder, error) {
	if p.Model == nil || p.Router == nil || p.TickSize <= 0 || p.SpacingTicks <= 0 {
		return nil, errLadderParams
	}

	seed := p.Seed
	var out []BufferOrder
	for tick := 1; tick <= p.CoverageTicks; tick++ {
		if tick%p.SpacingTicks != 0 {
			continue
		}
		distance := float64(tick) * p.TickSize
		predicted := p.Model.Predict(distance)
		increment := math.Abs(seed - predicted)
		if increment < p.MinVolumeDelta {
			continue
		}

		seed = TruncateToStep(predicted, p.VolumeStep)
		volume := TruncateToStep(increment, p.VolumeStep)
		if volume <= 0 {
			continue
		}

		dir, price := p.Router(p.Direction, distance, p.Offset, p.AnchorBuy, p.AnchorSell)
		out = append(out, BufferOrder{
			Volume:    volume,
			Price:     RoundToStep(price, p.TickSize),
			Symbol:    p.Symbol,
			Magic:     p.Magic,
			Direction: dir,
		})
	}
	return out, nil
}

// PruneCovered drops every candidate whose nearest position sits closer than
// maxDistance with exactly the same volume. positions must be the ones the
// ladder orders would add to.
func PruneCovered(candidates []BufferOrder, positions []models.TradePosition, maxDistance float64) []BufferOrder {
	if len(positions) == 0 {
		return candidates
	}
	out := make([]BufferOrder, 0, len(candidates))
	for _, c := range candidates {
		nearest := -1
		best := math.Inf(1)
		for i, p := range positions {
			if d := math.Abs(c.Price - p.PriceOpen); d < best {
				best, nearest = d, i
			}
		}
		if nearest >= 0 && best < maxDistance && sameVolume(positions[nearest].Volume, c.Volume) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// CapVolume keeps rungs in ladder order until budget lots are used up.
func CapVolume(candidates []BufferOrder, budget float64) []BufferOrder {
	if math.IsInf(budget, 1) {
		return candidates
	}
	var used float64
	for i, c := range candidates {
		if used+c.Volume > budget+1e-9 {
			return candidates[:i]
		}
		used += c.Volume
	}
	return candidates
}
