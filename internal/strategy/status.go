package strategy

import (
	"time"

	"hedgebot/internal/models"
)

type Status int

const (
	StatusNone Status = iota
	StatusEnterTheMarket
	StatusRemoveOrders
	StatusPlaceOrdersToBackward
	StatusPlaceOrdersToForward
	StatusVerifyUpdate
)

var statusNames = map[Status]string{
	StatusNone:                  "NONE",
	StatusEnterTheMarket:        "ENTER_THE_MARKET",
	StatusRemoveOrders:          "REMOVE_ORDERS",
	StatusPlaceOrdersToBackward: "PLACE_ORDERS_TO_BACKWARD",
	StatusPlaceOrdersToForward:  "PLACE_ORDERS_TO_FORWARD",
	StatusVerifyUpdate:          "VERIFY_UPDATE_ON_ORDERS_AND_POSITIONS",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

type Counts struct {
	Positions        int `json:"positions"`
	Hedge            int `json:"hedge"`
	PositionBackward int `json:"position_backward"`
	PositionForward  int `json:"position_forward"`
	HedgeBackward    int `json:"hedge_backward"`
	HedgeForward     int `json:"hedge_forward"`
}

type Updated struct {
	Positions        bool `json:"positions"`
	Hedge            bool `json:"hedge"`
	PositionBackward bool `json:"position_backward"`
	PositionForward  bool `json:"position_forward"`
	HedgeBackward    bool `json:"hedge_backward"`
	HedgeForward     bool `json:"hedge_forward"`
}

func (u Updated) Any() bool {
	return u.Positions || u.Hedge || u.PositionBackward || u.PositionForward || u.HedgeBackward || u.HedgeForward
}

type Snapshot struct {
	PositionStatus Status    `json:"position_status"`
	HedgeStatus    Status    `json:"hedge_status"`
	Counts         Counts    `json:"counts"`
	Updated        Updated   `json:"updated"`
	CheckedAt      time.Time `json:"checked_at"`

	PositionMovedAt time.Time `json:"position_moved_at"`
	HedgeMovedAt    time.Time `json:"hedge_moved_at"`
}

// Roles maps the broker-side order types and position types to the ladder
// roles of one trade direction.
type Roles struct {
	Position         models.PositionType
	Hedge            models.PositionType
	PositionBackward models.OrderType
	PositionForward  models.OrderType
	HedgeBackward    models.OrderType
	HedgeForward     models.OrderType
}

func RolesFor(dir models.Direction) Roles {
	if dir == models.DirectionSell {
		return Roles{
			Position:         models.PositionTypeSell,
			Hedge:            models.PositionTypeBuy,
			PositionBackward: models.OrderTypeSellLimit,
			PositionForward:  models.OrderTypeSellStop,
			HedgeBackward:    models.OrderTypeBuyStop,
			HedgeForward:     models.OrderTypeBuyLimit,
		}
	}
	return Roles{
		Position:         models.PositionTypeBuy,
		Hedge:            models.PositionTypeSell,
		PositionBackward: models.OrderTypeBuyLimit,
		PositionForward:  models.OrderTypeBuyStop,
		HedgeBackward:    models.OrderTypeSellStop,
		HedgeForward:     models.OrderTypeSellLimit,
	}
}

func CountFor(dir models.Direction, orders []models.TradeOrder, positions []models.TradePosition) Counts {
	roles := RolesFor(dir)
	o := ClassifyOrders(orders)
	p := ClassifyPositions(positions)
	return Counts{
		Positions:        len(p.ByType(roles.Position)),
		Hedge:            len(p.ByType(roles.Hedge)),
		PositionBackward: len(o.ByType(roles.PositionBackward)),
		PositionForward:  len(o.ByType(roles.PositionForward)),
		HedgeBackward:    len(o.ByType(roles.HedgeBackward)),
		HedgeForward:     len(o.ByType(roles.HedgeForward)),
	}
}

// Evaluate derives the next snapshot from live broker state. prev is only
// used for the Updated flags.
func Evaluate(prev Snapshot, dir models.Direction, orders []models.TradeOrder, positions []models.TradePosition, now time.Time) Snapshot {
	c := CountFor(dir, orders, positions)
	return Snapshot{
		PositionStatus: PositionStatus(c.Positions, c.PositionBackward, c.PositionForward),
		HedgeStatus:    HedgeStatus(c.Positions, c.Hedge, c.HedgeBackward, c.HedgeForward),
		Counts:         c,
		Updated: Updated{
			Positions:        prev.Counts.Positions != c.Positions,
			Hedge:            prev.Counts.Hedge != c.Hedge,
			PositionBackward: prev.Counts.PositionBackward != c.PositionBackward,
			PositionForward:  prev.Counts.PositionForward != c.PositionForward,
			HedgeBackward:    prev.Counts.HedgeBackward != c.HedgeBackward,
			HedgeForward:     prev.Counts.HedgeForward != c.HedgeForward,
		},
		CheckedAt:       now,
		PositionMovedAt: prev.PositionMovedAt,
		HedgeMovedAt:    prev.HedgeMovedAt,
	}
}

func PositionStatus(positions, backward, forward int) Status {
	switch {
	case positions == 0 && backward == 0 && forward == 0:
		return StatusEnterTheMarket
	case positions == 0:
		return StatusRemoveOrders
	case backward == 0:
		return StatusPlaceOrdersToBackward
	case forward == 0:
		return StatusPlaceOrdersToForward
	default:
		return StatusVerifyUpdate
	}
}

func HedgeStatus(positions, hedge, backward, forward int) Status {
	active := positions > 0 || hedge > 0
	switch {
	case !active && (backward > 0 || forward > 0):
		return StatusRemoveOrders
	case !active:
		return StatusNone
	case backward == 0:
		return StatusPlaceOrdersToBackward
	case forward == 0:
		return StatusPlaceOrdersToForward
	default:
		return StatusVerifyUpdate
	}
}
