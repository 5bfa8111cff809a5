package engine

import (
	"fmt"
	"time"

	"hedgebot/internal/config"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTrading
	PhaseCloseOrders
	PhaseClosePositions
)

func (p Phase) String() string {
	switch p {
	case PhaseTrading:
		return "trading"
	case PhaseCloseOrders:
		return "close_orders"
	case PhaseClosePositions:
		return "close_positions"
	}
	return "idle"
}

// Session is the DAY_TRADE window: trading from start, pending orders
// removed from closeOrders, positions closed from closePositions.
type Session struct {
	loc            *time.Location
	start          time.Duration
	closeOrders    time.Duration
	closePositions time.Duration
}

func NewSession(cfg config.TimeConfig) (*Session, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	start, err := parseClock(cfg.StartOperations)
	if err != nil {
		return nil, err
	}
	closeOrders, err := parseClock(cfg.CloseOrders)
	if err != nil {
		return nil, err
	}
	closePositions, err := parseClock(cfg.ClosePositions)
	if err != nil {
		return nil, err
	}
	if !(start < closeOrders && closeOrders <= closePositions) {
		return nil, fmt.Errorf("Некорректное окно сессии: %s - %s - %s", cfg.StartOperations, cfg.CloseOrders, cfg.ClosePositions)
	}
	return &Session{loc: loc, start: start, closeOrders: closeOrders, closePositions: closePositions}, nil
}

func (s *Session) Phase(now time.Time) Phase {
	local := now.In(s.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	offset := local.Sub(midnight)

	switch {
	case offset < s.start:
		return PhaseIdle
	case offset < s.closeOrders:
		return PhaseTrading
	case offset < s.closePositions:
		return PhaseCloseOrders
	default:
		return PhaseClosePositions
	}
}

func parseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("Некорректное время %q, ожидается ЧЧ:ММ: %w", value, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
