package strategy

import (
	"context"
	"errors"
	"time"

	"hedgebot/internal/config"
	"hedgebot/internal/logger"
	"hedgebot/internal/models"
)

type call struct {
	op     string
	ticket int64
	req    models.OrderRequest
	price  float64
	sl     float64
	tp     float64

	comment string
}

type recordingTrader struct {
	calls  []call
	failOn map[string]bool
}

var errGateway = errors.New("gateway down")

func (t *recordingTrader) record(c call) error {
	t.calls = append(t.calls, c)
	if t.failOn[c.op] {
		return errGateway
	}
	return nil
}

func (t *recordingTrader) Place(_ context.Context, req models.OrderRequest) error {
	return t.record(call{op: "place", req: req})
}

func (t *recordingTrader) ModifyOrder(_ context.Context, o models.TradeOrder, price, sl, tp float64) error {
	return t.record(call{op: "modify", ticket: o.Ticket, price: price, sl: sl, tp: tp, comment: o.Comment})
}

func (t *recordingTrader) DeleteOrder(_ context.Context, ticket int64) error {
	return t.record(call{op: "delete", ticket: ticket})
}

func (t *recordingTrader) ModifyPosition(_ context.Context, ticket int64, sl, tp float64) error {
	return t.record(call{op: "modify_position", ticket: ticket, sl: sl, tp: tp})
}

func (t *recordingTrader) ClosePosition(_ context.Context, p models.TradePosition) error {
	return t.record(call{op: "close", ticket: p.Ticket})
}

func (t *recordingTrader) ops(op string) []call {
	var out []call
	for _, c := range t.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func testLog() *logger.Logger {
	return logger.Discard()
}

const testMagic = 42

func testSettings(dir models.Direction) Settings {
	ladder := config.LadderConfig{
		Levels:                 9,
		InitialLots:            1,
		SmallerDistance:        10,
		MultiplyFactorBackward: 0.5,
		TicksForward:           50,
		TicksBackward:          100,
		IsActiveBackward:       true,
		IsActiveForward:        true,
	}
	hedge := ladder
	hedge.TicksOffset = 20
	return Settings{
		StrategyConfig: config.StrategyConfig{
			Globals: config.GlobalsConfig{
				Symbol:      "WIN",
				MagicNumber: testMagic,
				Direction:   dir,
				TradeMode:   models.TradeModeSwing,
			},
			Position: ladder,
			Hedge:    hedge,
			Manager: config.ManagerConfig{
				TickToOffsetCosts:   2,
				TickToReduceReentry: 10,
			},
		},
		Info: models.SymbolInfo{Name: "WIN", TickSize: 5, TickValue: 1, VolumeMin: 1, VolumeStep: 1},
	}
}

func order(ticket int64, t models.OrderType, price, volume float64) models.TradeOrder {
	return models.TradeOrder{
		Ticket:        ticket,
		Symbol:        "WIN",
		Type:          t,
		State:         models.OrderStatePlaced,
		PriceOpen:     price,
		VolumeInitial: volume,
		VolumeCurrent: volume,
		MagicNumber:   testMagic,
	}
}

func position(ticket int64, t models.PositionType, price, volume float64) models.TradePosition {
	return models.TradePosition{
		Ticket:      ticket,
		Identifier:  ticket,
		Symbol:      "WIN",
		Type:        t,
		PriceOpen:   price,
		Volume:      volume,
		MagicNumber: testMagic,
	}
}

var testNow = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

const minute = time.Minute
