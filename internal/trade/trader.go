package trade

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hedgebot/internal/journal"
	"hedgebot/internal/logger"
	"hedgebot/internal/models"
	"hedgebot/internal/terminal"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Recorder interface {
	Record(ctx context.Context, t journal.Transaction) error
}

type Observer interface {
	ObserveRequest(action, result string)
}

// Trader routes strategy requests to the terminal: it validates and
// normalizes them, respects the request rate limit and turns return codes
// into errors.
type Trader struct {
	client  terminal.Client
	limiter *rate.Limiter
	log     *logger.Logger

	journal Recorder
	metrics Observer

	mu   sync.RWMutex
	info models.SymbolInfo
}

// NewLimiter allows limit requests per window with bursts up to limit.
func NewLimiter(limit int, window time.Duration) *rate.Limiter {
	if limit <= 0 || window <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
}

func New(client terminal.Client, limiter *rate.Limiter, log *logger.Logger) *Trader {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Trader{client: client, limiter: limiter, log: log}
}

func (t *Trader) WithJournal(r Recorder) *Trader {
	t.journal = r
	return t
}

func (t *Trader) WithMetrics(o Observer) *Trader {
	t.metrics = o
	return t
}

// SetSymbolInfo sets the tick size and volume step used for normalization.
func (t *Trader) SetSymbolInfo(info models.SymbolInfo) {
	t.mu.Lock()
	t.info = info
	t.mu.Unlock()
}

func (t *Trader) symbolInfo() models.SymbolInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.info
}

func (t *Trader) Place(ctx context.Context, req models.OrderRequest) error {
	info := t.symbolInfo()
	volume := normalizeVolume(req.Volume, info.VolumeStep)
	if volume <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidVolume, req.Volume)
	}

	tr := models.TradeRequest{
		Symbol:     req.Symbol,
		Type:       req.Type,
		Volume:     volume,
		StopLoss:   normalizePrice(req.StopLoss, info.TickSize),
		TakeProfit: normalizePrice(req.TakeProfit, info.TickSize),
		Magic:      req.Magic,
		Comment:    req.Comment,
	}
	switch {
	case req.Type.IsMarket():
		tr.Action = models.TradeActionDeal
	case req.Type.IsPending():
		if req.Price <= 0 {
			return fmt.Errorf("%w: %v", ErrInvalidPrice, req.Price)
		}
		tr.Action = models.TradeActionPending
		tr.Price = normalizePrice(req.Price, info.TickSize)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, req.Type)
	}

	_, err := t.send(ctx, "place", tr)
	return err
}

// ModifyOrder moves a pending order and keeps its symbol, comment and magic.
func (t *Trader) ModifyOrder(ctx context.Context, order models.TradeOrder, price, stopLoss, takeProfit float64) error {
	if price <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	info := t.symbolInfo()
	symbol := order.Symbol
	if symbol == "" {
		symbol = info.Name
	}
	_, err := t.send(ctx, "modify", models.TradeRequest{
		Action:     models.TradeActionModify,
		Symbol:     symbol,
		Type:       order.Type,
		Order:      order.Ticket,
		Volume:     order.VolumeCurrent,
		Price:      normalizePrice(price, info.TickSize),
		StopLoss:   normalizePrice(stopLoss, info.TickSize),
		TakeProfit: normalizePrice(takeProfit, info.TickSize),
		Magic:      order.MagicNumber,
		Comment:    order.Comment,
	})
	return err
}

func (t *Trader) DeleteOrder(ctx context.Context, ticket int64) error {
	_, err := t.send(ctx, "delete", models.TradeRequest{
		Action: models.TradeActionRemove,
		Order:  ticket,
	})
	return err
}

func (t *Trader) ModifyPosition(ctx context.Context, ticket int64, stopLoss, takeProfit float64) error {
	info := t.symbolInfo()
	_, err := t.send(ctx, "modify_position", models.TradeRequest{
		Action:     models.TradeActionSLTP,
		Symbol:     info.Name,
		Position:   ticket,
		StopLoss:   normalizePrice(stopLoss, info.TickSize),
		TakeProfit: normalizePrice(takeProfit, info.TickSize),
	})
	return err
}

// ClosePosition sends an opposite market deal for the full position volume.
func (t *Trader) ClosePosition(ctx context.Context, p models.TradePosition) error {
	if p.Volume <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidVolume, p.Volume)
	}
	typ := models.OrderTypeSell
	if p.Type == models.PositionTypeSell {
		typ = models.OrderTypeBuy
	}
	_, err := t.send(ctx, "close", models.TradeRequest{
		Action:   models.TradeActionDeal,
		Symbol:   p.Symbol,
		Type:     typ,
		Volume:   p.Volume,
		Position: p.Ticket,
		Magic:    p.MagicNumber,
	})
	return err
}

func (t *Trader) send(ctx context.Context, action string, req models.TradeRequest) (models.TradeResult, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return models.TradeResult{}, err
	}

	res, err := t.client.SendOrder(ctx, req)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
		err = fmt.Errorf("Ошибка отправки запроса %s: %w", action, err)
	case !res.RetCode.IsSuccess():
		outcome = "rejected"
		err = &RejectedError{Code: res.RetCode, Comment: res.Comment}
	}

	t.record(ctx, action, req, res, err)
	if t.metrics != nil {
		t.metrics.ObserveRequest(action, outcome)
	}

	entry := t.logEntry().WithFields(map[string]interface{}{
		"action":  action,
		"type":    req.Type.String(),
		"order":   req.Order,
		"ticket":  ticketOf(req, res),
		"volume":  req.Volume,
		"price":   req.Price,
		"retcode": int(res.RetCode),
	})
	if err != nil {
		entry.WithError(err).Warn("Запрос к терминалу не выполнен.")
		return res, err
	}
	entry.Debug("Запрос к терминалу выполнен.")
	return res, nil
}

func (t *Trader) record(ctx context.Context, action string, req models.TradeRequest, res models.TradeResult, sendErr error) {
	if t.journal == nil {
		return
	}
	tx := journal.Transaction{
		Action:  action,
		Ticket:  ticketOf(req, res),
		Symbol:  req.Symbol,
		Type:    req.Type.String(),
		Volume:  req.Volume,
		Price:   req.Price,
		SL:      req.StopLoss,
		TP:      req.TakeProfit,
		RetCode: int(res.RetCode),
		Comment: req.Comment,
	}
	if sendErr != nil {
		tx.Error = sendErr.Error()
	}
	if err := t.journal.Record(ctx, tx); err != nil {
		t.logEntry().WithError(err).Warn("Не удалось записать транзакцию в журнал.")
	}
}

func ticketOf(req models.TradeRequest, res models.TradeResult) int64 {
	switch {
	case res.Order != 0:
		return res.Order
	case req.Order != 0:
		return req.Order
	}
	return req.Position
}

func (t *Trader) logEntry() *logrus.Entry {
	return t.log.WithComponent("trade")
}
