package paper

import (
	"context"
	"math"
	"slices"
	"sync"
	"time"

	"hedgebot/internal/models"
)

// Terminal is an in-memory trading terminal. Pending orders fill and
// positions hit their targets when SetTick moves the quote across them. It
// serves the dry-run mode and end-to-end tests.
type Terminal struct {
	mu sync.Mutex

	info models.SymbolInfo
	tick models.Tick
	now  func() time.Time

	nextTicket int64
	nextDeal   int64

	pending   []models.TradeOrder
	positions []models.TradePosition
	history   []models.TradeOrder
	deals     []models.TradeDeal
}

func New(info models.SymbolInfo) *Terminal {
	return &Terminal{
		info:       info,
		now:        time.Now,
		nextTicket: 1000,
		nextDeal:   5000,
	}
}

// SetClock replaces the time source used to stamp orders and deals.
func (t *Terminal) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// SetTick publishes a new quote and executes everything it crosses.
func (t *Terminal) SetTick(tick models.Tick) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tick.Symbol == "" {
		tick.Symbol = t.info.Name
	}
	if tick.Time.IsZero() {
		tick.Time = t.now()
	}
	t.tick = tick
	t.fillPending()
	t.checkTargets()
}

// CancelPending cancels every pending order the way a broker does at the end
// of a session. It returns the number of canceled orders.
func (t *Terminal) CancelPending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.pending)
	for _, o := range t.pending {
		t.archive(o, models.OrderStateCanceled)
	}
	t.pending = nil
	return n
}

func (t *Terminal) GetTick(_ context.Context, symbol string) (models.Tick, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tick := t.tick
	tick.Symbol = symbol
	return tick, nil
}

func (t *Terminal) GetSymbolInfo(_ context.Context, symbol string) (models.SymbolInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	info := t.info
	if info.Name == "" {
		info.Name = symbol
	}
	return info, nil
}

func (t *Terminal) GetOrdersPending(_ context.Context, symbol string) ([]models.TradeOrder, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []models.TradeOrder
	for _, o := range t.pending {
		if o.Symbol == symbol {
			out = append(out, o)
		}
	}
	return out, nil
}

func (t *Terminal) GetPositionsOpen(_ context.Context, symbol string) ([]models.TradePosition, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []models.TradePosition
	for _, p := range t.positions {
		if p.Symbol == symbol {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *Terminal) GetDealsHistory(_ context.Context, from, to time.Time) ([]models.TradeDeal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []models.TradeDeal
	for _, d := range t.deals {
		if inRange(d.Time, from, to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (t *Terminal) GetOrdersHistory(_ context.Context, from, to time.Time) ([]models.TradeOrder, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []models.TradeOrder
	for _, o := range t.history {
		if inRange(o.TimeDone, from, to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (t *Terminal) SendOrder(_ context.Context, req models.TradeRequest) (models.TradeResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	res := t.execute(req)
	res.Bid, res.Ask = t.tick.Bid, t.tick.Ask
	if res.Comment == "" {
		res.Comment = res.RetCode.String()
	}
	return res, nil
}

func (t *Terminal) execute(req models.TradeRequest) models.TradeResult {
	switch req.Action {
	case models.TradeActionDeal:
		if req.Position != 0 {
			return t.closePosition(req)
		}
		return t.openMarket(req)
	case models.TradeActionPending:
		return t.placePending(req)
	case models.TradeActionModify:
		return t.modifyPending(req)
	case models.TradeActionRemove:
		return t.removePending(req)
	case models.TradeActionSLTP:
		return t.modifyPosition(req)
	}
	return models.TradeResult{RetCode: models.RetCodeInvalid}
}

func (t *Terminal) validVolume(v float64) bool {
	if v <= 0 || v < t.info.VolumeMin {
		return false
	}
	return t.info.VolumeMax <= 0 || v <= t.info.VolumeMax
}

func (t *Terminal) openMarket(req models.TradeRequest) models.TradeResult {
	if !req.Type.IsMarket() {
		return models.TradeResult{RetCode: models.RetCodeInvalidOrder}
	}
	if !t.validVolume(req.Volume) {
		return models.TradeResult{RetCode: models.RetCodeInvalidVolume}
	}
	price := t.marketPrice(req.Type.IsBuy())
	if price <= 0 {
		return models.TradeResult{RetCode: models.RetCodePriceOff}
	}

	o := t.newOrder(req)
	o.PriceOpen = price
	deal := t.open(o, price)
	return models.TradeResult{RetCode: models.RetCodeDone, Order: o.Ticket, Deal: deal.Ticket, Volume: o.VolumeInitial, Price: price}
}

func (t *Terminal) placePending(req models.TradeRequest) models.TradeResult {
	if !req.Type.IsPending() {
		return models.TradeResult{RetCode: models.RetCodeInvalidOrder}
	}
	if !t.validVolume(req.Volume) {
		return models.TradeResult{RetCode: models.RetCodeInvalidVolume}
	}
	if req.Price <= 0 || t.crosses(req.Type, req.Price) {
		return models.TradeResult{RetCode: models.RetCodeInvalidPrice}
	}

	o := t.newOrder(req)
	o.State = models.OrderStatePlaced
	t.pending = append(t.pending, o)
	return models.TradeResult{RetCode: models.RetCodePlaced, Order: o.Ticket, Volume: o.VolumeInitial, Price: o.PriceOpen}
}

func (t *Terminal) modifyPending(req models.TradeRequest) models.TradeResult {
	i := slices.IndexFunc(t.pending, func(o models.TradeOrder) bool { return o.Ticket == req.Order })
	if i < 0 {
		return models.TradeResult{RetCode: models.RetCodeInvalidOrder}
	}
	o := &t.pending[i]
	if o.PriceOpen == req.Price && o.StopLoss == req.StopLoss && o.TakeProfit == req.TakeProfit {
		return models.TradeResult{RetCode: models.RetCodeNoChanges, Order: o.Ticket}
	}
	if req.Price <= 0 || t.crosses(o.Type, req.Price) {
		return models.TradeResult{RetCode: models.RetCodeInvalidPrice, Order: o.Ticket}
	}
	o.PriceOpen, o.StopLoss, o.TakeProfit = req.Price, req.StopLoss, req.TakeProfit
	if req.Comment != "" {
		o.Comment = req.Comment
	}
	return models.TradeResult{RetCode: models.RetCodeDone, Order: o.Ticket, Price: o.PriceOpen}
}

func (t *Terminal) removePending(req models.TradeRequest) models.TradeResult {
	i := slices.IndexFunc(t.pending, func(o models.TradeOrder) bool { return o.Ticket == req.Order })
	if i < 0 {
		return models.TradeResult{RetCode: models.RetCodeInvalidOrder}
	}
	o := t.pending[i]
	t.pending = slices.Delete(t.pending, i, i+1)
	t.archive(o, models.OrderStateCanceled)
	return models.TradeResult{RetCode: models.RetCodeDone, Order: o.Ticket}
}

func (t *Terminal) modifyPosition(req models.TradeRequest) models.TradeResult {
	i := slices.IndexFunc(t.positions, func(p models.TradePosition) bool { return p.Ticket == req.Position })
	if i < 0 {
		return models.TradeResult{RetCode: models.RetCodePositionClosed}
	}
	p := &t.positions[i]
	if p.StopLoss == req.StopLoss && p.TakeProfit == req.TakeProfit {
		return models.TradeResult{RetCode: models.RetCodeNoChanges}
	}
	p.StopLoss, p.TakeProfit = req.StopLoss, req.TakeProfit
	return models.TradeResult{RetCode: models.RetCodeDone}
}

func (t *Terminal) closePosition(req models.TradeRequest) models.TradeResult {
	i := slices.IndexFunc(t.positions, func(p models.TradePosition) bool { return p.Ticket == req.Position })
	if i < 0 {
		return models.TradeResult{RetCode: models.RetCodePositionClosed}
	}
	p := t.positions[i]
	closeBuy := p.Type == models.PositionTypeSell
	if req.Type.IsBuy() != closeBuy || !req.Type.IsMarket() {
		return models.TradeResult{RetCode: models.RetCodeInvalidOrder}
	}
	price := t.marketPrice(closeBuy)
	if price <= 0 {
		return models.TradeResult{RetCode: models.RetCodePriceOff}
	}
	deal := t.close(i, price, models.DealReasonExpert)
	return models.TradeResult{RetCode: models.RetCodeDone, Deal: deal.Ticket, Volume: deal.Volume, Price: price}
}

func (t *Terminal) newOrder(req models.TradeRequest) models.TradeOrder {
	t.nextTicket++
	return models.TradeOrder{
		Ticket:        t.nextTicket,
		Symbol:        req.Symbol,
		Type:          req.Type,
		State:         models.OrderStateStarted,
		PriceOpen:     req.Price,
		VolumeInitial: req.Volume,
		VolumeCurrent: req.Volume,
		TakeProfit:    req.TakeProfit,
		StopLoss:      req.StopLoss,
		MagicNumber:   req.Magic,
		Comment:       req.Comment,
		TimeSetup:     t.now(),
	}
}

// open turns an executed order into a position and its entry deal.
func (t *Terminal) open(o models.TradeOrder, price float64) models.TradeDeal {
	now := t.now()
	typ, dealType := models.PositionTypeBuy, models.DealTypeBuy
	if !o.Type.IsBuy() {
		typ, dealType = models.PositionTypeSell, models.DealTypeSell
	}

	t.positions = append(t.positions, models.TradePosition{
		Ticket:      o.Ticket,
		Identifier:  o.Ticket,
		Symbol:      o.Symbol,
		Type:        typ,
		PriceOpen:   price,
		Volume:      o.VolumeInitial,
		TakeProfit:  o.TakeProfit,
		StopLoss:    o.StopLoss,
		MagicNumber: o.MagicNumber,
		Comment:     o.Comment,
		Time:        now,
	})

	o.VolumeCurrent = 0
	t.archive(o, models.OrderStateFilled)
	return t.addDeal(models.TradeDeal{
		Order:       o.Ticket,
		PositionID:  o.Ticket,
		Symbol:      o.Symbol,
		Type:        dealType,
		Entry:       models.DealEntryIn,
		Reason:      models.DealReasonExpert,
		Volume:      o.VolumeInitial,
		Price:       price,
		MagicNumber: o.MagicNumber,
		Comment:     o.Comment,
		Time:        now,
	})
}

// close removes position i and books the exit deal with its profit.
func (t *Terminal) close(i int, price float64, reason models.DealReason) models.TradeDeal {
	p := t.positions[i]
	t.positions = slices.Delete(t.positions, i, i+1)

	dealType := models.DealTypeSell
	move := price - p.PriceOpen
	if p.Type == models.PositionTypeSell {
		dealType = models.DealTypeBuy
		move = -move
	}
	profit := move * p.Volume
	if t.info.TickSize > 0 && t.info.TickValue > 0 {
		profit = move / t.info.TickSize * t.info.TickValue * p.Volume
	}

	return t.addDeal(models.TradeDeal{
		PositionID:  p.Identifier,
		Symbol:      p.Symbol,
		Type:        dealType,
		Entry:       models.DealEntryOut,
		Reason:      reason,
		Volume:      p.Volume,
		Price:       price,
		Profit:      math.Round(profit*100) / 100,
		MagicNumber: p.MagicNumber,
		Comment:     p.Comment,
		Time:        t.now(),
	})
}

func (t *Terminal) addDeal(d models.TradeDeal) models.TradeDeal {
	t.nextDeal++
	d.Ticket = t.nextDeal
	t.deals = append(t.deals, d)
	return d
}

func (t *Terminal) archive(o models.TradeOrder, state models.OrderState) {
	o.State = state
	o.TimeDone = t.now()
	t.history = append(t.history, o)
}

func (t *Terminal) fillPending() {
	kept := t.pending[:0]
	var filled []models.TradeOrder
	for _, o := range t.pending {
		if t.triggered(o) {
			filled = append(filled, o)
			continue
		}
		kept = append(kept, o)
	}
	t.pending = kept

	for _, o := range filled {
		price := o.PriceOpen
		if o.Type == models.OrderTypeBuyStop || o.Type == models.OrderTypeSellStop {
			price = t.marketPrice(o.Type.IsBuy())
		}
		t.open(o, price)
	}
}

func (t *Terminal) checkTargets() {
	for i := 0; i < len(t.positions); {
		p := t.positions[i]
		buy := p.Type == models.PositionTypeBuy
		exit := t.marketPrice(!buy)

		switch {
		case p.TakeProfit > 0 && ((buy && exit >= p.TakeProfit) || (!buy && exit <= p.TakeProfit)):
			t.close(i, p.TakeProfit, models.DealReasonTP)
		case p.StopLoss > 0 && ((buy && exit <= p.StopLoss) || (!buy && exit >= p.StopLoss)):
			t.close(i, p.StopLoss, models.DealReasonSL)
		default:
			i++
		}
	}
}

func (t *Terminal) triggered(o models.TradeOrder) bool {
	switch o.Type {
	case models.OrderTypeBuyLimit:
		return t.tick.Ask <= o.PriceOpen
	case models.OrderTypeBuyStop:
		return t.tick.Ask >= o.PriceOpen
	case models.OrderTypeSellLimit:
		return t.tick.Bid >= o.PriceOpen
	case models.OrderTypeSellStop:
		return t.tick.Bid <= o.PriceOpen
	}
	return false
}

// crosses reports whether a new pending order would trigger right away.
func (t *Terminal) crosses(typ models.OrderType, price float64) bool {
	if t.tick.Bid <= 0 || t.tick.Ask <= 0 {
		return false
	}
	switch typ {
	case models.OrderTypeBuyLimit:
		return price >= t.tick.Ask
	case models.OrderTypeBuyStop:
		return price <= t.tick.Ask
	case models.OrderTypeSellLimit:
		return price <= t.tick.Bid
	case models.OrderTypeSellStop:
		return price >= t.tick.Bid
	}
	return false
}

func (t *Terminal) marketPrice(buy bool) float64 {
	if buy {
		return t.tick.Ask
	}
	return t.tick.Bid
}

func inRange(ts, from, to time.Time) bool {
	if !from.IsZero() && ts.Before(from) {
		return false
	}
	return to.IsZero() || !ts.After(to)
}
