package models

import "time"

type OrderType int
type OrderState int
type PositionType int
type DealType int
type DealEntry int
type DealReason int
type TradeAction int
type Direction string
type TradeMode string

const (
	OrderTypeBuy OrderType = iota
	OrderTypeSell
	OrderTypeBuyLimit
	OrderTypeSellLimit
	OrderTypeBuyStop
	OrderTypeSellStop
	OrderTypeBuyStopLimit
	OrderTypeSellStopLimit
	OrderTypeCloseBy
)

const (
	OrderStateStarted OrderState = iota
	OrderStatePlaced
	OrderStateCanceled
	OrderStatePartial
	OrderStateFilled
	OrderStateRejected
	OrderStateExpired
	OrderStateRequestAdd
	OrderStateRequestModify
	OrderStateRequestCancel
)

const (
	PositionTypeBuy PositionType = iota
	PositionTypeSell
)

const (
	DealTypeBuy DealType = iota
	DealTypeSell
	DealTypeBalance
)

const (
	DealEntryIn DealEntry = iota
	DealEntryOut
	DealEntryInOut
	DealEntryOutBy
)

const (
	DealReasonClient DealReason = iota
	DealReasonMobile
	DealReasonWeb
	DealReasonExpert
	DealReasonSL
	DealReasonTP
	DealReasonSO
	DealReasonRollover
	DealReasonVMargin
	DealReasonSplit
)

const (
	TradeActionDeal    TradeAction = 1
	TradeActionPending TradeAction = 5
	TradeActionSLTP    TradeAction = 6
	TradeActionModify  TradeAction = 7
	TradeActionRemove  TradeAction = 8
	TradeActionCloseBy TradeAction = 10
)

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionNone Direction = "WITHOUT_DIRECTION"

	TradeModeDay   TradeMode = "DAY_TRADE"
	TradeModeSwing TradeMode = "SWING_TRADE"
)

var orderTypeNames = map[OrderType]string{
	OrderTypeBuy:           "BUY",
	OrderTypeSell:          "SELL",
	OrderTypeBuyLimit:      "BUY_LIMIT",
	OrderTypeSellLimit:     "SELL_LIMIT",
	OrderTypeBuyStop:       "BUY_STOP",
	OrderTypeSellStop:      "SELL_STOP",
	OrderTypeBuyStopLimit:  "BUY_STOP_LIMIT",
	OrderTypeSellStopLimit: "SELL_STOP_LIMIT",
	OrderTypeCloseBy:       "CLOSE_BY",
}

func (t OrderType) String() string {
	if name, ok := orderTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

func (t OrderType) IsMarket() bool {
	return t == OrderTypeBuy || t == OrderTypeSell
}

func (t OrderType) IsPending() bool {
	switch t {
	case OrderTypeBuyLimit, OrderTypeSellLimit, OrderTypeBuyStop, OrderTypeSellStop:
		return true
	}
	return false
}

func (t OrderType) IsBuy() bool {
	return t == OrderTypeBuy || t == OrderTypeBuyLimit || t == OrderTypeBuyStop || t == OrderTypeBuyStopLimit
}

func (t PositionType) String() string {
	if t == PositionTypeSell {
		return "SELL"
	}
	return "BUY"
}

type Tick struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Bid    float64   `json:"bid"`
	Ask    float64   `json:"ask"`
	Last   float64   `json:"last"`
	Volume float64   `json:"volume"`
}

type SymbolInfo struct {
	Name       string  `json:"name"`
	TickSize   float64 `json:"trade_tick_size"`
	TickValue  float64 `json:"trade_tick_value"`
	VolumeMin  float64 `json:"volume_min"`
	VolumeMax  float64 `json:"volume_max"`
	VolumeStep float64 `json:"volume_step"`
	Digits     int     `json:"digits"`
}

type TradeOrder struct {
	Ticket        int64      `json:"ticket"`
	Symbol        string     `json:"symbol"`
	Type          OrderType  `json:"type"`
	State         OrderState `json:"state"`
	PriceOpen     float64    `json:"price_open"`
	VolumeInitial float64    `json:"volume_initial"`
	VolumeCurrent float64    `json:"volume_current"`
	TakeProfit    float64    `json:"tp"`
	StopLoss      float64    `json:"sl"`
	MagicNumber   int64      `json:"magic"`
	Comment       string     `json:"comment"`
	TimeSetup     time.Time  `json:"time_setup"`
	TimeDone      time.Time  `json:"time_done"`
}

func (o TradeOrder) Magic() int64 { return o.MagicNumber }

type TradePosition struct {
	Ticket      int64        `json:"ticket"`
	Identifier  int64        `json:"identifier"`
	Symbol      string       `json:"symbol"`
	Type        PositionType `json:"type"`
	PriceOpen   float64      `json:"price_open"`
	Volume      float64      `json:"volume"`
	TakeProfit  float64      `json:"tp"`
	StopLoss    float64      `json:"sl"`
	MagicNumber int64        `json:"magic"`
	Comment     string       `json:"comment"`
	Time        time.Time    `json:"time"`
}

func (p TradePosition) Magic() int64 { return p.MagicNumber }

type TradeDeal struct {
	Ticket      int64      `json:"ticket"`
	Order       int64      `json:"order"`
	PositionID  int64      `json:"position_id"`
	Symbol      string     `json:"symbol"`
	Type        DealType   `json:"type"`
	Entry       DealEntry  `json:"entry"`
	Reason      DealReason `json:"reason"`
	Volume      float64    `json:"volume"`
	Price       float64    `json:"price"`
	Profit      float64    `json:"profit"`
	MagicNumber int64      `json:"magic"`
	Comment     string     `json:"comment"`
	Time        time.Time  `json:"time"`
}

func (d TradeDeal) Magic() int64 { return d.MagicNumber }

type TradeRequest struct {
	Action     TradeAction `json:"action"`
	Symbol     string      `json:"symbol"`
	Type       OrderType   `json:"type"`
	Volume     float64     `json:"volume"`
	Price      float64     `json:"price"`
	StopLoss   float64     `json:"sl"`
	TakeProfit float64     `json:"tp"`
	Order      int64       `json:"order"`
	Position   int64       `json:"position"`
	Magic      int64       `json:"magic"`
	Comment    string      `json:"comment"`
}

type TradeResult struct {
	RetCode RetCode `json:"retcode"`
	Deal    int64   `json:"deal"`
	Order   int64   `json:"order"`
	Volume  float64 `json:"volume"`
	Price   float64 `json:"price"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	Comment string  `json:"comment"`
}

// OrderRequest describes a new market or pending order.
type OrderRequest struct {
	Type       OrderType `json:"type"`
	Symbol     string    `json:"symbol"`
	Volume     float64   `json:"volume"`
	Price      float64   `json:"price"`
	StopLoss   float64   `json:"sl"`
	TakeProfit float64   `json:"tp"`
	Magic      int64     `json:"magic"`
	Comment    string    `json:"comment"`
}
