package strategy

import "hedgebot/internal/models"

type OrdersByType struct {
	BuyLimit  []models.TradeOrder
	BuyStop   []models.TradeOrder
	SellLimit []models.TradeOrder
	SellStop  []models.TradeOrder
}

type PositionsByType struct {
	Buy  []models.TradePosition
	Sell []models.TradePosition
}

// Tagged is anything carrying a strategy magic number.
type Tagged interface {
	Magic() int64
}

// ClassifyOrders splits pending orders into the four ladder buckets keeping
// their relative order. Market and stop-limit types land in no bucket.
func ClassifyOrders(orders []models.TradeOrder) OrdersByType {
	var out OrdersByType
	for _, o := range orders {
		switch o.Type {
		case models.OrderTypeBuyLimit:
			out.BuyLimit = append(out.BuyLimit, o)
		case models.OrderTypeBuyStop:
			out.BuyStop = append(out.BuyStop, o)
		case models.OrderTypeSellLimit:
			out.SellLimit = append(out.SellLimit, o)
		case models.OrderTypeSellStop:
			out.SellStop = append(out.SellStop, o)
		}
	}
	return out
}

func (o OrdersByType) ByType(t models.OrderType) []models.TradeOrder {
	switch t {
	case models.OrderTypeBuyLimit:
		return o.BuyLimit
	case models.OrderTypeBuyStop:
		return o.BuyStop
	case models.OrderTypeSellLimit:
		return o.SellLimit
	case models.OrderTypeSellStop:
		return o.SellStop
	}
	return nil
}

func ClassifyPositions(positions []models.TradePosition) PositionsByType {
	var out PositionsByType
	for _, p := range positions {
		if p.Type == models.PositionTypeSell {
			out.Sell = append(out.Sell, p)
			continue
		}
		out.Buy = append(out.Buy, p)
	}
	return out
}

func (p PositionsByType) ByType(t models.PositionType) []models.TradePosition {
	if t == models.PositionTypeSell {
		return p.Sell
	}
	return p.Buy
}

func FilterByMagic[T Tagged](items []T, magic int64) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.Magic() == magic {
			out = append(out, item)
		}
	}
	return out
}

func ExistsAny[T Tagged](items []T, magic int64) bool {
	for _, item := range items {
		if item.Magic() == magic {
			return true
		}
	}
	return false
}

func totalVolume(positions []models.TradePosition) float64 {
	var sum float64
	for _, p := range positions {
		sum += p.Volume
	}
	return sum
}

func totalOrderVolume(orders []models.TradeOrder) float64 {
	var sum float64
	for _, o := range orders {
		sum += o.VolumeCurrent
	}
	return sum
}
