package strategy

import (
	"context"

	"hedgebot/internal/models"

	"github.com/sirupsen/logrus"
)

type ReconcileInput struct {
	Candidates []BufferOrder
	Existing   []models.TradeOrder
	Tick       models.Tick
	Target     models.OrderType
	TickSize   float64
	// Comment produces the comment of newly placed orders; nil means none.
	Comment func() string
}

type ReconcileReport struct {
	Placed   int
	Modified int
	Kept     int
	Deleted  int
	Skipped  int
	Failed   int
}

func (r ReconcileReport) Calls() int {
	return r.Placed + r.Modified + r.Deleted
}

// Reconcile drives the resting orders of one type towards the candidate
// ladder. Gateway failures are logged and counted, never retried here.
func Reconcile(ctx context.Context, in ReconcileInput, trader Trader, log *logrus.Entry) ReconcileReport {
	var report ReconcileReport
	consumed := make(map[int]bool, len(in.Existing))

	for _, c := range in.Candidates {
		if crossed(in.Target, c.Price, in.Tick) {
			report.Skipped++
			continue
		}

		idx := matchExact(c, in.Existing, consumed, in.TickSize)
		if idx >= 0 {
			consumed[idx] = true
			o := in.Existing[idx]
			if samePrice(o.PriceOpen, c.Price, in.TickSize) && o.TakeProfit == 0 && o.StopLoss == 0 {
				report.Kept++
				continue
			}
			if err := trader.ModifyOrder(ctx, o, c.Price, 0, 0); err != nil {
				report.Failed++
				log.WithError(err).WithFields(map[string]interface{}{
					"ticket": o.Ticket,
					"price":  c.Price,
				}).Warn("Не удалось изменить ордер сетки.")
				continue
			}
			report.Modified++
			continue
		}

		req := models.OrderRequest{
			Type:   in.Target,
			Symbol: c.Symbol,
			Volume: c.Volume,
			Price:  c.Price,
			Magic:  c.Magic,
		}
		if in.Comment != nil {
			req.Comment = in.Comment()
		}
		if err := trader.Place(ctx, req); err != nil {
			report.Failed++
			log.WithError(err).WithFields(map[string]interface{}{
				"type":   in.Target.String(),
				"price":  c.Price,
				"volume": c.Volume,
			}).Warn("Не удалось выставить ордер сетки.")
			continue
		}
		report.Placed++
	}

	for i, o := range in.Existing {
		if consumed[i] {
			continue
		}
		if err := trader.DeleteOrder(ctx, o.Ticket); err != nil {
			report.Failed++
			log.WithError(err).WithField("ticket", o.Ticket).Warn("Не удалось удалить лишний ордер сетки.")
			continue
		}
		report.Deleted++
	}

	return report
}

// crossed reports whether a pending order of type t at price would execute
// immediately instead of resting in the book.
func crossed(t models.OrderType, price float64, tick models.Tick) bool {
	switch t {
	case models.OrderTypeBuyLimit:
		return price >= tick.Ask
	case models.OrderTypeBuyStop:
		return price <= tick.Ask
	case models.OrderTypeSellLimit:
		return price <= tick.Bid
	case models.OrderTypeSellStop:
		return price >= tick.Bid
	}
	return false
}

// matchExact returns the first unconsumed order with the candidate's price and
// volume, or -1.
func matchExact(c BufferOrder, orders []models.TradeOrder, consumed map[int]bool, tickSize float64) int {
	for i, o := range orders {
		if consumed[i] {
			continue
		}
		if sameVolume(o.VolumeCurrent, c.Volume) && samePrice(o.PriceOpen, c.Price, tickSize) {
			return i
		}
	}
	return -1
}
