package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hedgebot/internal/logger"
	"hedgebot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(w http.ResponseWriter, result any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"retCode": 0, "retMsg": "OK", "result": result, "time": 1})
}

func newServer(t *testing.T, mux *http.ServeMux) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, New(srv.URL, "key", "secret", time.Second, logger.Discard())
}

func TestSignedRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/order/send", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ts := r.Header.Get("X-BRIDGE-TIMESTAMP")
		want := sign("secret", ts+"key"+recvWindow+string(body))

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key", r.Header.Get("X-BRIDGE-API-KEY"))
		assert.Equal(t, want, r.Header.Get("X-BRIDGE-SIGN"))

		var req models.TradeRequest
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, models.TradeActionPending, req.Action)
		envelope(w, models.TradeResult{RetCode: models.RetCodePlaced, Order: 77})
	})
	_, c := newServer(t, mux)

	res, err := c.SendOrder(context.Background(), models.TradeRequest{Action: models.TradeActionPending, Type: models.OrderTypeBuyLimit, Volume: 1, Price: 9900})
	require.NoError(t, err)
	assert.Equal(t, models.RetCodePlaced, res.RetCode)
	assert.Equal(t, int64(77), res.Order)
}

func TestListEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "WIN", r.URL.Query().Get("symbol"))
		envelope(w, map[string]any{"list": []models.TradeOrder{{Ticket: 1, Type: models.OrderTypeBuyLimit, PriceOpen: 9900}}})
	})
	mux.HandleFunc("/v1/positions", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, map[string]any{"list": []models.TradePosition{{Ticket: 2, Type: models.PositionTypeSell}}})
	})
	mux.HandleFunc("/v1/history/deals", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1700000000000", r.URL.Query().Get("from"))
		envelope(w, map[string]any{"list": []models.TradeDeal{{Ticket: 3, Reason: models.DealReasonTP}}})
	})
	mux.HandleFunc("/v1/history/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("to"))
		envelope(w, map[string]any{"list": []models.TradeOrder{{Ticket: 4, State: models.OrderStateCanceled}}})
	})
	_, c := newServer(t, mux)
	ctx := context.Background()

	orders, err := c.GetOrdersPending(ctx, "WIN")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 9900.0, orders[0].PriceOpen)

	positions, err := c.GetPositionsOpen(ctx, "WIN")
	require.NoError(t, err)
	assert.Equal(t, models.PositionTypeSell, positions[0].Type)

	deals, err := c.GetDealsHistory(ctx, time.UnixMilli(1700000000000), time.UnixMilli(1700000060000))
	require.NoError(t, err)
	assert.Equal(t, models.DealReasonTP, deals[0].Reason)

	history, err := c.GetOrdersHistory(ctx, time.UnixMilli(1), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStateCanceled, history[0].State)
}

func TestEnvelopeErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/market/symbol", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"retCode": 404, "retMsg": "symbol not found"})
	})
	mux.HandleFunc("/v1/positions", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})
	mux.HandleFunc("/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, c := newServer(t, mux)
	ctx := context.Background()

	_, err := c.GetSymbolInfo(ctx, "XXX")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol not found")

	_, err = c.GetPositionsOpen(ctx, "WIN")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	_, err = c.GetOrdersPending(ctx, "WIN")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSymbolInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/market/symbol", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, models.SymbolInfo{Name: "WIN", TickSize: 5, TickValue: 1, VolumeMin: 1, VolumeStep: 1})
	})
	_, c := newServer(t, mux)

	info, err := c.GetSymbolInfo(context.Background(), "WIN")
	require.NoError(t, err)
	assert.Equal(t, 5.0, info.TickSize)
}

type staticTicks map[string]models.Tick

func (s staticTicks) LastTick(symbol string) (models.Tick, bool) {
	t, ok := s[symbol]
	return t, ok
}

func TestGetTickPrefersFreshStreamQuote(t *testing.T) {
	var restCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/market/tick", func(w http.ResponseWriter, r *http.Request) {
		restCalls.Add(1)
		envelope(w, models.Tick{Symbol: "WIN", Bid: 1, Ask: 2})
	})
	_, c := newServer(t, mux)

	ticks := staticTicks{
		"WIN": {Symbol: "WIN", Bid: 10000, Ask: 10005, Time: time.Now()},
		"WDO": {Symbol: "WDO", Bid: 5000, Ask: 5001, Time: time.Now().Add(-time.Minute)},
	}
	c.WithTicks(ticks, time.Second)

	tick, err := c.GetTick(context.Background(), "WIN")
	require.NoError(t, err)
	assert.Equal(t, 10000.0, tick.Bid)
	assert.Zero(t, restCalls.Load())

	tick, err = c.GetTick(context.Background(), "WDO")
	require.NoError(t, err)
	assert.Equal(t, 1.0, tick.Bid)
	assert.Equal(t, int32(1), restCalls.Load())
}
