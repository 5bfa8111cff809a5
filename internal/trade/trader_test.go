package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"hedgebot/internal/journal"
	"hedgebot/internal/logger"
	"hedgebot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeClient struct {
	requests []models.TradeRequest
	result   models.TradeResult
	err      error
}

func (f *fakeClient) GetTick(context.Context, string) (models.Tick, error) {
	return models.Tick{}, nil
}

func (f *fakeClient) GetSymbolInfo(context.Context, string) (models.SymbolInfo, error) {
	return models.SymbolInfo{}, nil
}

func (f *fakeClient) GetOrdersPending(context.Context, string) ([]models.TradeOrder, error) {
	return nil, nil
}

func (f *fakeClient) GetPositionsOpen(context.Context, string) ([]models.TradePosition, error) {
	return nil, nil
}

func (f *fakeClient) GetDealsHistory(context.Context, time.Time, time.Time) ([]models.TradeDeal, error) {
	return nil, nil
}

func (f *fakeClient) GetOrdersHistory(context.Context, time.Time, time.Time) ([]models.TradeOrder, error) {
	return nil, nil
}

func (f *fakeClient) SendOrder(_ context.Context, req models.TradeRequest) (models.TradeResult, error) {
	f.requests = append(f.requests, req)
	return f.result, f.err
}

type memJournal struct {
	records []journal.Transaction
}

func (m *memJournal) Record(_ context.Context, t journal.Transaction) error {
	m.records = append(m.records, t)
	return nil
}

type countingObserver map[string]int

func (c countingObserver) ObserveRequest(action, result string) {
	c[action+"/"+result]++
}

var winInfo = models.SymbolInfo{Name: "WIN", TickSize: 5, VolumeMin: 1, VolumeStep: 1}

func newTrader(client *fakeClient) *Trader {
	tr := New(client, nil, logger.Discard())
	tr.SetSymbolInfo(winInfo)
	return tr
}

func TestPlaceNormalizesPendingOrder(t *testing.T) {
	client := &fakeClient{result: models.TradeResult{RetCode: models.RetCodeDone, Order: 55}}
	tr := newTrader(client)

	err := tr.Place(context.Background(), models.OrderRequest{
		Type: models.OrderTypeBuyLimit, Symbol: "WIN", Volume: 2.7, Price: 9902, TakeProfit: 10013, Magic: 42, Comment: "F",
	})
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, models.TradeActionPending, req.Action)
	assert.Equal(t, 2.0, req.Volume)
	assert.Equal(t, 9900.0, req.Price)
	assert.Equal(t, 10015.0, req.TakeProfit)
	assert.Equal(t, int64(42), req.Magic)
	assert.Equal(t, "F", req.Comment)
}

func TestPlaceMarketUsesDealAction(t *testing.T) {
	client := &fakeClient{result: models.TradeResult{RetCode: models.RetCodeDone}}
	tr := newTrader(client)

	require.NoError(t, tr.Place(context.Background(), models.OrderRequest{Type: models.OrderTypeSell, Symbol: "WIN", Volume: 1}))
	assert.Equal(t, models.TradeActionDeal, client.requests[0].Action)
	assert.Zero(t, client.requests[0].Price)
}

func TestPlaceValidation(t *testing.T) {
	cases := map[string]struct {
		req  models.OrderRequest
		want error
	}{
		"zero volume":      {models.OrderRequest{Type: models.OrderTypeBuy, Volume: 0}, ErrInvalidVolume},
		"below step":       {models.OrderRequest{Type: models.OrderTypeBuy, Volume: 0.4}, ErrInvalidVolume},
		"pending no price": {models.OrderRequest{Type: models.OrderTypeSellStop, Volume: 1}, ErrInvalidPrice},
		"stop limit":       {models.OrderRequest{Type: models.OrderTypeBuyStopLimit, Volume: 1, Price: 10}, ErrUnsupportedType},
		"close by":         {models.OrderRequest{Type: models.OrderTypeCloseBy, Volume: 1}, ErrUnsupportedType},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			client := &fakeClient{}
			err := newTrader(client).Place(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, client.requests)
		})
	}
}

func TestRejectedRetCode(t *testing.T) {
	client := &fakeClient{result: models.TradeResult{RetCode: models.RetCodeInvalidPrice, Comment: "Invalid price"}}
	tr := newTrader(client)

	err := tr.ModifyOrder(context.Background(), models.TradeOrder{Ticket: 7}, 9900, 0, 0)

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, models.RetCodeInvalidPrice, rejected.Code)
	assert.True(t, IsRejected(err, models.RetCodeInvalidPrice))
	assert.Contains(t, err.Error(), "10015")
}

func TestNoChangesIsSuccess(t *testing.T) {
	client := &fakeClient{result: models.TradeResult{RetCode: models.RetCodeNoChanges}}
	assert.NoError(t, newTrader(client).ModifyPosition(context.Background(), 3, 0, 10010))
}

func TestRequestShapes(t *testing.T) {
	client := &fakeClient{result: models.TradeResult{RetCode: models.RetCodeDone}}
	tr := newTrader(client)
	ctx := context.Background()

	require.NoError(t, tr.DeleteOrder(ctx, 11))
	require.NoError(t, tr.ModifyPosition(ctx, 12, 0, 10012))
	require.NoError(t, tr.ClosePosition(ctx, models.TradePosition{Ticket: 13, Symbol: "WIN", Type: models.PositionTypeSell, Volume: 3, MagicNumber: 42}))

	require.Len(t, client.requests, 3)
	assert.Equal(t, models.TradeRequest{Action: models.TradeActionRemove, Order: 11}, client.requests[0])
	assert.Equal(t, models.TradeActionSLTP, client.requests[1].Action)
	assert.Equal(t, int64(12), client.requests[1].Position)
	assert.Equal(t, 10010.0, client.requests[1].TakeProfit)
	assert.Equal(t, models.TradeRequest{
		Action: models.TradeActionDeal, Symbol: "WIN", Type: models.OrderTypeBuy, Volume: 3, Position: 13, Magic: 42,
	}, client.requests[2])
}

func TestModifyOrderKeepsOrderIdentity(t *testing.T) {
	client := &fakeClient{result: models.TradeResult{RetCode: models.RetCodeDone}}
	tr := newTrader(client)
	hedge := models.TradeOrder{
		Ticket: 21, Symbol: "WIN", Type: models.OrderTypeSellStop,
		VolumeCurrent: 2, PriceOpen: 9800, MagicNumber: 42, Comment: "hedge",
	}

	require.NoError(t, tr.ModifyOrder(context.Background(), hedge, 9752, 0, 0))

	require.Len(t, client.requests, 1)
	assert.Equal(t, models.TradeRequest{
		Action: models.TradeActionModify, Symbol: "WIN", Type: models.OrderTypeSellStop, Order: 21,
		Volume: 2, Price: 9750, Magic: 42, Comment: "hedge",
	}, client.requests[0])
}

func TestModifyOrderFallsBackToSymbolInfo(t *testing.T) {
	client := &fakeClient{result: models.TradeResult{RetCode: models.RetCodeDone}}

	require.NoError(t, newTrader(client).ModifyOrder(context.Background(), models.TradeOrder{Ticket: 5}, 9900, 0, 0))

	require.Len(t, client.requests, 1)
	assert.Equal(t, "WIN", client.requests[0].Symbol)
}

func TestJournalAndMetrics(t *testing.T) {
	client := &fakeClient{result: models.TradeResult{RetCode: models.RetCodeDone, Order: 90}}
	mem := &memJournal{}
	obs := countingObserver{}
	tr := newTrader(client).WithJournal(mem).WithMetrics(obs)
	ctx := context.Background()

	require.NoError(t, tr.Place(ctx, models.OrderRequest{Type: models.OrderTypeBuyLimit, Symbol: "WIN", Volume: 1, Price: 9900}))
	client.err = errors.New("connection reset")
	require.Error(t, tr.DeleteOrder(ctx, 90))
	client.err = nil
	client.result = models.TradeResult{RetCode: models.RetCodeReject}
	require.Error(t, tr.DeleteOrder(ctx, 90))

	require.Len(t, mem.records, 3)
	assert.Equal(t, "place", mem.records[0].Action)
	assert.Equal(t, int64(90), mem.records[0].Ticket)
	assert.Equal(t, "BUY_LIMIT", mem.records[0].Type)
	assert.Contains(t, mem.records[1].Error, "connection reset")
	assert.Equal(t, int(models.RetCodeReject), mem.records[2].RetCode)

	assert.Equal(t, 1, obs["place/ok"])
	assert.Equal(t, 1, obs["delete/error"])
	assert.Equal(t, 1, obs["delete/rejected"])
}

func TestLimiterStopsOnCanceledContext(t *testing.T) {
	client := &fakeClient{result: models.TradeResult{RetCode: models.RetCodeDone}}
	tr := New(client, rate.NewLimiter(rate.Every(time.Hour), 1), logger.Discard())
	tr.SetSymbolInfo(winInfo)

	require.NoError(t, tr.DeleteOrder(context.Background(), 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, tr.DeleteOrder(ctx, 2))
	assert.Len(t, client.requests, 1)
}

func TestNewLimiter(t *testing.T) {
	l := NewLimiter(6, time.Second)
	assert.Equal(t, 6, l.Burst())
	assert.InDelta(t, 6.0, float64(l.Limit()), 1e-6)

	assert.Equal(t, rate.Inf, NewLimiter(0, time.Second).Limit())
}
