package bridge

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"hedgebot/internal/models"
)

func (c *Client) GetOrdersPending(ctx context.Context, symbol string) ([]models.TradeOrder, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp bridgeResponse[listResult[models.TradeOrder]]
	if err := c.doRequest(ctx, http.MethodGet, "/v1/orders", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Result.List, nil
}

func (c *Client) GetPositionsOpen(ctx context.Context, symbol string) ([]models.TradePosition, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp bridgeResponse[listResult[models.TradePosition]]
	if err := c.doRequest(ctx, http.MethodGet, "/v1/positions", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Result.List, nil
}

func (c *Client) GetDealsHistory(ctx context.Context, from, to time.Time) ([]models.TradeDeal, error) {
	var resp bridgeResponse[listResult[models.TradeDeal]]
	if err := c.doRequest(ctx, http.MethodGet, "/v1/history/deals", historyParams(from, to), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Result.List, nil
}

func (c *Client) GetOrdersHistory(ctx context.Context, from, to time.Time) ([]models.TradeOrder, error) {
	var resp bridgeResponse[listResult[models.TradeOrder]]
	if err := c.doRequest(ctx, http.MethodGet, "/v1/history/orders", historyParams(from, to), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Result.List, nil
}

// SendOrder forwards a trade request. The trade result code is returned as
// is; only transport and envelope failures become errors.
func (c *Client) SendOrder(ctx context.Context, req models.TradeRequest) (models.TradeResult, error) {
	var resp bridgeResponse[models.TradeResult]
	if err := c.doRequest(ctx, http.MethodPost, "/v1/order/send", nil, req, &resp); err != nil {
		return models.TradeResult{}, err
	}

	c.logEntry().WithFields(map[string]interface{}{
		"action":  int(req.Action),
		"type":    req.Type.String(),
		"retcode": int(resp.Result.RetCode),
		"order":   resp.Result.Order,
	}).Debug("Ответ терминала на торговый запрос.")
	return resp.Result, nil
}

func historyParams(from, to time.Time) url.Values {
	params := url.Values{}
	params.Set("from", unixMilli(from))
	params.Set("to", unixMilli(to))
	return params
}
