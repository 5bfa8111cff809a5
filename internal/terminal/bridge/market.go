package bridge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"hedgebot/internal/models"
)

func (c *Client) GetTick(ctx context.Context, symbol string) (models.Tick, error) {
	if c.ticks != nil {
		if tick, ok := c.ticks.LastTick(symbol); ok && time.Since(tick.Time) <= c.maxAge {
			return tick, nil
		}
	}

	params := url.Values{}
	params.Set("symbol", symbol)

	var resp bridgeResponse[models.Tick]
	if err := c.doRequest(ctx, http.MethodGet, "/v1/market/tick", params, nil, &resp); err != nil {
		return models.Tick{}, err
	}
	if resp.Result.Bid <= 0 || resp.Result.Ask <= 0 {
		return models.Tick{}, fmt.Errorf("Нет котировок по инструменту: %s", symbol)
	}
	return resp.Result, nil
}

func (c *Client) GetSymbolInfo(ctx context.Context, symbol string) (models.SymbolInfo, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp bridgeResponse[models.SymbolInfo]
	if err := c.doRequest(ctx, http.MethodGet, "/v1/market/symbol", params, nil, &resp); err != nil {
		return models.SymbolInfo{}, err
	}

	info := resp.Result
	if info.Name == "" {
		return models.SymbolInfo{}, fmt.Errorf("Инструмент не найден: %s", symbol)
	}
	if info.TickSize <= 0 {
		return models.SymbolInfo{}, fmt.Errorf("Некорректное значение tick size=%v для %s", info.TickSize, symbol)
	}
	return info, nil
}
