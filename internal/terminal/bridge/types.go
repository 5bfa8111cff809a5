package bridge

import (
	"net/http"
	"time"

	"hedgebot/internal/logger"
	"hedgebot/internal/models"
)

type Client struct {
	baseURL    string
	apiKey     string
	secret     string
	httpClient *http.Client
	log        *logger.Logger

	ticks  TickSource
	maxAge time.Duration
}

// TickSource is a live quote cache, normally the websocket stream.
type TickSource interface {
	LastTick(symbol string) (models.Tick, bool)
}

type bridgeResponse[T any] struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  T      `json:"result"`
	Time    int64  `json:"time"`
}

type listResult[T any] struct {
	List []T `json:"list"`
}
