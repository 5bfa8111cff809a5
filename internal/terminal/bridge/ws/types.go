package ws

import (
	"encoding/json"
	"sync"
	"time"

	"hedgebot/internal/logger"
	"hedgebot/internal/models"

	"github.com/gorilla/websocket"
)

// Stream keeps the latest quote of every subscribed symbol, fed by the
// bridge websocket.
type Stream struct {
	url    string
	apiKey string
	secret string
	log    *logger.Logger

	connMu sync.Mutex
	conn   *websocket.Conn

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu      sync.RWMutex
	symbols []string
	ticks   map[string]models.Tick

	reconnectMin time.Duration
	reconnectMax time.Duration
}

type Message struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	TS    int64           `json:"ts"`
	Data  json.RawMessage `json:"data"`
}

type AuthMessage struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type SubscribeMessage struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type tickPayload struct {
	Symbol  string  `json:"symbol"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	Last    float64 `json:"last"`
	Volume  float64 `json:"volume"`
	TimeMsc int64   `json:"time_msc"`
}
