package ws

import (
	"context"
	"fmt"
	"time"

	"hedgebot/internal/logger"
	"hedgebot/internal/models"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func New(url, apiKey, secret string, log *logger.Logger) *Stream {
	return &Stream{
		url:          url,
		apiKey:       apiKey,
		secret:       secret,
		log:          log,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
		ticks:        make(map[string]models.Tick),
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
	}
}

func (w *Stream) Connect(ctx context.Context) error {
	w.logEntry().WithField("url", w.url).Info("Подключение к WS.")

	conn, err := w.dial(ctx)
	if err != nil {
		return err
	}
	w.setConn(conn)

	if err := w.subscribe(w.subscribed()); err != nil {
		w.setConn(nil)
		return fmt.Errorf("Не удалось подписаться на котировки: %w", err)
	}

	w.logEntry().Info("WS соединение установлено.")

	go w.readLoop()

	return nil
}

func (w *Stream) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return nil, fmt.Errorf("Не удалось подключиться к WS: %w", err)
	}
	conn.SetReadLimit(2 << 20)

	if w.apiKey != "" && w.secret != "" {
		if err := authenticate(conn, w.apiKey, w.secret); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

func (w *Stream) setConn(conn *websocket.Conn) {
	w.connMu.Lock()
	old := w.conn
	w.conn = conn
	w.connMu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

func (w *Stream) currentConn() *websocket.Conn {
	w.connMu.Lock()
	defer w.connMu.Unlock()
	return w.conn
}

// LastTick returns the most recent quote received for symbol.
func (w *Stream) LastTick(symbol string) (models.Tick, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	tick, ok := w.ticks[symbol]
	return tick, ok
}

// Close stops the read loop and waits for it to exit.
func (w *Stream) Close() error {
	w.stopOnce.Do(func() { close(w.stopCh) })

	conn := w.currentConn()
	if conn == nil {
		return nil
	}
	_ = conn.Close()
	select {
	case <-w.done:
	case <-time.After(5 * time.Second):
	}
	return nil
}

func (w *Stream) logEntry() *logrus.Entry {
	return w.log.WithComponent("bridge_ws")
}
