package ws

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

func (w *Stream) readLoop() {
	defer close(w.done)
	w.logEntry().Debug("readLoop запущен.")

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		_, data, err := w.currentConn().ReadMessage()
		if err != nil {
			if w.stopped() {
				return
			}
			w.logEntry().WithError(err).Warn("Ошибка чтения WS.")

			if !w.reconnect() {
				return
			}
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось разобрать WS сообщение.")
			continue
		}

		switch {
		case strings.HasPrefix(msg.Topic, "tick"):
			w.handleTick(msg)
		default:
			continue
		}
	}
}

func (w *Stream) stopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *Stream) reconnect() bool {
	backoff := w.reconnectMin

	for {
		w.logEntry().Info("Попытка переподключения к WS.")

		select {
		case <-w.stopCh:
			return false
		case <-time.After(backoff):
		}

		conn, err := w.dial(context.Background())
		if err != nil {
			w.logEntry().WithError(err).Warn("Не удалось переподключиться к WS.")
			backoff = w.nextBackoff(backoff)
			continue
		}
		w.setConn(conn)

		if err := w.subscribe(w.subscribed()); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось повторно подписаться на WS.")
			backoff = w.nextBackoff(backoff)
			continue
		}

		w.logEntry().Info("WS переподключён и подписки восстановлены.")
		return true
	}
}

func (w *Stream) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > w.reconnectMax {
		return w.reconnectMax
	}
	return next
}
