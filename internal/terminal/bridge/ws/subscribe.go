package ws

import (
	"fmt"
	"slices"
)

func tickTopic(symbol string) string {
	return "tick." + symbol
}

// Subscribe asks for the quotes of symbols. The list is kept and sent on
// Connect and after every reconnect.
func (w *Stream) Subscribe(symbols ...string) error {
	w.mu.Lock()
	for _, s := range symbols {
		if !slices.Contains(w.symbols, s) {
			w.symbols = append(w.symbols, s)
		}
	}
	w.mu.Unlock()

	if w.currentConn() == nil {
		return nil
	}
	return w.subscribe(symbols)
}

func (w *Stream) subscribe(symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	conn := w.currentConn()
	if conn == nil {
		return fmt.Errorf("WS не подключён")
	}

	topics := make([]string, 0, len(symbols))
	for _, s := range symbols {
		topics = append(topics, tickTopic(s))
	}
	w.connMu.Lock()
	defer w.connMu.Unlock()
	return conn.WriteJSON(SubscribeMessage{Op: "subscribe", Args: topics})
}

func (w *Stream) subscribed() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.symbols...)
}
