package ws

import (
	"encoding/json"
	"strings"
	"time"

	"hedgebot/internal/models"
)

func (w *Stream) handleTick(msg Message) {
	var data []tickPayload
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		var single tickPayload
		if err := json.Unmarshal(msg.Data, &single); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось разобрать tick.")
			return
		}
		data = append(data, single)
	}

	fallback := strings.TrimPrefix(msg.Topic, "tick.")
	for _, item := range data {
		symbol := item.Symbol
		if symbol == "" {
			symbol = fallback
		}

		ts := item.TimeMsc
		if ts == 0 {
			ts = msg.TS
		}
		at := time.Now()
		if ts > 0 {
			at = time.UnixMilli(ts)
		}

		w.mu.Lock()
		w.ticks[symbol] = models.Tick{
			Symbol: symbol,
			Time:   at,
			Bid:    item.Bid,
			Ask:    item.Ask,
			Last:   item.Last,
			Volume: item.Volume,
		}
		w.mu.Unlock()
	}
}
