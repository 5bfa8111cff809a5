package engine

import (
	"context"
	"encoding/json"

	"hedgebot/internal/strategy"

	"github.com/sirupsen/logrus"
)

func (e *Engine) restoreSnapshot(ctx context.Context) {
	if e.store == nil {
		return
	}
	magic := e.cfg.Strategy.Globals.MagicNumber
	payload, ok, err := e.store.LoadSnapshot(ctx, magic)
	if err != nil {
		e.logEntry().WithError(err).Warn("Не удалось загрузить сохранённое состояние.")
		return
	}
	if !ok {
		e.logEntry().Info("Сохранённое состояние не найдено, старт с нуля.")
		return
	}
	var snap strategy.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		e.logEntry().WithError(err).Warn("Сохранённое состояние повреждено, старт с нуля.")
		return
	}
	e.setSnapshot(snap)
	e.logEntry().WithFields(map[string]interface{}{
		"position_status": snap.PositionStatus.String(),
		"hedge_status":    snap.HedgeStatus.String(),
		"checked_at":      snap.CheckedAt,
	}).Info("Состояние восстановлено.")
}

func (e *Engine) saveSnapshot(ctx context.Context) {
	if e.store == nil {
		return
	}
	payload, err := json.Marshal(e.Snapshot())
	if err != nil {
		e.logEntry().WithError(err).Warn("Не удалось сериализовать состояние.")
		return
	}
	if err := e.store.SaveSnapshot(ctx, e.cfg.Strategy.Globals.MagicNumber, payload); err != nil {
		e.logEntry().WithError(err).Warn("Не удалось сохранить состояние.")
	}
}

func (e *Engine) logEntry() *logrus.Entry {
	return e.log.WithSymbol(e.cfg.Strategy.Globals.Symbol).WithField("component", "engine")
}
