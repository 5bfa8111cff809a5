package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hedgebot/internal/config"
	"hedgebot/internal/logger"
	"hedgebot/internal/metrics"
	"hedgebot/internal/models"
	"hedgebot/internal/strategy"
	"hedgebot/internal/terminal"
	"hedgebot/internal/trade"
)

// Store persists the status snapshot between restarts and remembers which
// pending orders the bot deleted itself.
type Store interface {
	SaveSnapshot(ctx context.Context, magic int64, payload []byte) error
	LoadSnapshot(ctx context.Context, magic int64) ([]byte, bool, error)
	strategy.DeletedOrders
}

type Engine struct {
	cfg     *config.Config
	client  terminal.Client
	trader  *trade.Trader
	service *strategy.Service
	closer  strategy.Action
	log     *logger.Logger

	store   Store
	metrics *metrics.Metrics

	session *Session
	now     func() time.Time

	retryBase time.Duration

	info models.SymbolInfo

	mu   sync.RWMutex
	snap strategy.Snapshot
}

func New(cfg *config.Config, client terminal.Client, trader *trade.Trader, log *logger.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		client:    client,
		trader:    trader,
		service:   strategy.NewService(trader, nil, log),
		closer:    strategy.NewActions(trader, log).CloseAll,
		log:       log,
		now:       time.Now,
		retryBase: time.Second,
	}
}

func (e *Engine) WithStore(s Store) *Engine {
	e.store = s
	e.service = strategy.NewService(e.trader, s, e.log)
	return e
}

func (e *Engine) WithMetrics(m *metrics.Metrics) *Engine {
	e.metrics = m
	return e
}

// SetClock replaces the time source; tests drive the session with it.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Start initializes the strategy and runs one cycle per poll interval until
// ctx is canceled.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.Init(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(e.cfg.Runtime.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logEntry().Info("Остановка торгового цикла.")
			return nil
		case <-ticker.C:
			if err := e.RunOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				e.logEntry().WithError(err).Warn("Цикл прерван, повтор на следующем тике.")
			}
		}
	}
}

// Init loads symbol constants, restores the saved snapshot and runs the
// strategy start-up step.
func (e *Engine) Init(ctx context.Context) error {
	session, err := NewSession(e.cfg.Strategy.Time)
	if err != nil {
		return err
	}
	e.session = session

	symbol := e.cfg.Strategy.Globals.Symbol
	info, err := withRetry(ctx, e, func() (models.SymbolInfo, error) {
		return e.client.GetSymbolInfo(ctx, symbol)
	})
	if err != nil {
		return fmt.Errorf("Не удалось получить параметры инструмента %s: %w", symbol, err)
	}
	e.info = info
	e.trader.SetSymbolInfo(info)
	e.logEntry().WithFields(map[string]interface{}{
		"tick_size":   info.TickSize,
		"tick_value":  info.TickValue,
		"volume_min":  info.VolumeMin,
		"volume_step": info.VolumeStep,
	}).Info("Получены параметры инструмента.")

	if e.cfg.Runtime.RestoreStateOnStart {
		e.restoreSnapshot(ctx)
	}

	now := e.now()
	c, err := e.loadCycle(ctx, now, now.Add(-e.cfg.Runtime.HistoryLookback))
	if err != nil {
		return err
	}
	e.setSnapshot(e.service.OnInit(ctx, e.Snapshot(), c))
	e.saveSnapshot(ctx)
	return nil
}

func (e *Engine) settings() strategy.Settings {
	return strategy.Settings{StrategyConfig: e.cfg.Strategy, Info: e.info}
}

// Snapshot returns the status snapshot of the last cycle. It is safe to call
// while the engine runs.
func (e *Engine) Snapshot() strategy.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

func (e *Engine) setSnapshot(s strategy.Snapshot) {
	e.mu.Lock()
	e.snap = s
	e.mu.Unlock()
}
