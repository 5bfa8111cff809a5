package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hedgebot/internal/api"
	"hedgebot/internal/config"
	"hedgebot/internal/engine"
	"hedgebot/internal/journal"
	"hedgebot/internal/logger"
	"hedgebot/internal/metrics"
	"hedgebot/internal/terminal"
	"hedgebot/internal/terminal/bridge"
	"hedgebot/internal/terminal/bridge/ws"
	"hedgebot/internal/terminal/paper"
	"hedgebot/internal/trade"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logger.New(logger.Config{
		Level:      cfg.Runtime.Log.Level,
		Format:     cfg.Runtime.Log.Format,
		Output:     cfg.Runtime.Log.File,
		MaxSize:    cfg.Runtime.Log.MaxSize,
		MaxBackups: cfg.Runtime.Log.MaxBackups,
		MaxAge:     cfg.Runtime.Log.MaxAge,
		Compress:   cfg.Runtime.Log.Compress,
	})

	logger.WithMagic(cfg.Strategy.Globals.MagicNumber).WithFields(map[string]interface{}{
		"symbol":  cfg.Strategy.Globals.Symbol,
		"mode":    cfg.Strategy.Globals.TradeMode,
		"dry_run": cfg.Runtime.DryRun,
	}).Info("Бот запущен.")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		logger.WithError(err).Fatal("Не удалось открыть журнал.")
	}
	defer j.Close()

	m := metrics.New()

	symbol := cfg.Strategy.Globals.Symbol
	remote := bridge.New(cfg.Terminal.BaseUrl, cfg.Terminal.ApiKey, cfg.Terminal.Secret, cfg.Terminal.Timeout, logger)

	if cfg.Terminal.WSUrl != "" {
		stream := ws.New(cfg.Terminal.WSUrl, cfg.Terminal.ApiKey, cfg.Terminal.Secret, logger)
		if err := stream.Subscribe(symbol); err != nil {
			logger.WithError(err).Warn("Не удалось подписаться на котировки.")
		}
		if err := stream.Connect(ctx); err != nil {
			logger.WithError(err).Warn("Поток котировок недоступен, используется REST.")
		} else {
			remote.WithTicks(stream, 2*time.Second)
			defer stream.Close()
		}
	}

	var client terminal.Client = remote
	if cfg.Runtime.DryRun {
		info, err := remote.GetSymbolInfo(ctx, symbol)
		if err != nil {
			logger.WithError(err).Fatal("Не удалось получить параметры инструмента для симуляции.")
		}
		sim := paper.New(info)
		go sim.Follow(ctx, remote, symbol, cfg.Runtime.PollInterval, logger)
		client = sim
		logger.Info("Режим симуляции: ордера исполняются локально.")
	}

	trader := trade.New(client, trade.NewLimiter(cfg.Runtime.RateLimit, cfg.Runtime.RateWindow), logger).
		WithJournal(j).
		WithMetrics(m)

	eng := engine.New(cfg, client, trader, logger).
		WithStore(j).
		WithMetrics(m)

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           api.New(eng, j, m.Handler(), logger).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("HTTP-сервер остановлен с ошибкой.")
			}
		}()
		defer srv.Close()
	}

	go func() {
		if err := eng.Start(ctx); err != nil {
			logger.WithError(err).Fatal("\"Двигатель\" завершился с ошибкой.")
		}
	}()
	<-sigCh

	cancel()

	logger.Info("Бот остановлен.")
}
