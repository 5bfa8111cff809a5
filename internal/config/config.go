package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"hedgebot/internal/models"

	"github.com/spf13/viper"
)

type Config struct {
	Terminal TerminalConfig
	Strategy StrategyConfig
	Runtime  RuntimeConfig
	Journal  JournalConfig
	Metrics  MetricsConfig
}

type TerminalConfig struct {
	BaseUrl string
	WSUrl   string
	ApiKey  string
	Secret  string
	Timeout time.Duration
}

type StrategyConfig struct {
	Globals  GlobalsConfig
	Time     TimeConfig
	Position LadderConfig
	Hedge    LadderConfig
	Manager  ManagerConfig
}

type GlobalsConfig struct {
	Symbol      string
	MagicNumber int64
	Direction   models.Direction
	TradeMode   models.TradeMode
}

// TimeConfig holds the DAY_TRADE session window as HH:MM strings.
type TimeConfig struct {
	StartOperations string
	CloseOrders     string
	ClosePositions  string
	Timezone        string
}

type LadderConfig struct {
	Levels                 int
	InitialLots            float64
	SmallerDistance        int
	MultiplyFactorBackward float64
	TicksForward           int
	TicksBackward          int
	TicksOffset            int
	IsActiveBackward       bool
	IsActiveForward        bool
}

type ManagerConfig struct {
	MaxOfLots           float64
	MaxOfDelta          float64
	TickToOffsetCosts   int
	TickToReduceReentry int
}

type RuntimeConfig struct {
	DryRun              bool
	RestoreStateOnStart bool
	PollInterval        time.Duration
	RateLimit           int
	RateWindow          time.Duration
	HistoryLookback     time.Duration
	Log                 LogConfig
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type JournalConfig struct {
	Path string
}

type MetricsConfig struct {
	Addr string
}

func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath("configs")
	v.SetConfigName("config")
	return load(v)
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix("HEDGEBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("Не удалось прочитать конфигурацию: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Terminal = TerminalConfig{
		BaseUrl: v.GetString("terminal.base_url"),
		WSUrl:   v.GetString("terminal.ws_url"),
		ApiKey:  envSub(v, "terminal.api_key"),
		Secret:  envSub(v, "terminal.secret"),
		Timeout: v.GetDuration("terminal.timeout"),
	}

	cfg.Strategy = StrategyConfig{
		Globals: GlobalsConfig{
			Symbol:      v.GetString("strategy.globals.symbol"),
			MagicNumber: v.GetInt64("strategy.globals.magic_number"),
			Direction:   models.Direction(strings.ToUpper(v.GetString("strategy.globals.direction"))),
			TradeMode:   models.TradeMode(strings.ToUpper(v.GetString("strategy.globals.trade_mode"))),
		},
		Time: TimeConfig{
			StartOperations: v.GetString("strategy.time.start_operations"),
			CloseOrders:     v.GetString("strategy.time.close_orders"),
			ClosePositions:  v.GetString("strategy.time.close_positions"),
			Timezone:        v.GetString("strategy.time.timezone"),
		},
		Position: ladder(v, "strategy.position"),
		Hedge:    ladder(v, "strategy.hedge"),
		Manager: ManagerConfig{
			MaxOfLots:           v.GetFloat64("strategy.manager.max_of_lots"),
			MaxOfDelta:          v.GetFloat64("strategy.manager.max_of_delta"),
			TickToOffsetCosts:   v.GetInt("strategy.manager.tick_to_offset_costs"),
			TickToReduceReentry: v.GetInt("strategy.manager.tick_to_reduce_reentry"),
		},
	}

	cfg.Runtime = RuntimeConfig{
		DryRun:              v.GetBool("runtime.dry_run"),
		RestoreStateOnStart: v.GetBool("runtime.restore_state_on_start"),
		PollInterval:        v.GetDuration("runtime.poll_interval"),
		RateLimit:           v.GetInt("runtime.rate_limit"),
		RateWindow:          v.GetDuration("runtime.rate_window"),
		HistoryLookback:     v.GetDuration("runtime.history_lookback"),
		Log: LogConfig{
			Level:      v.GetString("runtime.log.level"),
			Format:     v.GetString("runtime.log.format"),
			File:       v.GetString("runtime.log.file"),
			MaxSize:    v.GetInt("runtime.log.max_size"),
			MaxBackups: v.GetInt("runtime.log.max_backups"),
			MaxAge:     v.GetInt("runtime.log.max_age"),
			Compress:   v.GetBool("runtime.log.compress"),
		},
	}

	cfg.Journal = JournalConfig{Path: v.GetString("journal.path")}
	cfg.Metrics = MetricsConfig{Addr: v.GetString("metrics.addr")}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func ladder(v *viper.Viper, prefix string) LadderConfig {
	return LadderConfig{
		Levels:                 v.GetInt(prefix + ".levels"),
		InitialLots:            v.GetFloat64(prefix + ".initial_lots"),
		SmallerDistance:        v.GetInt(prefix + ".smaller_distance_between_lots"),
		MultiplyFactorBackward: v.GetFloat64(prefix + ".multiply_factor_backward"),
		TicksForward:           v.GetInt(prefix + ".ticks_forward"),
		TicksBackward:          v.GetInt(prefix + ".ticks_backward"),
		TicksOffset:            v.GetInt(prefix + ".ticks_offset"),
		IsActiveBackward:       v.GetBool(prefix + ".is_active_backward"),
		IsActiveForward:        v.GetBool(prefix + ".is_active_forward"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("terminal.timeout", 15*time.Second)
	v.SetDefault("strategy.globals.direction", string(models.DirectionBuy))
	v.SetDefault("strategy.globals.trade_mode", string(models.TradeModeSwing))
	v.SetDefault("strategy.time.start_operations", "09:05")
	v.SetDefault("strategy.time.close_orders", "17:30")
	v.SetDefault("strategy.time.close_positions", "17:50")
	v.SetDefault("strategy.time.timezone", "Local")
	for _, side := range []string{"position", "hedge"} {
		v.SetDefault("strategy."+side+".levels", 9)
		v.SetDefault("strategy."+side+".smaller_distance_between_lots", 1)
		v.SetDefault("strategy."+side+".is_active_backward", true)
		v.SetDefault("strategy."+side+".is_active_forward", true)
	}
	v.SetDefault("runtime.poll_interval", time.Second)
	v.SetDefault("runtime.rate_limit", 6)
	v.SetDefault("runtime.rate_window", time.Second)
	v.SetDefault("runtime.history_lookback", 72*time.Hour)
	v.SetDefault("runtime.log.level", "info")
	v.SetDefault("runtime.log.format", "text")
	v.SetDefault("journal.path", "data/journal.db")
}

func (c *Config) Validate() error {
	g := c.Strategy.Globals
	if g.Symbol == "" {
		return fmt.Errorf("Не указан торговый инструмент (strategy.globals.symbol)")
	}
	if g.MagicNumber <= 0 {
		return fmt.Errorf("Некорректный magic number: %d", g.MagicNumber)
	}
	switch g.Direction {
	case models.DirectionBuy, models.DirectionSell, models.DirectionNone:
	default:
		return fmt.Errorf("Неизвестное направление торговли: %q", g.Direction)
	}
	switch g.TradeMode {
	case models.TradeModeDay, models.TradeModeSwing:
	default:
		return fmt.Errorf("Неизвестный режим торговли: %q", g.TradeMode)
	}
	if err := c.Strategy.Position.validate("position"); err != nil {
		return err
	}
	if err := c.Strategy.Hedge.validate("hedge"); err != nil {
		return err
	}
	if c.Strategy.Manager.MaxOfLots < 0 || c.Strategy.Manager.MaxOfDelta < 0 {
		return fmt.Errorf("Лимиты объёма не могут быть отрицательными")
	}
	if c.Runtime.PollInterval <= 0 {
		return fmt.Errorf("Некорректный интервал опроса: %s", c.Runtime.PollInterval)
	}
	if c.Runtime.RateLimit <= 0 || c.Runtime.RateWindow <= 0 {
		return fmt.Errorf("Некорректный лимит запросов: %d за %s", c.Runtime.RateLimit, c.Runtime.RateWindow)
	}
	if c.Runtime.HistoryLookback < 0 {
		return fmt.Errorf("Некорректная глубина истории: %s", c.Runtime.HistoryLookback)
	}
	if _, err := c.Strategy.Time.Location(); err != nil {
		return err
	}
	return nil
}

func (l LadderConfig) validate(name string) error {
	if l.Levels <= 0 {
		return fmt.Errorf("%s: количество уровней должно быть больше нуля", name)
	}
	if l.InitialLots <= 0 {
		return fmt.Errorf("%s: начальный объём должен быть больше нуля", name)
	}
	if l.SmallerDistance <= 0 {
		return fmt.Errorf("%s: минимальный шаг между лотами должен быть больше нуля", name)
	}
	if l.TicksBackward <= 0 {
		return fmt.Errorf("%s: шаг мартингейла назад должен быть больше нуля", name)
	}
	if l.TicksForward < 0 || l.TicksOffset < 0 {
		return fmt.Errorf("%s: отрицательный шаг в тиках", name)
	}
	if l.MultiplyFactorBackward <= -1 {
		return fmt.Errorf("%s: множитель объёма должен быть больше -1", name)
	}
	return nil
}

func (t TimeConfig) Location() (*time.Location, error) {
	if t.Timezone == "" || strings.EqualFold(t.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return nil, fmt.Errorf("Неизвестный часовой пояс %q: %w", t.Timezone, err)
	}
	return loc, nil
}

func envSub(v *viper.Viper, key string) string {
	val := v.GetString(key)
	if val == "" {
		return ""
	}

	re := regexp.MustCompile(`\$\{(\w+)\}`)
	return re.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
