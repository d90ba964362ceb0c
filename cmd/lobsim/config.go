package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	lob "github.com/0x5487/limit-order-book"
	"github.com/0x5487/limit-order-book/protocol"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var errInvalidConfig = errors.New("invalid config")

// Config drives one simulation run. Prices are decimal strings; they are
// converted to ticks once, before any order reaches the engine.
type Config struct {
	Symbol      string  `mapstructure:"symbol"`
	TickSize    string  `mapstructure:"tick_size"`
	StartPrice  string  `mapstructure:"start_price"`
	Orders      int     `mapstructure:"orders"`
	Seed        int64   `mapstructure:"seed"`
	CancelRatio float64 `mapstructure:"cancel_ratio"`
	ModifyRatio float64 `mapstructure:"modify_ratio"`
	MarketRatio float64 `mapstructure:"market_ratio"`
	MaxQuantity int64   `mapstructure:"max_quantity"`
	SpreadTicks int64   `mapstructure:"spread_ticks"`
	Depth       int     `mapstructure:"depth"`
	PriceIndex  string  `mapstructure:"price_index"`
	LogLevel    string  `mapstructure:"log_level"`

	tick       decimal.Decimal
	startTicks int64
	indexKind  lob.PriceIndexKind
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("symbol", "BTC-USDT")
	v.SetDefault("tick_size", "0.01")
	v.SetDefault("start_price", "100.00")
	v.SetDefault("orders", 100_000)
	v.SetDefault("seed", 1)
	v.SetDefault("cancel_ratio", 0.25)
	v.SetDefault("modify_ratio", 0.10)
	v.SetDefault("market_ratio", 0.05)
	v.SetDefault("max_quantity", 100)
	v.SetDefault("spread_ticks", 50)
	v.SetDefault("depth", 10)
	v.SetDefault("price_index", "skiplist")
	v.SetDefault("log_level", "warn")
}

// LoadConfig reads defaults, then the optional YAML file at path, then LOBSIM_* environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LOBSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolve validates the config and derives the tick values.
func (c *Config) resolve() error {
	tick, err := decimal.NewFromString(c.TickSize)
	if err != nil || !tick.IsPositive() {
		return fmt.Errorf("%w: tick_size %q", errInvalidConfig, c.TickSize)
	}
	start, err := protocol.ParseTicks(c.StartPrice, tick)
	if err != nil {
		return fmt.Errorf("%w: start_price %q: %w", errInvalidConfig, c.StartPrice, err)
	}
	kind, err := lob.ParsePriceIndexKind(c.PriceIndex)
	if err != nil {
		return fmt.Errorf("%w: price_index %q", errInvalidConfig, c.PriceIndex)
	}

	switch {
	case c.Symbol == "":
		return fmt.Errorf("%w: symbol is empty", errInvalidConfig)
	case c.Orders <= 0:
		return fmt.Errorf("%w: orders must be positive", errInvalidConfig)
	case c.MaxQuantity <= 0:
		return fmt.Errorf("%w: max_quantity must be positive", errInvalidConfig)
	case c.SpreadTicks <= 0:
		return fmt.Errorf("%w: spread_ticks must be positive", errInvalidConfig)
	case start <= c.SpreadTicks:
		return fmt.Errorf("%w: start_price must be above spread_ticks", errInvalidConfig)
	case c.CancelRatio < 0 || c.ModifyRatio < 0 || c.MarketRatio < 0:
		return fmt.Errorf("%w: ratios must not be negative", errInvalidConfig)
	case c.CancelRatio+c.ModifyRatio+c.MarketRatio > 1:
		return fmt.Errorf("%w: ratios add up to more than 1", errInvalidConfig)
	}

	c.tick = tick
	c.startTicks = start
	c.indexKind = kind
	return nil
}

func (c *Config) slogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return level
}
