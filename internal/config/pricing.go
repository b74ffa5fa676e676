package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricingConfig carries the tunables of the pricing engine that product
// wants to adjust without a redeploy.
type PricingConfig struct {
	// CompetitiveBandLower/Upper bound the "competitive" bucket as
	// multipliers of the competitor benchmark.
	CompetitiveBandLower float64 `mapstructure:"competitiveBandLower"`
	CompetitiveBandUpper float64 `mapstructure:"competitiveBandUpper"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		CompetitiveBandLower: 0.85,
		CompetitiveBandUpper: 1.15,
	}
}

// PricingConfigHolder exposes the current PricingConfig and hot-reloads it
// when pricing.yml changes on disk.
type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/pricebook")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PRICEBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPricingConfig()
	v.SetDefault("pricing.competitiveBandLower", defaults.CompetitiveBandLower)
	v.SetDefault("pricing.competitiveBandUpper", defaults.CompetitiveBandUpper)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
	})

	return holder, nil
}

func (h *PricingConfigHolder) Current() PricingConfig {
	return h.current.Load().(PricingConfig)
}

func validatePricingConfig(cfg PricingConfig) error {
	if cfg.CompetitiveBandLower <= 0 || cfg.CompetitiveBandUpper <= 0 {
		return errors.New("competitive band bounds must be positive")
	}
	if cfg.CompetitiveBandLower >= cfg.CompetitiveBandUpper {
		return errors.New("competitive band lower bound must be below upper bound")
	}
	return nil
}
