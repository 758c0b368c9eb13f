package config

import (
	"fmt"
	"strings"

	"github.com/dmebilling/engine/internal/domain/billing"
	"github.com/dmebilling/engine/internal/domain/order"
	"github.com/spf13/viper"
)

// Config holds all billing-engine configuration
type Config struct {
	App     AppConfig
	Billing BillingConfig
	Log     LogConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// BillingConfig holds billing-policy settings
type BillingConfig struct {
	// AutoCloseGraceDays is the post-delivery grace period before a
	// delivered order auto-closes
	AutoCloseGraceDays int
	// DefaultRounding resolves un-prorated period counts: round, ceil, floor
	DefaultRounding string
	// ProratePartialPeriods prorates cross-frequency spans instead of
	// billing whole periods
	ProratePartialPeriods bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// ClosePolicy builds the order close policy from configuration.
func (c BillingConfig) ClosePolicy() order.ClosePolicy {
	return order.NewClosePolicy(c.AutoCloseGraceDays)
}

// Rounding resolves the configured rounding method, falling back to nearest.
func (c BillingConfig) Rounding() billing.RoundingMethod {
	m, err := billing.ParseRoundingMethod(c.DefaultRounding)
	if err != nil {
		return billing.RoundNearest
	}
	return m
}

// Load loads configuration from a YAML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with BILLING_ prefix (e.g., BILLING_LOG_LEVEL)
// 2. config.yaml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Billing: BillingConfig{
			AutoCloseGraceDays:    v.GetInt("billing.auto_close_grace_days"),
			DefaultRounding:       v.GetString("billing.default_rounding"),
			ProratePartialPeriods: v.GetBool("billing.prorate_partial_periods"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "billing-engine")
	v.SetDefault("app.env", "development")

	v.SetDefault("billing.auto_close_grace_days", order.DefaultAutoCloseGraceDays)
	v.SetDefault("billing.default_rounding", "round")
	v.SetDefault("billing.prorate_partial_periods", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Billing.AutoCloseGraceDays < 0 {
		return fmt.Errorf("billing.auto_close_grace_days cannot be negative: %d", c.Billing.AutoCloseGraceDays)
	}
	if _, err := billing.ParseRoundingMethod(c.Billing.DefaultRounding); err != nil {
		return fmt.Errorf("billing.default_rounding: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}
