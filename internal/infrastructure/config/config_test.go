package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmebilling/engine/internal/domain/billing"
	"github.com/dmebilling/engine/internal/domain/order"
)

func TestLoad(t *testing.T) {
	t.Run("defaults apply without a config file", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "billing-engine", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, order.DefaultAutoCloseGraceDays, cfg.Billing.AutoCloseGraceDays)
		assert.Equal(t, "round", cfg.Billing.DefaultRounding)
		assert.True(t, cfg.Billing.ProratePartialPeriods)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.Equal(t, "stdout", cfg.Log.Output)
	})

	t.Run("environment variables override defaults", func(t *testing.T) {
		t.Setenv("BILLING_LOG_LEVEL", "debug")
		t.Setenv("BILLING_BILLING_AUTO_CLOSE_GRACE_DAYS", "45")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, 45, cfg.Billing.AutoCloseGraceDays)
	})

	t.Run("invalid environment values fail validation", func(t *testing.T) {
		t.Setenv("BILLING_BILLING_DEFAULT_ROUNDING", "banker")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "default_rounding")
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Billing: BillingConfig{AutoCloseGraceDays: 30, DefaultRounding: "round"},
			Log:     LogConfig{Level: "info", Format: "json", Output: "stdout"},
		}
	}

	t.Run("accepts a well-formed configuration", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects negative grace days", func(t *testing.T) {
		cfg := valid()
		cfg.Billing.AutoCloseGraceDays = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects an unknown rounding method", func(t *testing.T) {
		cfg := valid()
		cfg.Billing.DefaultRounding = "stochastic"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects an unknown log format", func(t *testing.T) {
		cfg := valid()
		cfg.Log.Format = "xml"
		assert.Error(t, cfg.Validate())
	})
}

func TestBillingConfigAccessors(t *testing.T) {
	t.Run("close policy carries the configured grace period", func(t *testing.T) {
		cfg := BillingConfig{AutoCloseGraceDays: 45}
		assert.Equal(t, 45*24*time.Hour, cfg.ClosePolicy().AutoCloseGrace)
	})

	t.Run("rounding falls back to nearest for unknown methods", func(t *testing.T) {
		assert.Equal(t, billing.RoundCeil, BillingConfig{DefaultRounding: "ceil"}.Rounding())
		assert.Equal(t, billing.RoundNearest, BillingConfig{DefaultRounding: "bogus"}.Rounding())
	})
}
