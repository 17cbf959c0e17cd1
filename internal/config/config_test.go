package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldmailer/internal/core"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(viper.New())

	smtp := cfg.GetSMTP()
	assert.Equal(t, "smtp.gmail.com", smtp.Host)
	assert.Equal(t, 587, smtp.Port)
	assert.True(t, smtp.UseTLS)
	assert.Equal(t, 30*time.Second, smtp.Timeout)

	policy := cfg.GetRatePolicy()
	assert.Equal(t, 20, policy.EmailsPerHour)
	assert.Equal(t, 100, policy.MaxEmailsPerDay)
	assert.Equal(t, 30*time.Second, policy.MinDelay)

	batch := cfg.GetBatch()
	assert.Equal(t, core.LimitWait, batch.OnLimit)
	assert.Equal(t, 5*time.Minute, batch.MaxWait)

	assert.Equal(t, "auto", cfg.GetData().Format)
	assert.Equal(t, "json", cfg.GetLedger().Type)
	assert.Equal(t, "default", cfg.GetEmail().DefaultTemplate)
	assert.Equal(t, ":8080", cfg.GetWeb().ListenAddress)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	v.Set("rate_limit.emails_per_hour", 5)
	v.Set("rate_limit.on_limit", "stop")
	v.Set("rate_limit.max_wait", "0s")
	v.Set("ledger.type", "sqlite")
	cfg := NewFromViper(v)

	assert.Equal(t, 5, cfg.GetRatePolicy().EmailsPerHour)
	batch := cfg.GetBatch()
	assert.Equal(t, core.LimitStop, batch.OnLimit)
	// A non-positive ceiling falls back to the built-in default.
	assert.Equal(t, core.DefaultMaxWait, batch.MaxWait)
	assert.Equal(t, "sqlite", cfg.GetLedger().Type)
}

func TestGreetingStyleDefaults(t *testing.T) {
	cfg := NewFromViper(viper.New())

	styles := cfg.GetGreetingStyles()
	require.Contains(t, styles, "formal")
	require.Contains(t, styles, "semi_formal")
	assert.Equal(t, "Dear {title} {last_name},", styles["formal"].WithTitle)
	assert.Equal(t, "Hello {first_name},", styles["semi_formal"].WithoutTitle)
}

func TestCredentialEnvBinding(t *testing.T) {
	t.Setenv("GMAIL_EMAIL", "me@example.com")
	t.Setenv("GMAIL_APP_PASSWORD", "app-password")

	v := viper.New()
	v.AutomaticEnv()
	require.NoError(t, v.BindEnv("smtp.username", "GMAIL_EMAIL"))
	require.NoError(t, v.BindEnv("smtp.password", "GMAIL_APP_PASSWORD"))
	cfg := NewFromViper(v)

	smtp := cfg.GetSMTP()
	assert.Equal(t, "me@example.com", smtp.Username)
	assert.Equal(t, "app-password", smtp.Password)
}
