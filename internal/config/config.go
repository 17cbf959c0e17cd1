// Package config loads application settings from a YAML file, the
// environment and a local .env file, with sensible defaults for every key.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"coldmailer/internal/core"
)

// Config provides typed access to application settings.
type Config struct {
	v *viper.Viper
}

// New loads configuration. A missing config file is not an error; defaults
// and environment variables then carry the whole configuration.
func New() (*Config, error) {
	// Credentials commonly live in a .env file next to the binary.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.coldmailer")
	v.AddConfigPath("/etc/coldmailer/")

	setDefaults(v)

	v.SetEnvPrefix("COLDMAILER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Gmail credentials keep their conventional variable names.
	_ = v.BindEnv("smtp.username", "GMAIL_EMAIL")
	_ = v.BindEnv("smtp.password", "GMAIL_APP_PASSWORD")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper wraps an existing viper instance. Used by tests.
func NewFromViper(v *viper.Viper) *Config {
	setDefaults(v)
	return &Config{v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.use_tls", true)
	v.SetDefault("smtp.timeout", "30s")

	v.SetDefault("rate_limit.emails_per_hour", 20)
	v.SetDefault("rate_limit.max_emails_per_day", 100)
	v.SetDefault("rate_limit.min_delay", "30s")
	v.SetDefault("rate_limit.on_limit", "wait")
	v.SetDefault("rate_limit.max_wait", "5m")

	v.SetDefault("data.format", "auto")
	v.SetDefault("data.dir", "data")

	v.SetDefault("ledger.type", "json")
	v.SetDefault("ledger.sqlite_path", "data/send_log.db")
	v.SetDefault("ledger.mysql_dsn", "")

	v.SetDefault("paths.templates", "templates")
	v.SetDefault("paths.attachments", "attachments")

	v.SetDefault("sender.name", "")
	v.SetDefault("sender.signature", "")

	v.SetDefault("email.subject_prefix", "")
	v.SetDefault("email.default_template", "default")
	v.SetDefault("email.attach_resume", false)
	v.SetDefault("email.resume_filename", "resume.pdf")

	v.SetDefault("web.listen_address", ":8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("greeting_styles.formal.with_title", "Dear {title} {last_name},")
	v.SetDefault("greeting_styles.formal.without_title", "Dear {first_name} {last_name},")
	v.SetDefault("greeting_styles.semi_formal.with_title", "Hello {title} {last_name},")
	v.SetDefault("greeting_styles.semi_formal.without_title", "Hello {first_name},")
	v.SetDefault("greeting_styles.casual.with_title", "Hi {first_name},")
	v.SetDefault("greeting_styles.casual.without_title", "Hi {first_name},")
	v.SetDefault("greeting_styles.professional.with_title", "Greetings {title} {last_name},")
	v.SetDefault("greeting_styles.professional.without_title", "Greetings {first_name},")
}

// GetSMTP returns SMTP server settings and credentials.
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Host:     c.v.GetString("smtp.host"),
		Port:     c.v.GetInt("smtp.port"),
		UseTLS:   c.v.GetBool("smtp.use_tls"),
		Timeout:  c.v.GetDuration("smtp.timeout"),
		Username: c.v.GetString("smtp.username"),
		Password: c.v.GetString("smtp.password"),
	}
}

// GetRatePolicy returns the sending limits.
func (c *Config) GetRatePolicy() core.RatePolicy {
	return core.RatePolicy{
		EmailsPerHour:   c.v.GetInt("rate_limit.emails_per_hour"),
		MaxEmailsPerDay: c.v.GetInt("rate_limit.max_emails_per_day"),
		MinDelay:        c.v.GetDuration("rate_limit.min_delay"),
	}
}

// GetBatch returns mid-batch limit handling settings.
func (c *Config) GetBatch() BatchConfig {
	behavior := core.LimitWait
	if c.v.GetString("rate_limit.on_limit") == "stop" {
		behavior = core.LimitStop
	}
	maxWait := c.v.GetDuration("rate_limit.max_wait")
	if maxWait <= 0 {
		maxWait = core.DefaultMaxWait
	}
	return BatchConfig{OnLimit: behavior, MaxWait: maxWait}
}

// GetSender returns the sender identity.
func (c *Config) GetSender() SenderConfig {
	return SenderConfig{
		Name:      c.v.GetString("sender.name"),
		Signature: c.v.GetString("sender.signature"),
	}
}

// GetEmail returns message composition settings.
func (c *Config) GetEmail() EmailConfig {
	return EmailConfig{
		SubjectPrefix:   c.v.GetString("email.subject_prefix"),
		DefaultTemplate: c.v.GetString("email.default_template"),
		AttachResume:    c.v.GetBool("email.attach_resume"),
		ResumeFilename:  c.v.GetString("email.resume_filename"),
	}
}

// GetData returns contact store settings.
func (c *Config) GetData() DataConfig {
	return DataConfig{
		Format: c.v.GetString("data.format"),
		Dir:    c.v.GetString("data.dir"),
	}
}

// GetLedger returns send ledger settings.
func (c *Config) GetLedger() LedgerConfig {
	return LedgerConfig{
		Type:       c.v.GetString("ledger.type"),
		SQLitePath: c.v.GetString("ledger.sqlite_path"),
		MySQLDSN:   c.v.GetString("ledger.mysql_dsn"),
	}
}

// GetPaths returns resource directory locations.
func (c *Config) GetPaths() PathsConfig {
	return PathsConfig{
		Templates:   c.v.GetString("paths.templates"),
		Attachments: c.v.GetString("paths.attachments"),
	}
}

// GetWeb returns HTTP daemon settings.
func (c *Config) GetWeb() WebConfig {
	return WebConfig{ListenAddress: c.v.GetString("web.listen_address")}
}

// GetLogLevel returns the configured log level name.
func (c *Config) GetLogLevel() string {
	return c.v.GetString("logging.level")
}

// GetLogFormat returns the configured log encoding, json or console.
func (c *Config) GetLogFormat() string {
	return c.v.GetString("logging.format")
}

// GetGreetingStyles returns salutation patterns keyed by style name.
func (c *Config) GetGreetingStyles() map[string]GreetingStyle {
	styles := make(map[string]GreetingStyle)
	for _, name := range []string{"formal", "semi_formal", "casual", "professional"} {
		styles[name] = GreetingStyle{
			WithTitle:    c.v.GetString("greeting_styles." + name + ".with_title"),
			WithoutTitle: c.v.GetString("greeting_styles." + name + ".without_title"),
		}
	}
	return styles
}
