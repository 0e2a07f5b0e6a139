package notifications

import (
	"time"

	"github.com/titanhq/notifier/pkg/email"
	"github.com/titanhq/notifier/pkg/sms"
	"github.com/titanhq/notifier/pkg/telegram"
)

const (
	DefaultMaxRetries      = 3
	DefaultSendTimeout     = 10 * time.Second
	DefaultConcurrency     = 16
	DefaultHistoryCapacity = 1000
	DefaultInAppPosition   = "top-right"
	DefaultInAppDuration   = 5000
)

// Config holds channel credentials, feature toggles and dispatcher limits.
type Config struct {
	Email    EmailConfig    `json:"email"`
	Telegram TelegramConfig `json:"telegram"`
	SMS      SMSConfig      `json:"sms"`
	InApp    InAppConfig    `json:"inapp"`

	MaxRetries      int           `env:"NOTIFY_MAX_RETRIES" envDefault:"3" json:"max_retries"`
	SendTimeout     time.Duration `env:"NOTIFY_SEND_TIMEOUT" envDefault:"10s" json:"send_timeout"`
	Concurrency     int           `env:"NOTIFY_CONCURRENCY" envDefault:"16" json:"concurrency"`
	HistoryCapacity int           `env:"NOTIFY_HISTORY_CAPACITY" envDefault:"1000" json:"history_capacity"`
	RetryInterval   time.Duration `env:"NOTIFY_RETRY_INTERVAL" envDefault:"1s" json:"retry_interval"`
	TemplatesFile   string        `env:"NOTIFY_TEMPLATES_FILE" json:"templates_file,omitempty"`
}

type EmailConfig struct {
	Enabled bool `env:"EMAIL_ENABLED" envDefault:"true" json:"enabled"`
	email.Config
}

type TelegramConfig struct {
	Enabled bool `env:"TELEGRAM_ENABLED" envDefault:"true" json:"enabled"`
	telegram.Config
}

type SMSConfig struct {
	Enabled bool   `env:"SMS_ENABLED" envDefault:"true" json:"enabled"`
	Phone   string `env:"SMS_PHONE" json:"phone_number,omitempty"`
	sms.Config
}

type InAppConfig struct {
	Enabled  bool   `env:"INAPP_ENABLED" envDefault:"true" json:"enabled"`
	Position string `env:"INAPP_POSITION" envDefault:"top-right" json:"position"`
	Duration int    `env:"INAPP_DURATION" envDefault:"5000" json:"duration"` // milliseconds
}

// DefaultConfig enables every channel with no credentials.
func DefaultConfig() Config {
	return Config{
		Email:           EmailConfig{Enabled: true, Config: email.Config{SMTPPort: 587}},
		Telegram:        TelegramConfig{Enabled: true},
		SMS:             SMSConfig{Enabled: true, Config: sms.Config{Sender: sms.DefaultSender}},
		InApp:           InAppConfig{Enabled: true, Position: DefaultInAppPosition, Duration: DefaultInAppDuration},
		MaxRetries:      DefaultMaxRetries,
		SendTimeout:     DefaultSendTimeout,
		Concurrency:     DefaultConcurrency,
		HistoryCapacity: DefaultHistoryCapacity,
		RetryInterval:   time.Second,
	}
}

// Enabled reports the feature toggle of ch.
func (c Config) Enabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return c.Email.Enabled
	case ChannelTelegram:
		return c.Telegram.Enabled
	case ChannelSMS:
		return c.SMS.Enabled
	case ChannelInApp:
		return c.InApp.Enabled
	}
	return false
}

// normalize replaces out-of-range limits with defaults.
func (c Config) normalize() Config {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = DefaultSendTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = DefaultHistoryCapacity
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = time.Second
	}
	if c.InApp.Position == "" {
		c.InApp.Position = DefaultInAppPosition
	}
	if c.InApp.Duration <= 0 {
		c.InApp.Duration = DefaultInAppDuration
	}
	return c
}

// ConfigStatus is the credential-free view of Config.
type ConfigStatus struct {
	Email    EmailStatus    `json:"email"`
	Telegram TelegramStatus `json:"telegram"`
	SMS      SMSStatus      `json:"sms"`
	InApp    InAppStatus    `json:"inapp"`
}

type EmailStatus struct {
	Enabled    bool   `json:"enabled"`
	Configured bool   `json:"configured"`
	Provider   string `json:"provider,omitempty"`
	Host       string `json:"host,omitempty"`
	From       string `json:"from,omitempty"`
}

type TelegramStatus struct {
	Enabled    bool   `json:"enabled"`
	Configured bool   `json:"configured"`
	ChatID     string `json:"chat_id,omitempty"`
}

type SMSStatus struct {
	Enabled    bool   `json:"enabled"`
	Configured bool   `json:"configured"`
	Provider   string `json:"provider,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type InAppStatus struct {
	Enabled    bool   `json:"enabled"`
	Configured bool   `json:"configured"`
	Position   string `json:"position"`
	Duration   int    `json:"duration"`
}

// Status summarises c without secrets.
func (c Config) Status() ConfigStatus {
	return ConfigStatus{
		Email: EmailStatus{
			Enabled:    c.Email.Enabled,
			Configured: c.Email.Configured(),
			Provider:   string(c.Email.Provider()),
			Host:       c.Email.SMTPHost,
			From:       c.Email.SenderEmail,
		},
		Telegram: TelegramStatus{
			Enabled:    c.Telegram.Enabled,
			Configured: c.Telegram.Configured(),
			ChatID:     c.Telegram.ChatID,
		},
		SMS: SMSStatus{
			Enabled:    c.SMS.Enabled,
			Configured: c.SMS.Provider() != "",
			Provider:   c.SMS.Provider(),
			Phone:      c.SMS.Phone,
		},
		InApp: InAppStatus{
			Enabled:    c.InApp.Enabled,
			Configured: true,
			Position:   c.InApp.Position,
			Duration:   c.InApp.Duration,
		},
	}
}
