// Package telegram sends chat-bot messages through the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	ErrNotConfigured  = errors.New("telegram: bot token is required")
	ErrMissingChatID  = errors.New("telegram: chat id is required")
	ErrDeliveryFailed = errors.New("telegram: delivery failed")
)

// Config holds bot credentials.
type Config struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN" json:"bot_token,omitempty"`
	ChatID   string `env:"TELEGRAM_CHAT_ID" json:"chat_id,omitempty"`
	Endpoint string `env:"TELEGRAM_API_ENDPOINT" json:"endpoint,omitempty"` // format string: token, method
}

// Configured reports whether both the token and a default chat are set.
func (c Config) Configured() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// Client is a lazily initialised bot. The first Send resolves the bot
// identity (getMe); a failed resolution is retried on the next call.
type Client struct {
	token    string
	endpoint string
	http     tgbotapi.HTTPClient

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the Bot API endpoint format (token, method).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient overrides the HTTP client used for Bot API calls.
func WithHTTPClient(client tgbotapi.HTTPClient) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// NewClient creates a client for the given bot token.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrNotConfigured
	}
	c := &Client{
		token:    token,
		endpoint: tgbotapi.APIEndpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send posts an HTML-formatted text to chatID. Numeric ids address users and
// groups, "@name" addresses public channels.
func (c *Client) Send(ctx context.Context, chatID, text string) error {
	if chatID == "" {
		return ErrMissingChatID
	}

	bot, err := c.resolve(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else if strings.HasPrefix(chatID, "@") {
		msg = tgbotapi.NewMessageToChannel(chatID, text)
	} else {
		return fmt.Errorf("%w: invalid chat id %q", ErrDeliveryFailed, chatID)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	// Per-call copy so the request carries this call's context.
	b := *bot
	b.Client = contextClient{ctx: ctx, next: c.http}
	if _, err := b.Send(msg); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}

func (c *Client) resolve(ctx context.Context) (*tgbotapi.BotAPI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bot != nil {
		return c.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(c.token, c.endpoint, contextClient{ctx: ctx, next: c.http})
	if err != nil {
		return nil, err
	}
	c.bot = bot
	return bot, nil
}

type contextClient struct {
	ctx  context.Context
	next tgbotapi.HTTPClient
}

func (c contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.next.Do(req.WithContext(c.ctx))
}
