package notifications

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"

	"github.com/titanhq/notifier/pkg/email"
	"github.com/titanhq/notifier/pkg/email/templates"
	"github.com/titanhq/notifier/pkg/inapp"
	"github.com/titanhq/notifier/pkg/sms"
	"github.com/titanhq/notifier/pkg/telegram"
)

// Sender delivers a message on one channel. Send returns ErrChannelNotConfigured
// when credentials or a recipient are missing and wraps provider failures in
// ErrChannelDelivery.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc struct {
	Ch Channel
	Fn func(ctx context.Context, msg Message) error
}

func (s SenderFunc) Channel() Channel { return s.Ch }

func (s SenderFunc) Send(ctx context.Context, msg Message) error { return s.Fn(ctx, msg) }

// ChannelBuilder creates senders from configuration. The dispatcher calls it
// at construction and after every UpdateConfig.
type ChannelBuilder func(cfg Config) []Sender

// DefaultChannelBuilder builds the email, Telegram, SMS and in-app senders.
// A nil client uses the providers' defaults.
func DefaultChannelBuilder(inbox *inapp.Inbox, client *http.Client) ChannelBuilder {
	return func(cfg Config) []Sender {
		return []Sender{
			NewEmailSender(cfg.Email),
			NewTelegramSender(cfg.Telegram, client),
			NewSMSSender(cfg.SMS, client),
			NewInAppSender(inbox, cfg.InApp),
		}
	}
}

func deliveryError(err error) error {
	if errors.Is(err, ErrChannelNotConfigured) || errors.Is(err, ErrChannelDelivery) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrChannelDelivery, err)
}

type emailSender struct {
	cfg    EmailConfig
	client email.EmailSender
}

// NewEmailSender picks Postmark, SMTP or the outbox from cfg.
func NewEmailSender(cfg EmailConfig) Sender {
	s := &emailSender{cfg: cfg}
	if cfg.SenderEmail != "" {
		if client, err := email.New(cfg.Config); err == nil {
			s.client = client
		}
	}
	return s
}

func (s *emailSender) Channel() Channel { return ChannelEmail }

func (s *emailSender) Send(ctx context.Context, msg Message) error {
	to := msg.Recipient
	if to == "" {
		to = s.cfg.Recipient
	}
	if s.client == nil || to == "" {
		return ErrChannelNotConfigured
	}

	body, err := templates.Render(ctx, templates.Notification(templates.NotificationData{
		Title:     msg.Title,
		Message:   msg.Message,
		Priority:  string(msg.Priority),
		Type:      string(msg.Type),
		CreatedAt: msg.CreatedAt,
		Data:      msg.Data,
	}))
	if err != nil {
		return deliveryError(err)
	}

	err = s.client.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  "[TITAN] " + msg.Title,
		BodyHTML: body,
		Tag:      string(msg.Type),
	})
	if err != nil {
		return deliveryError(err)
	}
	return nil
}

type telegramSender struct {
	chatID string
	client *telegram.Client
}

// NewTelegramSender sends through the Bot API; the bot is resolved on first use.
func NewTelegramSender(cfg TelegramConfig, client *http.Client) Sender {
	s := &telegramSender{chatID: cfg.ChatID}
	opts := []telegram.Option{telegram.WithEndpoint(cfg.Endpoint)}
	if client != nil {
		opts = append(opts, telegram.WithHTTPClient(client))
	}
	if c, err := telegram.NewClient(cfg.BotToken, opts...); err == nil {
		s.client = c
	}
	return s
}

func (s *telegramSender) Channel() Channel { return ChannelTelegram }

func (s *telegramSender) Send(ctx context.Context, msg Message) error {
	chat := msg.Recipient
	if chat == "" {
		chat = s.chatID
	}
	if s.client == nil || chat == "" {
		return ErrChannelNotConfigured
	}

	text := fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(msg.Title), html.EscapeString(msg.Message))
	if err := s.client.Send(ctx, chat, text); err != nil {
		return deliveryError(err)
	}
	return nil
}

type smsSender struct {
	phone  string
	client sms.Sender
}

// NewSMSSender selects the form or basic-auth provider from cfg.
func NewSMSSender(cfg SMSConfig, client *http.Client) Sender {
	s := &smsSender{phone: cfg.Phone}
	if c, err := sms.New(cfg.Config, client); err == nil {
		s.client = c
	}
	return s
}

func (s *smsSender) Channel() Channel { return ChannelSMS }

func (s *smsSender) Send(ctx context.Context, msg Message) error {
	to := msg.Recipient
	if to == "" {
		to = s.phone
	}
	if s.client == nil || to == "" {
		return ErrChannelNotConfigured
	}

	body := sms.Truncate(fmt.Sprintf("TITAN: %s\n%s", msg.Title, msg.Message))
	if err := s.client.Send(ctx, to, body); err != nil {
		return deliveryError(err)
	}
	return nil
}

var (
	inAppIcons = map[Type]string{
		TypeTradeAlert:      "fa-exchange-alt",
		TypePriceAlert:      "fa-chart-line",
		TypeSystemAlert:     "fa-exclamation-triangle",
		TypeAIInsight:       "fa-brain",
		TypePortfolioUpdate: "fa-wallet",
	}
	inAppColors = map[Priority]string{
		PriorityLow:      "gray",
		PriorityMedium:   "blue",
		PriorityHigh:     "orange",
		PriorityCritical: "red",
	}
)

// InAppIcon returns the icon class shown for typ.
func InAppIcon(typ Type) string {
	if icon, ok := inAppIcons[typ]; ok {
		return icon
	}
	return "fa-bell"
}

// InAppColor returns the accent colour shown for p.
func InAppColor(p Priority) string {
	if c, ok := inAppColors[p]; ok {
		return c
	}
	return inAppColors[PriorityMedium]
}

type inAppSender struct {
	inbox *inapp.Inbox
	cfg   InAppConfig
}

// NewInAppSender pushes messages to the dashboard inbox.
func NewInAppSender(inbox *inapp.Inbox, cfg InAppConfig) Sender {
	return &inAppSender{inbox: inbox, cfg: cfg}
}

func (s *inAppSender) Channel() Channel { return ChannelInApp }

func (s *inAppSender) Send(ctx context.Context, msg Message) error {
	if s.inbox == nil {
		return fmt.Errorf("%w: no inbox", ErrChannelDelivery)
	}
	err := s.inbox.Push(ctx, inapp.Notification{
		ID:        msg.ID,
		Type:      string(msg.Type),
		Title:     msg.Title,
		Message:   msg.Message,
		Priority:  string(msg.Priority),
		Icon:      InAppIcon(msg.Type),
		Color:     InAppColor(msg.Priority),
		Position:  s.cfg.Position,
		Duration:  s.cfg.Duration,
		Data:      msg.Data,
		CreatedAt: msg.CreatedAt,
	})
	if err != nil {
		return deliveryError(err)
	}
	return nil
}

