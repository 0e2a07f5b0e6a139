package notifications

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type is a notification template key.
type Type string

const (
	TypeTradeAlert      Type = "trade_alert"
	TypePriceAlert      Type = "price_alert"
	TypeSystemAlert     Type = "system_alert"
	TypeAIInsight       Type = "ai_insight"
	TypePortfolioUpdate Type = "portfolio_update"
)

// Priority selects default channels and whether delivery is immediate.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority validates p. An empty string yields PriorityMedium.
func ParsePriority(p string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(p))) {
	case "":
		return PriorityMedium, nil
	case PriorityLow:
		return PriorityLow, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	case PriorityCritical:
		return PriorityCritical, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, p)
}

// Channel is a delivery medium.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelTelegram Channel = "telegram"
	ChannelSMS      Channel = "sms"
	ChannelInApp    Channel = "inapp"
)

// AllChannels lists every channel in default delivery order.
var AllChannels = []Channel{ChannelInApp, ChannelTelegram, ChannelEmail, ChannelSMS}

// ParseChannel validates c.
func ParseChannel(c string) (Channel, error) {
	ch := Channel(strings.ToLower(strings.TrimSpace(c)))
	if slices.Contains(AllChannels, ch) {
		return ch, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChannel, c)
}

// DefaultChannels returns the channels used when a message names none.
func DefaultChannels(p Priority) []Channel {
	switch p {
	case PriorityCritical:
		return []Channel{ChannelInApp, ChannelTelegram, ChannelEmail, ChannelSMS}
	case PriorityHigh:
		return []Channel{ChannelInApp, ChannelTelegram, ChannelEmail}
	case PriorityLow:
		return []Channel{ChannelInApp}
	default:
		return []Channel{ChannelInApp, ChannelTelegram}
	}
}

// Status is the delivery state of a message.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusRetry   Status = "retry"
)

// Delivery is the outcome of the latest attempt on one channel.
type Delivery struct {
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// Message is a formatted notification and its delivery state. Channels are
// fixed at creation; only Status, SentAt, RetryCount and Deliveries change.
type Message struct {
	ID         string               `json:"id"`
	Type       Type                 `json:"type"`
	Title      string               `json:"title"`
	Message    string               `json:"message"`
	Priority   Priority             `json:"priority"`
	Channels   []Channel            `json:"channels"`
	Data       map[string]any       `json:"data"`
	Recipient  string               `json:"recipient,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	SentAt     *time.Time           `json:"sent_at,omitempty"`
	Status     Status               `json:"status"`
	RetryCount int                  `json:"retry_count"`
	Deliveries map[Channel]Delivery `json:"deliveries,omitempty"`
}

// Settled reports whether no further processing will happen.
func (m Message) Settled() bool {
	return m.Status == StatusSent || m.Status == StatusFailed
}

func (m Message) clone() Message {
	c := m
	c.Channels = slices.Clone(m.Channels)
	c.Data = maps.Clone(m.Data)
	c.Deliveries = maps.Clone(m.Deliveries)
	if m.SentAt != nil {
		t := *m.SentAt
		c.SentAt = &t
	}
	return c
}

// newMessageID returns notif_<unix millis>_<8 hex chars>.
func newMessageID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("notif_%d_%s", now.UnixMilli(), suffix)
}

// uniqueChannels drops repeats, keeping first occurrences in order.
func uniqueChannels(in []Channel) []Channel {
	out := make([]Channel, 0, len(in))
	for _, ch := range in {
		if !slices.Contains(out, ch) {
			out = append(out, ch)
		}
	}
	return out
}
