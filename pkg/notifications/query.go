package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/titanhq/notifier/pkg/logger"
)

// History returns every retained message, newest first.
func (d *Dispatcher) History() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history.newestFirst(0, 0)
}

// HistoryPage returns up to limit messages newest first after skipping
// offset, together with the number of retained messages.
func (d *Dispatcher) HistoryPage(limit, offset int) ([]Message, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history.newestFirst(limit, offset), d.history.len()
}

// Get returns the message with the given id.
func (d *Dispatcher) Get(id string) (Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.history.get(id)
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	return e.msg.clone(), nil
}

// ChannelStats counts messages addressed to a channel and the outcome of
// their latest attempt on it.
type ChannelStats struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Stats summarises the retained history.
type Stats struct {
	Total       int                      `json:"total"`
	Sent        int                      `json:"sent"`
	Failed      int                      `json:"failed"`
	Pending     int                      `json:"pending"`
	Retrying    int                      `json:"retrying"`
	SuccessRate float64                  `json:"success_rate"`
	ByType      map[Type]int             `json:"by_type"`
	ByChannel   map[Channel]ChannelStats `json:"by_channel"`
}

// Stats computes delivery counters. SuccessRate is sent/total as a
// percentage rounded to two decimals.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Stats{
		ByType:    make(map[Type]int),
		ByChannel: make(map[Channel]ChannelStats),
	}
	for _, e := range d.history.entries {
		m := &e.msg
		s.Total++
		s.ByType[m.Type]++
		switch m.Status {
		case StatusSent:
			s.Sent++
		case StatusFailed:
			s.Failed++
		case StatusPending:
			s.Pending++
		case StatusRetry:
			s.Retrying++
		}

		for _, ch := range m.Channels {
			cs := s.ByChannel[ch]
			cs.Total++
			if dl, ok := m.Deliveries[ch]; ok {
				if dl.Success {
					cs.Sent++
				} else {
					cs.Failed++
				}
			}
			s.ByChannel[ch] = cs
		}
	}
	if s.Total > 0 {
		s.SuccessRate = math.Round(float64(s.Sent)/float64(s.Total)*10000) / 100
	}
	return s
}

// TestResult reports the outcome of TestNotification.
type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const defaultTestMessage = "This is a test notification from TITAN Trading System."

// TestNotification sends a one-off system message on a single channel,
// bypassing the queue and history. An empty recipient uses the configured
// default.
func (d *Dispatcher) TestNotification(ctx context.Context, ch Channel, recipient, message string) TestResult {
	ch, err := ParseChannel(string(ch))
	if err != nil {
		return TestResult{Message: err.Error()}
	}
	if message == "" {
		message = defaultTestMessage
	}

	now := d.now()
	msg := Message{
		ID:        newMessageID(now),
		Type:      TypeSystemAlert,
		Title:     "TITAN Test Notification",
		Message:   message,
		Priority:  PriorityLow,
		Channels:  []Channel{ch},
		Data:      map[string]any{"test": true, "channel": string(ch)},
		Recipient: recipient,
		CreatedAt: now,
		Status:    StatusPending,
	}

	d.mu.Lock()
	cfg := d.cfg
	senders := d.senders
	d.mu.Unlock()

	if err := d.sendOne(ctx, ch, msg, cfg, senders); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "test notification failed",
			logger.Channel(string(ch)),
			logger.Error(err),
		)
		return TestResult{Message: fmt.Sprintf("Test notification failed via %s: %v", ch, err)}
	}
	return TestResult{Success: true, Message: fmt.Sprintf("Test notification sent successfully via %s", ch)}
}

// GetConfig returns a copy of the current configuration.
func (d *Dispatcher) GetConfig() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// ConfigStatus returns the credential-free channel summary.
func (d *Dispatcher) ConfigStatus() ConfigStatus {
	return d.GetConfig().Status()
}

// UpdateConfig applies fn to a copy of the configuration, installs the
// result and rebuilds channel senders. In-flight deliveries keep the
// senders they started with.
func (d *Dispatcher) UpdateConfig(fn func(*Config)) Config {
	d.mu.Lock()
	cfg := d.cfg
	if fn != nil {
		fn(&cfg)
	}
	d.cfg = cfg.normalize()
	var evicted []Message
	for _, ev := range d.history.resize(d.cfg.HistoryCapacity) {
		evicted = append(evicted, ev.msg.clone())
	}
	d.senders = d.buildSenders(d.cfg)
	cfg = d.cfg
	d.mu.Unlock()

	for _, ev := range evicted {
		d.logger.LogAttrs(context.Background(), slog.LevelWarn, "history shrunk, evicted unsettled notification",
			logger.MessageID(ev.ID),
			logger.Status(string(ev.Status)),
		)
	}
	return cfg
}
