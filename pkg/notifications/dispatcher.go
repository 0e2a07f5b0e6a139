package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/titanhq/notifier/pkg/logger"
)

// Archive persists settled messages. Failures are logged and otherwise ignored.
type Archive interface {
	Save(ctx context.Context, msg Message) error
}

// Dispatcher queues, delivers and retries notifications.
type Dispatcher struct {
	mu       sync.Mutex
	cfg      Config
	senders  map[Channel]Sender
	explicit []Sender
	build    ChannelBuilder
	history  *history

	registry *Registry
	archive  Archive
	backoff  BackoffStrategy
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger for the Dispatcher.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithRegistry replaces the built-in template registry.
func WithRegistry(r *Registry) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.registry = r
		}
	}
}

// WithSenders registers senders that take precedence over built ones and
// survive UpdateConfig.
func WithSenders(senders ...Sender) Option {
	return func(d *Dispatcher) {
		d.explicit = append(d.explicit, senders...)
	}
}

// WithChannelBuilder sets the function that derives senders from Config.
func WithChannelBuilder(b ChannelBuilder) Option {
	return func(d *Dispatcher) {
		d.build = b
	}
}

// WithArchive stores every message once it is sent or permanently failed.
func WithArchive(a Archive) Option {
	return func(d *Dispatcher) {
		d.archive = a
	}
}

// WithBackoff sets the retry delay strategy.
func WithBackoff(b BackoffStrategy) Option {
	return func(d *Dispatcher) {
		if b != nil {
			d.backoff = b
		}
	}
}

// WithHistoryCapacity overrides Config.HistoryCapacity.
func WithHistoryCapacity(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.cfg.HistoryCapacity = n
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a dispatcher. Use DefaultConfig as the starting
// point: a zero Config disables every channel.
func NewDispatcher(cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		registry: NewRegistry(),
		backoff:  DefaultBackoff(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.cfg = d.cfg.normalize()
	d.history = newHistory(d.cfg.HistoryCapacity)
	d.logger = d.logger.With(logger.Component("notifications"))
	d.senders = d.buildSenders(d.cfg)
	return d
}

func (d *Dispatcher) buildSenders(cfg Config) map[Channel]Sender {
	out := make(map[Channel]Sender, len(AllChannels))
	if d.build != nil {
		for _, s := range d.build(cfg) {
			if s != nil {
				out[s.Channel()] = s
			}
		}
	}
	for _, s := range d.explicit {
		out[s.Channel()] = s
	}
	return out
}

// Registry returns the template registry in use.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Send formats the template for typ with data and queues the message. With no
// channels the priority's default set is used. Critical messages are
// delivered before Send returns; the returned snapshot reflects the outcome.
// Only template lookup and argument validation fail Send.
func (d *Dispatcher) Send(ctx context.Context, typ Type, data map[string]any, priority Priority, channels ...Channel) (Message, error) {
	tmpl, err := d.registry.Lookup(typ)
	if err != nil {
		return Message{}, err
	}

	priority, err = ParsePriority(string(priority))
	if err != nil {
		return Message{}, err
	}
	parsed := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		ch, err := ParseChannel(string(ch))
		if err != nil {
			return Message{}, err
		}
		parsed = append(parsed, ch)
	}
	channels = parsed

	if len(channels) == 0 {
		channels = DefaultChannels(priority)
	}

	now := d.now()
	e := &entry{msg: Message{
		ID:        newMessageID(now),
		Type:      typ,
		Title:     Format(tmpl.Title, data),
		Message:   Format(tmpl.Message, data),
		Priority:  priority,
		Channels:  uniqueChannels(channels),
		Data:      maps.Clone(data),
		CreatedAt: now,
		Status:    StatusPending,
	}}
	if e.msg.Data == nil {
		e.msg.Data = map[string]any{}
	}

	d.mu.Lock()
	var evicted []Message
	for _, ev := range d.history.add(e) {
		evicted = append(evicted, ev.msg.clone())
	}
	snapshot := e.msg.clone()
	d.mu.Unlock()

	for _, ev := range evicted {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "history full, evicted unsettled notification",
			logger.MessageID(ev.ID),
			logger.Status(string(ev.Status)),
		)
	}

	d.logger.LogAttrs(ctx, slog.LevelDebug, "notification queued",
		logger.MessageID(snapshot.ID),
		logger.NotificationType(string(typ)),
		logger.Priority(string(priority)),
	)

	if priority == PriorityCritical {
		return d.process(ctx, e), nil
	}
	return snapshot, nil
}

// SendTradeAlert queues a high-priority trade execution notice.
func (d *Dispatcher) SendTradeAlert(ctx context.Context, symbol, side string, price, quantity float64, agent string) (Message, error) {
	if agent == "" {
		agent = "ARTEMIS"
	}
	return d.Send(ctx, TypeTradeAlert, map[string]any{
		"symbol":   symbol,
		"side":     side,
		"price":    price,
		"quantity": quantity,
		"agent":    agent,
	}, PriorityHigh)
}

// SendPriceAlert queues a medium-priority price threshold notice.
func (d *Dispatcher) SendPriceAlert(ctx context.Context, symbol string, price, target float64, direction string) (Message, error) {
	return d.Send(ctx, TypePriceAlert, map[string]any{
		"symbol":       symbol,
		"currentPrice": price,
		"target":       target,
		"direction":    direction,
	}, PriorityMedium)
}

// SendSystemAlert queues a free-form system notice.
func (d *Dispatcher) SendSystemAlert(ctx context.Context, title, message string, priority Priority) (Message, error) {
	return d.Send(ctx, TypeSystemAlert, map[string]any{
		"title":   title,
		"message": message,
	}, priority)
}

// ProcessNotification delivers the message with the given id if it is
// pending or awaiting retry and not already being processed.
func (d *Dispatcher) ProcessNotification(ctx context.Context, id string) (Message, error) {
	d.mu.Lock()
	e, ok := d.history.get(id)
	d.mu.Unlock()
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	return d.process(ctx, e), nil
}

// ProcessQueue delivers every pending message, at most Concurrency at a time,
// and returns how many were processed. Messages not started before ctx is
// cancelled stay pending.
func (d *Dispatcher) ProcessQueue(ctx context.Context) (int, error) {
	d.mu.Lock()
	batch := d.history.filter(func(e *entry) bool {
		return !e.inFlight && e.msg.Status == StatusPending
	})
	limit := d.cfg.Concurrency
	d.mu.Unlock()

	return d.processAll(ctx, batch, limit)
}

// ProcessRetries moves messages whose backoff has elapsed back to pending and
// delivers them.
func (d *Dispatcher) ProcessRetries(ctx context.Context) (int, error) {
	now := d.now()

	d.mu.Lock()
	batch := d.history.filter(func(e *entry) bool {
		return !e.inFlight && e.msg.Status == StatusRetry && !e.retryAt.After(now)
	})
	for _, e := range batch {
		e.msg.Status = StatusPending
	}
	limit := d.cfg.Concurrency
	d.mu.Unlock()

	return d.processAll(ctx, batch, limit)
}

// RunRetries calls ProcessRetries every interval until ctx is done.
func (d *Dispatcher) RunRetries(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = d.GetConfig().RetryInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n, err := d.ProcessRetries(ctx); err == nil && n > 0 {
				d.logger.LogAttrs(ctx, slog.LevelDebug, "retries processed", slog.Int("count", n))
			}
		}
	}
}

func (d *Dispatcher) processAll(ctx context.Context, batch []*entry, limit int) (int, error) {
	var (
		mu        sync.Mutex
		processed int
	)
	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, e := range batch {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d.process(ctx, e)
			mu.Lock()
			processed++
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return processed, err
}

type outcome struct {
	channel Channel
	err     error
	at      time.Time
}

// process delivers e on all of its channels and applies the result. It is a
// no-op returning the current snapshot when e is in flight or settled.
func (d *Dispatcher) process(ctx context.Context, e *entry) Message {
	d.mu.Lock()
	if e.inFlight || (e.msg.Status != StatusPending && e.msg.Status != StatusRetry) {
		snapshot := e.msg.clone()
		d.mu.Unlock()
		return snapshot
	}
	e.inFlight = true
	prior := e.msg.Status
	msg := e.msg.clone()
	cfg := d.cfg
	senders := d.senders
	d.mu.Unlock()

	start := d.now()
	outcomes := d.deliver(ctx, msg, cfg, senders)

	d.mu.Lock()
	if ctx.Err() != nil && !anySucceeded(outcomes) {
		// Aborted by the caller rather than the providers: leave it for the
		// next run without spending a retry.
		e.msg.Status = prior
		e.inFlight = false
		snapshot := e.msg.clone()
		d.mu.Unlock()
		d.logger.LogAttrs(ctx, slog.LevelDebug, "notification processing cancelled",
			logger.MessageID(snapshot.ID),
			logger.Error(ctx.Err()),
		)
		return snapshot
	}
	if e.msg.Deliveries == nil {
		e.msg.Deliveries = make(map[Channel]Delivery, len(outcomes))
	}
	succeeded := 0
	for _, o := range outcomes {
		dl := Delivery{Success: o.err == nil, At: o.at}
		if o.err != nil {
			dl.Error = o.err.Error()
		} else {
			succeeded++
		}
		e.msg.Deliveries[o.channel] = dl
	}

	switch {
	case succeeded > 0:
		e.msg.Status = StatusSent
		if e.msg.SentAt == nil {
			t := d.now()
			e.msg.SentAt = &t
		}
	case e.msg.RetryCount < cfg.MaxRetries:
		e.msg.RetryCount++
		e.msg.Status = StatusRetry
		e.retryAt = d.now().Add(d.backoff.NextInterval(e.msg.RetryCount))
	default:
		e.msg.Status = StatusFailed
	}
	e.inFlight = false
	snapshot := e.msg.clone()
	d.mu.Unlock()

	attrs := []slog.Attr{
		logger.MessageID(snapshot.ID),
		logger.NotificationType(string(snapshot.Type)),
		logger.Status(string(snapshot.Status)),
		logger.RetryCount(snapshot.RetryCount),
		logger.Duration(d.now().Sub(start)),
		slog.Int("channels_ok", succeeded),
		slog.Int("channels_total", len(outcomes)),
	}
	switch snapshot.Status {
	case StatusSent:
		d.logger.LogAttrs(ctx, slog.LevelInfo, "notification sent", attrs...)
	case StatusRetry:
		d.logger.LogAttrs(ctx, slog.LevelWarn, "notification failed, retry scheduled", attrs...)
	default:
		d.logger.LogAttrs(ctx, slog.LevelError, "notification failed permanently", attrs...)
	}

	if snapshot.Settled() && d.archive != nil {
		d.save(ctx, snapshot, cfg.SendTimeout)
	}
	return snapshot
}

func anySucceeded(outcomes []outcome) bool {
	return slices.ContainsFunc(outcomes, func(o outcome) bool { return o.err == nil })
}

// deliver runs every channel of msg concurrently and waits for all of them.
func (d *Dispatcher) deliver(ctx context.Context, msg Message, cfg Config, senders map[Channel]Sender) []outcome {
	outcomes := make([]outcome, len(msg.Channels))
	var g errgroup.Group
	for i, ch := range msg.Channels {
		g.Go(func() error {
			err := d.sendOne(ctx, ch, msg, cfg, senders)
			outcomes[i] = outcome{channel: ch, err: err, at: d.now()}
			if err != nil {
				d.logger.LogAttrs(ctx, slog.LevelWarn, "channel delivery failed",
					logger.MessageID(msg.ID),
					logger.Channel(string(ch)),
					logger.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// sendOne sends msg on ch under its own timeout. Sender panics are reported
// as delivery failures.
func (d *Dispatcher) sendOne(ctx context.Context, ch Channel, msg Message, cfg Config, senders map[Channel]Sender) (err error) {
	if !cfg.Enabled(ch) {
		return ErrChannelDisabled
	}
	s, ok := senders[ch]
	if !ok {
		return ErrChannelNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrChannelDelivery, r)
		}
	}()

	err = s.Send(ctx, msg)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrChannelDelivery) {
		err = fmt.Errorf("%w: %w", ErrChannelDelivery, err)
	}
	return err
}

func (d *Dispatcher) save(ctx context.Context, msg Message, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := d.archive.Save(ctx, msg); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "failed to archive notification",
			logger.MessageID(msg.ID),
			logger.Error(err),
		)
	}
}
