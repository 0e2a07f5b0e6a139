package inapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/titanhq/notifier/pkg/kv"
)

const (
	// ActiveKey holds the JSON list of notification ids waiting to be shown.
	ActiveKey = "active_notifications"
	// KeyPrefix prefixes each stored notification.
	KeyPrefix = "inapp_notification_"

	DefaultTTL       = time.Hour
	DefaultMaxActive = 50
	DefaultPollLimit = 10
)

// Notification is the payload the dashboard renders as a toast.
type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Priority  string         `json:"priority"`
	Icon      string         `json:"icon"`
	Color     string         `json:"color"`
	Position  string         `json:"position,omitempty"`
	Duration  int            `json:"duration,omitempty"` // milliseconds
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Key returns the storage key of the notification with the given id.
func Key(id string) string {
	return KeyPrefix + id
}

// Inbox stores in-app notifications in a kv.Store and maintains the bounded
// list of active ids. The read-modify-write of the active list is serialised
// within one process only.
type Inbox struct {
	store     kv.Store
	ttl       time.Duration
	maxActive int
	mu        sync.Mutex
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithTTL overrides how long notifications and the active list live.
func WithTTL(ttl time.Duration) Option {
	return func(i *Inbox) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithMaxActive overrides the active list capacity.
func WithMaxActive(n int) Option {
	return func(i *Inbox) {
		if n > 0 {
			i.maxActive = n
		}
	}
}

// NewInbox creates an inbox on top of store.
func NewInbox(store kv.Store, opts ...Option) *Inbox {
	i := &Inbox{
		store:     store,
		ttl:       DefaultTTL,
		maxActive: DefaultMaxActive,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Push stores the notification and appends its id to the active list,
// dropping the oldest ids once the list exceeds its capacity.
func (i *Inbox) Push(ctx context.Context, n Notification) error {
	if n.ID == "" {
		return ErrMissingID
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("inapp: marshal notification: %w", err)
	}
	if err := i.store.Set(ctx, Key(n.ID), payload, i.ttl); err != nil {
		return errors.Join(ErrStorage, err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	ids, err := i.activeIDs(ctx)
	if err != nil {
		return err
	}
	ids = append(ids, n.ID)
	if over := len(ids) - i.maxActive; over > 0 {
		ids = ids[over:]
	}
	return i.saveActive(ctx, ids)
}

// Active returns the ids currently in the active list, oldest first.
func (i *Inbox) Active(ctx context.Context) ([]string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.activeIDs(ctx)
}

// Poll returns up to limit active notifications, oldest first, and removes
// the returned ids from the active list. Ids whose payload expired or cannot
// be decoded are dropped from the list and do not count towards limit.
func (i *Inbox) Poll(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultPollLimit
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	ids, err := i.activeIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Notification{}, nil
	}

	out := make([]Notification, 0, min(limit, len(ids)))
	consumed := 0
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		consumed++

		raw, err := i.store.Get(ctx, Key(id))
		if err != nil {
			if errors.Is(err, kv.ErrNotFound) {
				continue
			}
			return nil, errors.Join(ErrStorage, err)
		}
		var n Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			continue
		}
		out = append(out, n)
	}

	remaining := ids[consumed:]
	if len(remaining) == 0 {
		if err := i.store.Delete(ctx, ActiveKey); err != nil {
			return nil, errors.Join(ErrStorage, err)
		}
		return out, nil
	}
	if err := i.saveActive(ctx, remaining); err != nil {
		return nil, err
	}
	return out, nil
}

func (i *Inbox) activeIDs(ctx context.Context) ([]string, error) {
	raw, err := i.store.Get(ctx, ActiveKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []string{}, nil
		}
		return nil, errors.Join(ErrStorage, err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		// A corrupted list is replaced on the next write.
		return []string{}, nil
	}
	return ids, nil
}

func (i *Inbox) saveActive(ctx context.Context, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("inapp: marshal active list: %w", err)
	}
	if err := i.store.Set(ctx, ActiveKey, raw, i.ttl); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}
