// Package archive keeps a durable log of settled notifications in Postgres.
package archive

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/titanhq/notifier/pkg/notifications"
	"github.com/titanhq/notifier/pkg/pg"
)

// Migrations holds the goose migrations for the notification_log table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

var (
	ErrNotFound     = errors.New("archive: notification not found")
	ErrSaveFailed   = errors.New("archive: save failed")
	ErrLookupFailed = errors.New("archive: lookup failed")
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements notifications.Archive on a notification_log table.
type Store struct {
	db DB
}

// New returns a store over db.
func New(db DB) *Store {
	return &Store{db: db}
}

const upsertQuery = `
INSERT INTO notification_log
    (id, type, title, message, priority, channels, data, status, retry_count, deliveries, created_at, sent_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
    status      = EXCLUDED.status,
    retry_count = EXCLUDED.retry_count,
    deliveries  = EXCLUDED.deliveries,
    sent_at     = COALESCE(notification_log.sent_at, EXCLUDED.sent_at),
    archived_at = now()`

// Save upserts msg. Re-saving an id updates its delivery state only.
func (s *Store) Save(ctx context.Context, msg notifications.Message) error {
	data, err := json.Marshal(nonNil(msg.Data))
	if err != nil {
		return fmt.Errorf("%w: encode data: %w", ErrSaveFailed, err)
	}
	deliveries, err := json.Marshal(msg.Deliveries)
	if err != nil {
		return fmt.Errorf("%w: encode deliveries: %w", ErrSaveFailed, err)
	}
	if msg.Deliveries == nil {
		deliveries = []byte("{}")
	}

	channels := make([]string, len(msg.Channels))
	for i, ch := range msg.Channels {
		channels[i] = string(ch)
	}

	_, err = s.db.Exec(ctx, upsertQuery,
		msg.ID,
		string(msg.Type),
		msg.Title,
		msg.Message,
		string(msg.Priority),
		channels,
		data,
		string(msg.Status),
		msg.RetryCount,
		deliveries,
		msg.CreatedAt,
		msg.SentAt,
	)
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	return nil
}

const getQuery = `
SELECT id, type, title, message, priority, channels, data, status, retry_count, deliveries, created_at, sent_at
FROM notification_log
WHERE id = $1`

// Get loads an archived message by id.
func (s *Store) Get(ctx context.Context, id string) (notifications.Message, error) {
	var (
		msg        notifications.Message
		typ        string
		priority   string
		status     string
		channels   []string
		data       []byte
		deliveries []byte
		sentAt     *time.Time
	)
	err := s.db.QueryRow(ctx, getQuery, id).Scan(
		&msg.ID, &typ, &msg.Title, &msg.Message, &priority, &channels,
		&data, &status, &msg.RetryCount, &deliveries, &msg.CreatedAt, &sentAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return notifications.Message{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return notifications.Message{}, errors.Join(ErrLookupFailed, err)
	}

	msg.Type = notifications.Type(typ)
	msg.Priority = notifications.Priority(priority)
	msg.Status = notifications.Status(status)
	msg.SentAt = sentAt
	msg.Channels = make([]notifications.Channel, len(channels))
	for i, ch := range channels {
		msg.Channels[i] = notifications.Channel(ch)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg.Data); err != nil {
			return notifications.Message{}, errors.Join(ErrLookupFailed, err)
		}
	}
	if len(deliveries) > 0 {
		if err := json.Unmarshal(deliveries, &msg.Deliveries); err != nil {
			return notifications.Message{}, errors.Join(ErrLookupFailed, err)
		}
	}
	return msg, nil
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
