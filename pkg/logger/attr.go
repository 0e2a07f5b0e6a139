package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// MessageID records the notification message identifier.
func MessageID(id string) slog.Attr {
	return slog.String("message_id", id)
}

// Channel records the delivery channel name.
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// NotificationType records the template type key of a notification.
func NotificationType(t string) slog.Attr {
	return slog.String("notification_type", t)
}

func Priority(p string) slog.Attr {
	return slog.String("priority", p)
}

func Status(s string) slog.Attr {
	return slog.String("status", s)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// RequestID records the HTTP request identifier. Empty ids produce an empty Attr.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}
