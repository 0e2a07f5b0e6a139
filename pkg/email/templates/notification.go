package templates

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
)

// NotificationData is the content of a notification email.
type NotificationData struct {
	Title     string
	Message   string
	Priority  string
	Type      string
	CreatedAt time.Time
	Data      map[string]any
}

var priorityColors = map[string]string{
	"low":      "#6b7280",
	"medium":   "#2563eb",
	"high":     "#ea580c",
	"critical": "#dc2626",
}

// Notification renders a self-contained HTML email with inline styles.
// Data is appended as an indented JSON block when present.
func Notification(n NotificationData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		color, ok := priorityColors[n.Priority]
		if !ok {
			color = priorityColors["medium"]
		}

		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>`)
		b.WriteString(templ.EscapeString(n.Title))
		b.WriteString(`</title></head><body style="margin:0;padding:24px;background:#f3f4f6;font-family:Arial,sans-serif;">`)
		b.WriteString(`<div style="max-width:600px;margin:0 auto;background:#ffffff;border-radius:8px;overflow:hidden;">`)
		b.WriteString(`<div style="background:` + color + `;color:#ffffff;padding:16px 24px;">`)
		b.WriteString(`<h1 style="margin:0;font-size:20px;">`)
		b.WriteString(templ.EscapeString(n.Title))
		b.WriteString(`</h1><p style="margin:4px 0 0;font-size:12px;text-transform:uppercase;">`)
		b.WriteString(templ.EscapeString(n.Priority))
		b.WriteString(` &middot; `)
		b.WriteString(templ.EscapeString(n.Type))
		b.WriteString(`</p></div><div style="padding:24px;color:#111827;">`)
		b.WriteString(`<p style="font-size:16px;line-height:1.5;">`)
		b.WriteString(templ.EscapeString(n.Message))
		b.WriteString(`</p>`)

		if len(n.Data) > 0 {
			raw, err := json.MarshalIndent(n.Data, "", "  ")
			if err != nil {
				return err
			}
			b.WriteString(`<pre style="background:#f9fafb;border:1px solid #e5e7eb;padding:12px;font-size:12px;white-space:pre-wrap;">`)
			b.WriteString(templ.EscapeString(string(raw)))
			b.WriteString(`</pre>`)
		}

		b.WriteString(`<p style="font-size:12px;color:#6b7280;">`)
		b.WriteString(templ.EscapeString(n.CreatedAt.UTC().Format(time.RFC1123)))
		b.WriteString(`</p></div></div></body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
