package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/titanhq/notifier/pkg/inapp"
	"github.com/titanhq/notifier/pkg/notifications"
)

// sendResult summarises a queued message.
type sendResult struct {
	NotificationID string                  `json:"notification_id"`
	Title          string                  `json:"title"`
	Type           notifications.Type      `json:"type"`
	Priority       notifications.Priority  `json:"priority"`
	Channels       []notifications.Channel `json:"channels"`
	Status         notifications.Status    `json:"status"`
}

func resultOf(m notifications.Message) sendResult {
	return sendResult{
		NotificationID: m.ID,
		Title:          m.Title,
		Type:           m.Type,
		Priority:       m.Priority,
		Channels:       m.Channels,
		Status:         m.Status,
	}
}

type pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

type historyPage struct {
	Notifications []notifications.Message `json:"notifications"`
	Pagination    pagination              `json:"pagination"`
}

type inAppPoll struct {
	Notifications []inapp.Notification `json:"notifications"`
	Count         int                  `json:"count"`
}

type testOutcome struct {
	Channel   string    `json:"channel"`
	Recipient string    `json:"recipient"`
	TestedAt  time.Time `json:"tested_at"`
}

type queueRun struct {
	Processed   int       `json:"processed"`
	ProcessedAt time.Time `json:"processed_at"`
}

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	ok(w, h.svc.ConfigStatus(), "Notification configuration retrieved")
}

// updateConfig merges the JSON body into the current configuration. Fields
// absent from the body keep their values.
func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, r, badRequest("invalid request body: %v", err), "Failed to update notification configuration")
		return
	}
	if len(body) == 0 {
		h.fail(w, r, badRequest("request body is empty"), "Failed to update notification configuration")
		return
	}

	var mergeErr error
	cfg := h.svc.UpdateConfig(func(c *notifications.Config) {
		next := *c
		if err := json.Unmarshal(body, &next); err != nil {
			mergeErr = badRequest("invalid request body: %v", err)
			return
		}
		*c = next
	})
	if mergeErr != nil {
		h.fail(w, r, mergeErr, "Failed to update notification configuration")
		return
	}
	ok(w, cfg.Status(), "Notification configuration updated")
}

func (h *Handler) test(w http.ResponseWriter, r *http.Request) {
	var req testRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err, "Please specify a valid notification channel to test")
		return
	}

	res := h.svc.TestNotification(r.Context(), notifications.Channel(req.Channel), req.Recipient, req.Message)
	recipient := req.Recipient
	if recipient == "" {
		recipient = "default"
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success: res.Success,
		Message: res.Message,
		Data:    testOutcome{Channel: req.Channel, Recipient: recipient, TestedAt: h.now().UTC()},
	})
}

func (h *Handler) trade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err, "Please provide all required trade information")
		return
	}
	msg, err := h.svc.SendTradeAlert(r.Context(), req.Symbol, req.Side, float64(req.Price), float64(req.Quantity), req.Agent)
	if err != nil {
		h.fail(w, r, err, "Failed to send trade notification")
		return
	}
	ok(w, resultOf(msg), "Trade notification sent")
}

func (h *Handler) priceAlert(w http.ResponseWriter, r *http.Request) {
	var req priceAlertRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err, "Please provide all required price alert information")
		return
	}
	msg, err := h.svc.SendPriceAlert(r.Context(), req.Symbol, float64(req.Price), float64(req.Target), req.Direction)
	if err != nil {
		h.fail(w, r, err, "Failed to send price alert")
		return
	}
	ok(w, resultOf(msg), "Price alert sent")
}

// system falls back to medium priority for unknown values.
func (h *Handler) system(w http.ResponseWriter, r *http.Request) {
	var req systemRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err, "Please provide both title and message for system alert")
		return
	}
	priority, err := notifications.ParsePriority(req.Priority)
	if err != nil {
		priority = notifications.PriorityMedium
	}
	msg, err := h.svc.SendSystemAlert(r.Context(), req.Title, req.Message, priority)
	if err != nil {
		h.fail(w, r, err, "Failed to send system alert")
		return
	}
	ok(w, resultOf(msg), "System alert sent")
}

func (h *Handler) custom(w http.ResponseWriter, r *http.Request) {
	var req customRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err, "Please provide notification type and data")
		return
	}
	channels := make([]notifications.Channel, 0, len(req.Channels))
	for _, c := range req.Channels {
		ch, err := notifications.ParseChannel(c)
		if err != nil {
			h.fail(w, r, err, "Failed to send custom notification")
			return
		}
		channels = append(channels, ch)
	}

	msg, err := h.svc.Send(r.Context(), notifications.Type(req.Type), req.Data, notifications.Priority(req.Priority), channels...)
	if err != nil {
		h.fail(w, r, err, "Failed to send custom notification")
		return
	}
	ok(w, resultOf(msg), "Custom notification sent")
}

func (h *Handler) processQueue(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ProcessQueue(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to process notification queue")
		return
	}
	ok(w, queueRun{Processed: n, ProcessedAt: h.now().UTC()}, "Notification queue processed successfully")
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	ok(w, h.svc.Stats(), "Notification statistics retrieved")
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		h.fail(w, r, err, "Failed to get notification history")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.fail(w, r, err, "Failed to get notification history")
		return
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)
	offset = max(offset, 0)

	page, total := h.svc.HistoryPage(limit, offset)
	if page == nil {
		page = []notifications.Message{}
	}
	ok(w, historyPage{
		Notifications: page,
		Pagination: pagination{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+limit < total,
		},
	}, "Notification history retrieved")
}

// inApp returns up to ten active in-app notifications and removes them
// from the active list.
func (h *Handler) inApp(w http.ResponseWriter, r *http.Request) {
	if h.inbox == nil {
		h.fail(w, r, errors.New("in-app storage not available"), "Failed to retrieve in-app notifications")
		return
	}
	list, err := h.inbox.Poll(r.Context(), inAppPollLimit)
	if err != nil {
		h.fail(w, r, err, "Failed to retrieve in-app notifications")
		return
	}
	if list == nil {
		list = []inapp.Notification{}
	}
	ok(w, inAppPoll{Notifications: list, Count: len(list)},
		"Retrieved "+strconv.Itoa(len(list))+" in-app notifications")
}

// get looks in the in-memory history first and then in the archive.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	msg, err := h.svc.Get(id)
	if errors.Is(err, notifications.ErrMessageNotFound) && h.archive != nil {
		msg, err = h.archive.Get(r.Context(), id)
	}
	if err != nil {
		h.fail(w, r, err, "Failed to get notification")
		return
	}
	ok(w, msg, "Notification retrieved")
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%s must be an integer", key)
	}
	return n, nil
}
