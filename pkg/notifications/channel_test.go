package notifications_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titanhq/notifier/pkg/email"
	"github.com/titanhq/notifier/pkg/inapp"
	"github.com/titanhq/notifier/pkg/kv"
	"github.com/titanhq/notifier/pkg/notifications"
	"github.com/titanhq/notifier/pkg/sms"
	"github.com/titanhq/notifier/pkg/telegram"
)

func sampleMessage() notifications.Message {
	return notifications.Message{
		ID:        "notif_1714564800000_abcdef01",
		Type:      notifications.TypePriceAlert,
		Title:     "Price Alert: BTC at $50000",
		Message:   "BTC moved above your target of $49000",
		Priority:  notifications.PriorityHigh,
		Channels:  []notifications.Channel{notifications.ChannelInApp},
		Data:      map[string]any{"symbol": "BTC"},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Status:    notifications.StatusPending,
	}
}

func TestInAppIconAndColor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fa-exchange-alt", notifications.InAppIcon(notifications.TypeTradeAlert))
	assert.Equal(t, "fa-chart-line", notifications.InAppIcon(notifications.TypePriceAlert))
	assert.Equal(t, "fa-exclamation-triangle", notifications.InAppIcon(notifications.TypeSystemAlert))
	assert.Equal(t, "fa-brain", notifications.InAppIcon(notifications.TypeAIInsight))
	assert.Equal(t, "fa-wallet", notifications.InAppIcon(notifications.TypePortfolioUpdate))
	assert.Equal(t, "fa-bell", notifications.InAppIcon("whale_alert"))

	assert.Equal(t, "gray", notifications.InAppColor(notifications.PriorityLow))
	assert.Equal(t, "blue", notifications.InAppColor(notifications.PriorityMedium))
	assert.Equal(t, "orange", notifications.InAppColor(notifications.PriorityHigh))
	assert.Equal(t, "red", notifications.InAppColor(notifications.PriorityCritical))
}

func TestInAppSender(t *testing.T) {
	t.Parallel()

	inbox := inapp.NewInbox(kv.NewMemoryStore())
	s := notifications.NewInAppSender(inbox, notifications.InAppConfig{Enabled: true, Position: "bottom-left", Duration: 8000})
	assert.Equal(t, notifications.ChannelInApp, s.Channel())

	require.NoError(t, s.Send(context.Background(), sampleMessage()))

	got, err := inbox.Poll(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "notif_1714564800000_abcdef01", got[0].ID)
	assert.Equal(t, "fa-chart-line", got[0].Icon)
	assert.Equal(t, "orange", got[0].Color)
	assert.Equal(t, "bottom-left", got[0].Position)
	assert.Equal(t, 8000, got[0].Duration)
}

func TestInAppSender_NoInbox(t *testing.T) {
	t.Parallel()

	err := notifications.NewInAppSender(nil, notifications.InAppConfig{}).Send(context.Background(), sampleMessage())
	assert.ErrorIs(t, err, notifications.ErrChannelDelivery)
}

func TestSMSSender(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		mu.Lock()
		form = map[string]string{
			"receptor": r.PostForm.Get("receptor"),
			"message":  r.PostForm.Get("message"),
		}
		mu.Unlock()
		fmt.Fprint(w, `{"return":{"status":200}}`)
	}))
	defer srv.Close()

	s := notifications.NewSMSSender(notifications.SMSConfig{
		Enabled: true,
		Phone:   "+15550100",
		Config:  sms.Config{APIKey: "key", Sender: "10008663", BaseURL: srv.URL},
	}, srv.Client())

	require.NoError(t, s.Send(context.Background(), sampleMessage()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "+15550100", form["receptor"])
	assert.Equal(t, "TITAN: Price Alert: BTC at $50000\nBTC moved above your target of $49000", form["message"])
}

func TestSMSSender_Failures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	ctx := context.Background()

	noCreds := notifications.NewSMSSender(notifications.SMSConfig{Phone: "+1"}, nil)
	assert.ErrorIs(t, noCreds.Send(ctx, sampleMessage()), notifications.ErrChannelNotConfigured)

	noPhone := notifications.NewSMSSender(notifications.SMSConfig{Config: sms.Config{APIKey: "k"}}, nil)
	assert.ErrorIs(t, noPhone.Send(ctx, sampleMessage()), notifications.ErrChannelNotConfigured)

	rejected := notifications.NewSMSSender(notifications.SMSConfig{
		Phone:  "+1",
		Config: sms.Config{APIKey: "k", BaseURL: srv.URL},
	}, srv.Client())
	err := rejected.Send(ctx, sampleMessage())
	assert.ErrorIs(t, err, notifications.ErrChannelDelivery)
	assert.ErrorIs(t, err, sms.ErrDeliveryFailed)
}

func TestTelegramSender(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var text, chat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"titan","username":"titan_bot"}}`)
			return
		}
		assert.NoError(t, r.ParseForm())
		mu.Lock()
		text, chat = r.PostForm.Get("text"), r.PostForm.Get("chat_id")
		mu.Unlock()
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`)
	}))
	defer srv.Close()

	s := notifications.NewTelegramSender(notifications.TelegramConfig{
		Enabled: true,
		Config:  telegram.Config{BotToken: "123:abc", ChatID: "42", Endpoint: srv.URL + "/bot%s/%s"},
	}, srv.Client())

	msg := sampleMessage()
	msg.Title = "BTC <up>"
	require.NoError(t, s.Send(context.Background(), msg))

	msg.Recipient = "77"
	require.NoError(t, s.Send(context.Background(), msg))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "77", chat)
	assert.True(t, strings.HasPrefix(text, "<b>BTC &lt;up&gt;</b>\n\n"))
}

func TestTelegramSender_NotConfigured(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := notifications.NewTelegramSender(notifications.TelegramConfig{Config: telegram.Config{ChatID: "42"}}, nil)
	assert.ErrorIs(t, s.Send(ctx, sampleMessage()), notifications.ErrChannelNotConfigured)

	s = notifications.NewTelegramSender(notifications.TelegramConfig{Config: telegram.Config{BotToken: "1:a"}}, nil)
	assert.ErrorIs(t, s.Send(ctx, sampleMessage()), notifications.ErrChannelNotConfigured)
}

func TestEmailSender_Outbox(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := notifications.NewEmailSender(notifications.EmailConfig{
		Enabled: true,
		Config: email.Config{
			OutboxDir:   dir,
			SenderEmail: "alerts@titan.example.com",
			Recipient:   "trader@example.com",
		},
	})
	assert.Equal(t, notifications.ChannelEmail, s.Channel())
	require.NoError(t, s.Send(context.Background(), sampleMessage()))

	matches, err := filepath.Glob(filepath.Join(dir, "*.html"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0], "price_alert")

	body, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "Price Alert: BTC at $50000")
	assert.Contains(t, string(body), "&#34;symbol&#34;: &#34;BTC&#34;")
}

func TestEmailSender_NotConfigured(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	s := notifications.NewEmailSender(notifications.EmailConfig{Config: email.Config{Recipient: "a@b.co"}})
	assert.ErrorIs(t, s.Send(ctx, sampleMessage()), notifications.ErrChannelNotConfigured)

	s = notifications.NewEmailSender(notifications.EmailConfig{Config: email.Config{
		OutboxDir:   t.TempDir(),
		SenderEmail: "alerts@titan.example.com",
	}})
	assert.ErrorIs(t, s.Send(ctx, sampleMessage()), notifications.ErrChannelNotConfigured, "no recipient")

	msg := sampleMessage()
	msg.Recipient = "override@example.com"
	assert.NoError(t, s.Send(ctx, msg))
}

func TestDefaultChannelBuilder(t *testing.T) {
	t.Parallel()

	build := notifications.DefaultChannelBuilder(inapp.NewInbox(kv.NewMemoryStore()), nil)
	senders := build(notifications.DefaultConfig())

	var got []notifications.Channel
	for _, s := range senders {
		got = append(got, s.Channel())
	}
	assert.ElementsMatch(t, notifications.AllChannels, got)
}

func TestConfig_Status(t *testing.T) {
	t.Parallel()

	cfg := notifications.DefaultConfig()
	cfg.Email.SMTPHost = "smtp.example.com"
	cfg.Email.SMTPUser = "u"
	cfg.Email.SMTPPassword = "secret"
	cfg.Email.SenderEmail = "alerts@titan.example.com"
	cfg.Email.Recipient = "trader@example.com"
	cfg.SMS.AccountSID = "AC1"
	cfg.SMS.AuthToken = "tok"
	cfg.SMS.Enabled = false

	st := cfg.Status()
	assert.True(t, st.Email.Configured)
	assert.Equal(t, "smtp", st.Email.Provider)
	assert.Equal(t, "smtp.example.com", st.Email.Host)
	assert.False(t, st.Telegram.Configured)
	assert.False(t, st.SMS.Enabled)
	assert.Equal(t, sms.ProviderBasicAuth, st.SMS.Provider)
	assert.True(t, st.InApp.Configured)
	assert.Equal(t, "top-right", st.InApp.Position)
	assert.Equal(t, 5000, st.InApp.Duration)
}
