package notifications_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titanhq/notifier/pkg/notifications"
)

func TestRegistry_Defaults(t *testing.T) {
	t.Parallel()

	r := notifications.NewRegistry()
	assert.Equal(t, []notifications.Type{
		notifications.TypeAIInsight,
		notifications.TypePortfolioUpdate,
		notifications.TypePriceAlert,
		notifications.TypeSystemAlert,
		notifications.TypeTradeAlert,
	}, r.Types())

	tmpl, err := r.Lookup(notifications.TypeTradeAlert)
	require.NoError(t, err)
	assert.Contains(t, tmpl.Title, "{symbol}")
	assert.Contains(t, tmpl.Variables, "price")
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	t.Parallel()

	r := notifications.NewRegistry()

	_, err := r.Lookup("whale_alert")
	assert.ErrorIs(t, err, notifications.ErrTemplateNotFound)

	vars := []string{"symbol"}
	r.Register("whale_alert", notifications.Template{Title: "Whale {symbol}", Message: "moved", Variables: vars})
	vars[0] = "mutated"

	tmpl, err := r.Lookup("whale_alert")
	require.NoError(t, err)
	assert.Equal(t, "Whale {symbol}", tmpl.Title)
	assert.Equal(t, []string{"symbol"}, tmpl.Variables)

	r.Register(notifications.TypeSystemAlert, notifications.Template{Title: "Overridden"})
	tmpl, err = r.Lookup(notifications.TypeSystemAlert)
	require.NoError(t, err)
	assert.Equal(t, "Overridden", tmpl.Title)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := notifications.NewRegistry()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register(notifications.Type("t"), notifications.Template{Title: string(rune('a' + i%26))})
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Lookup(notifications.TypePriceAlert)
			_ = r.Types()
		}()
	}
	wg.Wait()

	_, err := r.Lookup("t")
	assert.NoError(t, err)
}

func TestLoadTemplates(t *testing.T) {
	t.Parallel()

	src := `
whale_alert:
  title: "Whale move on {symbol}"
  message: "{amount} {symbol} moved to {exchange}"
  variables: [symbol, amount, exchange]
price_alert:
  title: "Custom {symbol}"
  message: "{symbol} hit {currentPrice}"
`
	ts, err := notifications.LoadTemplates(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, ts, 2)
	assert.Equal(t, []string{"symbol", "amount", "exchange"}, ts["whale_alert"].Variables)

	r := notifications.NewRegistry()
	r.RegisterAll(ts)

	tmpl, err := r.Lookup("whale_alert")
	require.NoError(t, err)
	assert.Equal(t, "500 BTC moved to Coinbase",
		notifications.Format(tmpl.Message, map[string]any{"amount": 500, "symbol": "BTC", "exchange": "Coinbase"}))

	tmpl, err = r.Lookup(notifications.TypePriceAlert)
	require.NoError(t, err)
	assert.Equal(t, "Custom {symbol}", tmpl.Title)
}

func TestLoadTemplates_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{name: "not a mapping", src: "- a\n- b\n"},
		{name: "empty template", src: "blank:\n  variables: [x]\n"},
		{name: "malformed yaml", src: "a: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := notifications.LoadTemplates(strings.NewReader(tt.src))
			assert.ErrorIs(t, err, notifications.ErrInvalidTemplate)
		})
	}

	ts, err := notifications.LoadTemplates(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, ts)
}
