package notifications_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/titanhq/notifier/pkg/notifications"
)

type symbol string

func (s symbol) String() string { return "SYM:" + string(s) }

type panicky struct{}

func (*panicky) String() string { panic("nope") }

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tmpl string
		data map[string]any
		want string
	}{
		{name: "no tokens", tmpl: "Hello", data: nil, want: "Hello"},
		{name: "single token", tmpl: "{symbol} up", data: map[string]any{"symbol": "BTC"}, want: "BTC up"},
		{name: "repeated token", tmpl: "{s}/{s}", data: map[string]any{"s": "ETH"}, want: "ETH/ETH"},
		{name: "missing key kept", tmpl: "{symbol} at {price}", data: map[string]any{"symbol": "BTC"}, want: "BTC at {price}"},
		{name: "nil data keeps tokens", tmpl: "{a}{b}", data: nil, want: "{a}{b}"},
		{name: "nil value renders empty", tmpl: "[{agent}]", data: map[string]any{"agent": nil}, want: "[]"},
		{name: "whole float", tmpl: "{p}", data: map[string]any{"p": 50000.0}, want: "50000"},
		{name: "fraction", tmpl: "{p}", data: map[string]any{"p": 0.5}, want: "0.5"},
		{name: "large float no exponent", tmpl: "{p}", data: map[string]any{"p": 1e21}, want: "1000000000000000000000"},
		{name: "int", tmpl: "{q}", data: map[string]any{"q": 3}, want: "3"},
		{name: "int64", tmpl: "{q}", data: map[string]any{"q": int64(-7)}, want: "-7"},
		{name: "bool", tmpl: "{ok}", data: map[string]any{"ok": true}, want: "true"},
		{name: "time", tmpl: "{at}", data: map[string]any{"at": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}, want: "2024-01-02T03:04:05Z"},
		{name: "stringer", tmpl: "{s}", data: map[string]any{"s": symbol("BTC")}, want: "SYM:BTC"},
		{name: "error", tmpl: "{e}", data: map[string]any{"e": errors.New("boom")}, want: "boom"},
		{name: "slice as json", tmpl: "{xs}", data: map[string]any{"xs": []int{1, 2}}, want: "[1,2]"},
		{name: "map as json", tmpl: "{m}", data: map[string]any{"m": map[string]any{"a": 1}}, want: `{"a":1}`},
		{name: "dotted path", tmpl: "{order.symbol}", data: map[string]any{"order": map[string]any{"symbol": "SOL"}}, want: "SOL"},
		{name: "dotted string map", tmpl: "{meta.exchange}", data: map[string]any{"meta": map[string]string{"exchange": "Binance"}}, want: "Binance"},
		{name: "dotted literal key wins", tmpl: "{a.b}", data: map[string]any{"a.b": "flat", "a": map[string]any{"b": "nested"}}, want: "flat"},
		{name: "dotted missing", tmpl: "{order.qty}", data: map[string]any{"order": map[string]any{}}, want: "{order.qty}"},
		{name: "dotted through scalar", tmpl: "{a.b}", data: map[string]any{"a": 1}, want: "{a.b}"},
		{name: "double braces resolve inner", tmpl: "{{symbol}}", data: map[string]any{"symbol": "BTC"}, want: "{BTC}"},
		{name: "unterminated brace", tmpl: "{symbol", data: map[string]any{"symbol": "BTC"}, want: "{symbol"},
		{name: "empty braces", tmpl: "{}", data: map[string]any{"": "x"}, want: "{}"},
		{name: "token chars", tmpl: "{a-b_c1}", data: map[string]any{"a-b_c1": "ok"}, want: "ok"},
		{name: "panicking stringer keeps token", tmpl: "{p}", data: map[string]any{"p": (*panicky)(nil)}, want: "{p}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, notifications.Format(tt.tmpl, tt.data))
		})
	}
}

func TestFormat_MissingKeysAreIdentity(t *testing.T) {
	t.Parallel()

	tmpls := []string{
		"{symbol} {price} {symbol}",
		"Trade Executed: {side} {symbol}",
		"no placeholders at all",
		"{a.b.c} and {x-y}",
	}
	for _, tmpl := range tmpls {
		assert.Equal(t, tmpl, notifications.Format(tmpl, map[string]any{"unrelated": 1}))
	}
}
