package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{in: "", want: PriorityMedium},
		{in: "low", want: PriorityLow},
		{in: "MEDIUM", want: PriorityMedium},
		{in: " high ", want: PriorityHigh},
		{in: "critical", want: PriorityCritical},
		{in: "urgent", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidPriority, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseChannel(t *testing.T) {
	t.Parallel()

	for _, ch := range AllChannels {
		got, err := ParseChannel(string(ch))
		require.NoError(t, err)
		assert.Equal(t, ch, got)
	}

	_, err := ParseChannel("fax")
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestDefaultChannels_ReturnsFreshSlice(t *testing.T) {
	t.Parallel()

	a := DefaultChannels(PriorityHigh)
	a[0] = ChannelSMS
	assert.Equal(t, ChannelInApp, DefaultChannels(PriorityHigh)[0])
	assert.Equal(t, []Channel{ChannelInApp, ChannelTelegram}, DefaultChannels("unknown"))
}

func TestNewMessageID(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1714564800123)
	a := newMessageID(now)
	b := newMessageID(now)

	assert.Regexp(t, `^notif_1714564800123_[0-9a-f]{8}$`, a)
	assert.NotEqual(t, a, b)
}

func TestMessage_Clone(t *testing.T) {
	t.Parallel()

	sent := time.Now()
	m := Message{
		Channels:   []Channel{ChannelEmail},
		Data:       map[string]any{"k": "v"},
		SentAt:     &sent,
		Deliveries: map[Channel]Delivery{ChannelEmail: {Success: true}},
	}
	c := m.clone()
	c.Channels[0] = ChannelSMS
	c.Data["k"] = "x"
	*c.SentAt = sent.Add(time.Hour)
	c.Deliveries[ChannelEmail] = Delivery{}

	assert.Equal(t, ChannelEmail, m.Channels[0])
	assert.Equal(t, "v", m.Data["k"])
	assert.Equal(t, sent, *m.SentAt)
	assert.True(t, m.Deliveries[ChannelEmail].Success)
}

func TestMessage_Settled(t *testing.T) {
	t.Parallel()

	assert.True(t, Message{Status: StatusSent}.Settled())
	assert.True(t, Message{Status: StatusFailed}.Settled())
	assert.False(t, Message{Status: StatusPending}.Settled())
	assert.False(t, Message{Status: StatusRetry}.Settled())
}
