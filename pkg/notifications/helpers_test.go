package notifications

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/titanhq/notifier/pkg/logger"
)

var errProviderDown = errors.New("provider down")

type stubSender struct {
	ch    Channel
	err   error
	calls atomic.Int32
	fn    func(ctx context.Context, msg Message) error
}

func (s *stubSender) Channel() Channel { return s.ch }

func (s *stubSender) Send(ctx context.Context, msg Message) error {
	s.calls.Add(1)
	if s.fn != nil {
		return s.fn(ctx, msg)
	}
	return s.err
}

func okSender(ch Channel) *stubSender { return &stubSender{ch: ch} }

func failingSender(ch Channel) *stubSender {
	return &stubSender{ch: ch, err: errors.Join(ErrChannelDelivery, errProviderDown)}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Save(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func newTestDispatcher(opts ...Option) *Dispatcher {
	base := []Option{
		WithLogger(logger.Discard()),
		WithBackoff(FixedBackoff{Interval: time.Minute}),
	}
	return NewDispatcher(DefaultConfig(), append(base, opts...)...)
}
