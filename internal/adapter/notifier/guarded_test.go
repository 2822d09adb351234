package notifier

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase/mocks"
)

var chat = domain.Target{Kind: domain.TargetChat, ID: -100}

func TestGuardedOpensAfterConsecutiveFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockNotificationGateway(ctrl)
	next.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("timeout")).Times(3)

	var buf bytes.Buffer
	g := NewGuarded(next, GuardConfig{ConsecutiveFailures: 3, OpenTimeout: time.Hour, Logger: zerolog.New(&buf)})

	for i := 0; i < 3; i++ {
		require.Error(t, g.Send(context.Background(), domain.Notification{Target: chat}))
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())

	err := g.Send(context.Background(), domain.Notification{Target: chat})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, buf.String(), "circuit breaker state changed")
}

func TestGuardedRejectionsDoNotTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockNotificationGateway(ctrl)
	next.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.ErrNotificationRejected).Times(5)

	g := NewGuarded(next, GuardConfig{ConsecutiveFailures: 2, Logger: zerolog.Nop()})

	for i := 0; i < 5; i++ {
		err := g.Send(context.Background(), domain.Notification{Target: chat})
		assert.ErrorIs(t, err, domain.ErrNotificationRejected)
	}
	assert.Equal(t, gobreaker.StateClosed, g.State())
}

func TestGuardedPacesPerTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockNotificationGateway(ctrl)
	next.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	g := NewGuarded(next, GuardConfig{RatePerSecond: 0.001, Burst: 1, Logger: zerolog.Nop()})

	require.NoError(t, g.Send(context.Background(), domain.Notification{Target: chat}))
	// another target has its own budget
	require.NoError(t, g.Send(context.Background(), domain.Notification{Target: domain.Target{Kind: domain.TargetUser, ID: 1}}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := g.Send(ctx, domain.Notification{Target: chat})
	assert.Error(t, err, "second message to the same chat must wait beyond the deadline")
}

func TestGuardedCleanupDropsIdleTargets(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockNotificationGateway(ctrl)
	next.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	g := NewGuarded(next, GuardConfig{Logger: zerolog.Nop()})
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return clock }

	for id := int64(1); id <= 2; id++ {
		require.NoError(t, g.Send(context.Background(), domain.Notification{Target: domain.Target{Kind: domain.TargetUser, ID: id}}))
	}

	clock = clock.Add(time.Hour)
	require.NoError(t, g.Send(context.Background(), domain.Notification{Target: chat}))

	assert.Equal(t, 2, g.CleanupLimiters(10*time.Minute))
	assert.Len(t, g.limiters, 1)
	assert.Contains(t, g.limiters, chat)
	assert.Equal(t, 0, g.CleanupLimiters(10*time.Minute))
}

func TestGuardedRunCleanupStopsWithContext(t *testing.T) {
	g := NewGuarded(nil, GuardConfig{Logger: zerolog.Nop()})
	g.limiter(chat)
	g.now = func() time.Time { return time.Now().Add(time.Hour) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.RunCleanup(ctx, time.Millisecond, time.Minute)
		close(done)
	}()

	require.Eventually(t, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return len(g.limiters) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunCleanup did not return after cancel")
	}
}

func TestLogGatewayWritesNotification(t *testing.T) {
	var buf bytes.Buffer
	g := NewLogGateway(zerolog.New(&buf))

	require.NoError(t, g.Send(context.Background(), domain.Notification{Key: "notify:e1:0", Target: chat, Text: "hello"}))
	assert.Contains(t, buf.String(), `"target":"chat:-100"`)
	assert.Contains(t, buf.String(), `"text":"hello"`)
}
