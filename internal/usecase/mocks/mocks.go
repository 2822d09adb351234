package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/iho/hongbao/internal/domain"
)

// SequentialIDGenerator returns prefix-000001, prefix-000002, ...
// IDs sort in generation order.
type SequentialIDGenerator struct {
	Prefix string

	mu      sync.Mutex
	counter int
}

func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	return &SequentialIDGenerator{Prefix: prefix}
}

func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%06d", g.Prefix, g.counter)
}

// RecordingGateway is a NotificationGateway that keeps every delivered message.
// SendFunc, when set, decides the result of each attempt.
type RecordingGateway struct {
	SendFunc func(ctx context.Context, n domain.Notification) error

	mu       sync.Mutex
	attempts int
	sent     []domain.Notification
}

func NewRecordingGateway() *RecordingGateway {
	return &RecordingGateway{}
}

func (g *RecordingGateway) Send(ctx context.Context, n domain.Notification) error {
	g.mu.Lock()
	g.attempts++
	g.mu.Unlock()

	if g.SendFunc != nil {
		if err := g.SendFunc(ctx, n); err != nil {
			return err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, n)
	return nil
}

// Sent returns a copy of the delivered messages.
func (g *RecordingGateway) Sent() []domain.Notification {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.Notification, len(g.sent))
	copy(out, g.sent)
	return out
}

// Attempts counts every Send call, including failed ones.
func (g *RecordingGateway) Attempts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts
}
