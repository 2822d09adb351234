// Package notifier implements usecase.NotificationGateway for chat transports.
package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/hongbao/internal/domain"
)

// LogGateway writes notifications to the log instead of a chat. It backs
// local runs and deployments without a chat transport.
type LogGateway struct {
	logger zerolog.Logger
}

func NewLogGateway(logger zerolog.Logger) *LogGateway {
	return &LogGateway{logger: logger.With().Str("component", "notifier").Logger()}
}

func (g *LogGateway) Send(ctx context.Context, n domain.Notification) error {
	g.logger.Info().
		Str("key", n.Key).
		Str("target", n.Target.String()).
		Str("text", n.Text).
		Msg("notification")
	return nil
}
