package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/metrics"
)

// Notification delivery statuses.
const (
	NotificationSent    = "sent"
	NotificationSkipped = "skipped"
	NotificationFailed  = "failed"
)

// NotificationUseCaseConfig wires a NotificationUseCase.
type NotificationUseCaseConfig struct {
	Gateway   NotificationGateway
	TokenRepo TokenRepository
	Rankings  *RankingUseCase
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
	// BackOff returns the retry policy for a single send. Defaults to exponential.
	BackOff func() backoff.BackOff
}

// NotificationUseCase turns committed envelope events into chat messages and
// delivers each of them at most once.
type NotificationUseCase struct {
	gateway   NotificationGateway
	tokenRepo TokenRepository
	rankings  *RankingUseCase
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	backOff   func() backoff.BackOff
}

func NewNotificationUseCase(cfg NotificationUseCaseConfig) *NotificationUseCase {
	if cfg.BackOff == nil {
		cfg.BackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		}
	}

	return &NotificationUseCase{
		gateway:   cfg.Gateway,
		tokenRepo: cfg.TokenRepo,
		rankings:  cfg.Rankings,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		backOff:   cfg.BackOff,
	}
}

// Deliver renders and sends the notifications of one outbox event. Gateway
// failures are logged and counted, never returned. A returned error means the
// event could not be processed and should be retried later.
func (uc *NotificationUseCase) Deliver(ctx context.Context, event *domain.OutboxEvent) error {
	notifications, err := uc.Render(ctx, event)
	if err != nil {
		return err
	}

	for i, n := range notifications {
		n.Key = domain.NotificationKey(event.ID, i)

		acquired, err := uc.tokenRepo.AcquireNotification(ctx, n.Key, event.AggregateID, time.Now().UTC())
		if err != nil {
			return classify(err)
		}
		if !acquired {
			uc.count(NotificationSkipped)
			continue
		}

		if err := uc.send(ctx, n); err != nil {
			uc.count(NotificationFailed)
			uc.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Str("target", n.Target.String()).
				Msg("notification not delivered")
			continue
		}
		uc.count(NotificationSent)
	}

	return nil
}

func (uc *NotificationUseCase) send(ctx context.Context, n domain.Notification) error {
	b := backoff.WithContext(backoff.WithMaxRetries(uc.backOff(), NotificationMaxAttempts-1), ctx)

	err := backoff.Retry(func() error {
		err := uc.gateway.Send(ctx, n)
		if errors.Is(err, domain.ErrNotificationRejected) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotificationFailure, err)
	}
	return nil
}

func (uc *NotificationUseCase) count(status string) {
	if uc.metrics != nil {
		uc.metrics.Notifications.WithLabelValues(status).Inc()
	}
}

// Render produces the messages for an event without sending them. Unknown
// event types render nothing.
func (uc *NotificationUseCase) Render(ctx context.Context, event *domain.OutboxEvent) ([]domain.Notification, error) {
	p := event.Payload
	chatID, ok := domain.PayloadInt64(p, "chat_id")
	if !ok {
		uc.logger.Warn().Str("event_id", event.ID).Msg("event payload has no chat id")
		return nil, nil
	}
	chat := domain.Target{Kind: domain.TargetChat, ID: chatID}
	senderID, _ := domain.PayloadInt64(p, "sender_id")
	shares, _ := domain.PayloadInt64(p, "share_count")
	asset := domain.PayloadString(p, "asset")
	total := formatAmount(asset, domain.PayloadString(p, "total_amount"))

	switch event.EventType {
	case domain.EventTypeEnvelopeCreated:
		text := fmt.Sprintf("user %d sent a red envelope: %s %s in %d shares", senderID, total, asset, shares)
		return []domain.Notification{{Target: chat, Text: withNote(text, p)}}, nil

	case domain.EventTypeEnvelopeRelayed:
		text := fmt.Sprintf("lucky king user %d relayed envelope %s: %s %s in %d shares",
			senderID, domain.PayloadString(p, "relayed_from"), total, asset, shares)
		return []domain.Notification{{Target: chat, Text: withNote(text, p)}}, nil

	case domain.EventTypeEnvelopeClaimed:
		userID, _ := domain.PayloadInt64(p, "user_id")
		seq, _ := domain.PayloadInt64(p, "seq")
		text := fmt.Sprintf("user %d grabbed %s %s (%d/%d)",
			userID, formatAmount(asset, domain.PayloadString(p, "amount")), asset, seq, shares)
		return []domain.Notification{{Target: chat, Text: text}}, nil

	case domain.EventTypeEnvelopeCancelled:
		text := fmt.Sprintf("envelope %s was cancelled, %s %s returned to user %d",
			event.AggregateID, formatAmount(asset, domain.PayloadString(p, "refunded")), asset, senderID)
		return []domain.Notification{{Target: chat, Text: text}}, nil

	case domain.EventTypeEnvelopeFinished:
		return uc.renderFinished(ctx, event.AggregateID, chat)

	default:
		return nil, nil
	}
}

func (uc *NotificationUseCase) renderFinished(ctx context.Context, envelopeID string, chat domain.Target) ([]domain.Notification, error) {
	ranking, err := uc.rankings.Rank(ctx, envelopeID)
	if err != nil {
		if errors.Is(err, domain.ErrEnvelopeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	asset, err := domain.LookupAsset(ranking.Asset)
	if err != nil {
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "envelope %s is empty: %s %s in %d shares",
		envelopeID, asset.Format(ranking.Total), asset.Code, ranking.ShareCount)
	for i, c := range ranking.Claims {
		fmt.Fprintf(&b, "\n%d. user %d  %s", i+1, c.UserID, asset.Format(c.Amount))
		if ranking.LuckyKing == c {
			b.WriteString("  lucky king")
		}
	}

	notifications := []domain.Notification{{Target: chat, Text: b.String()}}
	if king := ranking.LuckyKing; king != nil {
		notifications = append(notifications, domain.Notification{
			Target: domain.Target{Kind: domain.TargetUser, ID: king.UserID},
			Text: fmt.Sprintf("you are the lucky king of envelope %s with %s %s. Relay it to send the same envelope back to the chat.",
				envelopeID, asset.Format(king.Amount), asset.Code),
		})
	}

	return notifications, nil
}

func formatAmount(assetCode, raw string) string {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	asset, err := domain.LookupAsset(assetCode)
	if err != nil {
		return d.String()
	}
	return asset.Format(d)
}

func withNote(text string, payload map[string]any) string {
	if note := domain.PayloadString(payload, "note"); note != "" {
		return text + ": " + note
	}
	return text
}
