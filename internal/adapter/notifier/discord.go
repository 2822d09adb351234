package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/iho/hongbao/internal/domain"
)

// discordMaxMessage is the Discord limit on message content length.
const discordMaxMessage = 2000

// messenger is the slice of the Discord REST API the gateway needs.
type messenger interface {
	SendMessage(channelID, content string) error
	OpenDM(userID string) (channelID string, err error)
}

type sessionMessenger struct {
	session *discordgo.Session
}

func (m sessionMessenger) SendMessage(channelID, content string) error {
	_, err := m.session.ChannelMessageSend(channelID, content)
	return err
}

func (m sessionMessenger) OpenDM(userID string) (string, error) {
	ch, err := m.session.UserChannelCreate(userID)
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

// DiscordGateway posts chat notifications to Discord channels and direct
// messages to users. Chat ids are Discord channel snowflakes.
type DiscordGateway struct {
	api messenger
	// dm caches user id -> DM channel id.
	dm sync.Map
}

// NewDiscordGateway creates a REST-only session for token. No gateway
// websocket is opened.
func NewDiscordGateway(token string) (*DiscordGateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordGateway{api: sessionMessenger{session: session}}, nil
}

func newDiscordGateway(api messenger) *DiscordGateway {
	return &DiscordGateway{api: api}
}

func (g *DiscordGateway) Send(ctx context.Context, n domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	channelID, err := g.channelFor(n.Target)
	if err != nil {
		return classifyDiscordError(err)
	}

	return classifyDiscordError(g.api.SendMessage(channelID, truncate(n.Text, discordMaxMessage)))
}

func (g *DiscordGateway) channelFor(t domain.Target) (string, error) {
	id := strconv.FormatInt(t.ID, 10)

	switch t.Kind {
	case domain.TargetChat:
		return id, nil
	case domain.TargetUser:
		if ch, ok := g.dm.Load(id); ok {
			return ch.(string), nil
		}
		ch, err := g.api.OpenDM(id)
		if err != nil {
			return "", err
		}
		g.dm.Store(id, ch)
		return ch, nil
	default:
		return "", fmt.Errorf("%w: unknown target kind %q", domain.ErrNotificationRejected, t.Kind)
	}
}

// classifyDiscordError marks client errors other than rate limiting as
// permanent so they are not retried.
func classifyDiscordError(err error) error {
	if err == nil {
		return nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		code := restErr.Response.StatusCode
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return fmt.Errorf("%w: %w", domain.ErrNotificationRejected, err)
		}
	}

	return err
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
