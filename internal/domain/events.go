package domain

import (
	"strconv"
	"time"
)

// Event types
const (
	EventTypeEnvelopeCreated   = "envelope.created"
	EventTypeEnvelopeClaimed   = "envelope.claimed"
	EventTypeEnvelopeFinished  = "envelope.finished"
	EventTypeEnvelopeCancelled = "envelope.cancelled"
	EventTypeEnvelopeRelayed   = "envelope.relayed"
)

// Aggregate types
const (
	AggregateTypeEnvelope = "envelope"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EnvelopePayload is the common payload of envelope events.
func EnvelopePayload(env *Envelope) map[string]any {
	p := map[string]any{
		"envelope_id":      env.ID,
		"chat_id":          strconv.FormatInt(env.ChatID, 10),
		"sender_id":        strconv.FormatInt(env.SenderID, 10),
		"asset":            env.Asset,
		"total_amount":     env.TotalAmount.String(),
		"share_count":      env.ShareCount,
		"remaining_shares": env.RemainingShares,
		"status":           string(env.Status),
		"note":             env.Note,
	}
	if env.RelayedFrom != "" {
		p["relayed_from"] = env.RelayedFrom
	}
	return p
}

// ClaimPayload extends the envelope payload with the granted share.
func ClaimPayload(env *Envelope, claim *Claim) map[string]any {
	p := EnvelopePayload(env)
	p["user_id"] = strconv.FormatInt(claim.UserID, 10)
	p["amount"] = claim.Amount.String()
	p["seq"] = claim.Seq
	return p
}

// PayloadString reads a string field from an event payload.
func PayloadString(payload map[string]any, key string) string {
	v, _ := payload[key].(string)
	return v
}

// PayloadInt64 reads an integer field that was stored as a decimal string.
// JSON round trips turn numbers into float64, so IDs are always written as strings.
func PayloadInt64(payload map[string]any, key string) (int64, bool) {
	switch v := payload[key].(type) {
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
