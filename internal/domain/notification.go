package domain

import (
	"fmt"
	"strconv"
)

// TargetKind distinguishes group broadcasts from direct messages.
type TargetKind string

const (
	TargetChat TargetKind = "chat"
	TargetUser TargetKind = "user"
)

// Target is where a notification is delivered.
type Target struct {
	Kind TargetKind
	ID   int64
}

func (t Target) String() string {
	return string(t.Kind) + ":" + strconv.FormatInt(t.ID, 10)
}

// Notification is one best-effort message produced after a committed operation.
type Notification struct {
	// Key identifies the message for at-most-once delivery.
	Key    string
	Target Target
	Text   string
}

// NotificationKey derives the delivery token of the n-th notification of an event.
func NotificationKey(eventID string, n int) string {
	return fmt.Sprintf("notify:%s:%d", eventID, n)
}
