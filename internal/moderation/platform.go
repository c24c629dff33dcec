package moderation

import (
	"context"
	"time"
)

type ActionKind string

const (
	ActionBan    ActionKind = "ban"
	ActionReport ActionKind = "report"
)

// Action is a button attached to an outgoing message. ChatID is the
// moderated chat, UserID the author of the suppressed message. Text is
// set for reports only and may be truncated.
type Action struct {
	Kind   ActionKind
	ChatID int64
	UserID int64
	Text   string
}

// MessageRef points at a message already delivered by the platform.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Interaction is someone pressing an Action. Source is the message that
// carried the button.
type Interaction struct {
	Action    Action
	ActorID   int64
	ActorName string
	Source    MessageRef
	Date      time.Time
}

// Platform is the chat adapter the workflow drives. Every call is made
// once; the workflow never retries.
type Platform interface {
	DeleteMessage(ctx context.Context, ref MessageRef) error
	SendText(ctx context.Context, recipientID int64, text string, action *Action) error
	BanUser(ctx context.Context, chatID, userID int64, purgeHistory bool) error
	EditText(ctx context.Context, ref MessageRef, text string) error
}
