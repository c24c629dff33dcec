package models

import "time"

// Message represents an inbound chat message waiting for moderation
type Message struct {
	ID       int       `json:"id"`
	ChatID   int64     `json:"chat_id"`
	UserID   int64     `json:"user_id"`
	UserName string    `json:"user_name"`
	Text     string    `json:"text"`
	Date     time.Time `json:"date"`
}

// Credential holds an operator's TOTP secret and verification state
type Credential struct {
	OperatorID int64     `json:"operator_id"`
	Secret     string    `json:"secret"`
	Verified   bool      `json:"verified"`
	CreatedAt  time.Time `json:"created_at"`
	VerifiedAt time.Time `json:"verified_at,omitempty"`
}

// Category is the word list a prohibited word was drawn from
type Category string

const (
	CategorySpam      Category = "spam"
	CategoryProfanity Category = "profanity"
)

type ClassificationKind int

const (
	KindClean ClassificationKind = iota
	KindProhibitedWord
	KindLink
)

func (k ClassificationKind) String() string {
	switch k {
	case KindProhibitedWord:
		return "prohibited_word"
	case KindLink:
		return "link"
	default:
		return "clean"
	}
}

// Classification represents the result of content analysis.
// Word and Category are set for KindProhibitedWord, Match for KindLink.
type Classification struct {
	Kind     ClassificationKind `json:"kind"`
	Word     string             `json:"word,omitempty"`
	Category Category           `json:"category,omitempty"`
	Match    string             `json:"match,omitempty"`
}

func (c Classification) IsViolation() bool {
	return c.Kind != KindClean
}

// Escalation describes a detected violation for the operators. It lives
// for the duration of one workflow run.
type Escalation struct {
	ID             string         `json:"id"`
	ChatID         int64          `json:"chat_id"`
	MessageID      int            `json:"message_id"`
	UserID         int64          `json:"user_id"`
	UserName       string         `json:"user_name"`
	Text           string         `json:"text"`
	Reason         string         `json:"reason"`
	Classification Classification `json:"classification"`
	Date           time.Time      `json:"date"`
}
