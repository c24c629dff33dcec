// Package events publishes moderation outcomes for other services to consume.
// Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"time"

	"github.com/xaenox/antispam-bot/internal/models"
)

// Subject suffixes appended to the configured prefix.
const (
	SubjectViolation = "violation"
	SubjectBan       = "ban"
	SubjectReport    = "report"
)

// BanEvent records an operator banning a user.
type BanEvent struct {
	ID         string    `json:"id"`
	ChatID     int64     `json:"chat_id"`
	UserID     int64     `json:"user_id"`
	OperatorID int64     `json:"operator_id"`
	Ts         time.Time `json:"ts"`
}

// ReportEvent records a user disputing a suppression.
type ReportEvent struct {
	ID         string    `json:"id"`
	ChatID     int64     `json:"chat_id"`
	UserID     int64     `json:"user_id"`
	ReporterID int64     `json:"reporter_id"`
	Text       string    `json:"text"`
	Ts         time.Time `json:"ts"`
}

type Publisher interface {
	PublishViolation(ctx context.Context, esc models.Escalation) error
	PublishBan(ctx context.Context, ev BanEvent) error
	PublishReport(ctx context.Context, ev ReportEvent) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) PublishViolation(context.Context, models.Escalation) error { return nil }
func (NopPublisher) PublishBan(context.Context, BanEvent) error                { return nil }
func (NopPublisher) PublishReport(context.Context, ReportEvent) error          { return nil }
func (NopPublisher) Close() error                                              { return nil }
