// Package moderation runs the violation workflow: gate the sender,
// classify the message, remove it and notify everyone who needs to know.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/xaenox/antispam-bot/internal/events"
	"github.com/xaenox/antispam-bot/internal/metrics"
	"github.com/xaenox/antispam-bot/internal/models"
)

// ReportTextLimit caps the message excerpt carried by a report action.
const ReportTextLimit = 50

const defaultReportCacheSize = 1024

var ErrUnknownAction = errors.New("unknown action")

type Outcome int

const (
	NoAction Outcome = iota
	Suppressed
)

func (o Outcome) String() string {
	if o == Suppressed {
		return "suppressed"
	}
	return "no_action"
}

// Authorizer decides whether a sender may use the bot.
type Authorizer interface {
	Authorize(ctx context.Context, id int64) error
	Operators() []int64
}

type Classifier interface {
	Classify(content string) models.Classification
}

type Workflow struct {
	auth       Authorizer
	classifier Classifier
	platform   Platform
	publisher  events.Publisher
	reports    *lru.Cache[string, struct{}]
	now        func() time.Time
	logger     *zap.Logger
}

func NewWorkflow(auth Authorizer, classifier Classifier, platform Platform, publisher events.Publisher, reportCacheSize int, logger *zap.Logger) (*Workflow, error) {
	if reportCacheSize <= 0 {
		reportCacheSize = defaultReportCacheSize
	}
	reports, err := lru.New[string, struct{}](reportCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create report cache: %w", err)
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &Workflow{
		auth:       auth,
		classifier: classifier,
		platform:   platform,
		publisher:  publisher,
		reports:    reports,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// HandleMessage moderates one inbound message. Unauthorized senders get
// the authorizer's error and the message is not classified. A violating
// message is deleted before anyone is notified; if the delete fails no
// notification goes out.
func (w *Workflow) HandleMessage(ctx context.Context, msg models.Message) (Outcome, error) {
	if err := w.auth.Authorize(ctx, msg.UserID); err != nil {
		metrics.MessagesDenied.Inc()
		return NoAction, err
	}

	result := w.classifier.Classify(msg.Text)
	metrics.MessagesClassified.WithLabelValues(result.Kind.String()).Inc()
	if !result.IsViolation() {
		return NoAction, nil
	}

	ref := MessageRef{ChatID: msg.ChatID, MessageID: msg.ID}
	if err := w.platform.DeleteMessage(ctx, ref); err != nil {
		return NoAction, fmt.Errorf("failed to delete message %d in chat %d: %w", msg.ID, msg.ChatID, err)
	}
	metrics.MessagesSuppressed.Inc()

	esc := models.Escalation{
		ID:             uuid.New().String(),
		ChatID:         msg.ChatID,
		MessageID:      msg.ID,
		UserID:         msg.UserID,
		UserName:       msg.UserName,
		Text:           msg.Text,
		Reason:         ViolationReason(result),
		Classification: result,
		Date:           timestamp(msg.Date, w.now),
	}

	w.logger.Info("Suppressed message",
		zap.String("escalation_id", esc.ID),
		zap.Int64("chat_id", esc.ChatID),
		zap.Int64("user_id", esc.UserID),
		zap.String("kind", result.Kind.String()),
	)

	batch := []delivery{{
		purpose:   "warning",
		recipient: msg.ChatID,
		text:      warningText(esc.Reason),
		action: &Action{
			Kind:   ActionReport,
			ChatID: msg.ChatID,
			UserID: msg.UserID,
			Text:   truncate(msg.Text, ReportTextLimit),
		},
	}}
	ban := &Action{Kind: ActionBan, ChatID: msg.ChatID, UserID: msg.UserID}
	for _, op := range w.auth.Operators() {
		batch = append(batch, delivery{
			purpose:   "escalation",
			recipient: op,
			text:      escalationText(esc),
			action:    ban,
		})
	}
	w.deliver(ctx, batch)

	if err := w.publisher.PublishViolation(ctx, esc); err != nil {
		w.logger.Warn("Failed to publish violation", zap.String("escalation_id", esc.ID), zap.Error(err))
	}

	return Suppressed, nil
}

type delivery struct {
	purpose   string
	recipient int64
	text      string
	action    *Action
}

// deliver sends the batch concurrently and waits for every send. A failed
// or panicking send is logged and does not affect the others.
func (w *Workflow) deliver(ctx context.Context, batch []delivery) {
	var wg sync.WaitGroup
	for _, d := range batch {
		wg.Add(1)
		go func(d delivery) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					metrics.Notifications.WithLabelValues(d.purpose, "error").Inc()
					w.logger.Error("Panic while sending notification",
						zap.String("purpose", d.purpose),
						zap.Int64("recipient", d.recipient),
						zap.Any("panic", r),
					)
				}
			}()

			if err := w.platform.SendText(ctx, d.recipient, d.text, d.action); err != nil {
				metrics.Notifications.WithLabelValues(d.purpose, "error").Inc()
				w.logger.Error("Failed to send notification",
					zap.String("purpose", d.purpose),
					zap.Int64("recipient", d.recipient),
					zap.Error(err),
				)
				return
			}
			metrics.Notifications.WithLabelValues(d.purpose, "ok").Inc()
		}(d)
	}
	wg.Wait()
}
