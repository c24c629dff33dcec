package moderation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/antispam-bot/internal/events"
	"github.com/xaenox/antispam-bot/internal/metrics"
)

// HandleAction dispatches a pressed button by its kind.
func (w *Workflow) HandleAction(ctx context.Context, in Interaction) error {
	switch in.Action.Kind {
	case ActionBan:
		return w.Ban(ctx, in)
	case ActionReport:
		return w.ReportFalsePositive(ctx, in)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, in.Action.Kind)
	}
}

// Ban permanently removes the author of a suppressed message from the
// chat. Only a verified operator may ban; anyone else gets the
// authorizer's error and nothing is sent to the platform.
func (w *Workflow) Ban(ctx context.Context, in Interaction) error {
	if err := w.auth.Authorize(ctx, in.ActorID); err != nil {
		metrics.Actions.WithLabelValues(string(ActionBan), "denied").Inc()
		return err
	}

	if err := w.platform.BanUser(ctx, in.Action.ChatID, in.Action.UserID, true); err != nil {
		metrics.Actions.WithLabelValues(string(ActionBan), "error").Inc()
		return fmt.Errorf("failed to ban user %d in chat %d: %w", in.Action.UserID, in.Action.ChatID, err)
	}
	metrics.Actions.WithLabelValues(string(ActionBan), "ok").Inc()

	w.logger.Info("User banned",
		zap.Int64("chat_id", in.Action.ChatID),
		zap.Int64("user_id", in.Action.UserID),
		zap.Int64("operator_id", in.ActorID),
	)

	if err := w.platform.EditText(ctx, in.Source, bannedText(in.Action.UserID)); err != nil {
		w.logger.Warn("Failed to update escalation message", zap.Error(err))
	}

	ev := events.BanEvent{
		ID:         uuid.New().String(),
		ChatID:     in.Action.ChatID,
		UserID:     in.Action.UserID,
		OperatorID: in.ActorID,
		Ts:         timestamp(in.Date, w.now),
	}
	if err := w.publisher.PublishBan(ctx, ev); err != nil {
		w.logger.Warn("Failed to publish ban", zap.Error(err))
	}
	return nil
}

// ReportFalsePositive forwards a disputed suppression to every operator.
// Anyone in the chat may report. Repeats of the same report are
// acknowledged but not forwarded again.
func (w *Workflow) ReportFalsePositive(ctx context.Context, in Interaction) error {
	key := fmt.Sprintf("%d:%d:%d:%s", in.Action.ChatID, in.ActorID, in.Action.UserID, in.Action.Text)
	if seen, _ := w.reports.ContainsOrAdd(key, struct{}{}); seen {
		metrics.Actions.WithLabelValues(string(ActionReport), "duplicate").Inc()
		w.logger.Debug("Duplicate report", zap.Int64("reporter_id", in.ActorID))
	} else {
		in.Date = timestamp(in.Date, w.now)
		text := reportText(in)
		var batch []delivery
		for _, op := range w.auth.Operators() {
			batch = append(batch, delivery{purpose: "report", recipient: op, text: text})
		}
		w.deliver(ctx, batch)
		metrics.Actions.WithLabelValues(string(ActionReport), "ok").Inc()

		ev := events.ReportEvent{
			ID:         uuid.New().String(),
			ChatID:     in.Action.ChatID,
			UserID:     in.Action.UserID,
			ReporterID: in.ActorID,
			Text:       in.Action.Text,
			Ts:         in.Date,
		}
		if err := w.publisher.PublishReport(ctx, ev); err != nil {
			w.logger.Warn("Failed to publish report", zap.Error(err))
		}
	}

	if err := w.platform.EditText(ctx, in.Source, reportAckText()); err != nil {
		return fmt.Errorf("failed to acknowledge report: %w", err)
	}
	return nil
}
