package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/antispam-bot/internal/moderation"
)

// botAPI is the part of *tgbotapi.BotAPI the adapter calls.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var actionLabels = map[moderation.ActionKind]string{
	moderation.ActionBan:    "Заблокировать 🚫",
	moderation.ActionReport: "Сообщить об ошибке ⚠️",
}

// Telegram implements moderation.Platform on top of the Bot API.
type Telegram struct {
	api    botAPI
	logger *zap.Logger
}

var _ moderation.Platform = (*Telegram)(nil)

func NewTelegram(api botAPI, logger *zap.Logger) *Telegram {
	return &Telegram{api: api, logger: logger}
}

func (t *Telegram) DeleteMessage(ctx context.Context, ref moderation.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (t *Telegram) SendText(ctx context.Context, recipientID int64, text string, action *moderation.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(recipientID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if action != nil {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(actionLabels[action.Kind], encodeAction(*action)),
			),
		)
	}

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (t *Telegram) BanUser(ctx context.Context, chatID, userID int64, purgeHistory bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
		RevokeMessages: purgeHistory,
	}
	if _, err := t.api.Request(cfg); err != nil {
		return fmt.Errorf("ban chat member: %w", err)
	}
	return nil
}

func (t *Telegram) EditText(ctx context.Context, ref moderation.MessageRef, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.api.Send(edit); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// send delivers a service message without an action button.
func (t *Telegram) send(chatID int64, text string, markdown bool) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// reply is send that only logs failures.
func (t *Telegram) reply(chatID int64, text string, markdown bool) {
	if err := t.send(chatID, text, markdown); err != nil {
		t.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (t *Telegram) sendPhoto(chatID int64, name string, data []byte, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.Caption = caption
	if _, err := t.api.Send(photo); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

func (t *Telegram) answerCallback(id, text string) {
	cb := tgbotapi.NewCallback(id, text)
	if text != "" {
		cb.ShowAlert = true
	}
	if _, err := t.api.Request(cb); err != nil {
		t.logger.Warn("Failed to answer callback", zap.Error(err), zap.String("callback_id", id))
	}
}
