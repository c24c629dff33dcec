package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/antispam-bot/internal/auth"
	"github.com/xaenox/antispam-bot/internal/models"
	"github.com/xaenox/antispam-bot/internal/moderation"
)

const (
	accessDeniedText  = "🚫 Этот бот доступен только администраторам."
	commandDeniedText = "🚫 Эта команда доступна только администраторам!"
	failureText       = "Произошла ошибка. Пожалуйста, попробуйте позже."
	unknownCmdText    = "Неизвестная команда. Используйте /help, чтобы увидеть список команд."
	codeAcceptedText  = "✅ Код подтверждён! Теперь вы можете выполнять команды."
	codeRejectedText  = "❌ Неверный код. Попробуйте ещё раз."
	needSetupText     = "🔐 Двухфакторная аутентификация не настроена. Используйте /setup_2fa."
	needCodeText      = "🔐 Введите код из Google Authenticator, чтобы подтвердить 2FA."
	qrCaption         = "QR-код для Google Authenticator"
)

const welcomeText = "🤖 Я бот-антиспам! Помогаю держать нашу дружную команду в чистоте! 🧹\n\n" +
	"📖 Ознакомьтесь с правилами: /ruls"

const helpText = "🛠 *Команды настройки бота (для админов)* 🛠\n\n" +
	"🔹 */start* - Запустить бота и получить приветствие 🤖\n" +
	"🔹 */setup\\_2fa* - Настроить двухфакторную аутентификацию (2FA) 🔐\n" +
	"🔹 */help* - Показать список команд настройки (вы здесь) ℹ️\n" +
	"🔹 */ruls* - Правила чата 📖\n\n" +
	"ℹ️ Для выполнения административных команд требуется двухфакторная аутентификация (2FA)."

const rulesText = "📖 *Правила чата*\n\n" +
	"1. Без рекламы, предложений заработка и ставок.\n" +
	"2. Без ссылок на сторонние ресурсы и каналы.\n" +
	"3. Без оскорблений и нецензурной лексики.\n\n" +
	"🚫 Нарушающие сообщения удаляются автоматически, повторные нарушения ведут к блокировке."

const setupTemplate = "🔐 Настройте двухфакторную аутентификацию (2FA) с помощью Google Authenticator:\n\n" +
	"1. Откройте Google Authenticator.\n" +
	"2. Нажмите '+' и выберите 'Сканировать QR-код'.\n" +
	"3. Отсканируйте QR-код ниже или введите ключ вручную:\n\n" +
	"Ключ: `%s`\n\n" +
	"4. Введите код из Google Authenticator для подтверждения."

// updatesAPI adds long polling to botAPI.
type updatesAPI interface {
	botAPI
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api      updatesAPI
	platform *Telegram
	gate     *auth.Gate
	workflow *moderation.Workflow
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewAPI connects to the Bot API with token.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return api, nil
}

func New(api updatesAPI, platform *Telegram, gate *auth.Gate, workflow *moderation.Workflow, logger *zap.Logger) *Bot {
	return &Bot{
		api:      api,
		platform: platform,
		gate:     gate,
		workflow: workflow,
		logger:   logger,
	}
}

// Start long-polls for updates until ctx is cancelled, handling each
// update in its own goroutine. It returns once in-flight updates finish.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic while handling update",
				zap.Int("update_id", update.UpdateID),
				zap.Any("panic", r))
			b.replyFailure(ctx, update)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// replyFailure tells the sender that handling update failed. It runs after
// a panic, so a panic in here is only logged.
func (b *Bot) replyFailure(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic while sending failure reply",
				zap.Int("update_id", update.UpdateID),
				zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		b.platform.answerCallback(query.ID, "")
		if query.Message != nil && query.Message.Chat != nil {
			ref := moderation.MessageRef{ChatID: query.Message.Chat.ID, MessageID: query.Message.MessageID}
			if err := b.platform.EditText(ctx, ref, failureText); err != nil {
				b.logger.Warn("Failed to report action failure", zap.Error(err))
			}
		}
	case update.Message != nil && update.Message.Chat != nil:
		b.platform.reply(update.Message.Chat.ID, failureText, false)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	if content == "" {
		return
	}

	userID := message.From.ID
	if message.Chat.IsPrivate() && b.gate.IsOperator(userID) {
		state, err := b.gate.State(ctx, userID)
		if err != nil {
			b.fail(message, "Failed to load credential state", err)
			return
		}
		if state == auth.PendingVerification {
			b.handleCode(ctx, message, content)
			return
		}
	}

	msg := models.Message{
		ID:       message.MessageID,
		ChatID:   message.Chat.ID,
		UserID:   userID,
		UserName: displayName(message.From),
		Text:     content,
		Date:     message.Time(),
	}
	if _, err := b.workflow.HandleMessage(ctx, msg); err != nil {
		if errors.Is(err, auth.ErrAccessDenied) {
			b.platform.reply(message.Chat.ID, b.denial(ctx, message), false)
			return
		}
		b.fail(message, "Failed to moderate message", err)
	}
}

func (b *Bot) handleCode(ctx context.Context, message *tgbotapi.Message, code string) {
	err := b.gate.Verify(ctx, message.From.ID, code)
	switch {
	case err == nil:
		b.platform.reply(message.Chat.ID, codeAcceptedText, false)
	case errors.Is(err, auth.ErrInvalidCode):
		b.platform.reply(message.Chat.ID, codeRejectedText, false)
	default:
		b.fail(message, "Failed to verify code", err)
	}
}

// denial explains a refused message. Only an operator in a private chat
// learns why; everyone else gets the same reply.
func (b *Bot) denial(ctx context.Context, message *tgbotapi.Message) string {
	if !message.Chat.IsPrivate() || !b.gate.IsOperator(message.From.ID) {
		return accessDeniedText
	}
	state, err := b.gate.State(ctx, message.From.ID)
	if err != nil {
		return accessDeniedText
	}
	switch state {
	case auth.NoCredential:
		return needSetupText
	case auth.PendingVerification:
		return needCodeText
	default:
		return accessDeniedText
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(ctx, message)
	case "setup_2fa":
		b.handleSetup(ctx, message)
	case "help":
		b.handleHelp(message)
	case "ruls":
		b.platform.reply(message.Chat.ID, rulesText, true)
	default:
		if !message.Chat.IsPrivate() {
			return
		}
		if !b.gate.IsOperator(message.From.ID) {
			b.platform.reply(message.Chat.ID, accessDeniedText, false)
			return
		}
		b.platform.reply(message.Chat.ID, unknownCmdText, false)
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	if !b.gate.IsOperator(message.From.ID) {
		b.platform.reply(message.Chat.ID, accessDeniedText, false)
		return
	}

	state, err := b.gate.State(ctx, message.From.ID)
	if err != nil {
		b.fail(message, "Failed to load credential state", err)
		return
	}
	if state == auth.NoCredential {
		b.handleSetup(ctx, message)
		return
	}
	b.platform.reply(message.Chat.ID, welcomeText, true)
}

// handleSetup issues a fresh secret. The secret always goes to the
// operator's private chat, whichever chat the command came from.
func (b *Bot) handleSetup(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	if !b.gate.IsOperator(userID) {
		b.platform.reply(message.Chat.ID, commandDeniedText, false)
		return
	}

	prov, err := b.gate.Setup(ctx, userID)
	if err != nil {
		b.fail(message, "Failed to set up 2FA", err)
		return
	}

	if err := b.platform.send(userID, fmt.Sprintf(setupTemplate, prov.Secret), true); err != nil {
		// Usually the operator never opened a private chat with the bot.
		b.fail(message, "Failed to deliver 2FA secret", err)
		return
	}

	qr, err := renderQR(prov.URI, qrSize)
	if err != nil {
		b.logger.Error("Failed to render QR code", zap.Error(err), zap.Int64("user_id", userID))
		return
	}
	if err := b.platform.sendPhoto(userID, "qr.png", qr, qrCaption); err != nil {
		b.logger.Error("Failed to send QR code", zap.Error(err), zap.Int64("user_id", userID))
	}
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	if !b.gate.IsOperator(message.From.ID) {
		b.platform.reply(message.Chat.ID, commandDeniedText, false)
		return
	}
	b.platform.reply(message.Chat.ID, helpText, true)
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil || query.Message == nil {
		b.platform.answerCallback(query.ID, "")
		return
	}

	action, err := decodeAction(query.Data)
	if err != nil {
		b.logger.Warn("Ignoring callback", zap.Error(err), zap.Int64("user_id", query.From.ID))
		b.platform.answerCallback(query.ID, "")
		return
	}

	in := moderation.Interaction{
		Action:    action,
		ActorID:   query.From.ID,
		ActorName: displayName(query.From),
		Source: moderation.MessageRef{
			ChatID:    query.Message.Chat.ID,
			MessageID: query.Message.MessageID,
		},
		Date: query.Message.Time(),
	}

	err = b.workflow.HandleAction(ctx, in)
	switch {
	case err == nil:
		b.platform.answerCallback(query.ID, "")
	case errors.Is(err, auth.ErrAccessDenied):
		b.platform.answerCallback(query.ID, accessDeniedText)
	default:
		b.logger.Error("Failed to handle action",
			zap.Error(err),
			zap.String("action", string(action.Kind)),
			zap.Int64("user_id", query.From.ID))
		b.platform.answerCallback(query.ID, "")
		if err := b.platform.EditText(ctx, in.Source, failureText); err != nil {
			b.logger.Warn("Failed to report action failure", zap.Error(err))
		}
	}
}

// fail logs err and sends the generic failure reply.
func (b *Bot) fail(message *tgbotapi.Message, msg string, err error) {
	b.logger.Error(msg,
		zap.Error(err),
		zap.Int64("user_id", message.From.ID),
		zap.Int64("chat_id", message.Chat.ID))
	b.platform.reply(message.Chat.ID, failureText, false)
}

func displayName(u *tgbotapi.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.UserName
}
