package moderation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xaenox/antispam-bot/internal/models"
)

// All texts use Telegram's legacy Markdown.

const rulesHint = "📖 Ознакомьтесь с правилами: /ruls"

const timeLayout = "2006-01-02 15:04:05 MST"

// Telegram rejects messages longer than 4096 characters. Quoted user text
// is cut well below that so the surrounding template always fits.
const (
	quoteLimit = 3000
	matchLimit = 200
)

// ViolationReason names what triggered the suppression.
func ViolationReason(c models.Classification) string {
	switch {
	case c.Kind == models.KindProhibitedWord && c.Category == models.CategoryProfanity:
		return fmt.Sprintf("🚫 Обнаружено оскорбление или мат: %s!", bold(c.Word))
	case c.Kind == models.KindProhibitedWord:
		return fmt.Sprintf("🚫 Обнаружено стоп-слово: %s!", bold(c.Word))
	case c.Kind == models.KindLink:
		return fmt.Sprintf("🚫 Ссылка: %s!", inlineCode(excerpt(c.Match, matchLimit)))
	default:
		return ""
	}
}

func warningText(reason string) string {
	return "🛡️ *ВНИМАНИЕ! Обнаружено нарушение!* 🛡️\n\n" +
		reason + "\n" +
		"❌ Ваше сообщение удалено.\n" +
		"🙅 Пожалуйста, больше не нарушайте правила!\n" +
		"🧱 Повторные нарушения приведут к блокировке!\n\n" +
		rulesHint
}

// escalationText renders the operator alert. The message is quoted as
// inline code with backticks replaced by ' and cut to quoteLimit runes
// with a trailing "…"; the escalation itself keeps the full text.
func escalationText(esc models.Escalation) string {
	return "⚠️ *Обнаружено нарушение!* ⚠️\n\n" +
		fmt.Sprintf("👤 Пользователь: %s (ID: %d)\n", escapeMarkdown(esc.UserName), esc.UserID) +
		fmt.Sprintf("📝 Сообщение: %s\n", inlineCode(excerpt(esc.Text, quoteLimit))) +
		fmt.Sprintf("🔗 Нарушение: %s\n", esc.Reason) +
		fmt.Sprintf("⏰ Время: %s\n\n", esc.Date.Format(timeLayout)) +
		"ℹ️ Нажмите «Заблокировать», чтобы навсегда исключить пользователя из чата.\n" +
		rulesHint
}

func bannedText(userID int64) string {
	return fmt.Sprintf("✅ Пользователь (ID: %d) заблокирован навсегда! 🚫\n\n", userID) + rulesHint
}

func reportText(in Interaction) string {
	return "⚠️ *Сообщение об ошибке определения спама* ⚠️\n\n" +
		fmt.Sprintf("👤 Сообщил: %s (ID: %d)\n", escapeMarkdown(in.ActorName), in.ActorID) +
		fmt.Sprintf("👤 Автор сообщения: ID %d\n", in.Action.UserID) +
		fmt.Sprintf("📝 Сообщение: %s\n", inlineCode(in.Action.Text)) +
		fmt.Sprintf("⏰ Время: %s\n\n", in.Date.Format(timeLayout)) +
		"ℹ️ Пожалуйста, проверьте и внесите корректировки в список стоп-слов, если необходимо."
}

func reportAckText() string {
	return "✅ Ваше сообщение об ошибке отправлено администратору для проверки!\n\n" + rulesHint
}

// escapeMarkdown escapes the characters legacy Markdown treats as markup.
func escapeMarkdown(text string) string {
	specialChars := []string{"_", "*", "`", "["}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

// Entities cannot contain escapes, so the delimiter is dropped instead.
func bold(s string) string {
	return "*" + strings.ReplaceAll(s, "*", "") + "*"
}

// inlineCode wraps s in backticks. Backticks inside s become '.
func inlineCode(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// excerpt is truncate with a "…" marker when anything was cut.
func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return truncate(s, n) + "…"
}

// timestamp falls back to now for messages without a date.
func timestamp(t time.Time, now func() time.Time) time.Time {
	if t.IsZero() {
		return now()
	}
	return t
}
