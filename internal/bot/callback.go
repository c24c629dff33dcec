package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xaenox/antispam-bot/internal/moderation"
)

// Telegram rejects callback data longer than 64 bytes.
const callbackDataLimit = 64

var errBadCallback = errors.New("malformed callback data")

// encodeAction packs an action into callback data: "ban:<chat>:<user>" or
// "report:<chat>:<user>:<text>". Report text is cut on a rune boundary to
// fit the limit.
func encodeAction(a moderation.Action) string {
	data := fmt.Sprintf("%s:%d:%d", a.Kind, a.ChatID, a.UserID)
	if a.Kind != moderation.ActionReport {
		return data
	}

	data += ":"
	text := a.Text
	for text != "" && len(data)+len(text) > callbackDataLimit {
		_, size := utf8.DecodeLastRuneInString(text)
		text = text[:len(text)-size]
	}
	return data + text
}

func decodeAction(data string) (moderation.Action, error) {
	parts := strings.SplitN(data, ":", 4)
	if len(parts) < 3 {
		return moderation.Action{}, fmt.Errorf("%w: %q", errBadCallback, data)
	}

	kind := moderation.ActionKind(parts[0])
	switch {
	case kind == moderation.ActionBan && len(parts) == 3:
	case kind == moderation.ActionReport && len(parts) == 4:
	default:
		return moderation.Action{}, fmt.Errorf("%w: %q", errBadCallback, data)
	}

	chatID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return moderation.Action{}, fmt.Errorf("%w: chat id: %v", errBadCallback, err)
	}
	userID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return moderation.Action{}, fmt.Errorf("%w: user id: %v", errBadCallback, err)
	}

	a := moderation.Action{Kind: kind, ChatID: chatID, UserID: userID}
	if kind == moderation.ActionReport {
		a.Text = parts[3]
	}
	return a, nil
}
