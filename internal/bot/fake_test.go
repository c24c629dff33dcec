package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/xaenox/antispam-bot/internal/models"
	"github.com/xaenox/antispam-bot/internal/storage"
)

var errBlocked = errors.New("Forbidden: bot can't initiate conversation with a user")

type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	reqs    []tgbotapi.Chattable
	err     error
	failFor map[int64]error
	updates chan tgbotapi.Update
	stopped bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{failFor: map[int64]error{}, updates: make(chan tgbotapi.Update, 8)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if err := f.failFor[chatOf(c)]; err != nil {
		return tgbotapi.Message{}, err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.reqs = append(f.reqs, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

// messagesTo returns the texts sent to chatID.
func (f *fakeAPI) messagesTo(chatID int64) []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) photos() []tgbotapi.PhotoConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.PhotoConfig
	for _, c := range f.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeAPI) requests() []tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), f.reqs...)
}

type panicAPI struct{ *fakeAPI }

func (panicAPI) Send(tgbotapi.Chattable) (tgbotapi.Message, error) {
	panic("boom")
}

func chatOf(c tgbotapi.Chattable) int64 {
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		return v.ChatID
	case tgbotapi.PhotoConfig:
		return v.ChatID
	case tgbotapi.EditMessageTextConfig:
		return v.ChatID
	}
	return 0
}

func (f *fakeAPI) edits() []tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.sent {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

// panicStore blows up on every read.
type panicStore struct{ storage.CredentialStore }

func (panicStore) Get(context.Context, int64) (*models.Credential, error) {
	panic("credential store corrupted")
}

func (panicStore) MarkVerified(context.Context, int64, string, time.Time) error {
	panic("credential store corrupted")
}
