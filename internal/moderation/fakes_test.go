package moderation

import (
	"context"
	"errors"
	"sync"

	"github.com/xaenox/antispam-bot/internal/auth"
	"github.com/xaenox/antispam-bot/internal/events"
	"github.com/xaenox/antispam-bot/internal/models"
)

var errPlatform = errors.New("platform unavailable")

type sentText struct {
	recipient int64
	text      string
	action    *Action
}

type banCall struct {
	chatID, userID int64
	purge          bool
}

type editCall struct {
	ref  MessageRef
	text string
}

type fakePlatform struct {
	mu      sync.Mutex
	deletes []MessageRef
	sent    []sentText
	bans    []banCall
	edits   []editCall

	deleteErr error
	banErr    error
	editErr   error
	failFor   map[int64]error
	blockFor  map[int64]chan struct{}
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{failFor: map[int64]error{}, blockFor: map[int64]chan struct{}{}}
}

func (p *fakePlatform) DeleteMessage(_ context.Context, ref MessageRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deletes = append(p.deletes, ref)
	return nil
}

func (p *fakePlatform) SendText(_ context.Context, recipient int64, text string, action *Action) error {
	p.mu.Lock()
	block := p.blockFor[recipient]
	err := p.failFor[recipient]
	p.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentText{recipient: recipient, text: text, action: action})
	return nil
}

func (p *fakePlatform) BanUser(_ context.Context, chatID, userID int64, purge bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.banErr != nil {
		return p.banErr
	}
	p.bans = append(p.bans, banCall{chatID: chatID, userID: userID, purge: purge})
	return nil
}

func (p *fakePlatform) EditText(_ context.Context, ref MessageRef, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.editErr != nil {
		return p.editErr
	}
	p.edits = append(p.edits, editCall{ref: ref, text: text})
	return nil
}

func (p *fakePlatform) sentTo(recipient int64) []sentText {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []sentText
	for _, s := range p.sent {
		if s.recipient == recipient {
			out = append(out, s)
		}
	}
	return out
}

func (p *fakePlatform) totalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.deletes) + len(p.sent) + len(p.bans) + len(p.edits)
}

type fakeAuth struct {
	operators []int64
	verified  map[int64]bool
}

func (a *fakeAuth) Authorize(_ context.Context, id int64) error {
	if a.verified[id] {
		return nil
	}
	return auth.ErrAccessDenied
}

func (a *fakeAuth) Operators() []int64 {
	return append([]int64(nil), a.operators...)
}

type countingClassifier struct {
	inner Classifier
	mu    sync.Mutex
	calls int
}

func (c *countingClassifier) Classify(content string) models.Classification {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Classify(content)
}

type fakePublisher struct {
	mu         sync.Mutex
	violations []models.Escalation
	bans       []events.BanEvent
	reports    []events.ReportEvent
	err        error
}

func (p *fakePublisher) PublishViolation(_ context.Context, esc models.Escalation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.violations = append(p.violations, esc)
	return p.err
}

func (p *fakePublisher) PublishBan(_ context.Context, ev events.BanEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bans = append(p.bans, ev)
	return p.err
}

func (p *fakePublisher) PublishReport(_ context.Context, ev events.ReportEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, ev)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }
