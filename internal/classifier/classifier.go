package classifier

import (
	"golang.org/x/text/cases"

	"github.com/xaenox/antispam-bot/internal/models"
)

// Classifier maps message text to exactly one classification.
type Classifier struct {
	registry *Registry
}

func New(registry *Registry) *Classifier {
	return &Classifier{registry: registry}
}

// Classify reports a prohibited word before a link; words are matched as
// substrings of the case-folded text, so fragments inside longer words count.
func (c *Classifier) Classify(content string) models.Classification {
	if e, ok := c.registry.MatchWord(fold(content)); ok {
		return models.Classification{
			Kind:     models.KindProhibitedWord,
			Word:     e.Word,
			Category: e.Category,
		}
	}

	if m, ok := c.registry.MatchLink(content); ok {
		return models.Classification{
			Kind:  models.KindLink,
			Match: m,
		}
	}

	return models.Classification{Kind: models.KindClean}
}

// A cases.Caser is stateful, so every call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
