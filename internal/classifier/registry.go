package classifier

import (
	"regexp"
	"strings"

	"github.com/xaenox/antispam-bot/internal/models"
)

// linkTLDs are the top-level domains that turn a bare "name.tld" into a link.
var linkTLDs = []string{
	"com", "ru", "org", "net", "me", "io", "co", "uk", "de", "fr", "es", "it", "nl", "pl",
	"info", "biz", "online", "xyz", "site", "blog", "shop", "store",
}

// linkPrefixes are schemes, shorteners and platform mention syntax.
// Order matters: Go regexps prefer the leftmost alternative.
var linkPrefixes = []string{
	`https?://`, `www\.`, `ftp\.`, `t\.me/`, `@`,
	`bit\.ly/`, `tinyurl\.com/`, `goo\.gl/`, `ow\.ly/`, `t\.co/`, `bit\.do/`, `buff\.ly/`,
	`adf\.ly/`, `shorte\.st/`, `cutt\.us/`, `u\.to/`, `tiny\.cc/`, `is\.gd/`, `v\.gd/`,
	`cli\.gs/`, `qr\.ae/`, `tr\.im/`, `vur\.me/`, `bc\.vc/`, `twitthis\.com/`, `su\.pr/`,
	`snipurl\.com/`, `ity\.im/`, `short\.ie`, `sh\.com`, `lnkd\.in`, `fwd4\.me`,
	`prettylinkpro\.com`, `bl\.ink`, `dlvr\.it`,
}

// LinkPattern matches the first link-like token of a message. The trailing
// \S* extends a bare prefix such as "t.me/" to the whole token.
var LinkPattern = regexp.MustCompile(`(?i)(?:` + strings.Join(linkPrefixes, "|") +
	`|[\p{L}\p{N}_\-]+\.(?:` + strings.Join(linkTLDs, "|") + `))\S*`)

// Entry is one prohibited word together with the list it came from.
type Entry struct {
	Word     string
	Category models.Category
}

// Registry is an immutable set of prohibited words plus the link pattern.
// It is safe for concurrent use.
type Registry struct {
	entries []Entry
	link    *regexp.Regexp
}

// NewRegistry builds a registry whose iteration order is spam words followed
// by profanity, each in the given order. A word present in both lists is
// reported as profanity. Duplicates keep their first position.
func NewRegistry(spam, profanity []string, link *regexp.Regexp) *Registry {
	bad := make(map[string]struct{}, len(profanity))
	for _, w := range profanity {
		bad[fold(w)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(spam)+len(profanity))
	entries := make([]Entry, 0, len(spam)+len(profanity))
	for _, list := range [][]string{spam, profanity} {
		for _, w := range list {
			w = fold(strings.TrimSpace(w))
			if w == "" {
				continue
			}
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}

			category := models.CategorySpam
			if _, ok := bad[w]; ok {
				category = models.CategoryProfanity
			}
			entries = append(entries, Entry{Word: w, Category: category})
		}
	}

	return &Registry{entries: entries, link: link}
}

// DefaultRegistry returns the built-in Russian and English word lists.
func DefaultRegistry() *Registry {
	spam := make([]string, 0, len(StopWordsRU)+len(StopWordsEN))
	spam = append(spam, StopWordsRU...)
	spam = append(spam, StopWordsEN...)
	return NewRegistry(spam, BadWordsRU, LinkPattern)
}

// Entries returns a copy of the words in match order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// MatchWord returns the first entry contained in folded text.
func (r *Registry) MatchWord(folded string) (Entry, bool) {
	for _, e := range r.entries {
		if strings.Contains(folded, e.Word) {
			return e, true
		}
	}
	return Entry{}, false
}

// MatchLink returns the first link-like substring of text.
func (r *Registry) MatchLink(text string) (string, bool) {
	if r.link == nil {
		return "", false
	}
	m := r.link.FindString(text)
	return m, m != ""
}
