package schedule

import (
	"regexp"
	"strings"
)

// TagSet maps free-form topical labels onto a fixed canonical vocabulary.
// It is an immutable value: build it once at process start with NewTagSet
// and pass it by reference to every consumer. Unknown tags fall back to
// identity, so new topics surface in the output rather than vanish.
type TagSet struct {
	canon  map[string]string // normalized raw token -> canonical id
	labels map[string]string // canonical id -> display label
}

// defaultTags is the curated topic vocabulary. Aliases are matched
// case-insensitively after trimming.
var defaultTags = []struct {
	id      string
	label   string
	aliases []string
}{
	{"ai", "AI", []string{"ai", "artificial intelligence", "ии", "искусственный интеллект"}},
	{"ml", "Machine Learning", []string{"ml", "machine learning", "машинное обучение"}},
	{"data", "Data", []string{"data", "данные", "аналитика", "analytics"}},
	{"devops", "DevOps", []string{"devops", "sre", "infrastructure"}},
	{"security", "Security", []string{"security", "безопасность", "infosec"}},
	{"product", "Product", []string{"product", "продукт", "product management"}},
	{"web", "Web", []string{"web", "frontend", "веб"}},
	{"mobile", "Mobile", []string{"mobile", "мобильная разработка"}},
	{"career", "Career", []string{"career", "карьера", "soft skills"}},
	{"business", "Business", []string{"business", "бизнес"}},
}

// NewTagSet builds the static canonical tag table.
func NewTagSet() *TagSet {
	t := &TagSet{
		canon:  make(map[string]string),
		labels: make(map[string]string),
	}
	for _, d := range defaultTags {
		t.labels[d.id] = d.label
		t.canon[d.id] = d.id
		for _, a := range d.aliases {
			t.canon[normalizeTagKey(a)] = d.id
		}
	}
	return t
}

// Canonicalize maps a raw tag token to its canonical id. Tokens outside the
// vocabulary are returned unchanged — a total function with no failure mode.
func (t *TagSet) Canonicalize(raw string) string {
	if id, ok := t.canon[normalizeTagKey(raw)]; ok {
		return id
	}
	return raw
}

// Label returns the display text for a canonical id, or the id itself when
// it is not part of the vocabulary (i.e. a preserved unknown tag).
func (t *TagSet) Label(id string) string {
	if l, ok := t.labels[id]; ok {
		return l
	}
	return id
}

func normalizeTagKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// braceTagRe matches an inline {tag} annotation in cell text.
var braceTagRe = regexp.MustCompile(`\{([^}]+)\}`)

// ExtractTags pulls {tag} brace groups out of cell text, returning the text
// with the annotations removed and the raw tag tokens in source order.
func ExtractTags(s string) (clean string, tags []string) {
	clean = braceTagRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := strings.TrimSpace(m[1 : len(m)-1])
		if inner != "" {
			tags = append(tags, inner)
		}
		return ""
	})
	return strings.TrimSpace(clean), tags
}
