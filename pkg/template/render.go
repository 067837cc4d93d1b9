package template

import (
	"regexp"
	"sort"
	"strings"
)

// Replacements maps placeholder full text to its resolved value,
// preserving first-occurrence order. It is built once during
// resolution and read-only afterwards.
type Replacements struct {
	order  []string
	values map[string]string
}

// NewReplacements creates an empty replacement map.
func NewReplacements() *Replacements {
	return &Replacements{values: make(map[string]string)}
}

// Set records the resolved value for a placeholder's full text.
// The first Set for a given key fixes its position in the order.
func (r *Replacements) Set(fullText, value string) {
	if _, ok := r.values[fullText]; !ok {
		r.order = append(r.order, fullText)
	}
	r.values[fullText] = value
}

// Get returns the resolved value for a placeholder's full text.
func (r *Replacements) Get(fullText string) (string, bool) {
	v, ok := r.values[fullText]
	return v, ok
}

// Len returns the number of distinct placeholders resolved.
func (r *Replacements) Len() int {
	return len(r.order)
}

// Render substitutes every occurrence of each placeholder with its
// resolved value in a single scan over the template. Replacement is
// literal and leftmost-first, and substituted values are never
// rescanned, so a value that happens to equal another placeholder's
// text is not expanded again. That property guards against a secret
// leaking through accidental recursive expansion.
func Render(text string, reps *Replacements) string {
	if len(reps.order) == 0 {
		return text
	}

	keys := make([]string, len(reps.order))
	copy(keys, reps.order)
	// Longest first, so a placeholder that is a prefix of another
	// cannot shadow it at the same position.
	sort.SliceStable(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	re := regexp.MustCompile(strings.Join(quoted, "|"))

	return re.ReplaceAllStringFunc(text, func(match string) string {
		return reps.values[match]
	})
}
