package memory

import (
	"strings"
	"unicode"
)

// Matcher decides whether a new fact supersedes an existing one. It is a
// seam: the default word-overlap heuristic can be swapped for something
// stronger without touching call sites.
type Matcher interface {
	// Score rates similarity of two normalized texts in [0, 1].
	Score(a, b string) float64
	// Match reports whether the score clears the matcher's threshold.
	Match(a, b string) bool
}

// OverlapMatcher matches on exact normalized equality, containment in either
// direction, or word-set overlap above Threshold.
type OverlapMatcher struct {
	Threshold float64
}

func NewOverlapMatcher() *OverlapMatcher {
	return &OverlapMatcher{Threshold: 0.5}
}

func (m *OverlapMatcher) Match(a, b string) bool {
	return m.Score(a, b) >= m.Threshold
}

func (m *OverlapMatcher) Score(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.9
	}

	aw := wordSet(a)
	bw := wordSet(b)
	if len(aw) == 0 || len(bw) == 0 {
		return 0
	}

	shared := 0
	small, large := aw, bw
	if len(bw) < len(aw) {
		small, large = bw, aw
	}
	for w := range small {
		if _, ok := large[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}

// Normalize folds case, strips punctuation and collapses whitespace so that
// "I like Pizza!" and "i like pizza" derive the same key.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
