package memory

import (
	"strings"

	"github.com/sandevgo/elvamem/internal/core"
)

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{core.CategoryIdentity, []string{"name", "nickname", "call me", "i am", "birthday"}},
	{core.CategoryPreference, []string{"prefer", "like", "favorite", "love", "hate", "dislike"}},
	{core.CategoryRelationship, []string{"manager", "boss", "colleague", "friend", "family", "wife", "husband"}},
	{core.CategoryContact, []string{"email", "phone", "address", "contact"}},
	{core.CategoryTask, []string{"remind", "task", "todo", "schedule", "meeting", "deadline"}},
	{core.CategoryWork, []string{"work", "job", "project", "company", "office"}},
}

// Categorize buckets free text into the closed category set by keyword.
// Order matters: the first bucket with a hit wins, general is the fallback.
func Categorize(text string) string {
	lower := strings.ToLower(text)
	for _, bucket := range categoryKeywords {
		for _, w := range bucket.words {
			if strings.Contains(lower, w) {
				return bucket.category
			}
		}
	}
	return core.CategoryGeneral
}
