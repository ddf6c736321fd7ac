package memory

import (
	"crypto/sha256"
	"encoding/hex"
)

// DedupKey collapses retried saves onto one stored message. The separator
// keeps ("ab","c") and ("a","bc") style field splits from colliding.
func DedupKey(sessionID, role, content string) string {
	h := sha256.New()
	h.Write([]byte(sessionID))
	h.Write([]byte{0})
	h.Write([]byte(role))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// FactKey derives the stable key for a fact from its category and normalized
// text. Short on purpose: keys are user-visible in forget calls and logs.
func FactKey(category, normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return category + "_" + hex.EncodeToString(sum[:])[:8]
}
