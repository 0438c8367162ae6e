package respcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives a stable cache/deduplication key from a request.
//
// The key is a SHA-256 over the normalized message text, the target language,
// and the provider/model the answer would come from. Volatile fields such as
// timestamps or request ids must never feed into the fingerprint: two users
// asking the same question in the same language must collide.
func Fingerprint(text, language, model string) string {
	h := sha256.New()
	h.Write([]byte(NormalizeText(text)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(language))))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(model))))
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeText lowercases the message and collapses runs of whitespace so
// trivially different phrasings of the same question share a fingerprint.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
