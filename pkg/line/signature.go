// Package line integrates with the LINE Messaging API: webhook signature
// verification, event parsing, and reply delivery.
package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "X-Line-Signature"

// VerifySignature checks the X-Line-Signature header against the raw
// request body: base64(HMAC-SHA256(channelSecret, body)), compared in
// constant time.
func VerifySignature(channelSecret string, body []byte, signature string) bool {
	if channelSecret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
