package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the hex HMAC-SHA256 of the raw webhook body under the
// shared secret. The processor sends the same value in the
// X-Skyline-Signature header.
func Sign(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks the header value against the recomputed
// signature of the raw body. Comparison is constant-time; hex decoding
// accepts either case.
func VerifySignature(secret string, body []byte, signature string) bool {
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) == 0 {
		return false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hmac.Equal(h.Sum(nil), sig)
}
