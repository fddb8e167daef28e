package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// ReplayWindow is the maximum accepted age of a signed callback.
const ReplayWindow = 5 * time.Minute

// VerifyBody checks a hex HMAC-SHA256 signature computed over the raw request
// body. Malformed input is treated as not verified, never as an error.
func VerifyBody(secret string, body []byte, provided string) bool {
	provided = strings.TrimSpace(provided)
	if secret == "" || provided == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(strings.ToLower(provided)), []byte(expected))
}

// VerifySlack checks a Slack interactivity signature. The signed base string is
// "v0:<timestamp>:<body>" and the provided signature carries a "v0=" prefix.
// Requests older (or newer) than ReplayWindow are rejected regardless of the
// hash, so a captured request cannot be replayed later.
func VerifySlack(secret string, body []byte, timestamp string, provided string, now time.Time) bool {
	provided = strings.TrimSpace(provided)
	timestamp = strings.TrimSpace(timestamp)
	if secret == "" || provided == "" || timestamp == "" {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	age := now.Unix() - ts
	if age < 0 {
		age = -age
	}
	if age > int64(ReplayWindow/time.Second) {
		return false
	}

	base := "v0:" + timestamp + ":" + string(body)
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(base))
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(provided), []byte(expected))
}
