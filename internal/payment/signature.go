package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSignature rejects a webhook before any payload handling.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// SignatureHeader is the header carrying `t=<unix>,v1=<hex hmac>`.
const SignatureHeader = "Payment-Signature"

// VerifySignature checks the HMAC-SHA256 of "<t>.<body>" against the
// v1 entry and rejects timestamps outside the tolerance window, which
// bounds replay of captured deliveries.
func VerifySignature(body []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	var (
		ts  int64
		sig []byte
	)
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			ts = parsed
		case "v1":
			decoded, err := hex.DecodeString(v)
			if err != nil {
				return ErrInvalidSignature
			}
			sig = decoded
		}
	}

	if ts == 0 || len(sig) == 0 {
		return ErrInvalidSignature
	}

	at := time.Unix(ts, 0)
	if at.Before(now.Add(-tolerance)) || at.After(now.Add(tolerance)) {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", ts)))
	mac.Write(body)

	if !hmac.Equal(sig, mac.Sum(nil)) {
		return ErrInvalidSignature
	}

	return nil
}

// Sign produces a header value for the given body. Used by tests and
// the load simulator.
func Sign(body []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", at.Unix())))
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}
