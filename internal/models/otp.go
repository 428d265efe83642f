package models

import "time"

// OTPRecord lives only in Redis under a short TTL; deleted on
// successful verification or expiry.
type OTPRecord struct {
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (r *OTPRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
