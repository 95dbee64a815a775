package models

import "time"

// CadenceException is an operator-issued, same-day floor override for the
// adaptive threshold. Exceptions expire at the next UTC midnight and can only
// lower the floor, never raise the threshold.
type CadenceException struct {
	ID        string    `json:"id"`
	Floor     float64   `json:"floor"`
	Reason    string    `json:"reason"`
	IssuedBy  string    `json:"issued_by"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the exception still applies at the given instant.
func (e CadenceException) Active(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}
