package models

import "time"

// StatusKind classifies a transaction status notification.
type StatusKind string

const (
	StatusPending StatusKind = "pending"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// TransactionStatus is the transient, process-wide operation notification.
// Exactly one is visible at a time; a newer one replaces the current one and
// bumps Generation. Expiry is carried as data so consumers can clear it
// themselves instead of racing a fire-and-forget timer.
type TransactionStatus struct {
	Visible    bool       `json:"visible"`
	Kind       StatusKind `json:"kind"`
	Message    string     `json:"message"`
	Generation uint64     `json:"generation"`
	ExpiresAt  time.Time  `json:"expiresAt"`
}

// Expired reports whether the notification should no longer be shown at now.
// Pending notifications carry no expiry; they last until replaced.
func (s TransactionStatus) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
