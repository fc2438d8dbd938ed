package services

import (
	"sync"
	"time"

	"github.com/examsafe/examsafe/internal/app/models"
)

// StatusCenter owns the single transient transaction-status notification.
// Setting a new status replaces the current one and bumps the generation
// counter, so consumers can tell a replacement from the status they already
// displayed. Success and error statuses carry an expiry timestamp; pending
// statuses last until replaced.
type StatusCenter struct {
	successTTL time.Duration
	errorTTL   time.Duration
	now        func() time.Time

	mu      sync.Mutex
	current models.TransactionStatus
}

// NewStatusCenter creates a status center with the given display lifetimes.
func NewStatusCenter(successTTL, errorTTL time.Duration) *StatusCenter {
	return &StatusCenter{
		successTTL: successTTL,
		errorTTL:   errorTTL,
		now:        time.Now,
	}
}

// Set publishes a new notification, replacing any current one.
func (c *StatusCenter) Set(kind models.StatusKind, message string) models.TransactionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := models.TransactionStatus{
		Visible:    true,
		Kind:       kind,
		Message:    message,
		Generation: c.current.Generation + 1,
	}
	switch kind {
	case models.StatusSuccess:
		status.ExpiresAt = c.now().Add(c.successTTL)
	case models.StatusError:
		status.ExpiresAt = c.now().Add(c.errorTTL)
	}

	c.current = status
	return status
}

// Pending publishes a pending notification.
func (c *StatusCenter) Pending(message string) models.TransactionStatus {
	return c.Set(models.StatusPending, message)
}

// Success publishes a success notification.
func (c *StatusCenter) Success(message string) models.TransactionStatus {
	return c.Set(models.StatusSuccess, message)
}

// Error publishes an error notification.
func (c *StatusCenter) Error(message string) models.TransactionStatus {
	return c.Set(models.StatusError, message)
}

// Current returns the notification as it should be displayed now. An expired
// notification is returned with Visible false; its generation is preserved.
func (c *StatusCenter) Current() models.TransactionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := c.current
	if status.Visible && status.Expired(c.now()) {
		status.Visible = false
	}
	return status
}
