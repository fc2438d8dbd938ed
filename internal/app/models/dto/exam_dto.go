package dto

import (
	"time"

	"github.com/examsafe/examsafe/internal/app/models"
)

// APIResponse is the standard success envelope.
type APIResponse struct {
	Success   bool        `json:"success" example:"true"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp" example:"2025-08-14T12:01:05.123Z"`
}

// NewAPIResponse wraps data in the standard envelope.
func NewAPIResponse(data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// CreateSessionRequest establishes a wallet session for an account address.
type CreateSessionRequest struct {
	Address string `json:"address" binding:"required" example:"0x8ba1f109551bD432803012645Ac136ddd64DBA72"`
}

// SessionResponse carries the issued session token.
type SessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	Address   string `json:"address"`
	ExpiresIn int    `json:"expiresIn" example:"3600"`
}

// CreateExamRequest carries a new confidential exam record. Name and score are
// required here, at the outer gate; the workflow itself does not re-check them.
type CreateExamRequest struct {
	Name        string `json:"name" binding:"required" example:"Algebra Final"`
	Description string `json:"description" example:"Spring term final exam"`
	Score       string `json:"score" binding:"required" example:"85"`
}

// CreateExamResponse reports the id assigned to a created record.
type CreateExamResponse struct {
	ID string `json:"id" example:"exam-6f1c2a34-9d1e-4f08-a3b7-5be2c17f40e1"`
}

// ExamListResponse is the record list plus its derived statistics.
type ExamListResponse struct {
	Exams []*models.ExamRecord `json:"exams"`
	Stats models.Stats         `json:"stats"`
}

// DecryptResponse reports the outcome of a decryption request. Score is absent
// when a concurrent verification raced this request; the caller should re-read
// the record in that case.
type DecryptResponse struct {
	Score         *uint64 `json:"score,omitempty"`
	State         string  `json:"state" example:"LOCALLY_DECRYPTED"`
	Authoritative bool    `json:"authoritative"`
	Raced         bool    `json:"raced"`
}

// AvailabilityResponse reports the ledger contract probe result.
type AvailabilityResponse struct {
	Available bool `json:"available"`
}
