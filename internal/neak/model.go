package neak

import (
	"time"

	"github.com/google/uuid"
)

// Check is one persisted eligibility check.
type Check struct {
	ID         int64             `json:"id"`
	CheckID    uuid.UUID         `json:"check_id"`
	PatientID  int64             `json:"patient_id"`
	TAJ        string            `json:"taj"`
	Result     EligibilityResult `json:"result"`
	StatusCode int               `json:"status_code"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// CheckRequest triggers an eligibility check for a patient.
type CheckRequest struct {
	PatientID int64      `json:"patient_id" validate:"required,gt=0"`
	Date      *time.Time `json:"date,omitempty"`
}
