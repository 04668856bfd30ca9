// Package odontogram maintains the per-patient tooth-status chart using FDI
// two-digit notation, with an append-only change history.
package odontogram

import "time"

// ToothStatus is the recorded condition of one tooth.
type ToothStatus string

const (
	StatusHealthy   ToothStatus = "HEALTHY"
	StatusCaries    ToothStatus = "CARIES"
	StatusFilled    ToothStatus = "FILLED"
	StatusCrown     ToothStatus = "CROWN"
	StatusBridge    ToothStatus = "BRIDGE"
	StatusImplant   ToothStatus = "IMPLANT"
	StatusRootCanal ToothStatus = "ROOT_CANAL"
	StatusMissing   ToothStatus = "MISSING"
)

// ValidToothCode reports whether code is a valid FDI two-digit tooth number:
// permanent 11-48 or deciduous 51-85, with digit 1-8 in each position.
func ValidToothCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	quadrant := code[0] - '0'
	position := code[1] - '0'
	if position < 1 || position > 8 {
		return false
	}
	if quadrant >= 1 && quadrant <= 4 {
		return true
	}
	// Deciduous quadrants only have five teeth.
	return quadrant >= 5 && quadrant <= 8 && position <= 5
}

// Entry is the current chart state of one tooth.
type Entry struct {
	ID        int64       `json:"id"`
	PatientID int64       `json:"patient_id"`
	ToothCode string      `json:"tooth_code"`
	Status    ToothStatus `json:"status"`
	Surfaces  string      `json:"surfaces,omitempty"` // subset of MODBL
	Note      string      `json:"note,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// HistoryEntry is one recorded chart change.
type HistoryEntry struct {
	ID        int64       `json:"id"`
	PatientID int64       `json:"patient_id"`
	ToothCode string      `json:"tooth_code"`
	Status    ToothStatus `json:"status"`
	Surfaces  string      `json:"surfaces,omitempty"`
	Note      string      `json:"note,omitempty"`
	ChangedBy string      `json:"changed_by,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
}

// UpsertRequest records the new state of one tooth.
type UpsertRequest struct {
	ToothCode string `json:"tooth_code" validate:"required,len=2"`
	Status    string `json:"status" validate:"required,oneof=HEALTHY CARIES FILLED CROWN BRIDGE IMPLANT ROOT_CANAL MISSING"`
	Surfaces  string `json:"surfaces" validate:"max=5"`
	Note      string `json:"note" validate:"max=500"`
}
