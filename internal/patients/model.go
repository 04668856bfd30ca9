// Package patients manages patient master records.
package patients

import "time"

// Patient is one patient master record. TAJ is the national insurance
// number and is unique when present.
type Patient struct {
	ID        int64      `json:"id"`
	LastName  string     `json:"last_name"`
	FirstName string     `json:"first_name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	TAJ       *string    `json:"taj,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	Address   string     `json:"address,omitempty"`
	Anamnesis string     `json:"anamnesis,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FullName renders family name first.
func (p Patient) FullName() string {
	return p.LastName + " " + p.FirstName
}

// CreateRequest creates a patient record.
type CreateRequest struct {
	LastName  string     `json:"last_name" validate:"required,max=80"`
	FirstName string     `json:"first_name" validate:"required,max=80"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	TAJ       *string    `json:"taj,omitempty" validate:"omitempty,len=11"`
	Phone     string     `json:"phone" validate:"max=40"`
	Email     string     `json:"email" validate:"omitempty,email"`
	Address   string     `json:"address" validate:"max=200"`
	Anamnesis string     `json:"anamnesis"`
}

// UpdateRequest replaces the editable fields of a patient record.
type UpdateRequest CreateRequest
