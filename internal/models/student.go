package models

import "time"

// Student represents a trainee registered with a driving school.
type Student struct {
	ID         string    `db:"id" json:"id"`
	TenantID   TenantID  `db:"tenant_id" json:"tenant_id"`
	NationalID string    `db:"national_id" json:"national_id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	BirthDate  time.Time `db:"birth_date" json:"birth_date"`
	Phone      string    `db:"phone" json:"phone"`
}

// FullName joins first and last name for display.
func (s Student) FullName() string {
	switch {
	case s.FirstName == "":
		return s.LastName
	case s.LastName == "":
		return s.FirstName
	default:
		return s.FirstName + " " + s.LastName
	}
}
