package models

import "time"

// Course represents a driving-course offering (a licence-class cohort).
type Course struct {
	ID           string    `db:"id" json:"id"`
	TenantID     TenantID  `db:"tenant_id" json:"tenant_id"`
	Name         string    `db:"name" json:"name"`
	CategoryCode string    `db:"category_code" json:"category_code"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
