// Package registry holds the boundary contract towards the MEBBIS registry
// and the adapters that speak it.
package registry

import (
	"context"
	"time"
)

// Request is the normalised payload for submitting one enrollment.
type Request struct {
	EnrollmentID   string    `json:"enrollmentId" validate:"required"`
	NationalID     string    `json:"nationalId" validate:"required,national_id"`
	FirstName      string    `json:"firstName" validate:"required"`
	LastName       string    `json:"lastName" validate:"required"`
	BirthDate      time.Time `json:"birthDate"`
	CategoryCode   string    `json:"categoryCode" validate:"required"`
	EnrollmentDate time.Time `json:"enrollmentDate" validate:"required"`
}

// Result is the registry verdict for one submission.
type Result struct {
	Success      bool   `json:"success"`
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Accepted builds a successful result.
func Accepted() Result {
	return Result{Success: true}
}

// Rejected builds a failed result carrying the registry's code and message.
func Rejected(code, message string) Result {
	return Result{ErrorCode: code, ErrorMessage: message}
}

// Adapter submits a single enrollment to the registry. A returned error means
// the call itself broke; an explicit refusal is a Result with Success=false.
type Adapter interface {
	Transfer(ctx context.Context, req Request, dryRun bool) (Result, error)
}

// AdapterFunc lets plain functions satisfy Adapter.
type AdapterFunc func(ctx context.Context, req Request, dryRun bool) (Result, error)

// Transfer implements Adapter.
func (f AdapterFunc) Transfer(ctx context.Context, req Request, dryRun bool) (Result, error) {
	return f(ctx, req, dryRun)
}
