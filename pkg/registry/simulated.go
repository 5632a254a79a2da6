package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Rejection codes produced by local validation.
const (
	CodeValidation = "VALIDATION_FAILED"
	CodeCategory   = "UNKNOWN_CATEGORY"
)

// licence classes accepted by the registry for course enrollments.
var knownCategories = map[string]struct{}{
	"M": {}, "A1": {}, "A2": {}, "A": {}, "B1": {}, "B": {}, "BE": {},
	"C1": {}, "C1E": {}, "C": {}, "CE": {}, "D1": {}, "D1E": {}, "D": {},
	"DE": {}, "F": {}, "G": {},
}

// SimulatedAdapter validates requests locally and never contacts the registry.
// It backs development environments and dry runs without gateway access.
type SimulatedAdapter struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSimulatedAdapter constructs the adapter.
func NewSimulatedAdapter(validate *validator.Validate, logger *zap.Logger) *SimulatedAdapter {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	RegisterValidations(validate)
	return &SimulatedAdapter{validate: validate, logger: logger}
}

// RegisterValidations installs the registry-specific validator tags.
func RegisterValidations(validate *validator.Validate) {
	_ = validate.RegisterValidation("national_id", func(fl validator.FieldLevel) bool {
		return ValidNationalID(fl.Field().String())
	})
}

// Transfer implements Adapter.
func (a *SimulatedAdapter) Transfer(ctx context.Context, req Request, dryRun bool) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := a.validate.Struct(req); err != nil {
		return Rejected(CodeValidation, describeValidation(err)), nil
	}
	if _, ok := knownCategories[strings.ToUpper(req.CategoryCode)]; !ok {
		return Rejected(CodeCategory, fmt.Sprintf("category %q is not recognised", req.CategoryCode)), nil
	}
	a.logger.Debug("simulated registry transfer",
		zap.String("enrollment_id", req.EnrollmentID),
		zap.Bool("dry_run", dryRun),
	)
	return Accepted(), nil
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
