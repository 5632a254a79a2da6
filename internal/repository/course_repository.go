package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/drivecourse-api/internal/models"
)

// CourseRepository reads courses and their enrollments for the transfer pipeline.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, tenant_id, name, category_code, start_date, created_at`

// LoadTransferSnapshot reads the course and its active enrollments, with the
// student identity fields, inside one read-only repeatable-read transaction.
// A missing course surfaces as sql.ErrNoRows.
func (r *CourseRepository) LoadTransferSnapshot(ctx context.Context, tenantID models.TenantID, courseID string) (*models.TransferSnapshot, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var course models.Course
	const courseQuery = `SELECT ` + courseColumns + ` FROM courses WHERE tenant_id = $1 AND id = $2`
	if err := tx.GetContext(ctx, &course, courseQuery, tenantID, courseID); err != nil {
		return nil, fmt.Errorf("load snapshot course: %w", err)
	}

	const enrollmentQuery = `SELECT e.id AS enrollment_id, s.id AS student_id, s.national_id, s.first_name, s.last_name, s.birth_date, e.enrolled_at
FROM enrollments e
JOIN students s ON s.id = e.student_id
WHERE e.tenant_id = $1 AND e.course_id = $2 AND e.status = $3
ORDER BY e.enrolled_at ASC, e.id ASC`
	var enrollments []models.SnapshotEnrollment
	if err := tx.SelectContext(ctx, &enrollments, enrollmentQuery, tenantID, courseID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("load snapshot enrollments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot tx: %w", err)
	}
	return &models.TransferSnapshot{Course: course, Enrollments: enrollments}, nil
}
