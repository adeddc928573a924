package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

// EnrollmentRepository handles course enrollment records. Enrollments are
// owned by course registration; the propagator only rewrites their
// deferment-related fields, always with absolute values.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository instantiates an enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = "id, student_id, course_code, course_title, academic_year, semester, status, no_classes, no_exams, no_assessments, created_at, updated_at"

// ListByStudentPeriod locates a student's enrollments for a period via the
// denormalised year and semester fields.
func (r *EnrollmentRepository) ListByStudentPeriod(ctx context.Context, studentID, academicYear, semester string) ([]models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE student_id = $1 AND academic_year = $2 AND semester = $3", enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, academicYear, semester); err != nil {
		return nil, fmt.Errorf("list enrollments by period: %w", err)
	}
	return enrollments, nil
}

// UpdateDefermentState rewrites the status and activity flags of a single
// enrollment. Values are absolute so a retried propagation converges.
func (r *EnrollmentRepository) UpdateDefermentState(ctx context.Context, id string, status models.EnrollmentStatus, noClasses, noExams, noAssessments bool) error {
	const query = `UPDATE enrollments SET status = $2, no_classes = $3, no_exams = $4, no_assessments = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, noClasses, noExams, noAssessments, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment deferment state: %w", err)
	}
	return nil
}

// ResetDefermentFlags restores every deferred enrollment to the neutral
// baseline. Used only by the bulk purge.
func (r *EnrollmentRepository) ResetDefermentFlags(ctx context.Context) error {
	const query = `UPDATE enrollments SET status = $1, no_classes = FALSE, no_exams = FALSE, no_assessments = FALSE, updated_at = $2 WHERE status = $3`
	if _, err := r.db.ExecContext(ctx, query, models.EnrollmentStatusActive, time.Now().UTC(), models.EnrollmentStatusDeferred); err != nil {
		return fmt.Errorf("reset enrollment deferment flags: %w", err)
	}
	return nil
}
