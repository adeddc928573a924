package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

// StandingRepository handles persistence for student academic standings,
// the authoritative record of the deferment lifecycle.
type StandingRepository struct {
	db *sqlx.DB
}

// NewStandingRepository instantiates a standing repository.
func NewStandingRepository(db *sqlx.DB) *StandingRepository {
	return &StandingRepository{db: db}
}

const standingColumns = "id, student_id, academic_status, deferment_period, deferment_reason, deferment_approved_at, timeline_paused, pause_start_date, pause_end_date, entry_year, original_expected_completion, new_expected_completion, return_semester, return_academic_year, on_probation, created_at, updated_at"

// FindByStudent loads a student's standing record.
func (r *StandingRepository) FindByStudent(ctx context.Context, studentID string) (*models.StudentStanding, error) {
	query := fmt.Sprintf("SELECT %s FROM student_standings WHERE student_id = $1", standingColumns)
	var standing models.StudentStanding
	if err := r.db.GetContext(ctx, &standing, query, studentID); err != nil {
		return nil, err
	}
	return &standing, nil
}

// Upsert writes the full standing record in one atomic statement. This is
// the authoritative write of every lifecycle transition.
func (r *StandingRepository) Upsert(ctx context.Context, standing *models.StudentStanding) error {
	if standing.ID == "" {
		standing.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if standing.CreatedAt.IsZero() {
		standing.CreatedAt = now
	}
	standing.UpdatedAt = now

	const query = `INSERT INTO student_standings (id, student_id, academic_status, deferment_period, deferment_reason, deferment_approved_at, timeline_paused, pause_start_date, pause_end_date, entry_year, original_expected_completion, new_expected_completion, return_semester, return_academic_year, on_probation, created_at, updated_at)
VALUES (:id, :student_id, :academic_status, :deferment_period, :deferment_reason, :deferment_approved_at, :timeline_paused, :pause_start_date, :pause_end_date, :entry_year, :original_expected_completion, :new_expected_completion, :return_semester, :return_academic_year, :on_probation, :created_at, :updated_at)
ON CONFLICT (student_id) DO UPDATE SET academic_status = EXCLUDED.academic_status, deferment_period = EXCLUDED.deferment_period, deferment_reason = EXCLUDED.deferment_reason, deferment_approved_at = EXCLUDED.deferment_approved_at, timeline_paused = EXCLUDED.timeline_paused, pause_start_date = EXCLUDED.pause_start_date, pause_end_date = EXCLUDED.pause_end_date, entry_year = EXCLUDED.entry_year, original_expected_completion = EXCLUDED.original_expected_completion, new_expected_completion = EXCLUDED.new_expected_completion, return_semester = EXCLUDED.return_semester, return_academic_year = EXCLUDED.return_academic_year, on_probation = EXCLUDED.on_probation, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, standing); err != nil {
		return fmt.Errorf("upsert student standing: %w", err)
	}
	return nil
}

// OnProbation reports whether the student's academic record carries an
// active probation flag. A missing record means no probation.
func (r *StandingRepository) OnProbation(ctx context.Context, studentID string) (bool, error) {
	var flag bool
	if err := r.db.GetContext(ctx, &flag, `SELECT on_probation FROM student_standings WHERE student_id = $1`, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check probation flag: %w", err)
	}
	return flag, nil
}

// ResetAllDeferment restores every standing to a neutral baseline. Used
// only by the bulk deferment purge.
func (r *StandingRepository) ResetAllDeferment(ctx context.Context) error {
	const query = `UPDATE student_standings SET academic_status = $1, deferment_period = NULL, deferment_reason = NULL, deferment_approved_at = NULL, timeline_paused = FALSE, pause_start_date = NULL, pause_end_date = NULL, new_expected_completion = NULL, return_semester = NULL, return_academic_year = NULL, updated_at = $2`
	if _, err := r.db.ExecContext(ctx, query, models.AcademicStatusActive, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset student standings: %w", err)
	}
	return nil
}
