package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

// SemesterRepository handles persistence for semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository instantiates a semester repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

const semesterColumns = "id, year_id, program_type, name, start_date, end_date, registration_start, registration_end, status, is_current, created_at, updated_at"

// List returns semesters matching provided filters.
func (r *SemesterRepository) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	base := "FROM semesters WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.YearID != "" {
		conditions = append(conditions, fmt.Sprintf("year_id = $%d", len(args)+1))
		args = append(args, filter.YearID)
	}
	if filter.ProgramType != "" {
		conditions = append(conditions, fmt.Sprintf("program_type = $%d", len(args)+1))
		args = append(args, filter.ProgramType)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY start_date DESC LIMIT %d OFFSET %d", semesterColumns, base, size, offset)

	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list semesters: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count semesters: %w", err)
	}

	return semesters, total, nil
}

// FindByID loads a semester by identifier.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	query := fmt.Sprintf("SELECT %s FROM semesters WHERE id = $1", semesterColumns)
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// FindActive returns the active semester for a program type, if any.
func (r *SemesterRepository) FindActive(ctx context.Context, programType models.ProgramType) (*models.Semester, error) {
	query := fmt.Sprintf("SELECT %s FROM semesters WHERE program_type = $1 AND status = $2 LIMIT 1", semesterColumns)
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, programType, models.PeriodStatusActive); err != nil {
		return nil, err
	}
	return &semester, nil
}

// ListByYear returns every semester under an academic year.
func (r *SemesterRepository) ListByYear(ctx context.Context, yearID string) ([]models.Semester, error) {
	query := fmt.Sprintf("SELECT %s FROM semesters WHERE year_id = $1 ORDER BY start_date", semesterColumns)
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, yearID); err != nil {
		return nil, fmt.Errorf("list semesters by year: %w", err)
	}
	return semesters, nil
}

// ListActiveByYear returns the active semesters under an academic year.
func (r *SemesterRepository) ListActiveByYear(ctx context.Context, yearID string) ([]models.Semester, error) {
	query := fmt.Sprintf("SELECT %s FROM semesters WHERE year_id = $1 AND status = $2", semesterColumns)
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, yearID, models.PeriodStatusActive); err != nil {
		return nil, fmt.Errorf("list active semesters by year: %w", err)
	}
	return semesters, nil
}

// Create inserts a new semester record.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if semester.CreatedAt.IsZero() {
		semester.CreatedAt = now
	}
	semester.UpdatedAt = now
	if semester.Status == "" {
		semester.Status = models.PeriodStatusUpcoming
	}

	const query = `INSERT INTO semesters (id, year_id, program_type, name, start_date, end_date, registration_start, registration_end, status, is_current, created_at, updated_at) VALUES (:id, :year_id, :program_type, :name, :start_date, :end_date, :registration_start, :registration_end, :status, :is_current, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// Update modifies an existing semester.
func (r *SemesterRepository) Update(ctx context.Context, semester *models.Semester) error {
	semester.UpdatedAt = time.Now().UTC()
	const query = `UPDATE semesters SET year_id = :year_id, program_type = :program_type, name = :name, start_date = :start_date, end_date = :end_date, registration_start = :registration_start, registration_end = :registration_end, status = :status, is_current = :is_current, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("update semester: %w", err)
	}
	return nil
}

// UpdateStatus flips status and current flag on a single semester row.
func (r *SemesterRepository) UpdateStatus(ctx context.Context, id string, status models.PeriodStatus, isCurrent bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE semesters SET status = $2, is_current = $3, updated_at = $4 WHERE id = $1`, id, status, isCurrent, time.Now().UTC()); err != nil {
		return fmt.Errorf("update semester status: %w", err)
	}
	return nil
}

// Delete removes a semester permanently.
func (r *SemesterRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM semesters WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete semester: %w", err)
	}
	return nil
}

// DeleteByYear removes every semester under a year. Used by the cascading
// year delete after the service has verified none of them is active.
func (r *SemesterRepository) DeleteByYear(ctx context.Context, yearID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM semesters WHERE year_id = $1`, yearID); err != nil {
		return fmt.Errorf("delete semesters by year: %w", err)
	}
	return nil
}
