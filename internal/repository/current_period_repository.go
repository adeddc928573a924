package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

const currentPeriodID = "current"

// CurrentPeriodRepository stores the singular registration pointer. The row
// is only ever rewritten by the period service on Regular-track activation.
type CurrentPeriodRepository struct {
	db *sqlx.DB
}

// NewCurrentPeriodRepository instantiates a current period repository.
func NewCurrentPeriodRepository(db *sqlx.DB) *CurrentPeriodRepository {
	return &CurrentPeriodRepository{db: db}
}

// Get loads the current period pointer.
func (r *CurrentPeriodRepository) Get(ctx context.Context) (*models.CurrentPeriod, error) {
	const query = `SELECT id, semester_id, semester_name, academic_year_id, academic_year_label, updated_at FROM current_period WHERE id = $1`
	var period models.CurrentPeriod
	if err := r.db.GetContext(ctx, &period, query, currentPeriodID); err != nil {
		return nil, err
	}
	return &period, nil
}

// Put upserts the current period pointer in a single atomic write.
func (r *CurrentPeriodRepository) Put(ctx context.Context, period *models.CurrentPeriod) error {
	period.ID = currentPeriodID
	period.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO current_period (id, semester_id, semester_name, academic_year_id, academic_year_label, updated_at) VALUES (:id, :semester_id, :semester_name, :academic_year_id, :academic_year_label, :updated_at) ON CONFLICT (id) DO UPDATE SET semester_id = EXCLUDED.semester_id, semester_name = EXCLUDED.semester_name, academic_year_id = EXCLUDED.academic_year_id, academic_year_label = EXCLUDED.academic_year_label, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("put current period: %w", err)
	}
	return nil
}
