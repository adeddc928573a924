package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

// ActivationLogRepository keeps one compensation record per activation
// scope. Put overwrites the previous record, so only the immediately prior
// activation is recoverable. That is the one-step undo operators are offered.
type ActivationLogRepository struct {
	db *sqlx.DB
}

// NewActivationLogRepository instantiates an activation log repository.
func NewActivationLogRepository(db *sqlx.DB) *ActivationLogRepository {
	return &ActivationLogRepository{db: db}
}

// Get loads the compensation record for a scope.
func (r *ActivationLogRepository) Get(ctx context.Context, scope string) (*models.ActivationRecord, error) {
	const query = `SELECT scope, previous_active_id, current_active_id, recorded_at FROM period_activations WHERE scope = $1`
	var record models.ActivationRecord
	if err := r.db.GetContext(ctx, &record, query, scope); err != nil {
		return nil, err
	}
	return &record, nil
}

// Put upserts the compensation record for a scope.
func (r *ActivationLogRepository) Put(ctx context.Context, record *models.ActivationRecord) error {
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO period_activations (scope, previous_active_id, current_active_id, recorded_at) VALUES (:scope, :previous_active_id, :current_active_id, :recorded_at) ON CONFLICT (scope) DO UPDATE SET previous_active_id = EXCLUDED.previous_active_id, current_active_id = EXCLUDED.current_active_id, recorded_at = EXCLUDED.recorded_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("put activation record: %w", err)
	}
	return nil
}

// Clear removes the compensation record for a scope after an undo.
func (r *ActivationLogRepository) Clear(ctx context.Context, scope string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM period_activations WHERE scope = $1`, scope); err != nil {
		return fmt.Errorf("clear activation record: %w", err)
	}
	return nil
}
