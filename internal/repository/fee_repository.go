package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

// FeeRepository handles fee account records. The propagator rewrites
// deferment fields with recomputed values; nothing here increments.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository instantiates a fee repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

const feeColumns = "id, student_id, academic_year, semester, total_billed, amount_paid, outstanding_balance, deferment_applied, early_deferment, refund_amount, rollover_eligible, created_at, updated_at, deferred_at"

// ListByStudentPeriod locates a student's fee accounts for a period.
func (r *FeeRepository) ListByStudentPeriod(ctx context.Context, studentID, academicYear, semester string) ([]models.FeeAccount, error) {
	query := fmt.Sprintf("SELECT %s FROM fee_accounts WHERE student_id = $1 AND academic_year = $2 AND semester = $3", feeColumns)
	var accounts []models.FeeAccount
	if err := r.db.SelectContext(ctx, &accounts, query, studentID, academicYear, semester); err != nil {
		return nil, fmt.Errorf("list fee accounts by period: %w", err)
	}
	return accounts, nil
}

// OutstandingBalance sums the student's outstanding balance across all
// accounts. Feeds the deferment compliance check.
func (r *FeeRepository) OutstandingBalance(ctx context.Context, studentID string) (float64, error) {
	var balance float64
	if err := r.db.GetContext(ctx, &balance, `SELECT COALESCE(SUM(outstanding_balance), 0) FROM fee_accounts WHERE student_id = $1`, studentID); err != nil {
		return 0, fmt.Errorf("sum outstanding balance: %w", err)
	}
	return balance, nil
}

// UpdateDeferment rewrites the deferment fields of a single account with
// absolute, recomputed values.
func (r *FeeRepository) UpdateDeferment(ctx context.Context, id string, applied bool, refundAmount float64, rolloverEligible bool, deferredAt *time.Time) error {
	const query = `UPDATE fee_accounts SET deferment_applied = $2, refund_amount = $3, rollover_eligible = $4, deferred_at = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, applied, refundAmount, rolloverEligible, deferredAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update fee deferment: %w", err)
	}
	return nil
}

// ResetDeferment restores every fee account's deferment fields to the
// neutral baseline. Used only by the bulk purge.
func (r *FeeRepository) ResetDeferment(ctx context.Context) error {
	const query = `UPDATE fee_accounts SET deferment_applied = FALSE, refund_amount = 0, rollover_eligible = FALSE, deferred_at = NULL, updated_at = $1 WHERE deferment_applied = TRUE`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset fee deferment: %w", err)
	}
	return nil
}
