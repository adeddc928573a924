package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestFeeRepositoryOutstandingBalance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(outstanding_balance), 0) FROM fee_accounts WHERE student_id = $1")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1250.50))

	balance, err := repo.OutstandingBalance(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Equal(t, 1250.50, balance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryUpdateDeferment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	deferredAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fee_accounts SET deferment_applied = $2, refund_amount = $3, rollover_eligible = $4, deferred_at = $5, updated_at = $6 WHERE id = $1")).
		WithArgs("fee-1", true, 500.0, true, deferredAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateDeferment(context.Background(), "fee-1", true, 500.0, true, &deferredAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryResetDeferment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE fee_accounts SET deferment_applied = FALSE, refund_amount = 0, rollover_eligible = FALSE, deferred_at = NULL, updated_at = $1 WHERE deferment_applied = TRUE")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, repo.ResetDeferment(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryListByStudentPeriod(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFeeRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_id", "academic_year", "semester", "total_billed", "amount_paid", "outstanding_balance", "deferment_applied", "early_deferment", "refund_amount", "rollover_eligible", "created_at", "updated_at", "deferred_at"}).
		AddRow("fee-1", "stu-1", "2024/2025", "Second", 2000.0, 500.0, 1500.0, false, true, 0.0, false, now, now, nil)

	mock.ExpectQuery("SELECT .+ FROM fee_accounts WHERE student_id = .+ AND academic_year = .+ AND semester = .+").
		WithArgs("stu-1", "2024/2025", "Second").
		WillReturnRows(rows)

	accounts, err := repo.ListByStudentPeriod(context.Background(), "stu-1", "2024/2025", "Second")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.True(t, accounts[0].EarlyDeferment)
	require.Equal(t, 1500.0, accounts[0].OutstandingBalance)
	require.NoError(t, mock.ExpectationsWereMet())
}
