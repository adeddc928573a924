package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

func TestDefermentRepositoryUpdateStatusClaimsPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDefermentRepository(db)

	processedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE deferment_requests SET status = $2, processed_by = $3, processed_at = $4, updated_at = $4 WHERE id = $1 AND status = $5")).
		WithArgs("req-1", models.DefermentStatusApproved, "op-1", processedAt, models.DefermentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "req-1", models.DefermentStatusApproved, "op-1", processedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDefermentRepositoryUpdateStatusLosesRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDefermentRepository(db)

	// Zero rows affected means the pending guard did not match: the request
	// was already processed by another operator.
	processedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE deferment_requests SET status = $2")).
		WithArgs("req-1", models.DefermentStatusApproved, "op-1", processedAt, models.DefermentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "req-1", models.DefermentStatusApproved, "op-1", processedAt)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDefermentRepositoryCreateDefaultsTimestamps(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDefermentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO deferment_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	request := &models.DefermentRequest{
		StudentID: "stu-1",
		Period:    "Second semester of 2024/2025",
		Reason:    "Medical leave",
		Type:      models.DefermentTypeSelfService,
		Status:    models.DefermentStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.False(t, request.SubmittedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDefermentRepositoryListFiltersByStudent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDefermentRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_id", "period", "reason", "type", "status", "submitted_at", "processed_at", "processed_by", "created_at", "updated_at"}).
		AddRow("req-1", "stu-1", "Second semester of 2024/2025", "Medical leave", "SELF_SERVICE", "PENDING", now, nil, nil, now, now)

	mock.ExpectQuery("SELECT .+ FROM deferment_requests WHERE 1=1 AND student_id = .+ ORDER BY submitted_at DESC").
		WithArgs("stu-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM deferment_requests WHERE 1=1 AND student_id = $1")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	requests, total, err := repo.List(context.Background(), models.DefermentFilter{StudentID: "stu-1"})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, 1, total)
	require.Equal(t, models.DefermentStatusPending, requests[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDefermentRepositoryDeleteAll(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDefermentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM deferment_requests")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteAll(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
