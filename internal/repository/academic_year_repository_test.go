package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestAcademicYearRepositoryFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAcademicYearRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "label", "start_date", "end_date", "status", "created_at", "updated_at"}).
		AddRow("year-1", "2024/2025", now, now.AddDate(0, 9, 0), "ACTIVE", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, label, start_date, end_date, status, created_at, updated_at FROM academic_years WHERE id = $1")).
		WithArgs("year-1").
		WillReturnRows(rows)

	year, err := repo.FindByID(context.Background(), "year-1")
	require.NoError(t, err)
	require.Equal(t, "2024/2025", year.Label)
	require.Equal(t, models.PeriodStatusActive, year.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryFindByIDNoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAcademicYearRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, label, start_date, end_date, status, created_at, updated_at FROM academic_years WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryCreateAssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAcademicYearRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO academic_years")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	year := &models.AcademicYear{
		Label:     "2025/2026",
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), year))
	require.NotEmpty(t, year.ID)
	require.Equal(t, models.PeriodStatusUpcoming, year.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAcademicYearRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("year-1", models.PeriodStatusInactive, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "year-1", models.PeriodStatusInactive))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryListFiltersByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAcademicYearRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "label", "start_date", "end_date", "status", "created_at", "updated_at"}).
		AddRow("year-1", "2024/2025", now, now, "ACTIVE", now, now)

	mock.ExpectQuery("SELECT .+ FROM academic_years WHERE 1=1 AND status = .+ ORDER BY start_date DESC").
		WithArgs(models.PeriodStatusActive).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM academic_years WHERE 1=1 AND status = $1")).
		WithArgs(models.PeriodStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	years, total, err := repo.List(context.Background(), models.AcademicYearFilter{Status: models.PeriodStatusActive})
	require.NoError(t, err)
	require.Len(t, years, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
