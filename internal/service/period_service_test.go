package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adm-api/internal/dto"
	"github.com/noah-isme/uni-adm-api/internal/models"
	appErrors "github.com/noah-isme/uni-adm-api/pkg/errors"
)

type yearRepoStub struct {
	years map[string]*models.AcademicYear
}

func newYearRepoStub() *yearRepoStub {
	return &yearRepoStub{years: make(map[string]*models.AcademicYear)}
}

func (s *yearRepoStub) List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, int, error) {
	var result []models.AcademicYear
	for _, year := range s.years {
		result = append(result, *year)
	}
	return result, len(result), nil
}

func (s *yearRepoStub) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	if year, ok := s.years[id]; ok {
		copy := *year
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *yearRepoStub) FindByStatus(ctx context.Context, status models.PeriodStatus) ([]models.AcademicYear, error) {
	var result []models.AcademicYear
	for _, year := range s.years {
		if year.Status == status {
			result = append(result, *year)
		}
	}
	return result, nil
}

func (s *yearRepoStub) Create(ctx context.Context, year *models.AcademicYear) error {
	if year.ID == "" {
		year.ID = fmt.Sprintf("year-%d", len(s.years)+1)
	}
	copy := *year
	s.years[year.ID] = &copy
	return nil
}

func (s *yearRepoStub) Update(ctx context.Context, year *models.AcademicYear) error {
	if _, ok := s.years[year.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *year
	s.years[year.ID] = &copy
	return nil
}

func (s *yearRepoStub) UpdateStatus(ctx context.Context, id string, status models.PeriodStatus) error {
	year, ok := s.years[id]
	if !ok {
		return sql.ErrNoRows
	}
	year.Status = status
	return nil
}

func (s *yearRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.years, id)
	return nil
}

type semesterStoreStub struct {
	semesters map[string]*models.Semester
}

func newSemesterStoreStub() *semesterStoreStub {
	return &semesterStoreStub{semesters: make(map[string]*models.Semester)}
}

func (s *semesterStoreStub) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	var result []models.Semester
	for _, semester := range s.semesters {
		result = append(result, *semester)
	}
	return result, len(result), nil
}

func (s *semesterStoreStub) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	if semester, ok := s.semesters[id]; ok {
		copy := *semester
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *semesterStoreStub) FindActive(ctx context.Context, programType models.ProgramType) (*models.Semester, error) {
	for _, semester := range s.semesters {
		if semester.ProgramType == programType && semester.Status == models.PeriodStatusActive {
			copy := *semester
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *semesterStoreStub) ListByYear(ctx context.Context, yearID string) ([]models.Semester, error) {
	var result []models.Semester
	for _, semester := range s.semesters {
		if semester.YearID == yearID {
			result = append(result, *semester)
		}
	}
	return result, nil
}

func (s *semesterStoreStub) ListActiveByYear(ctx context.Context, yearID string) ([]models.Semester, error) {
	var result []models.Semester
	for _, semester := range s.semesters {
		if semester.YearID == yearID && semester.Status == models.PeriodStatusActive {
			result = append(result, *semester)
		}
	}
	return result, nil
}

func (s *semesterStoreStub) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = fmt.Sprintf("sem-%d", len(s.semesters)+1)
	}
	copy := *semester
	s.semesters[semester.ID] = &copy
	return nil
}

func (s *semesterStoreStub) Update(ctx context.Context, semester *models.Semester) error {
	if _, ok := s.semesters[semester.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *semester
	s.semesters[semester.ID] = &copy
	return nil
}

func (s *semesterStoreStub) UpdateStatus(ctx context.Context, id string, status models.PeriodStatus, isCurrent bool) error {
	semester, ok := s.semesters[id]
	if !ok {
		return sql.ErrNoRows
	}
	semester.Status = status
	semester.IsCurrent = isCurrent
	return nil
}

func (s *semesterStoreStub) Delete(ctx context.Context, id string) error {
	delete(s.semesters, id)
	return nil
}

func (s *semesterStoreStub) DeleteByYear(ctx context.Context, yearID string) error {
	for id, semester := range s.semesters {
		if semester.YearID == yearID {
			delete(s.semesters, id)
		}
	}
	return nil
}

type activationLogStub struct {
	records map[string]*models.ActivationRecord
	puts    int
}

func newActivationLogStub() *activationLogStub {
	return &activationLogStub{records: make(map[string]*models.ActivationRecord)}
}

func (s *activationLogStub) Get(ctx context.Context, scope string) (*models.ActivationRecord, error) {
	if record, ok := s.records[scope]; ok {
		copy := *record
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *activationLogStub) Put(ctx context.Context, record *models.ActivationRecord) error {
	s.puts++
	copy := *record
	s.records[record.Scope] = &copy
	return nil
}

func (s *activationLogStub) Clear(ctx context.Context, scope string) error {
	delete(s.records, scope)
	return nil
}

type currentPeriodStub struct {
	period *models.CurrentPeriod
}

func (s *currentPeriodStub) Get(ctx context.Context) (*models.CurrentPeriod, error) {
	if s.period == nil {
		return nil, sql.ErrNoRows
	}
	copy := *s.period
	return &copy, nil
}

func (s *currentPeriodStub) Put(ctx context.Context, period *models.CurrentPeriod) error {
	copy := *period
	s.period = &copy
	return nil
}

type auditLoggerStub struct {
	logs []*models.AuditLog
}

func (s *auditLoggerStub) Create(ctx context.Context, log *models.AuditLog) error {
	copy := *log
	s.logs = append(s.logs, &copy)
	return nil
}

type periodFixture struct {
	years     *yearRepoStub
	semesters *semesterStoreStub
	log       *activationLogStub
	current   *currentPeriodStub
	audit     *auditLoggerStub
	service   *PeriodService
}

func newPeriodFixture() *periodFixture {
	f := &periodFixture{
		years:     newYearRepoStub(),
		semesters: newSemesterStoreStub(),
		log:       newActivationLogStub(),
		current:   &currentPeriodStub{},
		audit:     &auditLoggerStub{},
	}
	f.service = NewPeriodService(f.years, f.semesters, f.log, f.current, nil, f.audit, nil, nil)
	return f
}

func (f *periodFixture) addYear(id, label string, status models.PeriodStatus) {
	f.years.years[id] = &models.AcademicYear{
		ID:        id,
		Label:     label,
		StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Status:    status,
	}
}

func (f *periodFixture) addSemester(id, yearID, name string, programType models.ProgramType, status models.PeriodStatus) {
	f.semesters.semesters[id] = &models.Semester{
		ID:          id,
		YearID:      yearID,
		ProgramType: programType,
		Name:        name,
		Status:      status,
	}
}

func TestActivateYearEnforcesSingleActive(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusActive)
	f.addYear("year-2", "2025/2026", models.PeriodStatusUpcoming)

	result, err := f.service.ActivateYear(context.Background(), "year-2", "op-1")
	require.NoError(t, err)
	require.Equal(t, models.PeriodStatusActive, result.Year.Status)
	require.Equal(t, "year-1", result.PreviousActiveID)

	require.Equal(t, models.PeriodStatusInactive, f.years.years["year-1"].Status)
	require.Equal(t, models.PeriodStatusActive, f.years.years["year-2"].Status)

	record := f.log.records[models.ActivationScopeYear]
	require.NotNil(t, record)
	require.Equal(t, "year-1", record.PreviousActiveID)
	require.Equal(t, "year-2", record.CurrentActiveID)
}

func TestActivateYearIdempotent(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusActive)

	result, err := f.service.ActivateYear(context.Background(), "year-1", "op-1")
	require.NoError(t, err)
	require.Equal(t, models.PeriodStatusActive, result.Year.Status)

	// A no-op activation leaves no trace: no undo record, no audit entry.
	require.Zero(t, f.log.puts)
	require.Empty(t, f.audit.logs)
}

func TestActivateYearDeactivatesSemestersOfPreviousYear(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusActive)
	f.addYear("year-2", "2025/2026", models.PeriodStatusUpcoming)
	f.addSemester("sem-1", "year-1", models.SemesterSecond, models.ProgramTypeRegular, models.PeriodStatusActive)

	_, err := f.service.ActivateYear(context.Background(), "year-2", "op-1")
	require.NoError(t, err)
	require.Equal(t, models.PeriodStatusInactive, f.semesters.semesters["sem-1"].Status)
}

func TestUndoActiveYearRestoresPrevious(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusActive)
	f.addYear("year-2", "2025/2026", models.PeriodStatusUpcoming)

	_, err := f.service.ActivateYear(context.Background(), "year-2", "op-1")
	require.NoError(t, err)

	restored, err := f.service.UndoActiveYear(context.Background(), "op-1")
	require.NoError(t, err)
	require.Equal(t, "year-1", restored.ID)
	require.Equal(t, models.PeriodStatusActive, f.years.years["year-1"].Status)
	require.Equal(t, models.PeriodStatusInactive, f.years.years["year-2"].Status)

	// One level of history only: the record is consumed.
	_, err = f.service.UndoActiveYear(context.Background(), "op-1")
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
}

func TestActivateSemesterRequiresActiveParentYear(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusActive)
	f.addYear("year-2", "2025/2026", models.PeriodStatusUpcoming)
	f.addSemester("sem-1", "year-2", models.SemesterFirst, models.ProgramTypeRegular, models.PeriodStatusUpcoming)

	_, err := f.service.ActivateSemester(context.Background(), "sem-1", "op-1")
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrInvalidState))
	require.Contains(t, err.Error(), "2025/2026")
	require.Contains(t, err.Error(), "2024/2025")
}

func TestActivateSemesterSetsCurrentPeriodForRegularTrack(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusActive)
	f.addSemester("sem-1", "year-1", models.SemesterFirst, models.ProgramTypeRegular, models.PeriodStatusActive)
	f.addSemester("sem-2", "year-1", models.SemesterSecond, models.ProgramTypeRegular, models.PeriodStatusUpcoming)

	result, err := f.service.ActivateSemester(context.Background(), "sem-2", "op-1")
	require.NoError(t, err)
	require.Equal(t, "sem-1", result.PreviousActiveID)
	require.Equal(t, models.PeriodStatusInactive, f.semesters.semesters["sem-1"].Status)
	require.Equal(t, models.PeriodStatusActive, f.semesters.semesters["sem-2"].Status)
	require.True(t, f.semesters.semesters["sem-2"].IsCurrent)

	require.NotNil(t, f.current.period)
	require.Equal(t, "sem-2", f.current.period.SemesterID)
	require.Equal(t, "2024/2025", f.current.period.AcademicYearLabel)
}

func TestActivateSemesterWeekendTrackLeavesCurrentPeriod(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusActive)
	f.addSemester("sem-1", "year-1", models.SemesterFirst, models.ProgramTypeWeekend, models.PeriodStatusUpcoming)

	_, err := f.service.ActivateSemester(context.Background(), "sem-1", "op-1")
	require.NoError(t, err)
	require.Nil(t, f.current.period)
}

func TestUndoActiveSemesterScopedByProgramType(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusActive)
	f.addSemester("sem-1", "year-1", models.SemesterFirst, models.ProgramTypeRegular, models.PeriodStatusActive)
	f.addSemester("sem-2", "year-1", models.SemesterSecond, models.ProgramTypeRegular, models.PeriodStatusUpcoming)
	f.addSemester("sem-w", "year-1", models.SemesterFirst, models.ProgramTypeWeekend, models.PeriodStatusActive)

	_, err := f.service.ActivateSemester(context.Background(), "sem-2", "op-1")
	require.NoError(t, err)

	restored, err := f.service.UndoActiveSemester(context.Background(), models.ProgramTypeRegular, "op-1")
	require.NoError(t, err)
	require.Equal(t, "sem-1", restored.ID)
	require.Equal(t, models.PeriodStatusActive, f.semesters.semesters["sem-1"].Status)
	// The weekend track is untouched.
	require.Equal(t, models.PeriodStatusActive, f.semesters.semesters["sem-w"].Status)
}

func TestRolloverSemesterActivatesSuccessor(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusActive)
	f.addSemester("sem-1", "year-1", models.SemesterSecond, models.ProgramTypeRegular, models.PeriodStatusActive)
	f.addSemester("sem-2", "year-1", models.SemesterThird, models.ProgramTypeRegular, models.PeriodStatusUpcoming)

	result, err := f.service.RolloverSemester(context.Background(), models.ProgramTypeRegular, "op-1")
	require.NoError(t, err)
	require.Equal(t, "sem-2", result.Semester.ID)
	require.Equal(t, models.PeriodStatusCompleted, f.semesters.semesters["sem-1"].Status)
	require.Equal(t, models.PeriodStatusActive, f.semesters.semesters["sem-2"].Status)
}

func TestRolloverThirdSemesterConflicts(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusActive)
	f.addSemester("sem-1", "year-1", models.SemesterThird, models.ProgramTypeRegular, models.PeriodStatusActive)

	_, err := f.service.RolloverSemester(context.Background(), models.ProgramTypeRegular, "op-1")
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
	require.Equal(t, models.PeriodStatusActive, f.semesters.semesters["sem-1"].Status)
}

func TestDeleteYearRejectsActiveState(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusActive)

	err := f.service.DeleteYear(context.Background(), "year-1", "op-1")
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
}

func TestDeleteYearRejectsActiveSemester(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusInactive)
	f.addSemester("sem-1", "year-1", models.SemesterFirst, models.ProgramTypeRegular, models.PeriodStatusActive)

	err := f.service.DeleteYear(context.Background(), "year-1", "op-1")
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
	require.Contains(t, f.years.years, "year-1")
}

func TestDeleteYearCascadesSemesters(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusInactive)
	f.addSemester("sem-1", "year-1", models.SemesterFirst, models.ProgramTypeRegular, models.PeriodStatusInactive)
	f.addSemester("sem-2", "year-1", models.SemesterSecond, models.ProgramTypeRegular, models.PeriodStatusUpcoming)

	require.NoError(t, f.service.DeleteYear(context.Background(), "year-1", "op-1"))
	require.Empty(t, f.semesters.semesters)
	require.NotContains(t, f.years.years, "year-1")
}

func TestCreateYearNormalisesLabel(t *testing.T) {
	f := newPeriodFixture()
	year, err := f.service.CreateYear(context.Background(), dto.CreateAcademicYearRequest{
		Label:     "2025-2026",
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, "2025/2026", year.Label)
	require.Equal(t, models.PeriodStatusUpcoming, year.Status)
}

func TestUpdateSemesterRewritesSchedule(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusActive)
	f.addSemester("sem-1", "year-1", models.SemesterFirst, models.ProgramTypeRegular, models.PeriodStatusUpcoming)

	start := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)
	semester, err := f.service.UpdateSemester(context.Background(), "sem-1", dto.UpdateSemesterRequest{
		StartDate:         start,
		EndDate:           end,
		RegistrationStart: start.AddDate(0, 0, -14),
		RegistrationEnd:   start.AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	require.Equal(t, start, semester.StartDate)
	require.Equal(t, end, f.semesters.semesters["sem-1"].EndDate)
	// Activation state is untouched.
	require.Equal(t, models.PeriodStatusUpcoming, f.semesters.semesters["sem-1"].Status)
}

func TestUpdateSemesterRejectsInvertedDates(t *testing.T) {
	f := newPeriodFixture()
	f.addYear("year-1", "2024/2025", models.PeriodStatusActive)
	f.addSemester("sem-1", "year-1", models.SemesterFirst, models.ProgramTypeRegular, models.PeriodStatusUpcoming)

	start := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	_, err := f.service.UpdateSemester(context.Background(), "sem-1", dto.UpdateSemesterRequest{
		StartDate:         start,
		EndDate:           start.AddDate(0, -1, 0),
		RegistrationStart: start.AddDate(0, 0, -14),
		RegistrationEnd:   start.AddDate(0, 0, -1),
	})
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestGetCurrentPeriodNotSet(t *testing.T) {
	f := newPeriodFixture()
	_, err := f.service.GetCurrentPeriod(context.Background())
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
