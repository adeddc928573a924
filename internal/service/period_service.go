package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-adm-api/internal/dto"
	"github.com/noah-isme/uni-adm-api/internal/models"
	appErrors "github.com/noah-isme/uni-adm-api/pkg/errors"
)

type yearRepository interface {
	List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, int, error)
	FindByID(ctx context.Context, id string) (*models.AcademicYear, error)
	FindByStatus(ctx context.Context, status models.PeriodStatus) ([]models.AcademicYear, error)
	Create(ctx context.Context, year *models.AcademicYear) error
	Update(ctx context.Context, year *models.AcademicYear) error
	UpdateStatus(ctx context.Context, id string, status models.PeriodStatus) error
	Delete(ctx context.Context, id string) error
}

type semesterStore interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	FindActive(ctx context.Context, programType models.ProgramType) (*models.Semester, error)
	ListByYear(ctx context.Context, yearID string) ([]models.Semester, error)
	ListActiveByYear(ctx context.Context, yearID string) ([]models.Semester, error)
	Create(ctx context.Context, semester *models.Semester) error
	Update(ctx context.Context, semester *models.Semester) error
	UpdateStatus(ctx context.Context, id string, status models.PeriodStatus, isCurrent bool) error
	Delete(ctx context.Context, id string) error
	DeleteByYear(ctx context.Context, yearID string) error
}

type activationLog interface {
	Get(ctx context.Context, scope string) (*models.ActivationRecord, error)
	Put(ctx context.Context, record *models.ActivationRecord) error
	Clear(ctx context.Context, scope string) error
}

type currentPeriodStore interface {
	Get(ctx context.Context) (*models.CurrentPeriod, error)
	Put(ctx context.Context, period *models.CurrentPeriod) error
}

type periodCache interface {
	GetCurrentPeriod(ctx context.Context) (*models.CurrentPeriod, error)
	SetCurrentPeriod(ctx context.Context, period *models.CurrentPeriod) error
	InvalidateCurrentPeriod(ctx context.Context) error
}

type auditLogger interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// PeriodService is the sole writer of the active-year and active-semester
// flags. Every mutation re-derives legality from fresh reads before writing.
// The store offers single-document atomicity only, so two operators racing
// through here can both observe "no active year" and both succeed; that
// window is accepted and documented rather than locked away.
type PeriodService struct {
	years     yearRepository
	semesters semesterStore
	log       activationLog
	current   currentPeriodStore
	cache     periodCache
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService creates a new period service instance.
func NewPeriodService(years yearRepository, semesters semesterStore, log activationLog, current currentPeriodStore, cache periodCache, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{
		years:     years,
		semesters: semesters,
		log:       log,
		current:   current,
		cache:     cache,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// ListYears returns paginated academic years.
func (s *PeriodService) ListYears(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, *models.Pagination, error) {
	years, total, err := s.years.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic years")
	}
	return years, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetYear returns an academic year by ID.
func (s *PeriodService) GetYear(ctx context.Context, id string) (*models.AcademicYear, error) {
	year, err := s.years.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	return year, nil
}

// CreateYear adds a new academic year in the upcoming state.
func (s *PeriodService) CreateYear(ctx context.Context, req dto.CreateAcademicYearRequest) (*models.AcademicYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic year payload")
	}
	label, err := NormalizeAcademicYearLabel(req.Label)
	if err != nil {
		return nil, err
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	year := &models.AcademicYear{
		Label:     label,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    models.PeriodStatusUpcoming,
	}
	if err := s.years.Create(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic year")
	}
	return year, nil
}

// UpdateYear rewrites the mutable fields of an academic year.
func (s *PeriodService) UpdateYear(ctx context.Context, id string, req dto.UpdateAcademicYearRequest) (*models.AcademicYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic year payload")
	}
	label, err := NormalizeAcademicYearLabel(req.Label)
	if err != nil {
		return nil, err
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	year, err := s.GetYear(ctx, id)
	if err != nil {
		return nil, err
	}
	year.Label = label
	year.StartDate = req.StartDate
	year.EndDate = req.EndDate
	if err := s.years.Update(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update academic year")
	}
	return year, nil
}

// ActivateYear makes yearID the single active academic year. Activating an
// already-active year is a no-op success. The previously active year id is
// recorded for the one-step undo and returned to the caller.
func (s *PeriodService) ActivateYear(ctx context.Context, yearID, actorID string) (*dto.ActivateYearResult, error) {
	year, err := s.years.FindByID(ctx, yearID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}

	if year.Status == models.PeriodStatusActive {
		return &dto.ActivateYearResult{Year: year}, nil
	}

	actives, err := s.years.FindByStatus(ctx, models.PeriodStatusActive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read active academic years")
	}

	previousActiveID := ""
	if len(actives) > 0 {
		previousActiveID = actives[0].ID
	}

	// The compensation record is written before any status flips so the
	// undo affordance survives a crash mid-activation.
	record := &models.ActivationRecord{
		Scope:            models.ActivationScopeYear,
		PreviousActiveID: previousActiveID,
		CurrentActiveID:  yearID,
	}
	if err := s.log.Put(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record activation")
	}

	for _, other := range actives {
		if err := s.deactivateYearSemesters(ctx, other.ID); err != nil {
			return nil, err
		}
		if err := s.years.UpdateStatus(ctx, other.ID, models.PeriodStatusInactive); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate academic year")
		}
	}

	if err := s.years.UpdateStatus(ctx, yearID, models.PeriodStatusActive); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate academic year")
	}
	year.Status = models.PeriodStatusActive

	s.emitAudit(ctx, &models.AuditLog{
		OperatorID: optionalID(actorID),
		Action:     models.AuditActionYearActivate,
		Resource:   "academic_year",
		ResourceID: &year.ID,
		OldValues:  jsonField("previous_active_id", previousActiveID),
		NewValues:  jsonField("active_id", yearID),
		Details:    fmt.Sprintf("academic year %s set active", year.Label),
	})

	return &dto.ActivateYearResult{Year: year, PreviousActiveID: previousActiveID}, nil
}

// UndoActiveYear reverses the most recent year activation. Only one level of
// history exists: a later activation overwrites the compensation record, so
// only the immediately prior state is recoverable.
func (s *PeriodService) UndoActiveYear(ctx context.Context, actorID string) (*models.AcademicYear, error) {
	record, err := s.log.Get(ctx, models.ActivationScopeYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "no year activation to undo")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read activation record")
	}

	// Semesters auto-activated under the year being undone are flipped
	// back before the year itself.
	if err := s.deactivateYearSemesters(ctx, record.CurrentActiveID); err != nil {
		return nil, err
	}
	if err := s.years.UpdateStatus(ctx, record.CurrentActiveID, models.PeriodStatusInactive); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate academic year")
	}

	var restored *models.AcademicYear
	if record.PreviousActiveID != "" {
		if err := s.years.UpdateStatus(ctx, record.PreviousActiveID, models.PeriodStatusActive); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore previous academic year")
		}
		restored, err = s.years.FindByID(ctx, record.PreviousActiveID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load restored academic year")
		}
	}

	if err := s.log.Clear(ctx, models.ActivationScopeYear); err != nil {
		s.logger.Warn("failed to clear activation record", zap.Error(err))
	}

	s.emitAudit(ctx, &models.AuditLog{
		OperatorID: optionalID(actorID),
		Action:     models.AuditActionYearUndo,
		Resource:   "academic_year",
		ResourceID: &record.CurrentActiveID,
		OldValues:  jsonField("active_id", record.CurrentActiveID),
		NewValues:  jsonField("active_id", record.PreviousActiveID),
		Details:    "year activation undone",
	})

	return restored, nil
}

// ListSemesters returns paginated semesters.
func (s *PeriodService) ListSemesters(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, *models.Pagination, error) {
	semesters, total, err := s.semesters.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	return semesters, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetSemester returns a semester by ID.
func (s *PeriodService) GetSemester(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.semesters.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	return semester, nil
}

// CreateSemester adds a new semester under an existing year.
func (s *PeriodService) CreateSemester(ctx context.Context, req dto.CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}
	if _, err := s.GetYear(ctx, req.YearID); err != nil {
		return nil, err
	}

	semester := &models.Semester{
		YearID:            req.YearID,
		ProgramType:       req.ProgramType,
		Name:              req.Name,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		RegistrationStart: req.RegistrationStart,
		RegistrationEnd:   req.RegistrationEnd,
		Status:            models.PeriodStatusUpcoming,
	}
	if err := s.semesters.Create(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	return semester, nil
}

// UpdateSemester rewrites the schedule of a semester. Identity fields stay
// fixed; activation state is only changed through the activate endpoints.
func (s *PeriodService) UpdateSemester(ctx context.Context, id string, req dto.UpdateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}
	if !req.RegistrationStart.Before(req.RegistrationEnd) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration_start must be before registration_end")
	}

	semester, err := s.GetSemester(ctx, id)
	if err != nil {
		return nil, err
	}
	semester.StartDate = req.StartDate
	semester.EndDate = req.EndDate
	semester.RegistrationStart = req.RegistrationStart
	semester.RegistrationEnd = req.RegistrationEnd
	if err := s.semesters.Update(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update semester")
	}
	return semester, nil
}

// ActivateSemester makes the target the single active semester for its
// program type. The parent year must be the currently active year.
func (s *PeriodService) ActivateSemester(ctx context.Context, semesterID, actorID string) (*dto.ActivateSemesterResult, error) {
	semester, err := s.semesters.FindByID(ctx, semesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}

	if semester.Status == models.PeriodStatusActive {
		return &dto.ActivateSemesterResult{Semester: semester}, nil
	}

	parent, err := s.years.FindByID(ctx, semester.YearID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent academic year")
	}

	if parent.Status != models.PeriodStatusActive {
		actives, err := s.years.FindByStatus(ctx, models.PeriodStatusActive)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read active academic years")
		}
		if len(actives) > 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("semester belongs to academic year %s but the active academic year is %s", parent.Label, actives[0].Label))
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("academic year %s is not active", parent.Label))
	}

	return s.activateSemesterUnder(ctx, semester, parent, actorID, models.AuditActionSemesterActivate)
}

func (s *PeriodService) activateSemesterUnder(ctx context.Context, semester *models.Semester, parent *models.AcademicYear, actorID, action string) (*dto.ActivateSemesterResult, error) {
	previousActiveID := ""
	previous, err := s.semesters.FindActive(ctx, semester.ProgramType)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read active semester")
	}
	if previous != nil {
		previousActiveID = previous.ID
	}

	record := &models.ActivationRecord{
		Scope:            semesterScope(semester.ProgramType),
		PreviousActiveID: previousActiveID,
		CurrentActiveID:  semester.ID,
	}
	if err := s.log.Put(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record activation")
	}

	if previous != nil && previous.ID != semester.ID {
		if err := s.semesters.UpdateStatus(ctx, previous.ID, models.PeriodStatusInactive, false); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate semester")
		}
	}

	if err := s.semesters.UpdateStatus(ctx, semester.ID, models.PeriodStatusActive, true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate semester")
	}
	semester.Status = models.PeriodStatusActive
	semester.IsCurrent = true

	// Only the Regular track drives the registration pointer.
	if semester.ProgramType == models.ProgramTypeRegular {
		if err := s.setCurrentPeriod(ctx, semester, parent); err != nil {
			return nil, err
		}
	}

	s.emitAudit(ctx, &models.AuditLog{
		OperatorID: optionalID(actorID),
		Action:     action,
		Resource:   "semester",
		ResourceID: &semester.ID,
		OldValues:  jsonField("previous_active_id", previousActiveID),
		NewValues:  jsonField("active_id", semester.ID),
		Details:    fmt.Sprintf("%s semester %s of %s set active", semester.ProgramType, semester.Name, parent.Label),
	})

	return &dto.ActivateSemesterResult{Semester: semester, PreviousActiveID: previousActiveID}, nil
}

// UndoActiveSemester reverses the most recent semester activation for one
// program type. One level of history only.
func (s *PeriodService) UndoActiveSemester(ctx context.Context, programType models.ProgramType, actorID string) (*models.Semester, error) {
	scope := semesterScope(programType)
	record, err := s.log.Get(ctx, scope)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "no semester activation to undo")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read activation record")
	}

	if err := s.semesters.UpdateStatus(ctx, record.CurrentActiveID, models.PeriodStatusInactive, false); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate semester")
	}

	var restored *models.Semester
	if record.PreviousActiveID != "" {
		if err := s.semesters.UpdateStatus(ctx, record.PreviousActiveID, models.PeriodStatusActive, true); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore previous semester")
		}
		restored, err = s.semesters.FindByID(ctx, record.PreviousActiveID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load restored semester")
		}
	}

	if programType == models.ProgramTypeRegular {
		if restored != nil {
			parent, err := s.years.FindByID(ctx, restored.YearID)
			if err == nil {
				if err := s.setCurrentPeriod(ctx, restored, parent); err != nil {
					return nil, err
				}
			}
		} else if s.cache != nil {
			if err := s.cache.InvalidateCurrentPeriod(ctx); err != nil {
				s.logger.Warn("failed to invalidate current period cache", zap.Error(err))
			}
		}
	}

	if err := s.log.Clear(ctx, scope); err != nil {
		s.logger.Warn("failed to clear activation record", zap.Error(err))
	}

	s.emitAudit(ctx, &models.AuditLog{
		OperatorID: optionalID(actorID),
		Action:     models.AuditActionSemesterUndo,
		Resource:   "semester",
		ResourceID: &record.CurrentActiveID,
		OldValues:  jsonField("active_id", record.CurrentActiveID),
		NewValues:  jsonField("active_id", record.PreviousActiveID),
		Details:    fmt.Sprintf("%s semester activation undone", programType),
	})

	return restored, nil
}

// RolloverSemester completes the active semester of a track and activates
// its successor within the same academic year.
func (s *PeriodService) RolloverSemester(ctx context.Context, programType models.ProgramType, actorID string) (*dto.ActivateSemesterResult, error) {
	active, err := s.semesters.FindActive(ctx, programType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "no active semester to roll over")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read active semester")
	}

	nextName, ok := NextSemesterName(active.Name)
	if !ok || nextName == models.SemesterFirst {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("no successor semester after %s within academic year; activate the next year first", active.Name))
	}

	siblings, err := s.semesters.ListByYear(ctx, active.YearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters for rollover")
	}
	var successor *models.Semester
	for i := range siblings {
		if siblings[i].ProgramType == programType && siblings[i].Name == nextName {
			successor = &siblings[i]
			break
		}
	}
	if successor == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("successor semester %s is not defined for this year", nextName))
	}

	parent, err := s.years.FindByID(ctx, active.YearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent academic year")
	}

	if err := s.semesters.UpdateStatus(ctx, active.ID, models.PeriodStatusCompleted, false); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete active semester")
	}

	return s.activateSemesterUnder(ctx, successor, parent, actorID, models.AuditActionSemesterRollover)
}

// DeleteYear removes a year and cascades to its semesters. Rejected while
// the year or any of its semesters is active.
func (s *PeriodService) DeleteYear(ctx context.Context, yearID, actorID string) error {
	year, err := s.GetYear(ctx, yearID)
	if err != nil {
		return err
	}
	if year.Status == models.PeriodStatusActive {
		return appErrors.Clone(appErrors.ErrConflict, "cannot delete the active academic year")
	}

	semesters, err := s.semesters.ListByYear(ctx, yearID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list dependent semesters")
	}
	for _, semester := range semesters {
		if semester.Status == models.PeriodStatusActive {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("academic year has an active semester (%s)", semester.Name))
		}
	}

	if err := s.semesters.DeleteByYear(ctx, yearID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete dependent semesters")
	}
	if err := s.years.Delete(ctx, yearID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete academic year")
	}

	s.emitAudit(ctx, &models.AuditLog{
		OperatorID: optionalID(actorID),
		Action:     models.AuditActionYearDelete,
		Resource:   "academic_year",
		ResourceID: &yearID,
		Details:    fmt.Sprintf("academic year %s deleted with %d semesters", year.Label, len(semesters)),
	})
	return nil
}

// DeleteSemester removes a semester. Rejected while active.
func (s *PeriodService) DeleteSemester(ctx context.Context, semesterID, actorID string) error {
	semester, err := s.GetSemester(ctx, semesterID)
	if err != nil {
		return err
	}
	if semester.Status == models.PeriodStatusActive {
		return appErrors.Clone(appErrors.ErrConflict, "cannot delete an active semester")
	}
	if err := s.semesters.Delete(ctx, semesterID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester")
	}

	s.emitAudit(ctx, &models.AuditLog{
		OperatorID: optionalID(actorID),
		Action:     models.AuditActionSemesterDelete,
		Resource:   "semester",
		ResourceID: &semesterID,
		Details:    fmt.Sprintf("semester %s deleted", semester.Name),
	})
	return nil
}

// GetCurrentPeriod returns the registration pointer, reading through the
// cache when one is configured.
func (s *PeriodService) GetCurrentPeriod(ctx context.Context) (*models.CurrentPeriod, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetCurrentPeriod(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	period, err := s.current.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "current academic period is not set")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current period")
	}

	if s.cache != nil {
		if err := s.cache.SetCurrentPeriod(ctx, period); err != nil {
			s.logger.Warn("failed to cache current period", zap.Error(err))
		}
	}
	return period, nil
}

func (s *PeriodService) setCurrentPeriod(ctx context.Context, semester *models.Semester, parent *models.AcademicYear) error {
	pointer := &models.CurrentPeriod{
		SemesterID:        semester.ID,
		SemesterName:      semester.Name,
		AcademicYearID:    parent.ID,
		AcademicYearLabel: parent.Label,
	}
	if err := s.current.Put(ctx, pointer); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update current period pointer")
	}
	if s.cache != nil {
		if err := s.cache.InvalidateCurrentPeriod(ctx); err != nil {
			s.logger.Warn("failed to invalidate current period cache", zap.Error(err))
		}
	}
	return nil
}

func (s *PeriodService) deactivateYearSemesters(ctx context.Context, yearID string) error {
	actives, err := s.semesters.ListActiveByYear(ctx, yearID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active semesters")
	}
	for _, semester := range actives {
		if err := s.semesters.UpdateStatus(ctx, semester.ID, models.PeriodStatusInactive, false); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate semester")
		}
		if semester.ProgramType == models.ProgramTypeRegular && s.cache != nil {
			if err := s.cache.InvalidateCurrentPeriod(ctx); err != nil {
				s.logger.Warn("failed to invalidate current period cache", zap.Error(err))
			}
		}
	}
	return nil
}

func (s *PeriodService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.Create(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func semesterScope(programType models.ProgramType) string {
	if programType == models.ProgramTypeWeekend {
		return models.ActivationScopeSemesterWeekend
	}
	return models.ActivationScopeSemesterRegular
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func jsonField(key, value string) []byte {
	raw, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return []byte("{}")
	}
	return raw
}
