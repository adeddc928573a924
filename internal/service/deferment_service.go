package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-adm-api/internal/dto"
	"github.com/noah-isme/uni-adm-api/internal/models"
	"github.com/noah-isme/uni-adm-api/pkg/config"
	appErrors "github.com/noah-isme/uni-adm-api/pkg/errors"
)

// complianceSystemError is the reason reported when a compliance input
// cannot be read. The check fails closed: an unreadable record blocks the
// approval exactly like a failing rule.
const complianceSystemError = "System error"

type defermentStore interface {
	List(ctx context.Context, filter models.DefermentFilter) ([]models.DefermentRequest, int, error)
	FindByID(ctx context.Context, id string) (*models.DefermentRequest, error)
	Create(ctx context.Context, request *models.DefermentRequest) error
	UpdateStatus(ctx context.Context, id string, status models.DefermentStatus, processedBy string, processedAt time.Time) error
	DeleteAll(ctx context.Context) error
}

type standingReader interface {
	FindByStudent(ctx context.Context, studentID string) (*models.StudentStanding, error)
	OnProbation(ctx context.Context, studentID string) (bool, error)
	ResetAllDeferment(ctx context.Context) error
}

type balanceReader interface {
	OutstandingBalance(ctx context.Context, studentID string) (float64, error)
}

type transitionPropagator interface {
	Apply(ctx context.Context, transition models.Transition) ([]models.PropagationWarning, error)
}

type currentPeriodProvider interface {
	GetCurrentPeriod(ctx context.Context) (*models.CurrentPeriod, error)
}

type enrollmentPurger interface {
	ResetDefermentFlags(ctx context.Context) error
}

type feePurger interface {
	ResetDeferment(ctx context.Context) error
}

type notificationPurger interface {
	DeleteByCategory(ctx context.Context, category string) error
}

type auditPurger interface {
	Create(ctx context.Context, log *models.AuditLog) error
	DeleteByActions(ctx context.Context, actions []string) error
}

// DefermentService drives the student deferment lifecycle: self-service
// submission, review, operator-entered deferments, and reactivation. The
// standing record is authoritative; dependent collections follow through
// the propagator without any cross-collection transaction.
type DefermentService struct {
	requests  defermentStore
	standings standingReader
	fees      balanceReader
	propagate transitionPropagator
	periods   currentPeriodProvider
	audit     auditPurger

	enrollmentPurge   enrollmentPurger
	feePurge          feePurger
	notificationPurge notificationPurger

	cfg       config.DefermentConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDefermentService creates a new deferment service instance.
func NewDefermentService(requests defermentStore, standings standingReader, fees balanceReader, propagate transitionPropagator, periods currentPeriodProvider, audit auditPurger, enrollmentPurge enrollmentPurger, feePurge feePurger, notificationPurge notificationPurger, cfg config.DefermentConfig, validate *validator.Validate, logger *zap.Logger) *DefermentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProgramLengthYears <= 0 {
		cfg.ProgramLengthYears = 4
	}
	return &DefermentService{
		requests:          requests,
		standings:         standings,
		fees:              fees,
		propagate:         propagate,
		periods:           periods,
		audit:             audit,
		enrollmentPurge:   enrollmentPurge,
		feePurge:          feePurge,
		notificationPurge: notificationPurge,
		cfg:               cfg,
		validator:         validate,
		logger:            logger,
	}
}

// ListRequests returns paginated deferment requests.
func (s *DefermentService) ListRequests(ctx context.Context, filter models.DefermentFilter) ([]models.DefermentRequest, *models.Pagination, error) {
	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deferment requests")
	}
	return requests, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetRequest returns a deferment request by ID.
func (s *DefermentService) GetRequest(ctx context.Context, id string) (*models.DefermentRequest, error) {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deferment request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load deferment request")
	}
	return request, nil
}

// GetStanding returns a student's academic standing.
func (s *DefermentService) GetStanding(ctx context.Context, studentID string) (*models.StudentStanding, error) {
	standing, err := s.standings.FindByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no standing record for student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student standing")
	}
	return standing, nil
}

// Submit records a self-service deferment request in the pending state. No
// standing change happens until an operator approves it.
func (s *DefermentService) Submit(ctx context.Context, req dto.SubmitDefermentRequest) (*models.DefermentRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deferment payload")
	}
	ref, err := ParseDefermentPeriod(req.Period)
	if err != nil {
		return nil, err
	}

	request := &models.DefermentRequest{
		StudentID: req.StudentID,
		Period:    fmt.Sprintf("%s semester of %s", ref.Semester, ref.AcademicYear),
		Reason:    req.Reason,
		Type:      models.DefermentTypeSelfService,
		Status:    models.DefermentStatusPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create deferment request")
	}

	s.emitAudit(ctx, &models.AuditLog{
		Action:     models.AuditActionDefermentSubmit,
		Resource:   "deferment_request",
		ResourceID: &request.ID,
		NewValues:  jsonField("status", string(models.DefermentStatusPending)),
		Details:    fmt.Sprintf("student %s requested deferment for %s", request.StudentID, request.Period),
	})
	return request, nil
}

// CheckCompliance evaluates the pre-approval rules for a student. Any
// failure to read a rule input produces a non-compliant result rather than
// an error: an approval is never granted on unknown data.
func (s *DefermentService) CheckCompliance(ctx context.Context, studentID string) models.ComplianceResult {
	onProbation, err := s.standings.OnProbation(ctx, studentID)
	if err != nil {
		s.logger.Error("compliance probation lookup failed", zap.String("student_id", studentID), zap.Error(err))
		return models.ComplianceResult{Compliant: false, Reason: complianceSystemError}
	}
	if onProbation {
		return models.ComplianceResult{Compliant: false, Reason: "Student is on academic probation"}
	}

	balance, err := s.fees.OutstandingBalance(ctx, studentID)
	if err != nil {
		s.logger.Error("compliance balance lookup failed", zap.String("student_id", studentID), zap.Error(err))
		return models.ComplianceResult{Compliant: false, Reason: complianceSystemError}
	}
	if balance > 0 {
		return models.ComplianceResult{Compliant: false, Reason: fmt.Sprintf("Outstanding balance of %.2f must be settled before deferment", balance)}
	}

	return models.ComplianceResult{Compliant: true}
}

// Approve processes a pending request: compliance gate, then the request is
// claimed with a pending-guarded write, then the lifecycle transition is
// propagated. A failed compliance check leaves the request pending and
// untouched.
func (s *DefermentService) Approve(ctx context.Context, requestID, actorID string) (*dto.DefermentOutcome, error) {
	request, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.DefermentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("deferment request is already %s", request.Status))
	}

	if result := s.CheckCompliance(ctx, request.StudentID); !result.Compliant {
		return nil, appErrors.Clone(appErrors.ErrCompliance, result.Reason)
	}

	ref, err := ParseDefermentPeriod(request.Period)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.requests.UpdateStatus(ctx, request.ID, models.DefermentStatusApproved, actorID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "deferment request was processed by another operator")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve deferment request")
	}
	request.Status = models.DefermentStatusApproved
	request.ProcessedAt = &now
	request.ProcessedBy = optionalID(actorID)

	standing, warnings, err := s.deferStudent(ctx, request.StudentID, request.Period, request.Reason, ref, 0, actorID, now)
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, &models.AuditLog{
		OperatorID: optionalID(actorID),
		Action:     models.AuditActionDefermentApprove,
		Resource:   "deferment_request",
		ResourceID: &request.ID,
		OldValues:  jsonField("status", string(models.DefermentStatusPending)),
		NewValues:  jsonField("status", string(models.DefermentStatusApproved)),
		Details:    fmt.Sprintf("deferment approved for student %s (%s)", request.StudentID, request.Period),
	})

	return &dto.DefermentOutcome{Request: request, Standing: standing, Warnings: warnings}, nil
}

// Decline rejects a pending request. The student's standing and every
// dependent collection are left untouched.
func (s *DefermentService) Decline(ctx context.Context, requestID, actorID string) (*models.DefermentRequest, error) {
	request, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.DefermentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("deferment request is already %s", request.Status))
	}

	now := time.Now().UTC()
	if err := s.requests.UpdateStatus(ctx, request.ID, models.DefermentStatusDeclined, actorID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "deferment request was processed by another operator")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decline deferment request")
	}
	request.Status = models.DefermentStatusDeclined
	request.ProcessedAt = &now
	request.ProcessedBy = optionalID(actorID)

	s.emitAudit(ctx, &models.AuditLog{
		OperatorID: optionalID(actorID),
		Action:     models.AuditActionDefermentDecline,
		Resource:   "deferment_request",
		ResourceID: &request.ID,
		OldValues:  jsonField("status", string(models.DefermentStatusPending)),
		NewValues:  jsonField("status", string(models.DefermentStatusDeclined)),
		Details:    fmt.Sprintf("deferment declined for student %s (%s)", request.StudentID, request.Period),
	})
	return request, nil
}

// ManualDefer records an operator-entered deferment. The request is created
// directly in the approved state and the transition propagates immediately.
// The same compliance gate applies as for self-service approvals.
func (s *DefermentService) ManualDefer(ctx context.Context, req dto.ManualDeferRequest, actorID string) (*dto.DefermentOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deferment payload")
	}
	ref, err := ParseDefermentPeriod(req.Period)
	if err != nil {
		return nil, err
	}

	if result := s.CheckCompliance(ctx, req.StudentID); !result.Compliant {
		return nil, appErrors.Clone(appErrors.ErrCompliance, result.Reason)
	}

	now := time.Now().UTC()
	period := fmt.Sprintf("%s semester of %s", ref.Semester, ref.AcademicYear)
	request := &models.DefermentRequest{
		StudentID:   req.StudentID,
		Period:      period,
		Reason:      req.Reason,
		Type:        models.DefermentTypeManual,
		Status:      models.DefermentStatusApproved,
		ProcessedAt: &now,
		ProcessedBy: optionalID(actorID),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create deferment record")
	}

	standing, warnings, err := s.deferStudent(ctx, req.StudentID, period, req.Reason, ref, req.EntryYear, actorID, now)
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, &models.AuditLog{
		OperatorID: optionalID(actorID),
		Action:     models.AuditActionDefermentManual,
		Resource:   "deferment_request",
		ResourceID: &request.ID,
		NewValues:  jsonField("status", string(models.DefermentStatusApproved)),
		Details:    fmt.Sprintf("manual deferment recorded for student %s (%s)", req.StudentID, period),
	})

	return &dto.DefermentOutcome{Request: request, Standing: standing, Warnings: warnings}, nil
}

// deferStudent computes the authoritative standing for a deferment and
// propagates the transition. The original expected completion is derived
// once, on the first deferment, so repeated cycles do not compound it.
func (s *DefermentService) deferStudent(ctx context.Context, studentID, period, reason string, ref models.PeriodRef, entryYear int, actorID string, approvedAt time.Time) (*models.StudentStanding, []models.PropagationWarning, error) {
	standing, err := s.standings.FindByStudent(ctx, studentID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student standing")
		}
		standing = &models.StudentStanding{StudentID: studentID, AcademicStatus: models.AcademicStatusActive}
	}
	var previous *models.StudentStanding
	if standing.ID != "" {
		snapshot := *standing
		previous = &snapshot
	}

	if entryYear > 0 && standing.EntryYear == 0 {
		standing.EntryYear = entryYear
	}
	if standing.OriginalExpectedCompletion == nil && standing.EntryYear > 0 {
		completion := standing.EntryYear + s.cfg.ProgramLengthYears
		standing.OriginalExpectedCompletion = &completion
	}

	standing.AcademicStatus = models.AcademicStatusDeferred
	standing.DefermentPeriod = &period
	standing.DefermentReason = &reason
	standing.DefermentApprovedAt = &approvedAt
	standing.TimelinePaused = true
	standing.PauseStartDate = &approvedAt
	standing.PauseEndDate = nil
	standing.NewExpectedCompletion = nil
	standing.ReturnSemester = nil
	standing.ReturnAcademicYear = nil

	warnings, err := s.propagate.Apply(ctx, models.Transition{
		Kind:         models.TransitionDefer,
		StudentID:    studentID,
		Semester:     ref.Semester,
		AcademicYear: ref.AcademicYear,
		Standing:     standing,
		Previous:     previous,
		PerformedBy:  actorID,
		OccurredAt:   approvedAt,
	})
	if err != nil {
		return nil, nil, err
	}
	return standing, warnings, nil
}

// Reactivate resumes a deferred student for an operator-chosen return
// period. The new expected completion shifts the original forward by the
// paused duration, rounded up to whole years.
func (s *DefermentService) Reactivate(ctx context.Context, studentID string, req dto.ReactivateRequest, actorID string) (*dto.DefermentOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reactivation payload")
	}
	switch req.ReturnSemester {
	case models.SemesterFirst, models.SemesterSecond, models.SemesterThird:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("return semester %q must be First, Second or Third", req.ReturnSemester))
	}
	returnYear, err := NormalizeAcademicYearLabel(req.ReturnAcademicYear)
	if err != nil {
		return nil, err
	}

	standing, err := s.GetStanding(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if standing.AcademicStatus != models.AcademicStatusDeferred {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("student is %s, not deferred", standing.AcademicStatus))
	}

	snapshot := *standing
	previous := &snapshot
	now := time.Now().UTC()

	newCompletion := completionAfterPause(standing, returnYear, now)

	standing.AcademicStatus = models.AcademicStatusReactivated
	standing.TimelinePaused = false
	standing.PauseEndDate = &now
	standing.NewExpectedCompletion = &newCompletion
	standing.ReturnSemester = &req.ReturnSemester
	standing.ReturnAcademicYear = &returnYear

	warnings, err := s.propagate.Apply(ctx, models.Transition{
		Kind:         models.TransitionReactivate,
		StudentID:    studentID,
		Semester:     req.ReturnSemester,
		AcademicYear: returnYear,
		Standing:     standing,
		Previous:     previous,
		PerformedBy:  actorID,
		OccurredAt:   now,
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, &models.AuditLog{
		OperatorID: optionalID(actorID),
		Action:     models.AuditActionStudentReactivate,
		Resource:   "student_standing",
		ResourceID: &studentID,
		OldValues:  jsonField("academic_status", string(models.AcademicStatusDeferred)),
		NewValues:  jsonField("academic_status", string(models.AcademicStatusReactivated)),
		Details:    fmt.Sprintf("student %s reactivated for %s semester of %s", studentID, req.ReturnSemester, returnYear),
	})

	return &dto.DefermentOutcome{Standing: standing, Warnings: warnings}, nil
}

// completionAfterPause shifts the original expected completion forward by
// the paused duration rounded up to whole years. Without an original on
// record the end year of the return period is the only anchor available.
func completionAfterPause(standing *models.StudentStanding, returnYear string, now time.Time) int {
	if standing.OriginalExpectedCompletion != nil {
		shift := 0
		if standing.PauseStartDate != nil {
			months := elapsedMonths(*standing.PauseStartDate, now)
			shift = (months + 11) / 12
		}
		return *standing.OriginalExpectedCompletion + shift
	}
	var start, end int
	if _, err := fmt.Sscanf(returnYear, "%d/%d", &start, &end); err == nil {
		return end
	}
	return now.Year() + 1
}

// RecommendReturnPeriod suggests a resumption period for a deferred
// student. The live system period, when available, overrides a stale
// successor recommendation.
func (s *DefermentService) RecommendReturnPeriod(ctx context.Context, studentID string) (models.PeriodRef, error) {
	standing, err := s.GetStanding(ctx, studentID)
	if err != nil {
		return models.PeriodRef{}, err
	}
	if standing.AcademicStatus != models.AcademicStatusDeferred || standing.DefermentPeriod == nil {
		return models.PeriodRef{}, appErrors.Clone(appErrors.ErrInvalidState, "student has no active deferment to return from")
	}

	approvedAt := time.Now().UTC()
	if standing.DefermentApprovedAt != nil {
		approvedAt = *standing.DefermentApprovedAt
	}

	// The pointer is advisory here; a missing current period only disables
	// the elapsed-time override.
	var current *models.CurrentPeriod
	if s.periods != nil {
		if period, err := s.periods.GetCurrentPeriod(ctx); err == nil {
			current = period
		}
	}

	return RecommendReturnPeriod(*standing.DefermentPeriod, approvedAt, current, time.Now().UTC(), s.cfg.RecommendOverrideMonths)
}

// ClearAllDefermentData is the administrative bulk purge: every deferment
// request, standing flag, dependent mirror, and deferment audit entry is
// swept. Each target failing is reported as a warning so a partial sweep
// can be re-run.
func (s *DefermentService) ClearAllDefermentData(ctx context.Context, actorID string) (*dto.PurgeOutcome, error) {
	var warnings []models.PropagationWarning
	sweep := func(target string, fn func() error) {
		if err := fn(); err != nil {
			s.logger.Error("deferment purge target failed", zap.String("target", target), zap.Error(err))
			warnings = append(warnings, models.PropagationWarning{Target: target, Reason: err.Error()})
		}
	}

	sweep("deferment_requests", func() error { return s.requests.DeleteAll(ctx) })
	sweep("student_standings", func() error { return s.standings.ResetAllDeferment(ctx) })
	sweep("enrollments", func() error { return s.enrollmentPurge.ResetDefermentFlags(ctx) })
	sweep("fee_accounts", func() error { return s.feePurge.ResetDeferment(ctx) })
	sweep("notifications", func() error {
		return s.notificationPurge.DeleteByCategory(ctx, models.NotificationCategoryDeferment)
	})
	sweep("audit_logs", func() error {
		return s.audit.DeleteByActions(ctx, []string{
			models.AuditActionDefermentSubmit,
			models.AuditActionDefermentApprove,
			models.AuditActionDefermentDecline,
			models.AuditActionDefermentManual,
			models.AuditActionStudentReactivate,
			models.AuditActionAcademicRecordNote,
		})
	})

	// The purge itself is recorded after the sweep so the entry survives it.
	summary, _ := json.Marshal(warnings)
	s.emitAudit(ctx, &models.AuditLog{
		OperatorID: optionalID(actorID),
		Action:     models.AuditActionDefermentPurge,
		Resource:   "deferment_data",
		NewValues:  summary,
		Details:    fmt.Sprintf("bulk deferment purge completed with %d warnings", len(warnings)),
	})

	return &dto.PurgeOutcome{Warnings: warnings}, nil
}

func (s *DefermentService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.Create(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
