package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-adm-api/internal/models"
	appErrors "github.com/noah-isme/uni-adm-api/pkg/errors"
)

// TransitionWriter applies one dependent-collection write for a lifecycle
// transition. Writers must be idempotent: re-applying the same transition
// converges on the same state, never double-applies.
type TransitionWriter interface {
	Name() string
	Apply(ctx context.Context, transition models.Transition) error
}

type standingWriter interface {
	Upsert(ctx context.Context, standing *models.StudentStanding) error
}

// Propagator fans a lifecycle transition out to dependent record sets. No
// cross-collection transaction exists: the authoritative standing write
// must succeed or the operation fails, while each dependent write failure
// is collected as a warning and left for an idempotent retry.
type Propagator struct {
	standings standingWriter
	writers   []TransitionWriter
	logger    *zap.Logger
}

// NewPropagator constructs a propagator with an ordered writer chain.
func NewPropagator(standings standingWriter, logger *zap.Logger, writers ...TransitionWriter) *Propagator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Propagator{standings: standings, writers: writers, logger: logger}
}

// Apply commits the authoritative standing write, then runs each dependent
// writer in order. Returns the warnings collected after the authoritative
// write succeeded.
func (p *Propagator) Apply(ctx context.Context, transition models.Transition) ([]models.PropagationWarning, error) {
	if transition.Standing == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transition carries no standing record")
	}
	if err := p.standings.Upsert(ctx, transition.Standing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write student standing")
	}

	var warnings []models.PropagationWarning
	for _, writer := range p.writers {
		if err := writer.Apply(ctx, transition); err != nil {
			p.logger.Warn("propagation target failed",
				zap.String("target", writer.Name()),
				zap.String("student_id", transition.StudentID),
				zap.String("transition", string(transition.Kind)),
				zap.Error(err))
			warnings = append(warnings, models.PropagationWarning{Target: writer.Name(), Reason: err.Error()})
		}
	}
	return warnings, nil
}

type academicRecordAuditor interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AcademicRecordWriter appends the academic-record entry describing a
// transition and its computed academic and tuition impact.
type AcademicRecordWriter struct {
	audit academicRecordAuditor
}

// NewAcademicRecordWriter constructs the academic record writer.
func NewAcademicRecordWriter(audit academicRecordAuditor) *AcademicRecordWriter {
	return &AcademicRecordWriter{audit: audit}
}

// Name implements TransitionWriter.
func (w *AcademicRecordWriter) Name() string { return "academic_record" }

// Apply implements TransitionWriter.
func (w *AcademicRecordWriter) Apply(ctx context.Context, transition models.Transition) error {
	impact := transitionImpact(transition)

	var oldValues, newValues []byte
	if transition.Previous != nil {
		oldValues, _ = json.Marshal(transition.Previous)
	}
	newValues, _ = json.Marshal(transition.Standing)

	entry := &models.AuditLog{
		OperatorID:  optionalID(transition.PerformedBy),
		Action:      models.AuditActionAcademicRecordNote,
		Resource:    "student_standing",
		ResourceID:  &transition.StudentID,
		OldValues:   oldValues,
		NewValues:   newValues,
		Details:     fmt.Sprintf("%s transition for %s semester of %s", transition.Kind, transition.Semester, transition.AcademicYear),
		Impact:      impact,
		PerformedAt: transition.OccurredAt,
	}
	return w.audit.Create(ctx, entry)
}

func transitionImpact(transition models.Transition) string {
	switch transition.Kind {
	case models.TransitionDefer:
		if transition.Standing.OriginalExpectedCompletion != nil {
			return fmt.Sprintf("academic timeline paused; expected completion %d under review; tuition obligations suspended for the deferred period", *transition.Standing.OriginalExpectedCompletion)
		}
		return "academic timeline paused; tuition obligations suspended for the deferred period"
	case models.TransitionReactivate:
		if transition.Standing.NewExpectedCompletion != nil {
			return fmt.Sprintf("academic timeline resumed; expected completion moved to %d; tuition billing resumes with the return period", *transition.Standing.NewExpectedCompletion)
		}
		return "academic timeline resumed; tuition billing resumes with the return period"
	default:
		return ""
	}
}

type enrollmentDefermentStore interface {
	ListByStudentPeriod(ctx context.Context, studentID, academicYear, semester string) ([]models.Enrollment, error)
	UpdateDefermentState(ctx context.Context, id string, status models.EnrollmentStatus, noClasses, noExams, noAssessments bool) error
}

// EnrollmentWriter mirrors the transition onto the student's course
// enrollments for the affected period. Absolute writes only.
type EnrollmentWriter struct {
	repo enrollmentDefermentStore
}

// NewEnrollmentWriter constructs the enrollment writer.
func NewEnrollmentWriter(repo enrollmentDefermentStore) *EnrollmentWriter {
	return &EnrollmentWriter{repo: repo}
}

// Name implements TransitionWriter.
func (w *EnrollmentWriter) Name() string { return "enrollments" }

// Apply implements TransitionWriter.
func (w *EnrollmentWriter) Apply(ctx context.Context, transition models.Transition) error {
	enrollments, err := w.repo.ListByStudentPeriod(ctx, transition.StudentID, transition.AcademicYear, transition.Semester)
	if err != nil {
		return err
	}

	status := models.EnrollmentStatusDeferred
	suspended := true
	if transition.Kind == models.TransitionReactivate {
		status = models.EnrollmentStatusActive
		suspended = false
	}

	for _, enrollment := range enrollments {
		if err := w.repo.UpdateDefermentState(ctx, enrollment.ID, status, suspended, suspended, suspended); err != nil {
			return err
		}
	}
	return nil
}

type feeDefermentStore interface {
	ListByStudentPeriod(ctx context.Context, studentID, academicYear, semester string) ([]models.FeeAccount, error)
	UpdateDeferment(ctx context.Context, id string, applied bool, refundAmount float64, rolloverEligible bool, deferredAt *time.Time) error
}

// FeeWriter toggles deferment on the student's fee accounts for the
// affected period. Refund and rollover eligibility are recomputed from the
// source amounts and the early-deferment flag on every application, never
// incremented, so a retried propagation converges.
type FeeWriter struct {
	repo feeDefermentStore
}

// NewFeeWriter constructs the fee writer.
func NewFeeWriter(repo feeDefermentStore) *FeeWriter {
	return &FeeWriter{repo: repo}
}

// Name implements TransitionWriter.
func (w *FeeWriter) Name() string { return "fee_accounts" }

// Apply implements TransitionWriter.
func (w *FeeWriter) Apply(ctx context.Context, transition models.Transition) error {
	accounts, err := w.repo.ListByStudentPeriod(ctx, transition.StudentID, transition.AcademicYear, transition.Semester)
	if err != nil {
		return err
	}

	for _, account := range accounts {
		if transition.Kind == models.TransitionDefer {
			refund := 0.0
			if account.EarlyDeferment {
				refund = account.AmountPaid
			}
			deferredAt := transition.OccurredAt
			if err := w.repo.UpdateDeferment(ctx, account.ID, true, refund, account.EarlyDeferment, &deferredAt); err != nil {
				return err
			}
			continue
		}
		if err := w.repo.UpdateDeferment(ctx, account.ID, false, 0, false, nil); err != nil {
			return err
		}
	}
	return nil
}

type notificationStore interface {
	Put(ctx context.Context, notification *models.Notification) error
}

type notificationEnqueuer interface {
	EnqueueDelivery(notificationID, studentID string) error
}

// NotificationWriter records a notification addressed to the student and
// hands it to the asynchronous dispatcher. The notification ID is derived
// from the transition so a retried propagation upserts the same row.
type NotificationWriter struct {
	repo       notificationStore
	dispatcher notificationEnqueuer
}

// NewNotificationWriter constructs the notification writer.
func NewNotificationWriter(repo notificationStore, dispatcher notificationEnqueuer) *NotificationWriter {
	return &NotificationWriter{repo: repo, dispatcher: dispatcher}
}

// Name implements TransitionWriter.
func (w *NotificationWriter) Name() string { return "notifications" }

// Apply implements TransitionWriter.
func (w *NotificationWriter) Apply(ctx context.Context, transition models.Transition) error {
	title := "Deferment approved"
	body := fmt.Sprintf("Your deferment for the %s semester of %s has been approved. Your academic timeline is paused until you are reactivated.", transition.Semester, transition.AcademicYear)
	if transition.Kind == models.TransitionReactivate {
		title = "Welcome back"
		body = fmt.Sprintf("You have been reactivated for the %s semester of %s. Course registration and fee billing resume with this period.", transition.Semester, transition.AcademicYear)
	}

	notification := &models.Notification{
		ID:        deterministicNotificationID(transition),
		StudentID: transition.StudentID,
		Category:  models.NotificationCategoryDeferment,
		Title:     title,
		Body:      body,
		CreatedAt: transition.OccurredAt,
	}
	if err := w.repo.Put(ctx, notification); err != nil {
		return err
	}

	if w.dispatcher != nil {
		if err := w.dispatcher.EnqueueDelivery(notification.ID, notification.StudentID); err != nil {
			return err
		}
	}
	return nil
}

func deterministicNotificationID(transition models.Transition) string {
	key := fmt.Sprintf("%s|%s|%s|%s", transition.StudentID, transition.Kind, transition.Semester, transition.AcademicYear)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
