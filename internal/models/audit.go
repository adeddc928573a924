package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin              = "LOGIN"
	AuditActionYearActivate       = "YEAR_ACTIVATE"
	AuditActionYearUndo           = "YEAR_UNDO_ACTIVATION"
	AuditActionYearDelete         = "YEAR_DELETE"
	AuditActionSemesterActivate   = "SEMESTER_ACTIVATE"
	AuditActionSemesterUndo       = "SEMESTER_UNDO_ACTIVATION"
	AuditActionSemesterRollover   = "SEMESTER_ROLLOVER"
	AuditActionSemesterDelete     = "SEMESTER_DELETE"
	AuditActionDefermentSubmit    = "DEFERMENT_SUBMIT"
	AuditActionDefermentApprove   = "DEFERMENT_APPROVE"
	AuditActionDefermentDecline   = "DEFERMENT_DECLINE"
	AuditActionDefermentManual    = "DEFERMENT_MANUAL"
	AuditActionStudentReactivate  = "STUDENT_REACTIVATE"
	AuditActionDefermentPurge     = "DEFERMENT_PURGE"
	AuditActionAcademicRecordNote = "ACADEMIC_RECORD_NOTE"
)

// AuditLog is an append-only record of a state transition with before/after
// snapshots. Never mutated or deleted by normal operation; the bulk
// deferment purge is the sole exception.
type AuditLog struct {
	ID          string    `db:"id" json:"id"`
	OperatorID  *string   `db:"operator_id" json:"operator_id,omitempty"`
	Action      string    `db:"action" json:"action"`
	Resource    string    `db:"resource" json:"resource"`
	ResourceID  *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues   []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues   []byte    `db:"new_values" json:"new_values,omitempty"`
	Details     string    `db:"details" json:"details"`
	Impact      string    `db:"impact" json:"impact"`
	PerformedAt time.Time `db:"performed_at" json:"performed_at"`
}

// AuditFilter defines filters supported by audit list endpoints.
type AuditFilter struct {
	Action     string
	ResourceID string
	Page       int
	PageSize   int
}
