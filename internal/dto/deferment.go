package dto

import "github.com/noah-isme/uni-adm-api/internal/models"

// SubmitDefermentRequest is the self-service deferment payload.
type SubmitDefermentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Period    string `json:"period" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
	EntryYear int    `json:"entry_year"`
}

// ManualDeferRequest is the operator-entered deferment payload. It skips the
// pending state entirely.
type ManualDeferRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Period    string `json:"period" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
	EntryYear int    `json:"entry_year"`
}

// ReactivateRequest is the operator payload resuming a deferred student.
// Semester and academic year are free-text operator input and are validated
// and normalised before acceptance.
type ReactivateRequest struct {
	ReturnSemester     string `json:"return_semester" validate:"required"`
	ReturnAcademicYear string `json:"return_academic_year" validate:"required"`
	Notes              string `json:"notes"`
}

// DefermentOutcome reports a lifecycle transition together with any
// propagation warnings collected after the authoritative write.
type DefermentOutcome struct {
	Request  *models.DefermentRequest    `json:"request,omitempty"`
	Standing *models.StudentStanding     `json:"standing"`
	Warnings []models.PropagationWarning `json:"warnings,omitempty"`
}

// PurgeOutcome reports the targets swept by the bulk deferment purge.
type PurgeOutcome struct {
	Warnings []models.PropagationWarning `json:"warnings,omitempty"`
}
