package models

import "time"

// DefermentStatus is the review state of a deferment request.
type DefermentStatus string

const (
	DefermentStatusPending  DefermentStatus = "PENDING"
	DefermentStatusApproved DefermentStatus = "APPROVED"
	DefermentStatusDeclined DefermentStatus = "DECLINED"
)

// DefermentType distinguishes student self-service requests from operator
// entries. Manual entries skip the pending state.
type DefermentType string

const (
	DefermentTypeSelfService DefermentType = "SELF_SERVICE"
	DefermentTypeManual      DefermentType = "MANUAL"
)

// DefermentRequest is one deferment cycle for a student. Terminal once
// approved or declined; a student may accumulate several over time.
type DefermentRequest struct {
	ID          string          `db:"id" json:"id"`
	StudentID   string          `db:"student_id" json:"student_id"`
	Period      string          `db:"period" json:"period"`
	Reason      string          `db:"reason" json:"reason"`
	Type        DefermentType   `db:"type" json:"type"`
	Status      DefermentStatus `db:"status" json:"status"`
	SubmittedAt time.Time       `db:"submitted_at" json:"submitted_at"`
	ProcessedAt *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	ProcessedBy *string         `db:"processed_by" json:"processed_by,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// DefermentFilter defines filters supported by deferment list endpoints.
type DefermentFilter struct {
	StudentID string
	Status    DefermentStatus
	Type      DefermentType
	Page      int
	PageSize  int
}

// TransitionKind names a lifecycle transition fanned out by the propagator.
type TransitionKind string

const (
	TransitionDefer      TransitionKind = "DEFER"
	TransitionReactivate TransitionKind = "REACTIVATE"
)

// Transition describes one lifecycle change for a student, carrying the
// already-computed authoritative standing plus the denormalised period
// fields dependent writers need to locate their records.
type Transition struct {
	Kind         TransitionKind
	StudentID    string
	Semester     string
	AcademicYear string
	Standing     *StudentStanding
	Previous     *StudentStanding
	PerformedBy  string
	OccurredAt   time.Time
}

// PropagationWarning records a dependent-collection write that failed after
// the authoritative standing write succeeded. Warnings are data, not errors:
// the propagation is retryable and every writer is idempotent.
type PropagationWarning struct {
	Target string `json:"target"`
	Reason string `json:"reason"`
}

// ComplianceResult is the outcome of the pre-approval compliance check.
type ComplianceResult struct {
	Compliant bool   `json:"compliant"`
	Reason    string `json:"reason,omitempty"`
}
