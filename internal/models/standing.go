package models

import "time"

// AcademicStatus is the authoritative student lifecycle status.
type AcademicStatus string

const (
	AcademicStatusActive      AcademicStatus = "ACTIVE"
	AcademicStatusDeferred    AcademicStatus = "DEFERRED"
	AcademicStatusReactivated AcademicStatus = "REACTIVATED"
)

// StudentStanding carries one student's academic standing. The record is
// created implicitly on the first deferment and mutated by every lifecycle
// transition. It is the authoritative source; dependent records mirror it
// without any synchronisation guarantee.
type StudentStanding struct {
	ID                  string         `db:"id" json:"id"`
	StudentID           string         `db:"student_id" json:"student_id"`
	AcademicStatus      AcademicStatus `db:"academic_status" json:"academic_status"`
	DefermentPeriod     *string        `db:"deferment_period" json:"deferment_period,omitempty"`
	DefermentReason     *string        `db:"deferment_reason" json:"deferment_reason,omitempty"`
	DefermentApprovedAt *time.Time     `db:"deferment_approved_at" json:"deferment_approved_at,omitempty"`
	TimelinePaused      bool           `db:"timeline_paused" json:"timeline_paused"`
	PauseStartDate      *time.Time     `db:"pause_start_date" json:"pause_start_date,omitempty"`
	PauseEndDate        *time.Time     `db:"pause_end_date" json:"pause_end_date,omitempty"`
	EntryYear           int            `db:"entry_year" json:"entry_year"`
	// OriginalExpectedCompletion is computed once, on the first deferment,
	// so repeated deferments do not compound.
	OriginalExpectedCompletion *int    `db:"original_expected_completion" json:"original_expected_completion,omitempty"`
	NewExpectedCompletion      *int    `db:"new_expected_completion" json:"new_expected_completion,omitempty"`
	ReturnSemester             *string `db:"return_semester" json:"return_semester,omitempty"`
	ReturnAcademicYear         *string `db:"return_academic_year" json:"return_academic_year,omitempty"`
	OnProbation                bool    `db:"on_probation" json:"on_probation"`
	CreatedAt                  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt                  time.Time `db:"updated_at" json:"updated_at"`
}
