package models

import "time"

// ProgramType distinguishes the study-mode tracks, each with its own
// current-semester pointer.
type ProgramType string

const (
	ProgramTypeRegular ProgramType = "REGULAR"
	ProgramTypeWeekend ProgramType = "WEEKEND"
)

// PeriodStatus is the lifecycle status shared by academic years and semesters.
type PeriodStatus string

const (
	PeriodStatusUpcoming  PeriodStatus = "UPCOMING"
	PeriodStatusActive    PeriodStatus = "ACTIVE"
	PeriodStatusInactive  PeriodStatus = "INACTIVE"
	PeriodStatusCompleted PeriodStatus = "COMPLETED"
)

// Semester names in ordinal order. Weekend tracks run three per year.
const (
	SemesterFirst  = "First"
	SemesterSecond = "Second"
	SemesterThird  = "Third"
)

// AcademicYear models one academic year. At most one record system-wide
// carries PeriodStatusActive; PeriodService is the sole writer of that flag.
type AcademicYear struct {
	ID        string       `db:"id" json:"id"`
	Label     string       `db:"label" json:"label"`
	StartDate time.Time    `db:"start_date" json:"start_date"`
	EndDate   time.Time    `db:"end_date" json:"end_date"`
	Status    PeriodStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// Semester models one teaching period inside an academic year. At most one
// semester per program type is active at any time, and only inside the
// active year.
type Semester struct {
	ID                string       `db:"id" json:"id"`
	YearID            string       `db:"year_id" json:"year_id"`
	ProgramType       ProgramType  `db:"program_type" json:"program_type"`
	Name              string       `db:"name" json:"name"`
	StartDate         time.Time    `db:"start_date" json:"start_date"`
	EndDate           time.Time    `db:"end_date" json:"end_date"`
	RegistrationStart time.Time    `db:"registration_start" json:"registration_start"`
	RegistrationEnd   time.Time    `db:"registration_end" json:"registration_end"`
	Status            PeriodStatus `db:"status" json:"status"`
	IsCurrent         bool         `db:"is_current" json:"is_current"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// CurrentPeriod is the singular pointer consumed by course registration.
// Only Regular-track activations rewrite it.
type CurrentPeriod struct {
	ID                string    `db:"id" json:"id"`
	SemesterID        string    `db:"semester_id" json:"semester_id"`
	SemesterName      string    `db:"semester_name" json:"semester_name"`
	AcademicYearID    string    `db:"academic_year_id" json:"academic_year_id"`
	AcademicYearLabel string    `db:"academic_year_label" json:"academic_year_label"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Activation scopes. One compensation record is kept per scope, so only the
// immediately preceding activation is recoverable.
const (
	ActivationScopeYear            = "year"
	ActivationScopeSemesterRegular = "semester:REGULAR"
	ActivationScopeSemesterWeekend = "semester:WEEKEND"
)

// ActivationRecord is the one-level undo record written on every activation.
// A later activation in the same scope overwrites it.
type ActivationRecord struct {
	Scope            string    `db:"scope" json:"scope"`
	PreviousActiveID string    `db:"previous_active_id" json:"previous_active_id"`
	CurrentActiveID  string    `db:"current_active_id" json:"current_active_id"`
	RecordedAt       time.Time `db:"recorded_at" json:"recorded_at"`
}

// PeriodRef names a semester within an academic year, e.g. {Second, 2024/2025}.
type PeriodRef struct {
	Semester     string `json:"semester"`
	AcademicYear string `json:"academic_year"`
}

// AcademicYearFilter defines filters supported by year list endpoints.
type AcademicYearFilter struct {
	Status   PeriodStatus
	Page     int
	PageSize int
}

// SemesterFilter defines filters supported by semester list endpoints.
type SemesterFilter struct {
	YearID      string
	ProgramType ProgramType
	Status      PeriodStatus
	Page        int
	PageSize    int
}
