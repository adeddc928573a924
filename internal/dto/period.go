package dto

import (
	"time"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

// CreateAcademicYearRequest describes payload for creating academic years.
type CreateAcademicYearRequest struct {
	Label     string    `json:"label" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// UpdateAcademicYearRequest updates mutable fields on a year.
type UpdateAcademicYearRequest struct {
	Label     string    `json:"label" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// CreateSemesterRequest describes payload for creating semesters.
type CreateSemesterRequest struct {
	YearID            string             `json:"year_id" validate:"required"`
	ProgramType       models.ProgramType `json:"program_type" validate:"required,oneof=REGULAR WEEKEND"`
	Name              string             `json:"name" validate:"required,oneof=First Second Third"`
	StartDate         time.Time          `json:"start_date" validate:"required"`
	EndDate           time.Time          `json:"end_date" validate:"required"`
	RegistrationStart time.Time          `json:"registration_start" validate:"required"`
	RegistrationEnd   time.Time          `json:"registration_end" validate:"required"`
}

// UpdateSemesterRequest updates the schedule of a semester. Identity fields
// (year, program type, name) are fixed at creation.
type UpdateSemesterRequest struct {
	StartDate         time.Time `json:"start_date" validate:"required"`
	EndDate           time.Time `json:"end_date" validate:"required"`
	RegistrationStart time.Time `json:"registration_start" validate:"required"`
	RegistrationEnd   time.Time `json:"registration_end" validate:"required"`
}

// ActivateYearResult reports an activation and the id needed for undo.
type ActivateYearResult struct {
	Year             *models.AcademicYear `json:"year"`
	PreviousActiveID string               `json:"previous_active_id,omitempty"`
}

// ActivateSemesterResult reports a semester activation.
type ActivateSemesterResult struct {
	Semester         *models.Semester `json:"semester"`
	PreviousActiveID string           `json:"previous_active_id,omitempty"`
}
