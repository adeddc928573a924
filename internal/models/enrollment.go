package models

import "time"

// EnrollmentStatus is the registration state of one course enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusDeferred  EnrollmentStatus = "DEFERRED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
)

// Enrollment is one course registration. It carries denormalised period
// fields so the propagator can locate it without a join, and activity flags
// that mirror the student's standing.
type Enrollment struct {
	ID            string           `db:"id" json:"id"`
	StudentID     string           `db:"student_id" json:"student_id"`
	CourseCode    string           `db:"course_code" json:"course_code"`
	CourseTitle   string           `db:"course_title" json:"course_title"`
	AcademicYear  string           `db:"academic_year" json:"academic_year"`
	Semester      string           `db:"semester" json:"semester"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	NoClasses     bool             `db:"no_classes" json:"no_classes"`
	NoExams       bool             `db:"no_exams" json:"no_exams"`
	NoAssessments bool             `db:"no_assessments" json:"no_assessments"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}
