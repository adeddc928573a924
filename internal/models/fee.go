package models

import "time"

// FeeAccount is a student's fee position for one period. The deferment
// fields are derived: the propagator always recomputes refund and rollover
// eligibility from the source amounts and the early-deferment flag, so a
// retried propagation never double-applies.
type FeeAccount struct {
	ID                 string     `db:"id" json:"id"`
	StudentID          string     `db:"student_id" json:"student_id"`
	AcademicYear       string     `db:"academic_year" json:"academic_year"`
	Semester           string     `db:"semester" json:"semester"`
	TotalBilled        float64    `db:"total_billed" json:"total_billed"`
	AmountPaid         float64    `db:"amount_paid" json:"amount_paid"`
	OutstandingBalance float64    `db:"outstanding_balance" json:"outstanding_balance"`
	DefermentApplied   bool       `db:"deferment_applied" json:"deferment_applied"`
	EarlyDeferment     bool       `db:"early_deferment" json:"early_deferment"`
	RefundAmount       float64    `db:"refund_amount" json:"refund_amount"`
	RolloverEligible   bool       `db:"rollover_eligible" json:"rollover_eligible"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
	DeferredAt         *time.Time `db:"deferred_at" json:"deferred_at,omitempty"`
}
