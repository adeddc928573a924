package models

import "time"

// Notification categories.
const (
	NotificationCategoryDeferment = "DEFERMENT"
)

// Notification is a message addressed to a student. The propagator writes
// deferment notifications with a deterministic ID so a retried propagation
// upserts instead of duplicating.
type Notification struct {
	ID           string     `db:"id" json:"id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	Category     string     `db:"category" json:"category"`
	Title        string     `db:"title" json:"title"`
	Body         string     `db:"body" json:"body"`
	Read         bool       `db:"read" json:"read"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	DispatchedAt *time.Time `db:"dispatched_at" json:"dispatched_at,omitempty"`
}
