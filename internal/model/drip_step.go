package model

import "time"

// DripStep is one message in the onboarding sequence, sent DaysAfter days
// after a recipient's enrollment. Operators own create/edit/delete; the
// delivery engine only reads these.
type DripStep struct {
	ID          string     `db:"id" json:"id"`
	DaysAfter   int        `db:"days_after" json:"days_after"`
	MessageText string     `db:"message_text" json:"message_text"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
