package model

import "time"

// Recipient is one opted-in chat user. The ID is issued by the messaging
// provider when the user follows the channel; we never generate it ourselves.
type Recipient struct {
	ID          string    `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Nickname    string    `db:"nickname" json:"nickname"`
	Tags        TagSet    `db:"tags" json:"tags"`
	EnrolledAt  time.Time `db:"enrolled_at" json:"enrolled_at"`
	SentSteps   StepSet   `db:"sent_steps" json:"sent_steps"`
}
