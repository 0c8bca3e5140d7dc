package model

import "time"

// ScheduledSend statuses. A send leaves "pending" exactly once and never
// comes back: sent and error are both terminal.
const (
	SendStatusPending = "pending"
	SendStatusSent    = "sent"
	SendStatusError   = "error"
)

// SegmentFilter selects recipients by tags. A recipient matches when its tag
// set contains every include tag and none of the exclude tags. Empty includes
// means "everyone" (minus excludes).
type SegmentFilter struct {
	Include TagSet `json:"include"`
	Exclude TagSet `json:"exclude"`
}

// ScheduledSend is a one-off broadcast with a target fire time. The target is
// either a single recipient (RecipientID set) or a segment (Segment set).
// SendAt is stored in UTC regardless of the timezone the operator typed it in.
type ScheduledSend struct {
	ID          string         `db:"id" json:"id"`
	RecipientID string         `db:"recipient_id" json:"recipient_id,omitempty"`
	Segment     *SegmentFilter `db:"segment" json:"segment,omitempty"`
	MessageText string         `db:"message_text" json:"message_text"`
	SendAt      time.Time      `db:"send_at" json:"send_at"`
	Status      string         `db:"status" json:"status"`
	LastError   string         `db:"last_error" json:"last_error,omitempty"`
	DeliveredAt *time.Time     `db:"delivered_at" json:"delivered_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}

// Targeted reports whether the send is addressed to a single recipient
// rather than a segment.
func (s *ScheduledSend) Targeted() bool {
	return s.RecipientID != ""
}
