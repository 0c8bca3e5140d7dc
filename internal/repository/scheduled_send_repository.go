package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/driplinehq/dripline-backend/internal/errors"
	"github.com/driplinehq/dripline-backend/internal/model"
)

type ScheduledSendRepositoryInterface interface {
	ListAll() ([]model.ScheduledSend, error)
	ListDue(now time.Time) ([]model.ScheduledSend, error)
	GetByID(id string) (*model.ScheduledSend, error)
	Create(s *model.ScheduledSend) error
	UpdatePending(s *model.ScheduledSend) error
	DeletePending(id string) error
	MarkSent(id string, deliveredAt time.Time) error
	MarkError(id string, lastError string) error
	AppendHistory(sendID string, recipientCount int, messageText string, deliveredAt time.Time) error
}

type ScheduledSendRepository struct {
	DB *sql.DB
}

const sendColumns = `id, recipient_id, include_tags, exclude_tags, message_text,
	send_at, status, last_error, delivered_at, created_at, updated_at`

func scanSend(row interface{ Scan(...any) error }) (*model.ScheduledSend, error) {
	var s model.ScheduledSend
	var include, exclude string
	err := row.Scan(
		&s.ID, &s.RecipientID, &include, &exclude, &s.MessageText,
		&s.SendAt, &s.Status, &s.LastError, &s.DeliveredAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if s.RecipientID == "" {
		s.Segment = &model.SegmentFilter{
			Include: model.ParseTagSet(include),
			Exclude: model.ParseTagSet(exclude),
		}
	}
	return &s, nil
}

func (r *ScheduledSendRepository) ListAll() ([]model.ScheduledSend, error) {
	return r.list(`SELECT ` + sendColumns + ` FROM scheduled_sends ORDER BY send_at DESC`)
}

// ListDue returns pending sends whose fire time has passed. Terminal rows
// (sent, error) are never re-selected.
func (r *ScheduledSendRepository) ListDue(now time.Time) ([]model.ScheduledSend, error) {
	return r.list(
		`SELECT `+sendColumns+` FROM scheduled_sends WHERE status=$1 AND send_at <= $2 ORDER BY send_at`,
		model.SendStatusPending, now,
	)
}

func (r *ScheduledSendRepository) list(query string, args ...any) ([]model.ScheduledSend, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sends := []model.ScheduledSend{}
	for rows.Next() {
		s, err := scanSend(rows)
		if err != nil {
			return nil, err
		}
		sends = append(sends, *s)
	}
	return sends, rows.Err()
}

func (r *ScheduledSendRepository) GetByID(id string) (*model.ScheduledSend, error) {
	row := r.DB.QueryRow(`SELECT `+sendColumns+` FROM scheduled_sends WHERE id=$1`, id)
	s, err := scanSend(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewScheduledSendNotFound(id)
		}
		return nil, err
	}
	return s, nil
}

func (r *ScheduledSendRepository) Create(s *model.ScheduledSend) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = model.SendStatusPending
	}
	s.CreatedAt = time.Now().UTC()
	s.SendAt = s.SendAt.UTC()

	var include, exclude string
	if s.Segment != nil {
		include = s.Segment.Include.Encode()
		exclude = s.Segment.Exclude.Encode()
	}
	_, err := r.DB.Exec(`
		INSERT INTO scheduled_sends (id, recipient_id, include_tags, exclude_tags, message_text, send_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.RecipientID, include, exclude, s.MessageText, s.SendAt, s.Status, s.CreatedAt)
	return err
}

// UpdatePending edits target, text and fire time, but only while the send
// has not been picked up by the engine.
func (r *ScheduledSendRepository) UpdatePending(s *model.ScheduledSend) error {
	var include, exclude string
	if s.Segment != nil {
		include = s.Segment.Include.Encode()
		exclude = s.Segment.Exclude.Encode()
	}
	res, err := r.DB.Exec(`
		UPDATE scheduled_sends
		SET recipient_id=$1, include_tags=$2, exclude_tags=$3, message_text=$4, send_at=$5, updated_at=NOW()
		WHERE id=$6 AND status=$7
	`, s.RecipientID, include, exclude, s.MessageText, s.SendAt.UTC(), s.ID, model.SendStatusPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewSendNotPending(s.ID, "")
	}
	return nil
}

func (r *ScheduledSendRepository) DeletePending(id string) error {
	res, err := r.DB.Exec(
		`DELETE FROM scheduled_sends WHERE id=$1 AND status=$2`,
		id, model.SendStatusPending,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewSendNotPending(id, "")
	}
	return nil
}

// MarkSent transitions pending -> sent. The status guard in the WHERE clause
// makes the transition exactly-once even if two engine processes race.
func (r *ScheduledSendRepository) MarkSent(id string, deliveredAt time.Time) error {
	res, err := r.DB.Exec(`
		UPDATE scheduled_sends SET status=$1, delivered_at=$2, updated_at=NOW()
		WHERE id=$3 AND status=$4
	`, model.SendStatusSent, deliveredAt.UTC(), id, model.SendStatusPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewSendNotPending(id, "")
	}
	return nil
}

// MarkError transitions pending -> error. Terminal: the engine never retries
// an errored send, the operator re-creates it.
func (r *ScheduledSendRepository) MarkError(id string, lastError string) error {
	res, err := r.DB.Exec(`
		UPDATE scheduled_sends SET status=$1, last_error=$2, updated_at=NOW()
		WHERE id=$3 AND status=$4
	`, model.SendStatusError, lastError, id, model.SendStatusPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewSendNotPending(id, "")
	}
	return nil
}

func (r *ScheduledSendRepository) AppendHistory(sendID string, recipientCount int, messageText string, deliveredAt time.Time) error {
	_, err := r.DB.Exec(`
		INSERT INTO send_history (send_id, recipient_count, message_text, delivered_at)
		VALUES ($1, $2, $3, $4)
	`, sendID, recipientCount, messageText, deliveredAt.UTC())
	return err
}

var _ ScheduledSendRepositoryInterface = (*ScheduledSendRepository)(nil)
