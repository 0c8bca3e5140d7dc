package repository

import (
	"database/sql"
	"strconv"
	"time"

	appErrors "github.com/driplinehq/dripline-backend/internal/errors"
	"github.com/driplinehq/dripline-backend/internal/model"
)

// RecipientRepositoryInterface defines the directory operations the engine
// and the operator API use
type RecipientRepositoryInterface interface {
	GetByID(id string) (*model.Recipient, error)
	ListAll() ([]model.Recipient, error)
	ListEnrolledBetween(from, to time.Time) ([]model.Recipient, error)
	Enroll(r *model.Recipient) error
	UpdateProfile(id, nickname string, tags model.TagSet) error
	MarkStepSent(id string, daysAfter int) error
}

type RecipientRepository struct {
	DB *sql.DB
}

const recipientColumns = `id, display_name, nickname, tags, enrolled_at, sent_steps`

func scanRecipient(row interface{ Scan(...any) error }) (*model.Recipient, error) {
	var r model.Recipient
	var tags, steps string
	if err := row.Scan(&r.ID, &r.DisplayName, &r.Nickname, &tags, &r.EnrolledAt, &steps); err != nil {
		return nil, err
	}
	r.Tags = model.ParseTagSet(tags)
	r.SentSteps = model.ParseStepSet(steps)
	return &r, nil
}

func (r *RecipientRepository) GetByID(id string) (*model.Recipient, error) {
	row := r.DB.QueryRow(`SELECT `+recipientColumns+` FROM recipients WHERE id=$1`, id)
	rec, err := scanRecipient(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewRecipientNotFound(id)
		}
		return nil, err
	}
	return rec, nil
}

func (r *RecipientRepository) ListAll() ([]model.Recipient, error) {
	return r.list(`SELECT ` + recipientColumns + ` FROM recipients ORDER BY enrolled_at`)
}

// ListEnrolledBetween returns recipients with enrolled_at in [from, to).
// Callers compute the window from a calendar date in the reference timezone;
// storage stays UTC.
func (r *RecipientRepository) ListEnrolledBetween(from, to time.Time) ([]model.Recipient, error) {
	return r.list(
		`SELECT `+recipientColumns+` FROM recipients WHERE enrolled_at >= $1 AND enrolled_at < $2 ORDER BY enrolled_at`,
		from, to,
	)
}

func (r *RecipientRepository) list(query string, args ...any) ([]model.Recipient, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []model.Recipient{}
	for rows.Next() {
		rec, err := scanRecipient(rows)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, *rec)
	}
	return recipients, rows.Err()
}

// Enroll inserts the recipient if it does not exist yet. Re-following the
// channel must not reset enrolled_at or sent_steps, so conflicts only
// refresh the display name.
func (r *RecipientRepository) Enroll(rec *model.Recipient) error {
	if rec.EnrolledAt.IsZero() {
		rec.EnrolledAt = time.Now().UTC()
	}
	query := `
		INSERT INTO recipients (id, display_name, nickname, tags, enrolled_at, sent_steps)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name
		RETURNING enrolled_at
	`
	return r.DB.QueryRow(
		query,
		rec.ID, rec.DisplayName, rec.Nickname,
		rec.Tags.Encode(), rec.EnrolledAt, rec.SentSteps.Encode(),
	).Scan(&rec.EnrolledAt)
}

// UpdateProfile is the operator-editable surface: nickname and tags only.
func (r *RecipientRepository) UpdateProfile(id, nickname string, tags model.TagSet) error {
	res, err := r.DB.Exec(
		`UPDATE recipients SET nickname=$1, tags=$2 WHERE id=$3`,
		nickname, tags.Encode(), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewRecipientNotFound(id)
	}
	return nil
}

// MarkStepSent appends daysAfter to sent_steps in a single atomic statement.
// The NOT LIKE guard makes it idempotent: marking an already-marked step is
// a no-op, never a duplicate entry.
func (r *RecipientRepository) MarkStepSent(id string, daysAfter int) error {
	step := strconv.Itoa(daysAfter)
	query := `
		UPDATE recipients
		SET sent_steps = CASE WHEN sent_steps = '' THEN $2
		                      ELSE sent_steps || ',' || $2 END
		WHERE id = $1
		  AND ',' || sent_steps || ',' NOT LIKE '%,' || $2 || ',%'
	`
	_, err := r.DB.Exec(query, id, step)
	return err
}

var _ RecipientRepositoryInterface = (*RecipientRepository)(nil)
