package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/driplinehq/dripline-backend/internal/errors"
	"github.com/driplinehq/dripline-backend/internal/model"
)

type DripStepRepositoryInterface interface {
	ListAll() ([]model.DripStep, error)
	GetByID(id string) (*model.DripStep, error)
	Create(s *model.DripStep) error
	Update(s *model.DripStep) error
	Delete(id string) error
}

type DripStepRepository struct {
	DB *sql.DB
}

func (r *DripStepRepository) ListAll() ([]model.DripStep, error) {
	rows, err := r.DB.Query(`
		SELECT id, days_after, message_text, created_at, updated_at
		FROM drip_steps ORDER BY days_after
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := []model.DripStep{}
	for rows.Next() {
		var s model.DripStep
		if err := rows.Scan(&s.ID, &s.DaysAfter, &s.MessageText, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func (r *DripStepRepository) GetByID(id string) (*model.DripStep, error) {
	var s model.DripStep
	err := r.DB.QueryRow(`
		SELECT id, days_after, message_text, created_at, updated_at
		FROM drip_steps WHERE id=$1
	`, id).Scan(&s.ID, &s.DaysAfter, &s.MessageText, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewDripStepNotFound(id)
		}
		return nil, err
	}
	return &s, nil
}

func (r *DripStepRepository) Create(s *model.DripStep) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now().UTC()
	_, err := r.DB.Exec(`
		INSERT INTO drip_steps (id, days_after, message_text, created_at)
		VALUES ($1, $2, $3, $4)
	`, s.ID, s.DaysAfter, s.MessageText, s.CreatedAt)
	return err
}

func (r *DripStepRepository) Update(s *model.DripStep) error {
	res, err := r.DB.Exec(`
		UPDATE drip_steps SET days_after=$1, message_text=$2, updated_at=NOW() WHERE id=$3
	`, s.DaysAfter, s.MessageText, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewDripStepNotFound(s.ID)
	}
	return nil
}

func (r *DripStepRepository) Delete(id string) error {
	res, err := r.DB.Exec(`DELETE FROM drip_steps WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewDripStepNotFound(id)
	}
	return nil
}

var _ DripStepRepositoryInterface = (*DripStepRepository)(nil)
