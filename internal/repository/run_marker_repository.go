package repository

import "database/sql"

// RunMarkerRepositoryInterface guards the once-per-day drip evaluation. The
// marker is a single row; an empty date means the evaluator has never run.
type RunMarkerRepositoryInterface interface {
	LastStepCheckDate() (string, error)
	SetLastStepCheckDate(date string) error
}

type RunMarkerRepository struct {
	DB *sql.DB
}

func (r *RunMarkerRepository) LastStepCheckDate() (string, error) {
	var date string
	err := r.DB.QueryRow(`SELECT last_step_check_date FROM run_marker WHERE id=1`).Scan(&date)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return date, nil
}

func (r *RunMarkerRepository) SetLastStepCheckDate(date string) error {
	_, err := r.DB.Exec(`
		INSERT INTO run_marker (id, last_step_check_date) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET last_step_check_date = EXCLUDED.last_step_check_date
	`, date)
	return err
}

var _ RunMarkerRepositoryInterface = (*RunMarkerRepository)(nil)
