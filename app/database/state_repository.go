package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ StateRepository = (*StateRepo)(nil)

// StateRepo handles the singleton run state row
type StateRepo struct {
	db *DB
}

func NewStateRepository(db *DB) *StateRepo {
	return &StateRepo{db: db}
}

func (r *StateRepo) GetState() (*State, error) {
	var lastChecked, lastHit sql.NullString
	var running sql.NullInt64

	err := r.db.QueryRow(`
		SELECT last_checked, last_hit, running
		FROM state
		WHERE id = 1
	`).Scan(&lastChecked, &lastHit, &running)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}

	state := &State{Running: running.Int64 != 0}

	if state.LastChecked, err = parseNullTime(lastChecked); err != nil {
		return nil, fmt.Errorf("failed to parse last checked: %w", err)
	}
	if state.LastHit, err = parseNullTime(lastHit); err != nil {
		return nil, fmt.Errorf("failed to parse last hit: %w", err)
	}

	return state, nil
}

func (r *StateRepo) SetRunning(running bool) error {
	value := 0
	if running {
		value = 1
	}

	_, err := r.db.Exec(`
		INSERT INTO state (id, running) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET running = excluded.running
	`, value)

	if err != nil {
		return fmt.Errorf("failed to set running flag: %w", err)
	}

	return nil
}

func (r *StateRepo) SetLastChecked(at time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO state (id, last_checked, running) VALUES (1, ?, 0)
		ON CONFLICT (id) DO UPDATE SET last_checked = excluded.last_checked
	`, formatTime(at))

	if err != nil {
		return fmt.Errorf("failed to update last checked: %w", err)
	}

	return nil
}

func (r *StateRepo) SetLastHit(at time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO state (id, last_hit, running) VALUES (1, ?, 0)
		ON CONFLICT (id) DO UPDATE SET last_hit = excluded.last_hit
	`, formatTime(at))

	if err != nil {
		return fmt.Errorf("failed to update last hit: %w", err)
	}

	return nil
}

func formatTime(t time.Time) string {
	return t.In(time.Local).Format(TimeLayout)
}

func parseTime(value string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, value, time.Local)
}

func parseNullTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}

	t, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
