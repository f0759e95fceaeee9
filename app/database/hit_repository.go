package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ HitRepository = (*HitRepo)(nil)

const MaxHitHistory = 500

// HitRepo handles the append-only hit log. Title is the dedupe key.
type HitRepo struct {
	db *DB
}

func NewHitRepository(db *DB) *HitRepo {
	return &HitRepo{db: db}
}

func (r *HitRepo) AlreadyHit(title string) (bool, error) {
	var found int
	err := r.db.QueryRow(`SELECT 1 FROM hits WHERE title = ? LIMIT 1`, title).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check hit: %w", err)
	}

	return true, nil
}

// RecordHit inserts a hit. The row is committed when RecordHit returns.
func (r *HitRepo) RecordHit(title, link, keyword string, at time.Time) (*Hit, error) {
	ts := formatTime(at)

	result, err := r.db.Exec(`
		INSERT INTO hits (ts, title, link, matched_keyword)
		VALUES (?, ?, ?, ?)
	`, ts, title, link, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to record hit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get hit id: %w", err)
	}

	// Stored precision is one second.
	stored, err := parseTime(ts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hit timestamp: %w", err)
	}

	return &Hit{
		ID:             id,
		Timestamp:      stored,
		Title:          title,
		Link:           link,
		MatchedKeyword: keyword,
	}, nil
}

// GetRecentHits returns hits newest first, capped at MaxHitHistory
func (r *HitRepo) GetRecentHits(limit int) ([]Hit, error) {
	if limit <= 0 || limit > MaxHitHistory {
		limit = MaxHitHistory
	}

	rows, err := r.db.Query(`
		SELECT id, COALESCE(ts, ''), COALESCE(title, ''), COALESCE(link, ''), COALESCE(matched_keyword, '')
		FROM hits
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent hits: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var hit Hit
		var ts string
		if err := rows.Scan(&hit.ID, &ts, &hit.Title, &hit.Link, &hit.MatchedKeyword); err != nil {
			return nil, fmt.Errorf("failed to scan hit row: %w", err)
		}

		if ts != "" {
			if hit.Timestamp, err = parseTime(ts); err != nil {
				return nil, fmt.Errorf("failed to parse hit timestamp: %w", err)
			}
		}

		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hit rows: %w", err)
	}

	return hits, nil
}

func (r *HitRepo) GetHitCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM hits").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get hit count: %w", err)
	}
	return count, nil
}
