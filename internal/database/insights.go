package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/TobiSchelling/heartbeat/internal/insight"
)

// InsertInsight stores a received envelope and returns its row id.
func (db *DB) InsertInsight(env insight.Envelope, requestID, runID string) (int64, error) {
	stats := string(env.Statistics)
	if stats == "" {
		stats = "{}"
	}
	result, err := db.conn.Exec(
		`INSERT INTO insights
		(title, category, chart_type, chart_data, statistics, request_id, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		env.Title, string(env.Category), nullString(env.ChartType), nullString(string(env.ChartData)),
		stats, nullString(requestID), nullString(runID),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting insight: %w", err)
	}
	return result.LastInsertId()
}

const insightColumns = `id, title, category, chart_type, chart_data, statistics, request_id, run_id, received_at`

func scanInsight(s interface{ Scan(...any) error }) (Insight, error) {
	var i Insight
	err := s.Scan(&i.ID, &i.Title, &i.Category, &i.ChartType, &i.ChartData,
		&i.Statistics, &i.RequestID, &i.RunID, &i.ReceivedAt)
	return i, err
}

// GetInsight returns the insight with the given id, or nil if it does not exist.
func (db *DB) GetInsight(id int64) (*Insight, error) {
	row := db.conn.QueryRow(`SELECT `+insightColumns+` FROM insights WHERE id = ?`, id)
	i, err := scanInsight(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

// ListInsights returns insights newest first. An empty category matches
// all categories; a limit of 0 or less returns everything.
func (db *DB) ListInsights(category string, limit int) ([]Insight, error) {
	query := `SELECT ` + insightColumns + ` FROM insights`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Insight
	for rows.Next() {
		i, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// ListRuns returns run identifiers with their insight counts, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT run_id, COUNT(*), MAX(received_at) FROM insights
		WHERE run_id IS NOT NULL GROUP BY run_id ORDER BY MAX(id) DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.Count, &r.ReceivedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetStats returns insight counts overall, per category and per run.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{ByCategory: map[string]int{}}

	rows, err := db.conn.Query(`SELECT category, COUNT(*) FROM insights GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		s.ByCategory[cat] = n
		s.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := db.conn.QueryRow(
		`SELECT COUNT(DISTINCT run_id) FROM insights WHERE run_id IS NOT NULL`,
	).Scan(&s.Runs); err != nil {
		return nil, err
	}
	return s, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
