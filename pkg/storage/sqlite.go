package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/palmares-dance/palmares/pkg/competition"
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// columns maps model fields to their column, in select order.
var columns = []struct {
	field  string
	column string
}{
	{"id", "id"},
	{"place", "place"},
	{"date", "date"},
	{"provider", "provider"},
	{"url", "url"},
	{"dataUrls", "data_urls"},
	{"contests", "contests"},
}

type DB struct {
	sql *sql.DB
}

var _ Store = (*DB)(nil)

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS competitions (
  id        TEXT PRIMARY KEY,
  place     TEXT NOT NULL,
  date      TEXT NOT NULL,
  provider  TEXT NOT NULL,
  url       TEXT,
  data_urls TEXT NOT NULL DEFAULT '[]',
  contests  TEXT NOT NULL DEFAULT '[]',
  saved_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_competitions_date ON competitions(date);
CREATE INDEX IF NOT EXISTS idx_competitions_provider ON competitions(provider, date);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

func checkKind(kind string) error {
	if kind != competition.Kind {
		return &UnsupportedModelError{Kind: kind}
	}
	return nil
}

// projection returns the selected columns. id is always selected.
func projection(fields []string) ([]string, error) {
	if len(fields) == 0 {
		all := make([]string, len(columns))
		for i, c := range columns {
			all[i] = c.column
		}
		return all, nil
	}
	wanted := map[string]bool{"id": true}
	for _, f := range fields {
		found := false
		for _, c := range columns {
			if c.field == f {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown competition field %q", f)
		}
		wanted[f] = true
	}
	var selected []string
	for _, c := range columns {
		if wanted[c.field] {
			selected = append(selected, c.column)
		}
	}
	return selected, nil
}

func (d *DB) Find(ctx context.Context, kind string, criteria Criteria, fields []string, offset, size int) ([]*competition.Competition, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	selected, err := projection(fields)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []interface{}
	)
	if criteria.Provider != "" {
		where = append(where, "provider = ?")
		args = append(args, criteria.Provider)
	}
	if criteria.Place != "" {
		where = append(where, "instr(lower(place), lower(?)) > 0")
		args = append(args, criteria.Place)
	}
	if !criteria.Since.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, criteria.Since.Format(dateLayout))
	}
	if !criteria.Until.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, criteria.Until.Format(dateLayout))
	}

	query := "SELECT " + strings.Join(selected, ", ") + " FROM competitions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id"
	if size > 0 || offset > 0 {
		limit := size
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*competition.Competition{}
	for rows.Next() {
		c, err := scanCompetition(rows, selected)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *DB) FindByID(ctx context.Context, kind, id string, fields []string) (*competition.Competition, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	selected, err := projection(fields)
	if err != nil {
		return nil, err
	}
	rows, err := d.sql.QueryContext(ctx, "SELECT "+strings.Join(selected, ", ")+" FROM competitions WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanCompetition(rows, selected)
}

func scanCompetition(rows *sql.Rows, selected []string) (*competition.Competition, error) {
	values := make([]sql.NullString, len(selected))
	dest := make([]interface{}, len(selected))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	c := &competition.Competition{}
	for i, column := range selected {
		value := values[i].String
		switch column {
		case "id":
			c.ID = value
		case "place":
			c.Place = value
		case "date":
			date, err := time.Parse(dateLayout, value)
			if err != nil {
				return nil, fmt.Errorf("competition %s has an invalid date: %w", c.ID, err)
			}
			c.Date = date
		case "provider":
			c.Provider = value
		case "url":
			c.URL = value
		case "data_urls":
			if err := json.Unmarshal([]byte(value), &c.DataURLs); err != nil {
				return nil, fmt.Errorf("competition %s has invalid data urls: %w", c.ID, err)
			}
		case "contests":
			if err := json.Unmarshal([]byte(value), &c.Contests); err != nil {
				return nil, fmt.Errorf("competition %s has invalid contests: %w", c.ID, err)
			}
		}
	}
	return c, nil
}

func (d *DB) Save(ctx context.Context, m Model) (Model, error) {
	c, ok := m.(*competition.Competition)
	if !ok {
		return nil, &UnsupportedModelError{Kind: m.ModelKind()}
	}
	if c.ID == "" {
		return nil, competition.ErrMissingID
	}
	dataURLs := c.DataURLs
	if dataURLs == nil {
		dataURLs = []string{}
	}
	contests := c.Contests
	if contests == nil {
		contests = []competition.Contest{}
	}
	rawURLs, err := json.Marshal(dataURLs)
	if err != nil {
		return nil, err
	}
	rawContests, err := json.Marshal(contests)
	if err != nil {
		return nil, err
	}

	_, err = d.sql.ExecContext(ctx, `
INSERT INTO competitions(id, place, date, provider, url, data_urls, contests, saved_at)
VALUES(?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  place = excluded.place,
  date = excluded.date,
  provider = excluded.provider,
  url = excluded.url,
  data_urls = excluded.data_urls,
  contests = excluded.contests,
  saved_at = CURRENT_TIMESTAMP`,
		c.ID, c.Place, c.Date.Format(dateLayout), c.Provider, nullIfEmpty(c.URL), string(rawURLs), string(rawContests))
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (d *DB) Remove(ctx context.Context, m Model) error {
	if err := checkKind(m.ModelKind()); err != nil {
		return err
	}
	_, err := d.sql.ExecContext(ctx, "DELETE FROM competitions WHERE id = ?", m.ModelID())
	return err
}

func (d *DB) RemoveAll(ctx context.Context, kind string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	_, err := d.sql.ExecContext(ctx, "DELETE FROM competitions")
	return err
}

// ProviderStats counts what is stored per provider.
type ProviderStats struct {
	Provider     string
	Competitions int
	Contests     int
}

func (d *DB) GetStats(ctx context.Context) ([]ProviderStats, error) {
	query := `
		SELECT
			provider,
			COUNT(id),
			COALESCE(SUM(json_array_length(contests)), 0)
		FROM
			competitions
		GROUP BY
			provider
		ORDER BY
			provider;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ProviderStats
	for rows.Next() {
		var s ProviderStats
		if err := rows.Scan(&s.Provider, &s.Competitions, &s.Contests); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
