package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vedantwpatil/Path-Pilot/internal/path"
)

// SQLiteStore keeps every path and pause state in a single database file.
// Useful when the bot directory gets synced between machines: one file to
// copy instead of a tree of JSON files.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS paths (
	name            TEXT PRIMARY KEY,
	record_interval REAL NOT NULL,
	include_z       INTEGER NOT NULL,
	saved_at        TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	path_name   TEXT NOT NULL REFERENCES paths(name) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	x           INTEGER,
	y           INTEGER,
	z           INTEGER,
	button      TEXT,
	screen_x    INTEGER,
	screen_y    INTEGER,
	at_waypoint INTEGER,
	PRIMARY KEY (path_name, seq)
);
CREATE TABLE IF NOT EXISTS pause_states (
	path_name     TEXT PRIMARY KEY,
	current_index INTEGER NOT NULL,
	x             INTEGER NOT NULL,
	y             INTEGER NOT NULL,
	z             INTEGER,
	saved_at      TEXT NOT NULL
);
`

// NewSQLiteStore opens (creating if needed) the database at source.
func NewSQLiteStore(ctx context.Context, source string) (*SQLiteStore, error) {
	if source == "" {
		return nil, fmt.Errorf("store: sqlite database path is empty")
	}
	db, err := sql.Open("sqlite", source)
	if err != nil {
		return nil, fmt.Errorf("store: sqlite open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: sqlite ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: sqlite pragma: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SavePath(ctx context.Context, p *path.Path) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: save path %q: %w", p.Name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM paths WHERE name = ?`, p.Name); err != nil {
		return fmt.Errorf("store: save path %q: %w", p.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO paths (name, record_interval, include_z, saved_at) VALUES (?, ?, ?, ?)`,
		p.Name, p.Interval.Seconds(), boolInt(p.IncludeZ), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("store: save path %q: %w", p.Name, err)
	}

	insert, err := tx.PrepareContext(ctx, `INSERT INTO events
		(path_name, seq, kind, x, y, z, button, screen_x, screen_y, at_waypoint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: save path %q: %w", p.Name, err)
	}
	defer insert.Close()

	for i, ev := range p.Events {
		var args []any
		switch ev.Kind {
		case path.KindMove:
			var z any
			if ev.Pos.HasZ {
				z = ev.Pos.Z
			}
			args = []any{p.Name, i, string(ev.Kind), ev.Pos.X, ev.Pos.Y, z, nil, nil, nil, nil}
		case path.KindClick:
			args = []any{p.Name, i, string(ev.Kind), nil, nil, nil, string(ev.Button), ev.ScreenX, ev.ScreenY, ev.AtWaypoint}
		default:
			return fmt.Errorf("store: save path %q: unknown event kind %q", p.Name, ev.Kind)
		}
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("store: save path %q event %d: %w", p.Name, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: save path %q: %w", p.Name, err)
	}
	return nil
}

func (s *SQLiteStore) LoadPath(ctx context.Context, name string) (*path.Path, error) {
	var interval float64
	var includeZ int
	err := s.db.QueryRowContext(ctx,
		`SELECT record_interval, include_z FROM paths WHERE name = ?`, name,
	).Scan(&interval, &includeZ)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: path %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load path %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, x, y, z, button, screen_x, screen_y, at_waypoint
		FROM events WHERE path_name = ? ORDER BY seq`, name)
	if err != nil {
		return nil, fmt.Errorf("store: load path %q: %w", name, err)
	}
	defer rows.Close()

	p := &path.Path{
		Name:     name,
		Interval: time.Duration(interval * float64(time.Second)),
		IncludeZ: includeZ != 0,
	}
	for rows.Next() {
		var kind string
		var x, y, z, sx, sy, at sql.NullInt64
		var button sql.NullString
		if err := rows.Scan(&kind, &x, &y, &z, &button, &sx, &sy, &at); err != nil {
			return nil, fmt.Errorf("store: load path %q: %w", name, err)
		}
		switch path.Kind(kind) {
		case path.KindMove:
			pos := path.Position{X: int(x.Int64), Y: int(y.Int64)}
			if z.Valid {
				pos.Z = int(z.Int64)
				pos.HasZ = true
			}
			p.Events = append(p.Events, path.Move(pos))
		case path.KindClick:
			p.Events = append(p.Events, path.Click(
				path.Button(button.String), int(sx.Int64), int(sy.Int64), int(at.Int64)))
		default:
			return nil, fmt.Errorf("store: load path %q: unknown event kind %q", name, kind)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: load path %q: %w", name, err)
	}
	return p, nil
}

func (s *SQLiteStore) ListPaths(ctx context.Context) ([]PathInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name, p.saved_at,
			SUM(CASE WHEN e.kind = 'move' THEN 1 ELSE 0 END),
			SUM(CASE WHEN e.kind = 'click' THEN 1 ELSE 0 END)
		FROM paths p LEFT JOIN events e ON e.path_name = p.name
		GROUP BY p.name ORDER BY p.saved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list paths: %w", err)
	}
	defer rows.Close()

	var infos []PathInfo
	for rows.Next() {
		var info PathInfo
		var savedAt string
		var moves, clicks sql.NullInt64
		if err := rows.Scan(&info.Name, &savedAt, &moves, &clicks); err != nil {
			return nil, fmt.Errorf("store: list paths: %w", err)
		}
		info.Moves = int(moves.Int64)
		info.Clicks = int(clicks.Int64)
		if ts, err := time.Parse(time.RFC3339, savedAt); err == nil {
			info.Modified = ts
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *SQLiteStore) DeletePath(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM paths WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("store: delete path %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: path %q: %w", name, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) RenamePath(ctx context.Context, oldName, newName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: rename path %q: %w", oldName, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE paths SET name = ? WHERE name = ?`, newName, oldName)
	if err != nil {
		return fmt.Errorf("store: rename path %q: %w", oldName, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: path %q: %w", oldName, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE events SET path_name = ? WHERE path_name = ?`, newName, oldName); err != nil {
		return fmt.Errorf("store: rename path %q: %w", oldName, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: rename path %q: %w", oldName, err)
	}
	return nil
}

func (s *SQLiteStore) SavePause(ctx context.Context, st *path.PauseState) error {
	var z any
	if st.Position.HasZ {
		z = st.Position.Z
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO pause_states
		(path_name, current_index, x, y, z, saved_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path_name) DO UPDATE SET
		current_index = excluded.current_index, x = excluded.x, y = excluded.y,
		z = excluded.z, saved_at = excluded.saved_at`,
		st.PathName, st.Index, st.Position.X, st.Position.Y, z,
		st.SavedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: save pause state for %q: %w", st.PathName, err)
	}
	return nil
}

func (s *SQLiteStore) LoadPause(ctx context.Context, pathName string) (*path.PauseState, error) {
	var st path.PauseState
	var z sql.NullInt64
	var savedAt string
	err := s.db.QueryRowContext(ctx, `SELECT current_index, x, y, z, saved_at
		FROM pause_states WHERE path_name = ?`, pathName,
	).Scan(&st.Index, &st.Position.X, &st.Position.Y, &z, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: pause state for %q: %w", pathName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load pause state for %q: %w", pathName, err)
	}
	st.PathName = pathName
	if z.Valid {
		st.Position.Z = int(z.Int64)
		st.Position.HasZ = true
	}
	if ts, err := time.Parse(time.RFC3339, savedAt); err == nil {
		st.SavedAt = ts
	}
	return &st, nil
}

func (s *SQLiteStore) DeletePause(ctx context.Context, pathName string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pause_states WHERE path_name = ?`, pathName); err != nil {
		return fmt.Errorf("store: delete pause state for %q: %w", pathName, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
