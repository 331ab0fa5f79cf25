// Package history keeps a SQLite record of organizer sessions and their
// records so a session can be listed and undone later.
package history

import (
	"context"
	"database/sql"
	"embed"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filenest/internal/errors"
	"filenest/internal/journal"

	_ "modernc.org/sqlite"
)

//go:embed db/schema.sql
var dbFS embed.FS

const (
	timeLayout = "2006-01-02T15:04:05.000000000Z" // Fixed width so text order is time order

	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// ErrSessionNotFound is returned when no session matches.
var ErrSessionNotFound = errors.New("session not found")

// Session describes one organizer run.
type Session struct {
	ID       string
	Dir      string
	Preview  bool
	Strategy string
	Started  time.Time
	Finished time.Time // Zero while the run is in progress
	UndoneAt time.Time // Zero unless the session was undone
	Counts
}

// Counts are the per-action totals of a session.
type Counts struct {
	Moved   int
	Skipped int
	Errors  int
	Folders int
}

// Undone reports whether the session has been reversed.
func (s Session) Undone() bool {
	return !s.UndoneAt.IsZero()
}

// Store persists sessions in SQLite. It doubles as a journal.Sink: records
// are stored under their Session field.
type Store struct {
	db   *sql.DB
	path string
}

var _ journal.Sink = (*Store)(nil)

// Open opens or creates the history database at path. An empty path opens a
// private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path
	if path == "" {
		dsn = ":memory:"
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewFileError("failed to create history directory", filepath.Dir(path), errors.FileCreateFailed, err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to open history database", err).
			WithKind(errors.DatabaseConnectionFailed).
			WithContext("path", path)
	}
	// One connection keeps :memory: databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, errors.NewDatabaseError("failed to apply pragma", execErr).
				WithKind(errors.DatabaseConnectionFailed).
				WithContext("pragma", pragma)
		}
	}

	schemaSQL, err := dbFS.ReadFile("db/schema.sql")
	if err != nil {
		_ = db.Close()
		return nil, errors.NewDatabaseError("failed to read schema SQL", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		_ = db.Close()
		return nil, errors.NewDatabaseError("failed to initialize database schema", err).WithOperation("schema")
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// BeginSession registers a run before its records arrive.
func (s *Store) BeginSession(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		return errors.NewDatabaseError("session id is required", nil).WithOperation("begin_session")
	}
	err := s.exec(ctx,
		`INSERT INTO sessions (id, target_dir, started_at, preview, strategy) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Dir, formatTime(sess.Started), sess.Preview, sess.Strategy,
	)
	if err != nil {
		return errors.NewDatabaseError("failed to save session", err).
			WithOperation("begin_session").
			WithContext("session", sess.ID)
	}
	return nil
}

// Write stores rec under rec.Session.
func (s *Store) Write(rec journal.Record) error {
	if rec.Session == "" {
		return errors.NewDatabaseError("record has no session", nil).WithOperation("insert_record")
	}
	err := s.exec(context.Background(),
		`INSERT INTO records (
            session_id, recorded_at, action, simulated, undo, name,
            source_dir, dest_dir, dest_name, overwrote, reason
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Session, formatTime(rec.Time), string(rec.Action), rec.Simulated, rec.Undo, rec.Name,
		rec.SourceDir, rec.DestDir, rec.DestName, rec.Overwrote, rec.Reason,
	)
	if err != nil {
		return errors.NewDatabaseError("failed to save record", err).
			WithOperation("insert_record").
			WithContext("session", rec.Session).
			WithContext("file", rec.Name)
	}
	return nil
}

// FinishSession stores the end time and totals of a run.
func (s *Store) FinishSession(ctx context.Context, id string, finished time.Time, counts Counts) error {
	res, err := s.execResult(ctx,
		`UPDATE sessions SET finished_at = ?, moved = ?, skipped = ?, errors = ?, folders = ? WHERE id = ?`,
		formatTime(finished), counts.Moved, counts.Skipped, counts.Errors, counts.Folders, id,
	)
	if err != nil {
		return errors.NewDatabaseError("failed to finish session", err).
			WithOperation("finish_session").
			WithContext("session", id)
	}
	return requireRow(res, id)
}

// MarkUndone flags a session as reversed. A session can be undone once.
func (s *Store) MarkUndone(ctx context.Context, id string, at time.Time) error {
	res, err := s.execResult(ctx,
		`UPDATE sessions SET undone_at = ? WHERE id = ? AND undone_at IS NULL`,
		formatTime(at), id,
	)
	if err != nil {
		return errors.NewDatabaseError("failed to mark session undone", err).
			WithOperation("mark_undone").
			WithContext("session", id)
	}
	return requireRow(res, id)
}

// Session returns the session with the given id. A unique id prefix, as
// shown by the history listing, is accepted too.
func (s *Store) Session(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	sessions, err := s.querySessions(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		sessions, err = s.querySessions(ctx,
			`SELECT `+sessionColumns+` FROM sessions WHERE substr(id, 1, ?) = ? LIMIT 2`, len(id), id)
		if err != nil {
			return nil, err
		}
	}
	switch len(sessions) {
	case 0:
		return nil, ErrSessionNotFound
	case 1:
		return &sessions[0], nil
	}
	return nil, errors.Newf("session prefix %q is ambiguous", id)
}

// LastSession returns the newest finished session that changed something and
// has not been undone. Runs that neither moved a file nor created a folder,
// such as a rerun over an organized directory or an idle watch tick, are
// passed over. Preview sessions are considered only when includePreview is set.
func (s *Store) LastSession(ctx context.Context, includePreview bool) (*Session, error) {
	sessions, err := s.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions
         WHERE finished_at IS NOT NULL AND undone_at IS NULL AND (preview = 0 OR ?)
           AND (moved > 0 OR folders > 0)
         ORDER BY started_at DESC LIMIT 1`,
		includePreview,
	)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrSessionNotFound
	}
	return &sessions[0], nil
}

// Sessions lists the newest sessions first. A limit below 1 lists all.
func (s *Store) Sessions(ctx context.Context, limit int) ([]Session, error) {
	if limit < 1 {
		limit = -1
	}
	return s.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
}

// Records returns the records of a session in the order they were written.
func (s *Store) Records(ctx context.Context, sessionID string) ([]journal.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, recorded_at, action, simulated, undo, name,
                source_dir, dest_dir, dest_name, overwrote, reason
         FROM records WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, queryError("records", err)
	}
	defer rows.Close()

	var records []journal.Record
	for rows.Next() {
		var (
			rec      journal.Record
			recorded string
			action   string
		)
		if err := rows.Scan(&rec.Session, &recorded, &action, &rec.Simulated, &rec.Undo, &rec.Name,
			&rec.SourceDir, &rec.DestDir, &rec.DestName, &rec.Overwrote, &rec.Reason); err != nil {
			return nil, queryError("records", err)
		}
		rec.Action = journal.Action(action)
		rec.Time = parseTime(recorded)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("records", err)
	}
	return records, nil
}

// Prune deletes sessions started before the cutoff along with their records.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.execResult(ctx, `DELETE FROM sessions WHERE started_at < ?`, formatTime(before))
	if err != nil {
		return 0, errors.NewDatabaseError("failed to prune sessions", err).WithOperation("prune")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to prune sessions", err).WithOperation("prune")
	}
	return n, nil
}

const sessionColumns = `id, target_dir, started_at, finished_at, preview, strategy,
        moved, skipped, errors, folders, undone_at`

func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError("sessions", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			sess             Session
			started          string
			finished, undone sql.NullString
		)
		if err := rows.Scan(&sess.ID, &sess.Dir, &started, &finished, &sess.Preview, &sess.Strategy,
			&sess.Moved, &sess.Skipped, &sess.Errors, &sess.Folders, &undone); err != nil {
			return nil, queryError("scan_session", err)
		}
		sess.Started = parseTime(started)
		if finished.Valid {
			sess.Finished = parseTime(finished.String)
		}
		if undone.Valid {
			sess.UndoneAt = parseTime(undone.String)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("scan_session", err)
	}
	return sessions, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to read affected rows", err)
	}
	if n == 0 {
		return errors.Wrapf(ErrSessionNotFound, "session %s not found or already undone", id)
	}
	return nil
}

func queryError(op string, err error) error {
	return errors.NewDatabaseError("history query failed", err).
		WithKind(errors.DatabaseQueryFailed).
		WithOperation(op)
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.execResult(ctx, query, args...)
	return err
}

func (s *Store) execResult(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	return res, err
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
