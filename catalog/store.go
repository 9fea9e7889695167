// Package catalog keeps a small SQLite index of recordings and the
// projects converted from them.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

// Status is the lifecycle of a catalogued recording.
type Status string

const (
	StatusRecording Status = "recording"
	StatusRecorded  Status = "recorded"
	StatusConverted Status = "converted"
	StatusFailed    Status = "failed"
	StatusDiscarded Status = "discarded"
)

// Entry is one catalogued recording.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	Dir        string    `json:"dir"`
	ProjectDir string    `json:"project_dir,omitempty"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Frames     int       `json:"frames"`
	Events     int       `json:"events"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store provides access to the catalog database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

const schema = `
	CREATE TABLE IF NOT EXISTS recordings (
		id TEXT PRIMARY KEY,
		dir TEXT NOT NULL UNIQUE,
		projectDir TEXT,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		frames INTEGER NOT NULL DEFAULT 0,
		events INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT,
		createdAt REAL NOT NULL,
		updatedAt REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS recordings_created ON recordings(createdAt);
`

// Open opens or creates the catalog at path with WAL journaling.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Register records a new recording in StatusRecording.
func (s *Store) Register(rec *project.RecordingProject) error {
	now := unixSeconds(s.now())
	_, err := s.db.Exec(`
		INSERT INTO recordings (id, dir, width, height, status, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID.String(), rec.Dir, rec.Width, rec.Height, StatusRecording,
		unixSeconds(rec.CreationDate), now)
	if err != nil {
		return fmt.Errorf("insert recording: %w", err)
	}
	return nil
}

// SetCounts stores the frame and event totals of a finished recording.
func (s *Store) SetCounts(id uuid.UUID, frames, events int) error {
	return s.update(`UPDATE recordings SET frames = ?, events = ?, updatedAt = ? WHERE id = ?`,
		frames, events, unixSeconds(s.now()), id.String())
}

// UpdateStatus moves a recording to status. projectDir is kept when empty;
// cause, when set, is stored as the failure message.
func (s *Store) UpdateStatus(id uuid.UUID, status Status, projectDir string, cause error) error {
	var msg sql.NullString
	if cause != nil {
		msg = sql.NullString{String: cause.Error(), Valid: true}
	}
	return s.update(`
		UPDATE recordings
		SET status = ?, projectDir = COALESCE(NULLIF(?, ''), projectDir), error = ?, updatedAt = ?
		WHERE id = ?
	`, status, projectDir, msg, unixSeconds(s.now()), id.String())
}

func (s *Store) update(query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update recording: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update recording: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ErrNotFound is returned when updating an unknown recording.
var ErrNotFound = errors.New("catalog: recording not found")

// List returns up to limit recordings, newest first. A limit <= 0 returns
// all of them.
func (s *Store) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, dir, projectDir, width, height, frames, events, status, error, createdAt, updatedAt
		FROM recordings
		ORDER BY createdAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Get returns the recording with id, or nil when it is not catalogued.
func (s *Store) Get(id uuid.UUID) (*Entry, error) {
	return s.one(`WHERE id = ?`, id.String())
}

// FindByDir returns the recording stored in dir, or nil.
func (s *Store) FindByDir(dir string) (*Entry, error) {
	return s.one(`WHERE dir = ?`, dir)
}

func (s *Store) one(where string, arg any) (*Entry, error) {
	row := s.db.QueryRow(`
		SELECT id, dir, projectDir, width, height, frames, events, status, error, createdAt, updatedAt
		FROM recordings `+where, arg)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(r scanner) (*Entry, error) {
	var e Entry
	var id string
	var projectDir, msg sql.NullString
	var createdAt, updatedAt float64
	if err := r.Scan(&id, &e.Dir, &projectDir, &e.Width, &e.Height, &e.Frames, &e.Events,
		&e.Status, &msg, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan recording: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("scan recording: bad id %q: %w", id, err)
	}
	e.ID = parsed
	e.ProjectDir = projectDir.String
	e.Error = msg.String
	e.CreatedAt = timeFromUnix(createdAt)
	e.UpdatedAt = timeFromUnix(updatedAt)
	return &e, nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
