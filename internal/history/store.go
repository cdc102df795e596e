package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"icecale/internal/stage"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const runColumns = "id, input_path, output_path, session_dir, status, progress_stage, progress_percent, progress_message, error_kind, error_message, width, height, frame_rate, total_frames, has_audio, extracted_frames, upscaled_frames, created_at, updated_at, finished_at"

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Start inserts the row for a new run.
func (s *Store) Start(ctx context.Context, job *stage.Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	run := runFromJob(job)
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.InputPath,
		run.OutputPath,
		nullableString(run.SessionDir),
		run.Status,
		nullableString(run.ProgressStage),
		run.ProgressPercent,
		nullableString(run.ProgressMessage),
		nullableString(run.ErrorKind),
		nullableString(run.ErrorMessage),
		run.Width,
		run.Height,
		nullableString(run.FrameRate),
		run.TotalFrames,
		boolToInt(run.HasAudio),
		run.ExtractedFrames,
		run.UpscaledFrames,
		run.CreatedAt.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		nullableTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Update persists the current state of job.
func (s *Store) Update(ctx context.Context, job *stage.Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	run := runFromJob(job)
	res, err := s.execWithRetry(ctx,
		`UPDATE runs
         SET session_dir = ?, status = ?, progress_stage = ?, progress_percent = ?, progress_message = ?,
             error_kind = ?, error_message = ?, width = ?, height = ?, frame_rate = ?, total_frames = ?,
             has_audio = ?, extracted_frames = ?, upscaled_frames = ?, updated_at = ?, finished_at = ?
         WHERE id = ?`,
		nullableString(run.SessionDir),
		run.Status,
		nullableString(run.ProgressStage),
		run.ProgressPercent,
		nullableString(run.ProgressMessage),
		nullableString(run.ErrorKind),
		nullableString(run.ErrorMessage),
		run.Width,
		run.Height,
		nullableString(run.FrameRate),
		run.TotalFrames,
		boolToInt(run.HasAudio),
		run.ExtractedFrames,
		run.UpscaledFrames,
		time.Now().UTC().Format(time.RFC3339Nano),
		nullableTime(run.FinishedAt),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update run %s: not found", run.ID)
	}
	return nil
}

// Get fetches a run by id. It returns nil, nil when the run does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first. A limit <= 0 returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// MarkAbandoned fails runs that never reached a terminal status, for example
// after the process was killed. It returns the number of rows changed.
func (s *Store) MarkAbandoned(ctx context.Context, olderThan time.Time) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_message = ?, updated_at = ?, finished_at = ?
         WHERE status NOT IN (?, ?) AND updated_at < ?`,
		stage.StatusFailed,
		"run interrupted",
		now,
		now,
		stage.StatusCompleted,
		stage.StatusFailed,
		olderThan.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned runs: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every run and returns the number removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run             Run
		sessionDir      sql.NullString
		status          string
		progressStage   sql.NullString
		progressMessage sql.NullString
		errorKind       sql.NullString
		errorMessage    sql.NullString
		frameRate       sql.NullString
		hasAudio        int
		createdRaw      string
		updatedRaw      string
		finishedRaw     sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.InputPath,
		&run.OutputPath,
		&sessionDir,
		&status,
		&progressStage,
		&run.ProgressPercent,
		&progressMessage,
		&errorKind,
		&errorMessage,
		&run.Width,
		&run.Height,
		&frameRate,
		&run.TotalFrames,
		&hasAudio,
		&run.ExtractedFrames,
		&run.UpscaledFrames,
		&createdRaw,
		&updatedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	run.SessionDir = sessionDir.String
	run.Status = stage.Status(status)
	run.ProgressStage = progressStage.String
	run.ProgressMessage = progressMessage.String
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMessage.String
	run.FrameRate = frameRate.String
	run.HasAudio = hasAudio != 0
	run.CreatedAt = parseTime(createdRaw)
	run.UpdatedAt = parseTime(updatedRaw)
	if finishedRaw.Valid && finishedRaw.String != "" {
		finished := parseTime(finishedRaw.String)
		run.FinishedAt = &finished
	}
	return &run, nil
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
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
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
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

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTime(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
