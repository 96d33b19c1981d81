package jobs

import (
	"database/sql"
	"fmt"
	"time"

	"mplads/internal/logging"
	"mplads/internal/storage"
)

// Store persists jobs in the engine database so queued rebuilds survive a
// restart.
type Store struct {
	db     *storage.DB
	logger *logging.Logger
}

// NewStore creates a job store.
func NewStore(db *storage.DB, logger *logging.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// CreateJob persists a new job.
func (s *Store) CreateJob(job *Job) error {
	_, err := s.db.Exec(`
		INSERT INTO jobs (id, type, scope, status, progress, created_at, started_at, completed_at, error, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, string(job.Type), job.Params, string(job.Status), job.Progress,
		job.CreatedAt.Format(time.RFC3339), timeString(job.StartedAt), timeString(job.CompletedAt),
		job.Error, job.Result)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// UpdateJob saves the job's current state.
func (s *Store) UpdateJob(job *Job) error {
	_, err := s.db.Exec(`
		UPDATE jobs
		SET status = ?, progress = ?, started_at = ?, completed_at = ?, error = ?, result = ?
		WHERE id = ?
	`, string(job.Status), job.Progress, timeString(job.StartedAt), timeString(job.CompletedAt),
		job.Error, job.Result, job.ID)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID, or nil when unknown.
func (s *Store) GetJob(id string) (*Job, error) {
	row := s.db.QueryRow(`
		SELECT id, type, scope, status, progress, created_at, started_at, completed_at, error, result
		FROM jobs WHERE id = ?
	`, id)

	job, err := scanJob(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// GetPendingJobs returns queued and orphaned-running jobs, oldest first.
// A running job found here belonged to a previous process and is re-run.
func (s *Store) GetPendingJobs() ([]*Job, error) {
	rows, err := s.db.Query(`
		SELECT id, type, scope, status, progress, created_at, started_at, completed_at, error, result
		FROM jobs
		WHERE status IN (?, ?)
		ORDER BY created_at
	`, string(JobQueued), string(JobRunning))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// ListJobs returns the most recent jobs, newest first.
func (s *Store) ListJobs(limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, type, scope, status, progress, created_at, started_at, completed_at, error, result
		FROM jobs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func scanJob(scan func(...interface{}) error) (*Job, error) {
	var job Job
	var jobType, status, createdAt string
	var startedAt, completedAt sql.NullString

	err := scan(&job.ID, &jobType, &job.Params, &status, &job.Progress,
		&createdAt, &startedAt, &completedAt, &job.Error, &job.Result)
	if err != nil {
		return nil, err
	}

	job.Type = JobType(jobType)
	job.Status = JobStatus(status)
	if job.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at for job %s: %w", job.ID, err)
	}
	job.StartedAt = parseTime(startedAt)
	job.CompletedAt = parseTime(completedAt)
	return &job, nil
}

func timeString(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}
