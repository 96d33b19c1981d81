// Package jobs provides the persistent background job machinery for batch
// summary rebuilds. The rebuild is a single-writer process; the runner
// enforces that with one worker.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// JobType identifies the kind of work a job performs.
type JobType string

const (
	// JobTypeRebuildSummaries recomputes and replaces the denormalized
	// summary store for a house/term scope.
	JobTypeRebuildSummaries JobType = "rebuild_summaries"
	// JobTypeCacheCleanup drops expired aggregation cache entries.
	JobTypeCacheCleanup JobType = "cache_cleanup"
)

// RebuildParams are the parameters of a rebuild_summaries job.
type RebuildParams struct {
	House         string `json:"house,omitempty"`
	TermSelection string `json:"lsTerm,omitempty"`
	Shape         string `json:"shape,omitempty"` // empty means all shapes
}

// Job represents a background task with its state and metadata.
type Job struct {
	ID          string     `json:"id"`
	Type        JobType    `json:"type"`
	Params      string     `json:"params,omitempty"` // JSON-encoded parameters
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"` // 0-100
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
	Result      string     `json:"result,omitempty"` // JSON-encoded result
}

// NewJob creates a new queued job with the given type and parameters.
func NewJob(jobType JobType, params interface{}) (*Job, error) {
	var paramsJSON string
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		paramsJSON = string(data)
	}

	return &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Params:    paramsJSON,
		Status:    JobQueued,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DecodeParams unmarshals the job's parameters into out.
func (j *Job) DecodeParams(out interface{}) error {
	if j.Params == "" {
		return nil
	}
	return json.Unmarshal([]byte(j.Params), out)
}

// CanCancel reports whether the job can still be cancelled.
func (j *Job) CanCancel() bool {
	return j.Status == JobQueued || j.Status == JobRunning
}

// MarkStarted transitions the job to running.
func (j *Job) MarkStarted() {
	now := time.Now().UTC()
	j.Status = JobRunning
	j.StartedAt = &now
}

// MarkCompleted transitions the job to completed with a serialized result.
func (j *Job) MarkCompleted(result interface{}) error {
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		j.Result = string(data)
	}
	now := time.Now().UTC()
	j.Status = JobCompleted
	j.Progress = 100
	j.CompletedAt = &now
	return nil
}

// MarkFailed transitions the job to failed.
func (j *Job) MarkFailed(err error) {
	now := time.Now().UTC()
	j.Status = JobFailed
	j.Error = err.Error()
	j.CompletedAt = &now
}

// MarkCancelled transitions the job to cancelled.
func (j *Job) MarkCancelled() {
	now := time.Now().UTC()
	j.Status = JobCancelled
	j.CompletedAt = &now
}

// SetProgress updates the progress percentage, clamped to [0, 100].
func (j *Job) SetProgress(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	j.Progress = pct
}
