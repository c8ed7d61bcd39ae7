package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the status of a refresh run
type RunStatus string

const (
	RunStatusPending RunStatus = "PENDING"
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
)

// Trigger says what started a run
type Trigger string

const (
	TriggerStartup   Trigger = "STARTUP"
	TriggerScheduled Trigger = "SCHEDULED"
	TriggerManual    Trigger = "MANUAL"
)

// Run records one execution of a refresh
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Trigger     Trigger    `json:"trigger"`
	Status      RunStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewRun creates a pending run
func NewRun(trigger Trigger) *Run {
	return &Run{
		ID:        uuid.New(),
		Trigger:   trigger,
		Status:    RunStatusPending,
		CreatedAt: time.Now(),
	}
}

// Start marks the run as running
func (r *Run) Start() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
	r.Error = ""
}

// Complete marks the run as successful
func (r *Run) Complete() {
	now := time.Now()
	r.Status = RunStatusSuccess
	r.CompletedAt = &now
}

// Fail marks the run as failed
func (r *Run) Fail(err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.CompletedAt = &now
	r.Error = err
}

// Duration returns how long the run took, or zero while it is unfinished
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(*r.StartedAt)
}
