package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression (5 fields, scheduler timezone)
	// Examples: "0 5 * * *" (every day at 05:00)
	//           "0 6 * * 1" (Mondays at 06:00), "@daily"
	Schedule() string
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// maxHistory results kept per job; counters cover every run
const maxHistory = 100

// JobHistory 작업별 실행 이력
// Results keeps the most recent runs (oldest first); the counters never reset.
type JobHistory struct {
	Results     []JobResult `json:"results"`
	Total       int         `json:"total"`
	Failures    int         `json:"failures"`
	LastSuccess *time.Time  `json:"last_success,omitempty"`
	LastFailure *time.Time  `json:"last_failure,omitempty"`
}

// AddResult records one run
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > maxHistory {
		h.Results = h.Results[len(h.Results)-maxHistory:]
	}

	h.Total++
	started := result.StartTime
	if result.Success {
		h.LastSuccess = &started
	} else {
		h.Failures++
		h.LastFailure = &started
	}
}

// Latest returns the most recent result
func (h *JobHistory) Latest() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// SuccessRate over every recorded run (0.0 - 1.0)
func (h *JobHistory) SuccessRate() float64 {
	if h.Total == 0 {
		return 0.0
	}
	return float64(h.Total-h.Failures) / float64(h.Total)
}

// snapshot copies the history so callers can read it without the scheduler lock
func (h *JobHistory) snapshot() JobHistory {
	out := *h
	out.Results = append([]JobResult(nil), h.Results...)
	return out
}
