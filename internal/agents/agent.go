package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitclub_backend/pkg/utils"
)

// Status is the lifecycle state of one agent run. A run goes
// idle -> running -> completed or failed; there is no way back to idle.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// DefaultTimeout is the wall-clock budget for a single agent run.
const DefaultTimeout = 300 * time.Second

// Result is the outcome of one agent run. Failures are reported in Errors,
// never raised to the HTTP boundary as panics.
type Result struct {
	AgentName     string                 `json:"agent_name"`
	Status        Status                 `json:"status"`
	Success       bool                   `json:"success"`
	Results       map[string]interface{} `json:"results,omitempty"`
	Errors        []string               `json:"errors,omitempty"`
	ExecutionTime float64                `json:"execution_time"` // seconds
	StartedAt     time.Time              `json:"started_at"`
	CompletedAt   time.Time              `json:"completed_at"`
}

// Agent is one heuristic analysis engine. Execute runs the full analysis;
// Analyze answers a targeted question about one entity or metric.
type Agent interface {
	Name() string
	Execute(ctx context.Context) (map[string]interface{}, error)
	Analyze(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error)
}

// Runner executes agents under a wall-clock timeout. Agents are injected per
// call; the runner holds no agent state between runs.
type Runner struct {
	timeout time.Duration
}

// NewRunner creates a Runner. A non-positive timeout falls back to
// DefaultTimeout.
func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{timeout: timeout}
}

type executeOutcome struct {
	results map[string]interface{}
	err     error
}

// Run executes the agent with the runner's timeout. On timeout the result is
// failed with the single error "Execution timed out"; a caller cancellation
// reports "Execution canceled". Panics inside the agent are captured into the
// error list. Execution time is recorded regardless of outcome.
func (r *Runner) Run(ctx context.Context, agent Agent) Result {
	start := time.Now()
	result := Result{
		AgentName: agent.Name(),
		Status:    StatusRunning,
		StartedAt: start,
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan executeOutcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- executeOutcome{err: fmt.Errorf("agent panicked: %v", p)}
			}
		}()
		results, err := agent.Execute(runCtx)
		done <- executeOutcome{results: results, err: err}
	}()

	select {
	case <-runCtx.Done():
		result.Status = StatusFailed
		// A caller cancellation (client disconnect) also trips runCtx; only
		// an exhausted deadline is a timeout.
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			result.Errors = []string{"Execution timed out"}
			utils.LogError(runCtx.Err(), "Agent run timed out: "+agent.Name())
		} else {
			result.Errors = []string{"Execution canceled"}
			utils.LogError(runCtx.Err(), "Agent run canceled: "+agent.Name())
		}
	case outcome := <-done:
		if outcome.err != nil {
			result.Status = StatusFailed
			result.Errors = []string{outcome.err.Error()}
			utils.LogError(outcome.err, "Agent run failed: "+agent.Name())
		} else {
			result.Status = StatusCompleted
			result.Success = true
			result.Results = outcome.results
		}
	}

	result.CompletedAt = time.Now()
	result.ExecutionTime = result.CompletedAt.Sub(start).Seconds()
	return result
}
