package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	name    string
	execute func(ctx context.Context) (map[string]interface{}, error)
}

func (f *fakeAgent) Name() string { return f.name }

func (f *fakeAgent) Execute(ctx context.Context) (map[string]interface{}, error) {
	return f.execute(ctx)
}

func (f *fakeAgent) Analyze(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	return nil, nil
}

func TestRunnerCompletes(t *testing.T) {
	runner := NewRunner(time.Second)
	agent := &fakeAgent{
		name: "test",
		execute: func(ctx context.Context) (map[string]interface{}, error) {
			return map[string]interface{}{"answer": 42}, nil
		},
	}

	result := runner.Run(context.Background(), agent)

	assert.Equal(t, "test", result.AgentName)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.True(t, result.Success)
	assert.Equal(t, 42, result.Results["answer"])
	assert.Empty(t, result.Errors)
	assert.GreaterOrEqual(t, result.ExecutionTime, 0.0)
	assert.False(t, result.CompletedAt.Before(result.StartedAt))
}

func TestRunnerReportsFailure(t *testing.T) {
	runner := NewRunner(time.Second)
	agent := &fakeAgent{
		name: "test",
		execute: func(ctx context.Context) (map[string]interface{}, error) {
			return nil, errors.New("upstream unavailable")
		},
	}

	result := runner.Run(context.Background(), agent)

	assert.Equal(t, StatusFailed, result.Status)
	assert.False(t, result.Success)
	assert.Equal(t, []string{"upstream unavailable"}, result.Errors)
}

func TestRunnerTimesOut(t *testing.T) {
	runner := NewRunner(50 * time.Millisecond)
	agent := &fakeAgent{
		name: "slow",
		execute: func(ctx context.Context) (map[string]interface{}, error) {
			// Sleeps through the deadline so the runner, not the agent,
			// reports the outcome.
			<-time.After(5 * time.Second)
			return map[string]interface{}{}, nil
		},
	}

	result := runner.Run(context.Background(), agent)

	assert.Equal(t, StatusFailed, result.Status)
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Execution timed out", result.Errors[0])
	assert.Greater(t, result.ExecutionTime, 0.0)
}

func TestRunnerReportsCancellation(t *testing.T) {
	runner := NewRunner(time.Minute)
	agent := &fakeAgent{
		name: "slow",
		execute: func(ctx context.Context) (map[string]interface{}, error) {
			<-time.After(5 * time.Second)
			return map[string]interface{}{}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result := runner.Run(ctx, agent)

	assert.Equal(t, StatusFailed, result.Status)
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Execution canceled", result.Errors[0])
}

func TestRunnerRecoversPanic(t *testing.T) {
	runner := NewRunner(time.Second)
	agent := &fakeAgent{
		name: "panicky",
		execute: func(ctx context.Context) (map[string]interface{}, error) {
			panic("nil map write")
		},
	}

	result := runner.Run(context.Background(), agent)

	assert.Equal(t, StatusFailed, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "nil map write")
}

func TestNewRunnerDefaultsTimeout(t *testing.T) {
	runner := NewRunner(0)
	assert.Equal(t, DefaultTimeout, runner.timeout)
}
