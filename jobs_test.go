package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJobPoller_RefreshReplacesListWholesale(t *testing.T) {
	gateway := newScriptedGateway()
	gateway.jobsFn = func(ctx context.Context) ([]Job, error) {
		return []Job{
			{ID: "job-1", Status: JobStatusRunning, Progress: 0.5},
			{ID: "job-2", Status: JobStatusQueued},
		}, nil
	}
	poller := NewJobPoller(gateway, time.Minute)

	require.False(t, poller.Polled())
	require.NoError(t, poller.Refresh(context.Background()))
	require.True(t, poller.Polled())
	require.Len(t, poller.Jobs(), 2)

	// A job missing from the next poll has finished and ages out; nothing
	// from the previous list survives.
	gateway.jobsFn = func(ctx context.Context) ([]Job, error) {
		return []Job{{ID: "job-2", Status: JobStatusRunning, Progress: 0.1}}, nil
	}
	require.NoError(t, poller.Refresh(context.Background()))
	jobs := poller.Jobs()
	require.Len(t, jobs, 1)
	require.Equal(t, "job-2", jobs[0].ID)
	require.Equal(t, JobStatusRunning, jobs[0].Status)
}

func TestJobPoller_FailedRefreshKeepsPreviousList(t *testing.T) {
	gateway := newScriptedGateway()
	gateway.jobsFn = func(ctx context.Context) ([]Job, error) {
		return []Job{{ID: "job-1", Status: JobStatusRunning}}, nil
	}
	poller := NewJobPoller(gateway, time.Minute)
	require.NoError(t, poller.Refresh(context.Background()))

	gateway.jobsFn = func(ctx context.Context) ([]Job, error) {
		return nil, errors.New("backend down")
	}
	require.Error(t, poller.Refresh(context.Background()))
	require.Error(t, poller.LastErr())

	jobs := poller.Jobs()
	require.Len(t, jobs, 1)
	require.Equal(t, "job-1", jobs[0].ID)
}

func TestJobPoller_StartPollsImmediatelyAndStops(t *testing.T) {
	gateway := newScriptedGateway()
	gateway.jobsFn = func(ctx context.Context) ([]Job, error) {
		return []Job{{ID: "job-1", Status: JobStatusRunning}}, nil
	}
	poller := NewJobPoller(gateway, time.Hour)

	poller.Start()
	require.True(t, poller.Running())
	require.Eventually(t, func() bool {
		return poller.Polled()
	}, time.Second, time.Millisecond)
	require.Equal(t, 1, gateway.JobsCalls())

	poller.Stop()
	require.False(t, poller.Running())
}

func TestJobPoller_StartWhileRunningIsANoOp(t *testing.T) {
	gateway := newScriptedGateway()
	poller := NewJobPoller(gateway, time.Hour)
	poller.Start()
	defer poller.Stop()
	poller.Start()

	require.Eventually(t, func() bool {
		return poller.Polled()
	}, time.Second, time.Millisecond)
	require.Equal(t, 1, gateway.JobsCalls())
}

func TestJobPoller_PollsOnInterval(t *testing.T) {
	gateway := newScriptedGateway()
	poller := NewJobPoller(gateway, 10*time.Millisecond)
	poller.Start()
	defer poller.Stop()

	require.Eventually(t, func() bool {
		return gateway.JobsCalls() >= 3
	}, time.Second, time.Millisecond)
}

func TestNewJobPoller_NonPositiveIntervalUsesDefault(t *testing.T) {
	poller := NewJobPoller(newScriptedGateway(), 0)
	require.Equal(t, defaultJobPollInterval, poller.interval)
}
