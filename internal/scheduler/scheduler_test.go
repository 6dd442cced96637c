package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inbox-triage-go/internal/config"
	"inbox-triage-go/internal/engine"
	"inbox-triage-go/internal/model"
	"inbox-triage-go/internal/notify"
	"inbox-triage-go/internal/store"
)

// stubSource returns a fixed batch on every poll.
type stubSource struct {
	polls int
}

func (s *stubSource) Poll(ctx context.Context) (*model.PollBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.polls++
	return &model.PollBatch{
		RunID:     "run-stub-1",
		StartedAt: time.Now(),
		Messages: []model.InboundMessage{
			{
				Mailbox:    "inbox@acme.com",
				MessageID:  "msg-1",
				Subject:    "Your receipt",
				Sender:     "billing@vendor.com",
				Snippet:    "Payment of $12.00 received.",
				ReceivedAt: "1700000000000",
				DedupKey:   "inbox@acme.com:msg-1",
			},
		},
	}, nil
}

func (s *stubSource) Close() error { return nil }

type noopNotifier struct{}

func (noopNotifier) Send(ctx context.Context, notification notify.Notification) error { return nil }

func newTestScheduler(source *stubSource) *Scheduler {
	eng := engine.New(store.NewMemoryStore(), noopNotifier{}, nil)
	cfg := &config.SchedulerConfig{IntervalMinutes: 5}
	return NewScheduler(cfg, source, eng, "")
}

func TestSchedulerStartStop(t *testing.T) {
	s := newTestScheduler(&stubSource{})

	assert.False(t, s.IsRunning())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.GetNextRun().IsZero())

	assert.Error(t, s.Start(), "double start must fail")

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop(), "stopping a stopped scheduler is a no-op")
}

func TestSchedulerRestart(t *testing.T) {
	source := &stubSource{}
	s := newTestScheduler(source)

	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	// Cycles after a restart must poll with a live context, not the one
	// the earlier Stop cancelled.
	require.NoError(t, s.RunOnce())
	s.Wait()
	assert.Equal(t, 1, source.polls)
	require.NotNil(t, s.LastResult())

	require.NoError(t, s.Stop())
}

func TestRunOnceExecutesACycle(t *testing.T) {
	source := &stubSource{}
	s := newTestScheduler(source)

	require.NoError(t, s.Start())
	defer s.Stop()

	require.NoError(t, s.RunOnce())
	s.Wait()

	assert.Equal(t, 1, source.polls)
	result := s.LastResult()
	require.NotNil(t, result)
	assert.Equal(t, "run-stub-1", result.RunID)
	assert.Equal(t, model.RunStatusOK, result.Status)
	assert.Equal(t, 1, result.Totals.FinancialRecords)
}

func TestCycleSkippedWhenStopped(t *testing.T) {
	source := &stubSource{}
	s := newTestScheduler(source)

	require.NoError(t, s.RunOnce())
	assert.Zero(t, source.polls, "cycles do not run before the scheduler starts")
	assert.Nil(t, s.LastResult())
}
