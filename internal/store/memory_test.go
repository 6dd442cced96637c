package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inbox-triage-go/internal/model"
)

func TestUpsertContactIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.UpsertContact(ctx, &model.Contact{
		Email:       "jane@acmeco.com",
		DisplayName: "Jane Doe",
		Mailbox:     "inbox@acme.com",
		LastSeenAt:  time.Unix(1700000000, 0),
	})
	require.NoError(t, err)
	require.NotZero(t, first)

	second, err := s.UpsertContact(ctx, &model.Contact{
		Email:      "jane@acmeco.com",
		Mailbox:    "inbox@acme.com",
		LastSeenAt: time.Unix(1700000100, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stored, err := s.GetContact(ctx, "jane@acmeco.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", stored.DisplayName, "empty display name must not clobber a stored one")
}

func TestContactLastSeenNeverRegresses(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	later := time.Unix(1700000200, 0)
	_, err := s.UpsertContact(ctx, &model.Contact{Email: "jane@acmeco.com", LastSeenAt: later})
	require.NoError(t, err)

	_, err = s.UpsertContact(ctx, &model.Contact{Email: "jane@acmeco.com", LastSeenAt: time.Unix(1700000100, 0)})
	require.NoError(t, err)

	stored, err := s.GetContact(ctx, "jane@acmeco.com")
	require.NoError(t, err)
	assert.True(t, stored.LastSeenAt.Equal(later))
}

func TestUpsertActivityByDedupKey(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	activity := &model.Activity{
		DedupKey:   "inbox@acme.com:msg-1",
		Mailbox:    "inbox@acme.com",
		MessageID:  "msg-1",
		Label:      "sales",
		Confidence: 0.76,
	}
	first, err := s.UpsertActivity(ctx, activity)
	require.NoError(t, err)

	activity.Label = "support"
	second, err := s.UpsertActivity(ctx, activity)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	activities, err := s.ListActivities(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "support", activities[0].Label)
}

func TestUpsertDraftDoesNotResetStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	draftID, err := s.UpsertDraft(ctx, &model.Draft{
		ActivityID: 4,
		Recipient:  "jane@acmeco.com",
		Subject:    "Re: Consulting inquiry",
		Body:       "Hi Jane,",
		Status:     model.DraftStatusDraft,
	})
	require.NoError(t, err)

	require.NoError(t, s.PatchDraft(ctx, draftID, map[string]interface{}{"status": model.DraftStatusApproved}))

	replayID, err := s.UpsertDraft(ctx, &model.Draft{
		ActivityID: 4,
		Recipient:  "jane@acmeco.com",
		Subject:    "Re: Consulting inquiry",
		Body:       "Hi Jane, (replayed)",
		Status:     model.DraftStatusDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, draftID, replayID)

	stored, err := s.GetDraft(ctx, draftID)
	require.NoError(t, err)
	assert.Equal(t, model.DraftStatusApproved, stored.Status)
	assert.Equal(t, "Hi Jane, (replayed)", stored.Body)
}

func TestPatchDraftAppliesEveryEngineField(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	draftID, err := s.UpsertDraft(ctx, &model.Draft{
		ActivityID: 3,
		Recipient:  "jane@acmeco.com",
		Status:     model.DraftStatusDraft,
	})
	require.NoError(t, err)

	require.NoError(t, s.PatchDraft(ctx, draftID, map[string]interface{}{
		"approval_command":     "approve draft 1\nrevise draft 1: <instructions>\nreject draft 1",
		"notification_summary": "Draft #1 awaiting approval",
	}))

	stored, err := s.GetDraft(ctx, draftID)
	require.NoError(t, err)
	assert.Contains(t, stored.ApprovalCommand, "approve draft 1")
	assert.Equal(t, "Draft #1 awaiting approval", stored.NotificationSummary)
}

func TestListDraftsFiltersByStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.UpsertDraft(ctx, &model.Draft{ActivityID: 1, Recipient: "a@x.com", Status: model.DraftStatusDraft})
	require.NoError(t, err)
	id, err := s.UpsertDraft(ctx, &model.Draft{ActivityID: 2, Recipient: "b@x.com", Status: model.DraftStatusDraft})
	require.NoError(t, err)
	require.NoError(t, s.PatchDraft(ctx, id, map[string]interface{}{"status": model.DraftStatusRejected}))

	drafts, err := s.ListDrafts(ctx, model.DraftStatusRejected, 0)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "b@x.com", drafts[0].Recipient)
}

func TestUpsertFinancialRecordByDedupKey(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	amount := 240.0
	record := &model.FinancialRecord{
		DedupKey:   "inbox@acme.com:msg-2",
		ActivityID: 9,
		Vendor:     "billing",
		Amount:     &amount,
		Currency:   "USD",
	}
	first, err := s.UpsertFinancialRecord(ctx, record)
	require.NoError(t, err)
	second, err := s.UpsertFinancialRecord(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	records, err := s.ListFinancialRecords(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestPatchRunRecordFinalization(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateRunRecord(ctx, &model.RunRecord{
		RunID:     "run-1",
		Status:    model.RunStatusRunning,
		StartedAt: time.Unix(1700000000, 0),
	}))

	finished := time.Unix(1700000300, 0)
	require.NoError(t, s.PatchRunRecord(ctx, "run-1", map[string]interface{}{
		"status":      model.RunStatusOK,
		"processed":   3,
		"drafts":      1,
		"finished_at": finished,
	}))

	run, err := s.GetRunRecord(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusOK, run.Status)
	assert.Equal(t, 3, run.Processed)
	assert.Equal(t, 1, run.Drafts)
	assert.True(t, run.FinishedAt.Equal(finished))
}

func TestCreateRunRecordResetsReplayedRunID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateRunRecord(ctx, &model.RunRecord{
		RunID:     "run-1",
		Status:    model.RunStatusRunning,
		Polled:    2,
		StartedAt: time.Unix(1700000000, 0),
	}))
	require.NoError(t, s.PatchRunRecord(ctx, "run-1", map[string]interface{}{
		"status":      model.RunStatusOK,
		"finished_at": time.Unix(1700000060, 0),
	}))

	restarted := time.Unix(1700000120, 0)
	require.NoError(t, s.CreateRunRecord(ctx, &model.RunRecord{
		RunID:     "run-1",
		Status:    model.RunStatusRunning,
		Polled:    2,
		StartedAt: restarted,
	}))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1, "a replayed run id must not create a second row")

	run, err := s.GetRunRecord(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.True(t, run.StartedAt.Equal(restarted))
}

func TestWatermarkPreservedOnEmptyCandidate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.UpsertWatermark(ctx, &model.MailboxWatermark{
		Mailbox:         "inbox@acme.com",
		LastPolledAt:    time.Unix(1700000000, 0),
		LastSeenMessage: "1700000000000",
	}))

	polled := time.Unix(1700000600, 0)
	require.NoError(t, s.UpsertWatermark(ctx, &model.MailboxWatermark{
		Mailbox:      "inbox@acme.com",
		LastPolledAt: polled,
	}))

	watermark, err := s.GetWatermark(ctx, "inbox@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "1700000000000", watermark.LastSeenMessage)
	assert.True(t, watermark.LastPolledAt.Equal(polled))
}

func TestLookupsReturnErrNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetContact(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetDraft(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetRunRecord(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetWatermark(ctx, "nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.PatchDraft(ctx, 99, map[string]interface{}{"status": "approved"}), ErrNotFound)
	assert.ErrorIs(t, s.PatchRunRecord(ctx, "missing", nil), ErrNotFound)
}
