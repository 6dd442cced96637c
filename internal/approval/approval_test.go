package approval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inbox-triage-go/internal/model"
	"inbox-triage-go/internal/store"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Command
		wantErr bool
	}{
		{
			name:  "approve",
			input: "approve draft 12",
			want:  Command{Action: ActionApprove, DraftID: 12},
		},
		{
			name:  "reject",
			input: "reject draft 3",
			want:  Command{Action: ActionReject, DraftID: 3},
		},
		{
			name:  "revise with instructions",
			input: "revise draft 7: mention the Q4 discount and shorten the opening",
			want:  Command{Action: ActionRevise, DraftID: 7, Note: "mention the Q4 discount and shorten the opening"},
		},
		{
			name:  "case insensitive with surrounding whitespace",
			input: "  APPROVE DRAFT 9  ",
			want:  Command{Action: ActionApprove, DraftID: 9},
		},
		{
			name:    "revise without instructions",
			input:   "revise draft 7",
			wantErr: true,
		},
		{
			name:    "revise with empty instructions",
			input:   "revise draft 7:   ",
			wantErr: true,
		},
		{
			name:    "unknown verb",
			input:   "publish draft 7",
			wantErr: true,
		},
		{
			name:    "missing draft id",
			input:   "approve draft",
			wantErr: true,
		},
		{
			name:    "free text",
			input:   "looks good to me",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func seedDraft(t *testing.T, st store.Store) uint {
	t.Helper()
	id, err := st.UpsertDraft(context.Background(), &model.Draft{
		ActivityID: 1,
		Recipient:  "jane@acmeco.com",
		Subject:    "Re: Consulting inquiry",
		Body:       "Hi Jane,",
		Status:     model.DraftStatusDraft,
	})
	require.NoError(t, err)
	return id
}

func TestApproveIsTerminal(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	h := NewHandler(st)
	id := seedDraft(t, st)

	draft, err := h.Apply(ctx, Command{Action: ActionApprove, DraftID: id})
	require.NoError(t, err)
	assert.Equal(t, model.DraftStatusApproved, draft.Status)

	_, err = h.Apply(ctx, Command{Action: ActionReject, DraftID: id})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already approved")
}

func TestRejectIsTerminal(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	h := NewHandler(st)
	id := seedDraft(t, st)

	draft, err := h.Apply(ctx, Command{Action: ActionReject, DraftID: id})
	require.NoError(t, err)
	assert.Equal(t, model.DraftStatusRejected, draft.Status)

	_, err = h.Apply(ctx, Command{Action: ActionApprove, DraftID: id})
	assert.Error(t, err)
}

func TestReviseAppendsInstructionsAndMayRepeat(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	h := NewHandler(st)
	id := seedDraft(t, st)

	draft, err := h.Apply(ctx, Command{Action: ActionRevise, DraftID: id, Note: "shorten the opening"})
	require.NoError(t, err)
	assert.Equal(t, model.DraftStatusRevised, draft.Status)
	assert.Contains(t, draft.Body, "Revision instructions: shorten the opening")

	draft, err = h.Apply(ctx, Command{Action: ActionRevise, DraftID: id, Note: "add the case study link"})
	require.NoError(t, err)
	assert.Equal(t, model.DraftStatusRevised, draft.Status)
	assert.Contains(t, draft.Body, "Revision instructions: add the case study link")

	draft, err = h.Apply(ctx, Command{Action: ActionApprove, DraftID: id})
	require.NoError(t, err)
	assert.Equal(t, model.DraftStatusApproved, draft.Status)
}

func TestApplyUnknownDraft(t *testing.T) {
	h := NewHandler(store.NewMemoryStore())
	_, err := h.Apply(context.Background(), Command{Action: ActionApprove, DraftID: 42})
	assert.Error(t, err)
}
