// Package store is the persistence boundary. Every table is written
// through upsert-by-unique-key or patch-by-filter primitives so replaying
// a batch refreshes rows instead of duplicating them.
package store

import (
	"context"
	"errors"

	"inbox-triage-go/internal/model"
)

// ErrNotFound is returned when a lookup by unique key matches no row.
var ErrNotFound = errors.New("record not found")

// Store exposes the uniquely-keyed persistence primitives the engine and
// the control API consume. Upserts return the row's identifier; a zero
// identifier after a successful upsert is an invariant violation the
// caller must treat as fatal.
type Store interface {
	// UpsertContact inserts or refreshes a contact by email. The stored
	// last-seen timestamp never regresses.
	UpsertContact(ctx context.Context, contact *model.Contact) (uint, error)
	GetContact(ctx context.Context, email string) (*model.Contact, error)

	// UpsertActivity inserts or refreshes an activity by dedup key.
	UpsertActivity(ctx context.Context, activity *model.Activity) (uint, error)
	ListActivities(ctx context.Context, label string, limit int) ([]model.Activity, error)

	// UpsertDraft inserts or refreshes a draft by activity id (1:1).
	UpsertDraft(ctx context.Context, draft *model.Draft) (uint, error)
	PatchDraft(ctx context.Context, draftID uint, fields map[string]interface{}) error
	GetDraft(ctx context.Context, draftID uint) (*model.Draft, error)
	ListDrafts(ctx context.Context, status string, limit int) ([]model.Draft, error)

	// UpsertFinancialRecord inserts or refreshes a record by dedup key.
	UpsertFinancialRecord(ctx context.Context, record *model.FinancialRecord) (uint, error)
	ListFinancialRecords(ctx context.Context, limit int) ([]model.FinancialRecord, error)

	// CreateRunRecord inserts a run record by run id; a replayed run id
	// resets the existing row to the running state instead of failing.
	CreateRunRecord(ctx context.Context, run *model.RunRecord) error
	PatchRunRecord(ctx context.Context, runID string, fields map[string]interface{}) error
	GetRunRecord(ctx context.Context, runID string) (*model.RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)

	// UpsertWatermark inserts or refreshes a mailbox watermark. An empty
	// LastSeenMessage preserves the previously stored value.
	UpsertWatermark(ctx context.Context, watermark *model.MailboxWatermark) error
	GetWatermark(ctx context.Context, mailbox string) (*model.MailboxWatermark, error)
}
