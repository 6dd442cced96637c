package store

import (
	"context"
	"sync"
	"time"

	"inbox-triage-go/internal/model"
)

// MemoryStore implements Store with in-process maps. It backs tests and
// the DB-less "memory" database driver; upsert semantics mirror the GORM
// store exactly.
type MemoryStore struct {
	mu sync.RWMutex

	contacts   map[string]*model.Contact          // email -> contact
	activities map[string]*model.Activity         // dedup key -> activity
	drafts     map[uint]*model.Draft              // activity id -> draft
	records    map[string]*model.FinancialRecord  // dedup key -> record
	runs       map[string]*model.RunRecord        // run id -> run record
	watermarks map[string]*model.MailboxWatermark // mailbox -> watermark

	nextContactID  uint
	nextActivityID uint
	nextDraftID    uint
	nextRecordID   uint
	nextRunID      uint
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contacts:   make(map[string]*model.Contact),
		activities: make(map[string]*model.Activity),
		drafts:     make(map[uint]*model.Draft),
		records:    make(map[string]*model.FinancialRecord),
		runs:       make(map[string]*model.RunRecord),
		watermarks: make(map[string]*model.MailboxWatermark),
	}
}

func (s *MemoryStore) UpsertContact(ctx context.Context, contact *model.Contact) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.contacts[contact.Email]; ok {
		if contact.DisplayName != "" {
			existing.DisplayName = contact.DisplayName
		}
		existing.Mailbox = contact.Mailbox
		if contact.LastSeenAt.After(existing.LastSeenAt) {
			existing.LastSeenAt = contact.LastSeenAt
		}
		existing.UpdatedAt = now
		return existing.ID, nil
	}

	s.nextContactID++
	stored := *contact
	stored.ID = s.nextContactID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.contacts[contact.Email] = &stored
	return stored.ID, nil
}

func (s *MemoryStore) GetContact(ctx context.Context, email string) (*model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contact, ok := s.contacts[email]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *contact
	return &copied, nil
}

func (s *MemoryStore) UpsertActivity(ctx context.Context, activity *model.Activity) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.activities[activity.DedupKey]; ok {
		existing.Label = activity.Label
		existing.Confidence = activity.Confidence
		existing.Reasons = activity.Reasons
		existing.ContactID = activity.ContactID
		existing.SenderName = activity.SenderName
		existing.SenderEmail = activity.SenderEmail
		existing.Subject = activity.Subject
		existing.Snippet = activity.Snippet
		existing.ReceivedAt = activity.ReceivedAt
		existing.RawPayload = activity.RawPayload
		existing.UpdatedAt = now
		return existing.ID, nil
	}

	s.nextActivityID++
	stored := *activity
	stored.ID = s.nextActivityID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.activities[activity.DedupKey] = &stored
	return stored.ID, nil
}

func (s *MemoryStore) ListActivities(ctx context.Context, label string, limit int) ([]model.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var activities []model.Activity
	for _, activity := range s.activities {
		if label != "" && activity.Label != label {
			continue
		}
		activities = append(activities, *activity)
		if limit > 0 && len(activities) == limit {
			break
		}
	}
	return activities, nil
}

func (s *MemoryStore) UpsertDraft(ctx context.Context, draft *model.Draft) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.drafts[draft.ActivityID]; ok {
		existing.Recipient = draft.Recipient
		existing.Subject = draft.Subject
		existing.Body = draft.Body
		existing.ApprovalCommand = draft.ApprovalCommand
		existing.UpdatedAt = now
		return existing.ID, nil
	}

	s.nextDraftID++
	stored := *draft
	stored.ID = s.nextDraftID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.drafts[draft.ActivityID] = &stored
	return stored.ID, nil
}

func (s *MemoryStore) PatchDraft(ctx context.Context, draftID uint, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, draft := range s.drafts {
		if draft.ID != draftID {
			continue
		}
		if v, ok := fields["status"].(string); ok {
			draft.Status = v
		}
		if v, ok := fields["approval_command"].(string); ok {
			draft.ApprovalCommand = v
		}
		if v, ok := fields["notification_summary"].(string); ok {
			draft.NotificationSummary = v
		}
		if v, ok := fields["body"].(string); ok {
			draft.Body = v
		}
		draft.UpdatedAt = time.Now()
		return nil
	}
	return ErrNotFound
}

func (s *MemoryStore) GetDraft(ctx context.Context, draftID uint) (*model.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, draft := range s.drafts {
		if draft.ID == draftID {
			copied := *draft
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListDrafts(ctx context.Context, status string, limit int) ([]model.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var drafts []model.Draft
	for _, draft := range s.drafts {
		if status != "" && draft.Status != status {
			continue
		}
		drafts = append(drafts, *draft)
		if limit > 0 && len(drafts) == limit {
			break
		}
	}
	return drafts, nil
}

func (s *MemoryStore) UpsertFinancialRecord(ctx context.Context, record *model.FinancialRecord) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.records[record.DedupKey]; ok {
		existing.ActivityID = record.ActivityID
		existing.Vendor = record.Vendor
		existing.Amount = record.Amount
		existing.Currency = record.Currency
		existing.RecordDate = record.RecordDate
		existing.UpdatedAt = now
		return existing.ID, nil
	}

	s.nextRecordID++
	stored := *record
	stored.ID = s.nextRecordID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.records[record.DedupKey] = &stored
	return stored.ID, nil
}

func (s *MemoryStore) ListFinancialRecords(ctx context.Context, limit int) ([]model.FinancialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []model.FinancialRecord
	for _, record := range s.records {
		records = append(records, *record)
		if limit > 0 && len(records) == limit {
			break
		}
	}
	return records, nil
}

func (s *MemoryStore) CreateRunRecord(ctx context.Context, run *model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.runs[run.RunID]; ok {
		existing.Status = run.Status
		existing.Degraded = run.Degraded
		existing.Polled = run.Polled
		existing.StartedAt = run.StartedAt
		existing.UpdatedAt = now
		return nil
	}

	s.nextRunID++
	stored := *run
	stored.ID = s.nextRunID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.runs[run.RunID] = &stored
	return nil
}

func (s *MemoryStore) PatchRunRecord(ctx context.Context, runID string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return ErrNotFound
	}
	if v, ok := fields["status"].(string); ok {
		run.Status = v
	}
	if v, ok := fields["degraded"].(bool); ok {
		run.Degraded = v
	}
	if v, ok := fields["polled"].(int); ok {
		run.Polled = v
	}
	if v, ok := fields["processed"].(int); ok {
		run.Processed = v
	}
	if v, ok := fields["activities"].(int); ok {
		run.Activities = v
	}
	if v, ok := fields["drafts"].(int); ok {
		run.Drafts = v
	}
	if v, ok := fields["records"].(int); ok {
		run.Records = v
	}
	if v, ok := fields["label_counts"].(string); ok {
		run.LabelCounts = v
	}
	if v, ok := fields["warnings"].(string); ok {
		run.Warnings = v
	}
	if v, ok := fields["finished_at"].(time.Time); ok {
		run.FinishedAt = v
	}
	run.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) GetRunRecord(ctx context.Context, runID string) (*model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *run
	return &copied, nil
}

func (s *MemoryStore) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []model.RunRecord
	for _, run := range s.runs {
		runs = append(runs, *run)
		if limit > 0 && len(runs) == limit {
			break
		}
	}
	return runs, nil
}

func (s *MemoryStore) UpsertWatermark(ctx context.Context, watermark *model.MailboxWatermark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.watermarks[watermark.Mailbox]; ok {
		existing.LastPolledAt = watermark.LastPolledAt
		if watermark.LastSeenMessage != "" {
			existing.LastSeenMessage = watermark.LastSeenMessage
		}
		existing.UpdatedAt = now
		return nil
	}

	stored := *watermark
	stored.ID = uint(len(s.watermarks) + 1)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.watermarks[watermark.Mailbox] = &stored
	return nil
}

func (s *MemoryStore) GetWatermark(ctx context.Context, mailbox string) (*model.MailboxWatermark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	watermark, ok := s.watermarks[mailbox]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *watermark
	return &copied, nil
}
