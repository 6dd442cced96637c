package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inbox-triage-go/internal/model"
)

// GormStore implements Store on top of GORM/MySQL using
// INSERT ... ON DUPLICATE KEY UPDATE upserts.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store backed by an open GORM connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates all six tables.
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(
		&model.Contact{},
		&model.Activity{},
		&model.Draft{},
		&model.FinancialRecord{},
		&model.RunRecord{},
		&model.MailboxWatermark{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}

// UpsertContact inserts or refreshes a contact by email. GREATEST keeps
// the stored last-seen timestamp monotonic; an empty incoming display name
// leaves the stored one untouched.
func (s *GormStore) UpsertContact(ctx context.Context, contact *model.Contact) (uint, error) {
	assignments := map[string]interface{}{
		"mailbox":      contact.Mailbox,
		"last_seen_at": gorm.Expr("GREATEST(last_seen_at, VALUES(last_seen_at))"),
	}
	if contact.DisplayName != "" {
		assignments["display_name"] = contact.DisplayName
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(contact)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to upsert contact: %w", result.Error)
	}

	stored, err := s.GetContact(ctx, contact.Email)
	if err != nil {
		return 0, fmt.Errorf("failed to read back contact %s: %w", contact.Email, err)
	}
	return stored.ID, nil
}

func (s *GormStore) GetContact(ctx context.Context, email string) (*model.Contact, error) {
	var contact model.Contact
	if err := s.first(ctx, &contact, "email = ?", email); err != nil {
		return nil, err
	}
	return &contact, nil
}

// UpsertActivity inserts or refreshes an activity by dedup key.
func (s *GormStore) UpsertActivity(ctx context.Context, activity *model.Activity) (uint, error) {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "dedup_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"label", "confidence", "reasons", "contact_id",
			"sender_name", "sender_email", "subject", "snippet",
			"received_at", "raw_payload",
		}),
	}).Create(activity)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to upsert activity: %w", result.Error)
	}

	var stored model.Activity
	if err := s.first(ctx, &stored, "dedup_key = ?", activity.DedupKey); err != nil {
		return 0, fmt.Errorf("failed to read back activity %s: %w", activity.DedupKey, err)
	}
	return stored.ID, nil
}

func (s *GormStore) ListActivities(ctx context.Context, label string, limit int) ([]model.Activity, error) {
	var activities []model.Activity
	query := s.db.WithContext(ctx).Order("id DESC")
	if label != "" {
		query = query.Where("label = ?", label)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

// UpsertDraft inserts or refreshes a draft by activity id. Status is
// deliberately excluded from the refresh: only the approval handler moves
// a draft out of the draft state.
func (s *GormStore) UpsertDraft(ctx context.Context, draft *model.Draft) (uint, error) {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "activity_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"recipient", "subject", "body", "approval_command",
		}),
	}).Create(draft)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to upsert draft: %w", result.Error)
	}

	var stored model.Draft
	if err := s.first(ctx, &stored, "activity_id = ?", draft.ActivityID); err != nil {
		return 0, fmt.Errorf("failed to read back draft for activity %d: %w", draft.ActivityID, err)
	}
	return stored.ID, nil
}

func (s *GormStore) PatchDraft(ctx context.Context, draftID uint, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&model.Draft{}).Where("id = ?", draftID).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to patch draft %d: %w", draftID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetDraft(ctx context.Context, draftID uint) (*model.Draft, error) {
	var draft model.Draft
	if err := s.first(ctx, &draft, "id = ?", draftID); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *GormStore) ListDrafts(ctx context.Context, status string, limit int) ([]model.Draft, error) {
	var drafts []model.Draft
	query := s.db.WithContext(ctx).Order("id DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&drafts).Error; err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return drafts, nil
}

// UpsertFinancialRecord inserts or refreshes a record by dedup key.
func (s *GormStore) UpsertFinancialRecord(ctx context.Context, record *model.FinancialRecord) (uint, error) {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "dedup_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"activity_id", "vendor", "amount", "currency", "record_date",
		}),
	}).Create(record)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to upsert financial record: %w", result.Error)
	}

	var stored model.FinancialRecord
	if err := s.first(ctx, &stored, "dedup_key = ?", record.DedupKey); err != nil {
		return 0, fmt.Errorf("failed to read back financial record %s: %w", record.DedupKey, err)
	}
	return stored.ID, nil
}

func (s *GormStore) ListFinancialRecords(ctx context.Context, limit int) ([]model.FinancialRecord, error) {
	var records []model.FinancialRecord
	query := s.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list financial records: %w", err)
	}
	return records, nil
}

// CreateRunRecord inserts a run record, or resets an existing one with the
// same run id back to the running state. Replaying a batch reuses its run
// id, so the row is refreshed in place instead of failing the unique index.
func (s *GormStore) CreateRunRecord(ctx context.Context, run *model.RunRecord) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "run_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "degraded", "polled", "started_at",
		}),
	}).Create(run)
	if result.Error != nil {
		return fmt.Errorf("failed to create run record: %w", result.Error)
	}
	return nil
}

func (s *GormStore) PatchRunRecord(ctx context.Context, runID string, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&model.RunRecord{}).Where("run_id = ?", runID).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to patch run record %s: %w", runID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetRunRecord(ctx context.Context, runID string) (*model.RunRecord, error) {
	var run model.RunRecord
	if err := s.first(ctx, &run, "run_id = ?", runID); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *GormStore) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	var runs []model.RunRecord
	query := s.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list run records: %w", err)
	}
	return runs, nil
}

// UpsertWatermark inserts or refreshes a mailbox watermark. last_polled_at
// is always refreshed; last_seen_message only when the run produced one.
func (s *GormStore) UpsertWatermark(ctx context.Context, watermark *model.MailboxWatermark) error {
	assignments := map[string]interface{}{
		"last_polled_at": watermark.LastPolledAt,
	}
	if watermark.LastSeenMessage != "" {
		assignments["last_seen_message"] = watermark.LastSeenMessage
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mailbox"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(watermark)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert watermark for %s: %w", watermark.Mailbox, result.Error)
	}
	return nil
}

func (s *GormStore) GetWatermark(ctx context.Context, mailbox string) (*model.MailboxWatermark, error) {
	var watermark model.MailboxWatermark
	if err := s.first(ctx, &watermark, "mailbox = ?", mailbox); err != nil {
		return nil, err
	}
	return &watermark, nil
}

func (s *GormStore) first(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	err := s.db.WithContext(ctx).Where(query, args...).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}
