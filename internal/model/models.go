package model

import (
	"time"
)

// Run status values. A run record transitions from StatusRunning to exactly
// one terminal status.
const (
	RunStatusRunning        = "running"
	RunStatusOK             = "ok"
	RunStatusPartialFailure = "partial_failure"
)

// Draft status values. The orchestrator only ever writes StatusDraft;
// the approval handler owns the other transitions.
const (
	DraftStatusDraft    = "draft"
	DraftStatusApproved = "approved"
	DraftStatusRevised  = "revised"
	DraftStatusRejected = "rejected"
)

// Contact represents a known human correspondent, keyed by sender email.
type Contact struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email       string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName string    `json:"display_name" gorm:"type:varchar(255)"`
	Mailbox     string    `json:"mailbox" gorm:"type:varchar(255)"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Contact
func (Contact) TableName() string {
	return "contacts"
}

// Activity represents one classified inbound message. The dedup key
// (mailbox + message id) guarantees at most one row per physical message
// no matter how many times the same batch is replayed.
type Activity struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	DedupKey    string    `json:"dedup_key" gorm:"type:varchar(512);not null;uniqueIndex"`
	Mailbox     string    `json:"mailbox" gorm:"type:varchar(255);not null;index"`
	MessageID   string    `json:"message_id" gorm:"type:varchar(255);not null"`
	ThreadID    string    `json:"thread_id" gorm:"type:varchar(255)"`
	Label       string    `json:"label" gorm:"type:varchar(32);not null;index"`
	Confidence  float64   `json:"confidence"`
	Reasons     string    `json:"reasons" gorm:"type:text"`
	ContactID   *uint     `json:"contact_id" gorm:"index"`
	SenderName  string    `json:"sender_name" gorm:"type:varchar(255)"`
	SenderEmail string    `json:"sender_email" gorm:"type:varchar(255);index"`
	Subject     string    `json:"subject" gorm:"type:text"`
	Snippet     string    `json:"snippet" gorm:"type:text"`
	ReceivedAt  string    `json:"received_at" gorm:"type:varchar(64)"`
	RawPayload  string    `json:"raw_payload" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Contact *Contact `json:"contact,omitempty" gorm:"foreignKey:ContactID"`
}

// TableName specifies the table name for Activity
func (Activity) TableName() string {
	return "activities"
}

// Draft represents an unsent reply awaiting human approval. At most one
// draft exists per activity.
type Draft struct {
	ID                  uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ActivityID          uint      `json:"activity_id" gorm:"not null;uniqueIndex"`
	Recipient           string    `json:"recipient" gorm:"type:varchar(255);not null"`
	Subject             string    `json:"subject" gorm:"type:text"`
	Body                string    `json:"body" gorm:"type:text"`
	Status              string    `json:"status" gorm:"type:varchar(32);not null;index"`
	ApprovalCommand     string    `json:"approval_command" gorm:"type:text"`
	NotificationSummary string    `json:"notification_summary" gorm:"type:text"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	Activity *Activity `json:"activity,omitempty" gorm:"foreignKey:ActivityID"`
}

// TableName specifies the table name for Draft
func (Draft) TableName() string {
	return "drafts"
}

// FinancialRecord represents a vendor/amount/currency extraction from a
// receipt-labeled message, keyed by the same dedup key as its activity.
type FinancialRecord struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	DedupKey   string    `json:"dedup_key" gorm:"type:varchar(512);not null;uniqueIndex"`
	ActivityID uint      `json:"activity_id" gorm:"not null;index"`
	Vendor     string    `json:"vendor" gorm:"type:varchar(255)"`
	Amount     *float64  `json:"amount"`
	Currency   string    `json:"currency" gorm:"type:varchar(8)"`
	RecordDate time.Time `json:"record_date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Activity *Activity `json:"activity,omitempty" gorm:"foreignKey:ActivityID"`
}

// TableName specifies the table name for FinancialRecord
func (FinancialRecord) TableName() string {
	return "financial_records"
}

// RunRecord represents one execution of the triage pipeline over a single
// poll batch.
type RunRecord struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	RunID       string    `json:"run_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	Status      string    `json:"status" gorm:"type:varchar(32);not null;index"`
	Degraded    bool      `json:"degraded"`
	Polled      int       `json:"polled"`
	Processed   int       `json:"processed"`
	Activities  int       `json:"activities"`
	Drafts      int       `json:"drafts"`
	Records     int       `json:"records"`
	LabelCounts string    `json:"label_counts" gorm:"type:text"`
	Warnings    string    `json:"warnings" gorm:"type:text"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for RunRecord
func (RunRecord) TableName() string {
	return "run_records"
}

// MailboxWatermark represents the latest message timestamp seen per
// mailbox, used to avoid re-fetching older messages on future polls.
type MailboxWatermark struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Mailbox         string    `json:"mailbox" gorm:"type:varchar(255);not null;uniqueIndex"`
	LastPolledAt    time.Time `json:"last_polled_at"`
	LastSeenMessage string    `json:"last_seen_message" gorm:"type:varchar(64)"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for MailboxWatermark
func (MailboxWatermark) TableName() string {
	return "mailbox_watermarks"
}
