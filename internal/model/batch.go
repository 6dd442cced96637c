package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// InboundMessage represents one normalized message from a poll batch.
// ReceivedAt carries the producer's timestamp as a string (usually epoch
// milliseconds); InternalEpoch carries the provider's internal date when
// the header timestamp is unusable.
type InboundMessage struct {
	Mailbox       string `json:"mailbox"`
	MessageID     string `json:"message_id"`
	ThreadID      string `json:"thread_id"`
	Subject       string `json:"subject"`
	Sender        string `json:"sender"`
	Snippet       string `json:"snippet"`
	ReceivedAt    string `json:"received_at"`
	InternalEpoch int64  `json:"internal_epoch,omitempty"`
	DedupKey      string `json:"dedup_key"`
	RawPayload    string `json:"raw_payload,omitempty"`
}

// EpochMillis resolves the message timestamp to epoch milliseconds. It
// parses ReceivedAt numerically (seconds or milliseconds), then falls back
// to the provider's internal epoch. ok is false when neither is usable.
func (m InboundMessage) EpochMillis() (int64, bool) {
	if v, err := strconv.ParseInt(strings.TrimSpace(m.ReceivedAt), 10, 64); err == nil && v > 0 {
		if v < 1_000_000_000_000 {
			v *= 1000
		}
		return v, true
	}
	if m.InternalEpoch > 0 {
		return m.InternalEpoch, true
	}
	return 0, false
}

// MailboxSummary represents per-mailbox fetch bookkeeping from the poller.
type MailboxSummary struct {
	Mailbox string `json:"mailbox"`
	Fetched int    `json:"fetched"`
	Error   string `json:"error,omitempty"`
}

// PollBatch represents the output of one poll cycle across all mailboxes.
type PollBatch struct {
	RunID          string           `json:"run_id"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
	PartialFailure bool             `json:"partial_failure"`
	Messages       []InboundMessage `json:"messages"`
	Summaries      []MailboxSummary `json:"summaries,omitempty"`
}

// Validate checks the batch before any persistence happens.
func (b *PollBatch) Validate() error {
	if b.RunID == "" {
		return fmt.Errorf("poll batch is missing a run id")
	}
	for i, msg := range b.Messages {
		if msg.Mailbox == "" || msg.MessageID == "" {
			return fmt.Errorf("message %d is missing mailbox or message id", i)
		}
		if msg.DedupKey == "" {
			return fmt.Errorf("message %d (%s/%s) is missing a dedup key", i, msg.Mailbox, msg.MessageID)
		}
	}
	return nil
}

// GuidanceSection represents one headed section of a guidance snapshot.
type GuidanceSection struct {
	Heading string   `json:"heading"`
	Items   []string `json:"items"`
}

// GuidanceSnapshot represents a cached advisory document. It may be stale
// (Degraded) or absent entirely; consumers must fall back to default text.
type GuidanceSnapshot struct {
	Degraded    bool              `json:"degraded"`
	Source      string            `json:"source"`
	Warnings    []string          `json:"warnings,omitempty"`
	Sections    []GuidanceSection `json:"sections,omitempty"`
	Blocks      []string          `json:"blocks,omitempty"`
	ContentHash string            `json:"content_hash"`
}

// DraftReport represents the outcome of one sales draft within a run.
type DraftReport struct {
	DraftID           uint   `json:"draft_id"`
	ActivityID        uint   `json:"activity_id"`
	Mailbox           string `json:"mailbox"`
	Recipient         string `json:"recipient"`
	NotificationSent  bool   `json:"notification_sent"`
	NotificationError string `json:"notification_error,omitempty"`
}

// RecordReport represents one extracted financial record within a run.
type RecordReport struct {
	RecordID   uint     `json:"record_id"`
	ActivityID uint     `json:"activity_id"`
	Vendor     string   `json:"vendor"`
	Amount     *float64 `json:"amount,omitempty"`
	Currency   string   `json:"currency,omitempty"`
}

// WatermarkUpdate represents one mailbox watermark written during
// finalization.
type WatermarkUpdate struct {
	Mailbox         string    `json:"mailbox"`
	LastPolledAt    time.Time `json:"last_polled_at"`
	LastSeenMessage string    `json:"last_seen_message,omitempty"`
}

// RunTotals holds the aggregate counters of a run.
type RunTotals struct {
	Polled           int `json:"polled"`
	Processed        int `json:"processed"`
	Activities       int `json:"activities"`
	Drafts           int `json:"drafts"`
	FinancialRecords int `json:"financial_records"`
}

// RunResult represents the structured result document produced by every
// completed run.
type RunResult struct {
	RunID       string            `json:"run_id"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Status      string            `json:"status"`
	Degraded    bool              `json:"degraded"`
	Totals      RunTotals         `json:"totals"`
	LabelCounts map[string]int    `json:"label_counts"`
	Drafts      []DraftReport     `json:"drafts,omitempty"`
	Records     []RecordReport    `json:"records,omitempty"`
	Watermarks  []WatermarkUpdate `json:"watermarks,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
}
