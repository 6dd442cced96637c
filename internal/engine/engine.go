// Package engine runs the classify-and-route pipeline over one poll batch.
// It owns the run lifecycle (created -> processing -> finalizing -> done),
// drives every persistence upsert and produces the structured run result.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"inbox-triage-go/internal/address"
	"inbox-triage-go/internal/classifier"
	"inbox-triage-go/internal/draft"
	"inbox-triage-go/internal/guidance"
	"inbox-triage-go/internal/metrics"
	"inbox-triage-go/internal/model"
	"inbox-triage-go/internal/notify"
	"inbox-triage-go/internal/receipt"
	"inbox-triage-go/internal/store"
)

// runState is the engine-owned lifecycle value. Persistence happens only
// at the created and finalizing transitions.
type runState string

const (
	stateCreated    runState = "CREATED"
	stateProcessing runState = "PROCESSING"
	stateFinalizing runState = "FINALIZING"
	stateDone       runState = "DONE"
)

// Engine sequences classification, bookkeeping and notification for each
// message of a batch.
type Engine struct {
	store    store.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
}

// New creates an engine. The notifier is best-effort; the store is not.
func New(st store.Store, notifier notify.Notifier, m *metrics.Metrics) *Engine {
	return &Engine{store: st, notifier: notifier, metrics: m}
}

// watermarkCandidate tracks the maximum message timestamp seen for one
// mailbox during a run.
type watermarkCandidate struct {
	epochMillis int64
	raw         string
}

// run carries the mutable state of one pipeline execution.
type run struct {
	state        runState
	batch        *model.PollBatch
	cues         []string
	degraded     bool
	notifyFailed bool
	warnings     []string
	labelCounts  map[string]int
	candidates   map[string]*watermarkCandidate
	result       *model.RunResult
}

// Execute processes one poll batch against an optional guidance snapshot.
// Input validation happens before any persistence call; a failed required
// write aborts the run and leaves its record in the running state.
func (e *Engine) Execute(ctx context.Context, batch *model.PollBatch, snapshot *model.GuidanceSnapshot) (*model.RunResult, error) {
	if batch == nil {
		return nil, fmt.Errorf("poll batch is nil")
	}
	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("invalid poll batch: %w", err)
	}

	if e.metrics != nil {
		e.metrics.RunCount.Inc()
	}
	started := time.Now()

	r := &run{
		batch:       batch,
		labelCounts: make(map[string]int),
		candidates:  make(map[string]*watermarkCandidate),
		result: &model.RunResult{
			RunID:       batch.RunID,
			StartedAt:   batch.StartedAt,
			LabelCounts: make(map[string]int),
		},
	}
	r.cues = guidance.ExtractCues(snapshot)
	r.degraded = snapshot == nil || snapshot.Degraded
	if snapshot == nil {
		r.warnings = append(r.warnings, "guidance snapshot unavailable, using default guidance")
	} else {
		if snapshot.Degraded {
			r.warnings = append(r.warnings, "guidance snapshot is degraded")
		}
		r.warnings = append(r.warnings, snapshot.Warnings...)
	}
	for _, summary := range batch.Summaries {
		if summary.Error != "" {
			r.warnings = append(r.warnings, fmt.Sprintf("mailbox %s fetch error: %s", summary.Mailbox, summary.Error))
		}
	}

	if err := e.createRun(ctx, r); err != nil {
		if e.metrics != nil {
			e.metrics.RunFailures.Inc()
		}
		return nil, err
	}
	if err := e.processMessages(ctx, r); err != nil {
		if e.metrics != nil {
			e.metrics.RunFailures.Inc()
		}
		return nil, err
	}
	if err := e.finalize(ctx, r); err != nil {
		if e.metrics != nil {
			e.metrics.RunFailures.Inc()
		}
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RunDuration.Observe(time.Since(started).Seconds())
		if r.result.Status == model.RunStatusPartialFailure {
			e.metrics.PartialFailures.Inc()
		}
	}
	logrus.Infof("Run %s finished with status %s (%d messages, %d drafts, %d records)",
		batch.RunID, r.result.Status, r.result.Totals.Processed, r.result.Totals.Drafts, r.result.Totals.FinancialRecords)
	return r.result, nil
}

// createRun persists the run record with status running.
func (e *Engine) createRun(ctx context.Context, r *run) error {
	r.state = stateCreated
	record := &model.RunRecord{
		RunID:     r.batch.RunID,
		Status:    model.RunStatusRunning,
		Degraded:  r.degraded,
		Polled:    len(r.batch.Messages),
		StartedAt: r.batch.StartedAt,
	}
	if err := e.store.CreateRunRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to create run record: %w", err)
	}
	logrus.Infof("Run %s created with %d polled messages", r.batch.RunID, len(r.batch.Messages))
	return nil
}

// processMessages classifies and routes every message of the batch.
func (e *Engine) processMessages(ctx context.Context, r *run) error {
	r.state = stateProcessing
	for _, msg := range r.batch.Messages {
		if err := e.processMessage(ctx, r, msg); err != nil {
			return fmt.Errorf("failed to process message %s: %w", msg.DedupKey, err)
		}
		r.result.Totals.Processed++
		if e.metrics != nil {
			e.metrics.MessagesProcessed.Inc()
		}
	}
	return nil
}

// processMessage runs the per-message workflow: classify, contact and
// activity bookkeeping, then the label-specific handler.
func (e *Engine) processMessage(ctx context.Context, r *run, msg model.InboundMessage) error {
	result := classifier.Classify(msg.Subject, msg.Snippet, msg.Sender)
	label := string(result.Label)
	r.labelCounts[label]++
	if e.metrics != nil {
		e.metrics.Classifications.WithLabelValues(label).Inc()
	}
	logrus.Debugf("Message %s classified as %s (%.2f): %v", msg.DedupKey, label, result.Confidence, result.Reasons)

	sender := address.Parse(msg.Sender)

	var contactID *uint
	if (result.Label == classifier.LabelSales || result.Label == classifier.LabelSupport) && sender.Email != "" {
		id, err := e.store.UpsertContact(ctx, &model.Contact{
			Email:       sender.Email,
			DisplayName: sender.Name,
			Mailbox:     msg.Mailbox,
			LastSeenAt:  messageTime(msg),
		})
		if err != nil {
			return fmt.Errorf("contact upsert failed: %w", err)
		}
		if id == 0 {
			return fmt.Errorf("contact upsert for %s returned no identifier", sender.Email)
		}
		contactID = &id
	}

	reasons, _ := json.Marshal(result.Reasons)
	activityID, err := e.store.UpsertActivity(ctx, &model.Activity{
		DedupKey:    msg.DedupKey,
		Mailbox:     msg.Mailbox,
		MessageID:   msg.MessageID,
		ThreadID:    msg.ThreadID,
		Label:       label,
		Confidence:  result.Confidence,
		Reasons:     string(reasons),
		ContactID:   contactID,
		SenderName:  sender.Name,
		SenderEmail: sender.Email,
		Subject:     msg.Subject,
		Snippet:     msg.Snippet,
		ReceivedAt:  msg.ReceivedAt,
		RawPayload:  msg.RawPayload,
	})
	if err != nil {
		return fmt.Errorf("activity upsert failed: %w", err)
	}
	if activityID == 0 {
		return fmt.Errorf("activity upsert for %s returned no identifier", msg.DedupKey)
	}
	r.result.Totals.Activities++

	r.observeTimestamp(msg)

	switch result.Label {
	case classifier.LabelSales:
		return e.handleSales(ctx, r, msg, sender, activityID)
	case classifier.LabelReceipt:
		return e.handleReceipt(ctx, r, msg, activityID)
	}
	return nil
}

// handleSales builds and stores the reply draft, then attempts the
// approval notification. Send failures are per-draft outcomes, never run
// failures.
func (e *Engine) handleSales(ctx context.Context, r *run, msg model.InboundMessage, sender address.Sender, activityID uint) error {
	subject, body := draft.Compose(msg, r.cues)

	recipient := sender.Email
	if recipient == "" {
		recipient = msg.Sender
	}

	draftID, err := e.store.UpsertDraft(ctx, &model.Draft{
		ActivityID: activityID,
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		Status:     model.DraftStatusDraft,
	})
	if err != nil {
		return fmt.Errorf("draft upsert failed: %w", err)
	}
	if draftID == 0 {
		return fmt.Errorf("draft upsert for activity %d returned no identifier", activityID)
	}
	if e.metrics != nil {
		e.metrics.DraftsCreated.Inc()
	}
	r.result.Totals.Drafts++

	notification := notify.Notification{
		DraftID:    draftID,
		ActivityID: activityID,
		Mailbox:    msg.Mailbox,
		Sender:     msg.Sender,
		Recipient:  recipient,
		ReceivedAt: msg.ReceivedAt,
		Subject:    msg.Subject,
	}
	if err := e.store.PatchDraft(ctx, draftID, map[string]interface{}{
		"approval_command":     notify.ApprovalCommands(draftID),
		"notification_summary": notification.PlainText(),
	}); err != nil {
		return fmt.Errorf("draft patch failed: %w", err)
	}

	report := model.DraftReport{
		DraftID:    draftID,
		ActivityID: activityID,
		Mailbox:    msg.Mailbox,
		Recipient:  recipient,
	}
	if err := e.notifier.Send(ctx, notification); err != nil {
		logrus.Warnf("Notification send failed for draft %d: %v", draftID, err)
		report.NotificationError = err.Error()
		r.notifyFailed = true
		r.warnings = append(r.warnings, fmt.Sprintf("notification failed for draft %d: %v", draftID, err))
		if e.metrics != nil {
			e.metrics.NotificationFailures.Inc()
		}
	} else {
		report.NotificationSent = true
	}
	r.result.Drafts = append(r.result.Drafts, report)
	return nil
}

// handleReceipt extracts and stores the financial record.
func (e *Engine) handleReceipt(ctx context.Context, r *run, msg model.InboundMessage, activityID uint) error {
	extraction := receipt.Parse(msg)

	recordID, err := e.store.UpsertFinancialRecord(ctx, &model.FinancialRecord{
		DedupKey:   msg.DedupKey,
		ActivityID: activityID,
		Vendor:     extraction.Vendor,
		Amount:     extraction.Amount,
		Currency:   extraction.Currency,
		RecordDate: extraction.RecordDate,
	})
	if err != nil {
		return fmt.Errorf("financial record upsert failed: %w", err)
	}
	if recordID == 0 {
		return fmt.Errorf("financial record upsert for %s returned no identifier", msg.DedupKey)
	}
	if e.metrics != nil {
		e.metrics.RecordsExtracted.Inc()
	}
	r.result.Totals.FinancialRecords++

	r.result.Records = append(r.result.Records, model.RecordReport{
		RecordID:   recordID,
		ActivityID: activityID,
		Vendor:     extraction.Vendor,
		Amount:     extraction.Amount,
		Currency:   extraction.Currency,
	})
	return nil
}

// finalize writes every observed mailbox watermark and patches the run
// record to its terminal status exactly once.
func (e *Engine) finalize(ctx context.Context, r *run) error {
	r.state = stateFinalizing
	now := time.Now()

	for _, mailbox := range r.observedMailboxes() {
		watermark := &model.MailboxWatermark{
			Mailbox:      mailbox,
			LastPolledAt: now,
		}
		if candidate, ok := r.candidates[mailbox]; ok {
			watermark.LastSeenMessage = candidate.raw
		}
		if err := e.store.UpsertWatermark(ctx, watermark); err != nil {
			return fmt.Errorf("watermark upsert failed for %s: %w", mailbox, err)
		}
		r.result.Watermarks = append(r.result.Watermarks, model.WatermarkUpdate{
			Mailbox:         mailbox,
			LastPolledAt:    now,
			LastSeenMessage: watermark.LastSeenMessage,
		})
	}

	status := model.RunStatusOK
	if r.batch.PartialFailure || r.notifyFailed {
		status = model.RunStatusPartialFailure
	}

	labelCounts, _ := json.Marshal(r.labelCounts)
	warnings, _ := json.Marshal(r.warnings)
	finished := time.Now()
	if err := e.store.PatchRunRecord(ctx, r.batch.RunID, map[string]interface{}{
		"status":       status,
		"degraded":     r.degraded,
		"polled":       len(r.batch.Messages),
		"processed":    r.result.Totals.Processed,
		"activities":   r.result.Totals.Activities,
		"drafts":       r.result.Totals.Drafts,
		"records":      r.result.Totals.FinancialRecords,
		"label_counts": string(labelCounts),
		"warnings":     string(warnings),
		"finished_at":  finished,
	}); err != nil {
		return fmt.Errorf("failed to finalize run record: %w", err)
	}

	r.state = stateDone
	r.result.Status = status
	r.result.Degraded = r.degraded
	r.result.FinishedAt = finished
	r.result.Totals.Polled = len(r.batch.Messages)
	for label, count := range r.labelCounts {
		r.result.LabelCounts[label] = count
	}
	r.result.Warnings = r.warnings
	return nil
}

// observeTimestamp folds one message into its mailbox's watermark
// candidate. The reduction is a deterministic max over epoch millis, so
// message order never changes the outcome.
func (r *run) observeTimestamp(msg model.InboundMessage) {
	millis, ok := msg.EpochMillis()
	if !ok {
		return
	}
	raw := msg.ReceivedAt
	if raw == "" {
		raw = strconv.FormatInt(millis, 10)
	}
	candidate, exists := r.candidates[msg.Mailbox]
	if !exists || millis > candidate.epochMillis {
		r.candidates[msg.Mailbox] = &watermarkCandidate{epochMillis: millis, raw: raw}
	}
}

// observedMailboxes returns the sorted union of mailboxes seen in messages
// and batch summaries.
func (r *run) observedMailboxes() []string {
	seen := make(map[string]struct{})
	for _, msg := range r.batch.Messages {
		seen[msg.Mailbox] = struct{}{}
	}
	for _, summary := range r.batch.Summaries {
		if summary.Mailbox != "" {
			seen[summary.Mailbox] = struct{}{}
		}
	}
	mailboxes := make([]string, 0, len(seen))
	for mailbox := range seen {
		mailboxes = append(mailboxes, mailbox)
	}
	sort.Strings(mailboxes)
	return mailboxes
}

func messageTime(msg model.InboundMessage) time.Time {
	if millis, ok := msg.EpochMillis(); ok {
		return time.UnixMilli(millis).UTC()
	}
	return time.Now().UTC()
}
