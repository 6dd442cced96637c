// Package poll produces normalized message batches from mail providers.
// Sources are external collaborators of the triage engine: they only
// supply a PollBatch with stable dedup keys and per-mailbox summaries.
package poll

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"inbox-triage-go/internal/model"
)

// snippetLimit caps how much body text enters a message snippet.
const snippetLimit = 280

// Source fetches new messages from one or more mailboxes and packages them
// as a poll batch.
type Source interface {
	Poll(ctx context.Context) (*model.PollBatch, error)
	Close() error
}

// DedupKey builds the composite identifier guaranteeing at most one
// activity per physical message.
func DedupKey(mailbox, messageID string) string {
	return fmt.Sprintf("%s:%s", mailbox, messageID)
}

// snippet collapses whitespace and truncates body text to a short preview.
func snippet(body string) string {
	collapsed := strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(collapsed) <= snippetLimit {
		return collapsed
	}
	runes := []rune(collapsed)
	return string(runes[:snippetLimit])
}
