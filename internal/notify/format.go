package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// approvalCommandTemplate is the literal contract an operator replies
// with; %d is the draft identifier.
const approvalCommandTemplate = "approve draft %d\nrevise draft %d: <instructions>\nreject draft %d"

// Notification carries everything the approval-request message renders.
type Notification struct {
	DraftID    uint
	ActivityID uint
	Mailbox    string
	Sender     string
	Recipient  string
	ReceivedAt string
	Subject    string
}

// Block is one element of the structured Slack-style message layout.
type Block struct {
	Type string     `json:"type"`
	Text *BlockText `json:"text,omitempty"`
}

// BlockText is the text payload of a section or header block.
type BlockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ApprovalCommands renders the approve/revise/reject command contract for
// a draft.
func ApprovalCommands(draftID uint) string {
	return fmt.Sprintf(approvalCommandTemplate, draftID, draftID, draftID)
}

// PlainText renders the single-line fallback summary for clients that do
// not display blocks.
func (n Notification) PlainText() string {
	return fmt.Sprintf("Draft #%d awaiting approval: reply to %s (%s) in %s, subject %q. Reply with: approve draft %d / revise draft %d: <instructions> / reject draft %d",
		n.DraftID, n.Sender, n.Recipient, n.Mailbox, n.Subject, n.DraftID, n.DraftID, n.DraftID)
}

// Blocks renders the structured approval-request layout.
func (n Notification) Blocks() []Block {
	fields := []string{
		fmt.Sprintf("*Draft:* #%d", n.DraftID),
		fmt.Sprintf("*Mailbox:* %s", n.Mailbox),
		fmt.Sprintf("*From:* %s", n.Sender),
		fmt.Sprintf("*Reply to:* %s", n.Recipient),
		fmt.Sprintf("*Received:* %s", formatReceivedAt(n.ReceivedAt)),
		fmt.Sprintf("*Subject:* %s", n.Subject),
	}
	return []Block{
		{Type: "header", Text: &BlockText{Type: "plain_text", Text: "Reply draft awaiting approval"}},
		{Type: "section", Text: &BlockText{Type: "mrkdwn", Text: strings.Join(fields, "\n")}},
		{Type: "section", Text: &BlockText{Type: "mrkdwn", Text: "```" + ApprovalCommands(n.DraftID) + "```"}},
	}
}

// formatReceivedAt renders a received timestamp as a readable date when it
// parses, the raw value when it does not, and "n/a" when it is empty.
func formatReceivedAt(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "n/a"
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
		if v < 1_000_000_000_000 {
			v *= 1000
		}
		return time.UnixMilli(v).UTC().Format("Jan 2, 2006 15:04 UTC")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC().Format("Jan 2, 2006 15:04 UTC")
	}
	return raw
}
