package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotification() Notification {
	return Notification{
		DraftID:    7,
		ActivityID: 12,
		Mailbox:    "inbox@acme.com",
		Sender:     "Jane Doe <jane@acmeco.com>",
		Recipient:  "jane@acmeco.com",
		ReceivedAt: "1700000000000",
		Subject:    "Consulting inquiry",
	}
}

func TestApprovalCommandsContract(t *testing.T) {
	commands := ApprovalCommands(7)
	assert.Contains(t, commands, "approve draft 7")
	assert.Contains(t, commands, "revise draft 7: <instructions>")
	assert.Contains(t, commands, "reject draft 7")
}

func TestPlainTextSummary(t *testing.T) {
	text := testNotification().PlainText()
	assert.Contains(t, text, "Draft #7")
	assert.Contains(t, text, "jane@acmeco.com")
	assert.Contains(t, text, "Consulting inquiry")
	assert.Contains(t, text, "approve draft 7")
}

func TestBlocksLayout(t *testing.T) {
	blocks := testNotification().Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, "header", blocks[0].Type)
	assert.Contains(t, blocks[1].Text.Text, "*Draft:* #7")
	assert.Contains(t, blocks[1].Text.Text, "*Subject:* Consulting inquiry")
	assert.Contains(t, blocks[2].Text.Text, "approve draft 7")
}

func TestFormatReceivedAt(t *testing.T) {
	assert.Equal(t, "n/a", formatReceivedAt(""))
	assert.Equal(t, "sometime yesterday", formatReceivedAt("sometime yesterday"))
	assert.Equal(t, "Nov 14, 2023 22:13 UTC", formatReceivedAt("1700000000000"))
	assert.Equal(t, "Nov 14, 2023 22:13 UTC", formatReceivedAt("1700000000"))
	assert.Equal(t, "Nov 14, 2023 22:13 UTC", formatReceivedAt("2023-11-14T22:13:20Z"))
}

func TestSlackNotifierSend(t *testing.T) {
	var payload slackPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier := NewSlackNotifier(srv.URL)
	err := notifier.Send(context.Background(), testNotification())
	require.NoError(t, err)
	assert.Contains(t, payload.Text, "Draft #7")
	assert.Len(t, payload.Blocks, 3)
}

func TestSlackNotifierSendFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	notifier := NewSlackNotifier(srv.URL)
	assert.Error(t, notifier.Send(context.Background(), testNotification()))
}

func TestSlackNotifierMissingWebhook(t *testing.T) {
	notifier := NewSlackNotifier("")
	assert.Error(t, notifier.Send(context.Background(), testNotification()))
}
