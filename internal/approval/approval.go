// Package approval interprets the textual approval commands attached to
// every draft notification and advances the draft lifecycle. The triage
// engine itself never moves a draft out of the draft state.
package approval

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"inbox-triage-go/internal/model"
	"inbox-triage-go/internal/store"
)

// Action is one of the three approval verbs.
type Action string

const (
	ActionApprove Action = "approve"
	ActionRevise  Action = "revise"
	ActionReject  Action = "reject"
)

// commandPattern matches the literal command contract:
//
//	approve draft <id>
//	revise draft <id>: <instructions>
//	reject draft <id>
var commandPattern = regexp.MustCompile(`(?i)^\s*(approve|revise|reject)\s+draft\s+(\d+)\s*(?::\s*(.+))?$`)

// Command is one parsed approval command.
type Command struct {
	Action  Action
	DraftID uint
	Note    string
}

// ParseCommand parses an operator command line.
func ParseCommand(text string) (Command, error) {
	m := commandPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Command{}, fmt.Errorf("unrecognized approval command: %q", text)
	}

	id, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return Command{}, fmt.Errorf("invalid draft id in command: %q", m[2])
	}

	cmd := Command{
		Action:  Action(strings.ToLower(m[1])),
		DraftID: uint(id),
		Note:    strings.TrimSpace(m[3]),
	}
	if cmd.Action == ActionRevise && cmd.Note == "" {
		return Command{}, fmt.Errorf("revise command requires instructions after the draft id")
	}
	return cmd, nil
}

// Handler applies parsed commands against the draft store.
type Handler struct {
	store store.Store
}

// NewHandler creates an approval handler.
func NewHandler(st store.Store) *Handler {
	return &Handler{store: st}
}

// Apply advances the draft lifecycle for one command. Approve and reject
// are terminal; revise may be repeated until the draft is resolved.
func (h *Handler) Apply(ctx context.Context, cmd Command) (*model.Draft, error) {
	current, err := h.store.GetDraft(ctx, cmd.DraftID)
	if err != nil {
		return nil, fmt.Errorf("draft %d not found: %w", cmd.DraftID, err)
	}

	if current.Status != model.DraftStatusDraft && current.Status != model.DraftStatusRevised {
		return nil, fmt.Errorf("draft %d is already %s", cmd.DraftID, current.Status)
	}

	fields := map[string]interface{}{}
	switch cmd.Action {
	case ActionApprove:
		fields["status"] = model.DraftStatusApproved
	case ActionReject:
		fields["status"] = model.DraftStatusRejected
	case ActionRevise:
		fields["status"] = model.DraftStatusRevised
		fields["body"] = current.Body + "\n\nRevision instructions: " + cmd.Note
	default:
		return nil, fmt.Errorf("unknown approval action: %s", cmd.Action)
	}

	if err := h.store.PatchDraft(ctx, cmd.DraftID, fields); err != nil {
		return nil, fmt.Errorf("failed to update draft %d: %w", cmd.DraftID, err)
	}

	logrus.Infof("Draft %d %s", cmd.DraftID, fields["status"])
	return h.store.GetDraft(ctx, cmd.DraftID)
}
