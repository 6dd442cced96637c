// Package draft composes reply drafts for sales-labeled messages. Drafts
// are never sent by this service; they wait for an explicit human approval
// action.
package draft

import (
	"fmt"
	"strings"

	"inbox-triage-go/internal/address"
	"inbox-triage-go/internal/guidance"
	"inbox-triage-go/internal/model"
)

const replyPrefix = "Re: "

// genericGreeting is used when the sender has no usable first name.
const genericGreeting = "there"

// defaultIntent is used when the message carries no snippet to restate.
const defaultIntent = "Thanks for reaching out about working together."

// Compose builds the reply subject and body for a sales message. The cues
// slice comes from the guidance extractor; when it is empty the body falls
// back to the default guidance bullets.
func Compose(msg model.InboundMessage, cues []string) (subject, body string) {
	return Subject(msg.Subject), composeBody(msg, cues)
}

// Subject prefixes the original subject with the reply marker unless it is
// already a reply. The check is case-insensitive and tolerates a missing
// space after the marker ("RE:Consulting inquiry").
func Subject(original string) string {
	trimmed := strings.TrimSpace(original)
	if strings.HasPrefix(strings.ToLower(trimmed), "re:") {
		return trimmed
	}
	return replyPrefix + trimmed
}

func composeBody(msg model.InboundMessage, cues []string) string {
	sender := address.Parse(msg.Sender)

	greeting := sender.FirstName()
	if greeting == "" {
		greeting = genericGreeting
	}

	intent := defaultIntent
	if snippet := strings.TrimSpace(msg.Snippet); snippet != "" {
		intent = fmt.Sprintf("Thanks for reaching out. You mentioned: %q", snippet)
	}

	if len(cues) == 0 {
		cues = guidance.DefaultCues
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", greeting)
	fmt.Fprintf(&b, "%s\n\n", intent)
	b.WriteString("To make sure we scope this well, could you share:\n")
	b.WriteString("1. The objective you want this engagement to achieve\n")
	b.WriteString("2. The timeline you are working against\n")
	b.WriteString("3. Your budget range and decision criteria\n\n")
	b.WriteString("Notes from our engagement guidance:\n")
	for _, cue := range cues {
		fmt.Fprintf(&b, "- %s\n", cue)
	}
	b.WriteString("\nBest regards\n")
	return b.String()
}
