// Package guidance extracts short advisory cues from a cached guidance
// snapshot. Snapshots may be stale or missing entirely; callers always get
// a usable (possibly empty) cue list and fall back to default text.
package guidance

import (
	"strings"

	"inbox-triage-go/internal/model"
)

// maxCues caps how many guidance lines are attached to a draft.
const maxCues = 6

// relevanceKeywords filters snapshot lines down to the ones worth citing
// in a reply draft.
var relevanceKeywords = []string{
	"qualification",
	"response",
	"lead",
	"sponsorship",
	"timeline",
	"pricing",
}

// DefaultCues is used when no snapshot is available or nothing relevant
// was found in it.
var DefaultCues = []string{
	"Qualify the lead: confirm objective, timeline and budget before committing.",
	"Respond within one business day to keep the lead warm.",
}

// ExtractCues collects relevant, deduplicated lines from the snapshot's
// sections, falling back to its unstructured blocks when no sections
// exist. A nil snapshot yields an empty list.
func ExtractCues(snapshot *model.GuidanceSnapshot) []string {
	if snapshot == nil {
		return nil
	}

	var lines []string
	if len(snapshot.Sections) > 0 {
		for _, section := range snapshot.Sections {
			lines = append(lines, section.Heading)
			lines = append(lines, section.Items...)
		}
	} else {
		lines = append(lines, snapshot.Blocks...)
	}

	seen := make(map[string]struct{})
	var cues []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || !relevant(line) {
			continue
		}
		key := strings.ToLower(line)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cues = append(cues, line)
		if len(cues) == maxCues {
			break
		}
	}
	return cues
}

func relevant(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range relevanceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
