package guidance

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"inbox-triage-go/internal/model"
)

// LoadSnapshot reads a cached guidance snapshot from disk. A missing or
// unreadable snapshot is a degraded condition, not an error: the caller
// gets nil plus a warning string and continues with default guidance.
func LoadSnapshot(path string) (*model.GuidanceSnapshot, string) {
	if path == "" {
		return nil, "no guidance snapshot configured"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Warnf("Failed to read guidance snapshot %s: %v", path, err)
		return nil, fmt.Sprintf("guidance snapshot unreadable: %v", err)
	}

	var snapshot model.GuidanceSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		logrus.Warnf("Failed to parse guidance snapshot %s: %v", path, err)
		return nil, fmt.Sprintf("guidance snapshot malformed: %v", err)
	}

	if snapshot.Degraded {
		return &snapshot, fmt.Sprintf("guidance snapshot from %s is marked degraded", snapshot.Source)
	}
	return &snapshot, ""
}
