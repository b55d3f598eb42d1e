package util

import (
	"path"
	"slices"
)

const (
	RunStatusNoStatus   = "no_status"
	RunStatusProcessing = "processing"
	RunStatusProcessed  = "processed"
)

// RunStatusFromKeys derives the state of a run from the object keys stored
// under its prefix. A run is processed once every name in required exists.
func RunStatusFromKeys(keys []string, required ...string) string {
	if len(keys) == 0 {
		return RunStatusNoStatus
	}

	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, path.Base(k))
	}
	for _, r := range required {
		if !slices.Contains(names, r) {
			return RunStatusProcessing
		}
	}
	return RunStatusProcessed
}
