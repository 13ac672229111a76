package memorymanager

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/assistant/memory_manager/providers/storer"
)

const (
	MetaRole      = "role"
	MetaTimestamp = "timestamp"
)

// RecordId builds the unique id of a memory record.
func RecordId(role string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%s", role, ts.Format(time.RFC3339Nano), uuid.NewString()[:8])
}

// Relevant keeps the records within threshold, preserving rank order.
// Distances are float32, so the threshold is compared at that precision.
func Relevant(records []storer.Record, threshold float64) []storer.Record {
	limit := float32(threshold)

	var kept []storer.Record
	for _, rec := range records {
		if rec.Distance > limit {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// Format renders records as "[role at timestamp]: text" entries separated
// by a blank line.
func Format(records []storer.Record) string {
	entries := make([]string, 0, len(records))
	for _, rec := range records {
		entries = append(entries, fmt.Sprintf("[%s at %s]: %s", rec.Metadata[MetaRole], rec.Metadata[MetaTimestamp], rec.Content))
	}
	return strings.Join(entries, "\n\n")
}
