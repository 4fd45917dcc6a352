package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewRunID creates a unique ID for a single poll
func NewRunID() string {
	return "run_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// RunPartitionKey groups run history by provider
func RunPartitionKey(provider string) string {
	return "PROVIDER#" + strings.ToLower(provider)
}

// RunSortKey orders runs chronologically within a provider
func RunSortKey(startedAt time.Time, runID string) string {
	return fmt.Sprintf("RUN#%s#%s", startedAt.UTC().Format(time.RFC3339), runID)
}

// NewRunRecord builds a history entry with its table keys populated
func NewRunRecord(runID, provider string, req SearchRequest, startedAt time.Time) RunRecord {
	return RunRecord{
		PK:        RunPartitionKey(provider),
		SK:        RunSortKey(startedAt, runID),
		RunID:     runID,
		Provider:  provider,
		StartedAt: startedAt,
		Request:   req,
	}
}

// NormalizeRegion upper-cases and trims a state code
func NormalizeRegion(region string) string {
	return strings.ToUpper(strings.TrimSpace(region))
}

// JoinNonEmpty joins the non-blank parts with sep
func JoinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
