package model

import "time"

// LedgerEntry is one row in the scan ledger. A row with no target value
// and no user is a scan marker: the thread was processed, match or not.
// Rows carrying a target value record an actual delivery.
type LedgerEntry struct {
	ID          int
	ThreadURL   string
	TargetValue *string
	UserID      *string
	Transport   *string
	Note        *string
	SentAt      time.Time
}

// IsMarker reports whether the entry only records that a thread was scanned.
func (e LedgerEntry) IsMarker() bool {
	return e.TargetValue == nil && e.UserID == nil
}
