package model

import "time"

// Category partitions the forum into language sections.
type Category string

const (
	CategoryDE Category = "de"
	CategoryPL Category = "pl"
)

// TargetKind distinguishes the two things a user can watch.
type TargetKind string

const (
	KindPlayerID  TargetKind = "player"
	KindAdminName TargetKind = "admin"
)

// WatchTarget binds a player ID or admin name to the user who owns the
// watch, scoped to one category. Immutable once created except for deletion.
type WatchTarget struct {
	ID        int
	Kind      TargetKind
	Value     string
	OwnerID   string
	Category  Category
	CreatedAt time.Time
}
