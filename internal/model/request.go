package model

import "time"

// RequestStatus tracks the lifecycle of a registration request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusDenied   RequestStatus = "denied"
)

// RegistrationRequest is a user's pending claim on a watch target.
// RequestID is the short external handle admins act on; ID is internal.
type RegistrationRequest struct {
	ID          int
	RequestID   string
	Kind        TargetKind
	Value       string
	RequesterID string
	Category    Category
	Status      RequestStatus
	ResolvedBy  string
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}
