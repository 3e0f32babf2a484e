package mq

import "time"

// Routing keys on the events exchange.
const (
	KeyRequestSubmitted = "request.submitted"
	KeyRequestResolved  = "request.resolved"
)

// RequestSubmittedEvent is published when a user files a registration request.
type RequestSubmittedEvent struct {
	RequestID   string    `json:"request_id"`
	Kind        string    `json:"kind"`
	Value       string    `json:"value"`
	RequesterID string    `json:"requester_id"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// RequestResolvedEvent is published when an admin approves or denies a request.
type RequestResolvedEvent struct {
	RequestID   string    `json:"request_id"`
	Kind        string    `json:"kind"`
	Value       string    `json:"value"`
	RequesterID string    `json:"requester_id"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	ResolvedBy  string    `json:"resolved_by"`
	ResolvedAt  time.Time `json:"resolved_at"`
}
