package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"forumwatch/internal/model"
	"forumwatch/internal/mq"
	"forumwatch/internal/repository"
)

// RequestStore is the persistence the workflow needs.
type RequestStore interface {
	Create(ctx context.Context, req *model.RegistrationRequest) error
	ByRequestID(ctx context.Context, requestID string) (*model.RegistrationRequest, error)
	Pending(ctx context.Context) ([]model.RegistrationRequest, error)
	Resolve(ctx context.Context, requestID string, status model.RequestStatus, resolvedBy string) (bool, error)
}

// EventPublisher pushes workflow events onto the message bus.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// RequestWorkflow runs the submit/approve/deny lifecycle of registration
// requests. Approval is the only path that mutates the watch list here.
type RequestWorkflow struct {
	requests  RequestStore
	targets   TargetStore
	publisher EventPublisher
	logger    *zap.Logger
}

func NewRequestWorkflow(requests RequestStore, targets TargetStore, publisher EventPublisher, logger *zap.Logger) *RequestWorkflow {
	return &RequestWorkflow{
		requests:  requests,
		targets:   targets,
		publisher: publisher,
		logger:    logger,
	}
}

// Submit files a new registration request. A value already on the watch
// list is refused outright, whoever owns it; only direct admin
// registration may add a second owner.
func (w *RequestWorkflow) Submit(ctx context.Context, kind model.TargetKind, value, requesterID string, category model.Category) (*model.RegistrationRequest, error) {
	owned, err := w.targets.OwnedBy(ctx, kind, value, requesterID, category)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, ErrAlreadyRegistered
	}
	exists, err := w.targets.Exists(ctx, kind, value, category)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrWatchedByAnother
	}

	req := &model.RegistrationRequest{
		RequestID:   uuid.NewString()[:8],
		Kind:        kind,
		Value:       value,
		RequesterID: requesterID,
		Category:    category,
	}
	if err := w.requests.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicatePending) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}

	w.logger.Info("Registration request submitted",
		zap.String("request_id", req.RequestID),
		zap.String("kind", string(kind)),
		zap.String("value", value),
		zap.String("requester", requesterID),
	)

	w.publish(mq.KeyRequestSubmitted, mq.RequestSubmittedEvent{
		RequestID:   req.RequestID,
		Kind:        string(req.Kind),
		Value:       req.Value,
		RequesterID: req.RequesterID,
		Category:    string(req.Category),
		CreatedAt:   req.CreatedAt,
	})
	return req, nil
}

// Pending lists the open requests, oldest first.
func (w *RequestWorkflow) Pending(ctx context.Context) ([]model.RegistrationRequest, error) {
	return w.requests.Pending(ctx)
}

// Approve grants a pending request. If the claim was satisfied in the
// meantime the request is closed as denied instead, so the queue never
// holds a request for something already watched.
func (w *RequestWorkflow) Approve(ctx context.Context, requestID, resolvedBy string) (*model.RegistrationRequest, error) {
	req, err := w.requests.ByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.Status != model.StatusPending {
		return nil, ErrAlreadyResolved
	}

	// The claim is satisfied as soon as anyone watches the value, not
	// just the requester: direct registration can land while the request
	// sits in the queue.
	exists, err := w.targets.Exists(ctx, req.Kind, req.Value, req.Category)
	if err != nil {
		return nil, err
	}
	if exists {
		if _, err := w.requests.Resolve(ctx, requestID, model.StatusDenied, resolvedBy); err != nil {
			return nil, err
		}
		w.logger.Info("Approval closed as denied, target already owned",
			zap.String("request_id", requestID),
			zap.String("resolved_by", resolvedBy),
		)
		w.publishResolved(req, model.StatusDenied, resolvedBy)
		return nil, ErrAlreadyOwned
	}

	resolved, err := w.requests.Resolve(ctx, requestID, model.StatusApproved, resolvedBy)
	if err != nil {
		return nil, err
	}
	if !resolved {
		return nil, ErrAlreadyResolved
	}

	target := &model.WatchTarget{
		Kind:     req.Kind,
		Value:    req.Value,
		OwnerID:  req.RequesterID,
		Category: req.Category,
	}
	if _, err := w.targets.Add(ctx, target); err != nil {
		return nil, err
	}

	w.logger.Info("Registration request approved",
		zap.String("request_id", requestID),
		zap.String("resolved_by", resolvedBy),
	)

	req.Status = model.StatusApproved
	req.ResolvedBy = resolvedBy
	w.publishResolved(req, model.StatusApproved, resolvedBy)
	return req, nil
}

// Deny closes a pending request without touching the watch list.
func (w *RequestWorkflow) Deny(ctx context.Context, requestID, resolvedBy string) (*model.RegistrationRequest, error) {
	req, err := w.requests.ByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}

	resolved, err := w.requests.Resolve(ctx, requestID, model.StatusDenied, resolvedBy)
	if err != nil {
		return nil, err
	}
	if !resolved {
		return nil, ErrAlreadyResolved
	}

	w.logger.Info("Registration request denied",
		zap.String("request_id", requestID),
		zap.String("resolved_by", resolvedBy),
	)

	req.Status = model.StatusDenied
	req.ResolvedBy = resolvedBy
	w.publishResolved(req, model.StatusDenied, resolvedBy)
	return req, nil
}

// publish is best effort: the workflow result is already committed, a
// dead broker only costs the channel notice.
func (w *RequestWorkflow) publish(key string, payload any) {
	if w.publisher == nil {
		return
	}
	if err := w.publisher.Publish(key, payload); err != nil {
		w.logger.Warn("Failed to publish workflow event",
			zap.String("routing_key", key),
			zap.Error(err),
		)
	}
}

func (w *RequestWorkflow) publishResolved(req *model.RegistrationRequest, status model.RequestStatus, resolvedBy string) {
	w.publish(mq.KeyRequestResolved, mq.RequestResolvedEvent{
		RequestID:   req.RequestID,
		Kind:        string(req.Kind),
		Value:       req.Value,
		RequesterID: req.RequesterID,
		Category:    string(req.Category),
		Status:      string(status),
		ResolvedBy:  resolvedBy,
		ResolvedAt:  time.Now().UTC(),
	})
}
