package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"forumwatch/internal/model"
	"forumwatch/internal/repository"
)

type memTargets struct {
	targets []model.WatchTarget
}

func (m *memTargets) Add(_ context.Context, t *model.WatchTarget) (bool, error) {
	for _, existing := range m.targets {
		if existing.Kind == t.Kind && existing.Value == t.Value &&
			existing.OwnerID == t.OwnerID && existing.Category == t.Category {
			return false, nil
		}
	}
	m.targets = append(m.targets, *t)
	return true, nil
}

func (m *memTargets) Remove(_ context.Context, kind model.TargetKind, value, owner string, cat model.Category) (bool, error) {
	for i, t := range m.targets {
		if t.Kind == kind && t.Value == value && t.OwnerID == owner && t.Category == cat {
			m.targets = append(m.targets[:i], m.targets[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memTargets) Exists(_ context.Context, kind model.TargetKind, value string, cat model.Category) (bool, error) {
	for _, t := range m.targets {
		if t.Kind == kind && t.Value == value && t.Category == cat {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTargets) OwnedBy(_ context.Context, kind model.TargetKind, value, owner string, cat model.Category) (bool, error) {
	for _, t := range m.targets {
		if t.Kind == kind && t.Value == value && t.OwnerID == owner && t.Category == cat {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTargets) ByOwner(_ context.Context, owner string) ([]model.WatchTarget, error) {
	var out []model.WatchTarget
	for _, t := range m.targets {
		if t.OwnerID == owner {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTargets) All(context.Context) ([]model.WatchTarget, error) {
	return m.targets, nil
}

type memRequests struct {
	requests []*model.RegistrationRequest
}

func (m *memRequests) Create(_ context.Context, req *model.RegistrationRequest) error {
	for _, r := range m.requests {
		if r.Status == model.StatusPending &&
			r.Kind == req.Kind && r.Value == req.Value &&
			r.RequesterID == req.RequesterID && r.Category == req.Category {
			return repository.ErrDuplicatePending
		}
	}
	req.Status = model.StatusPending
	cp := *req
	m.requests = append(m.requests, &cp)
	return nil
}

func (m *memRequests) ByRequestID(_ context.Context, id string) (*model.RegistrationRequest, error) {
	for _, r := range m.requests {
		if r.RequestID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRequests) Pending(context.Context) ([]model.RegistrationRequest, error) {
	var out []model.RegistrationRequest
	for _, r := range m.requests {
		if r.Status == model.StatusPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRequests) Resolve(_ context.Context, id string, status model.RequestStatus, by string) (bool, error) {
	for _, r := range m.requests {
		if r.RequestID == id && r.Status == model.StatusPending {
			r.Status = status
			r.ResolvedBy = by
			return true, nil
		}
	}
	return false, nil
}

type memPublisher struct {
	events []string
}

func (m *memPublisher) Publish(routingKey string, _ any) error {
	m.events = append(m.events, routingKey)
	return nil
}

func newTestWorkflow() (*RequestWorkflow, *memTargets, *memRequests, *memPublisher) {
	targets := &memTargets{}
	requests := &memRequests{}
	pub := &memPublisher{}
	return NewRequestWorkflow(requests, targets, pub, zap.NewNop()), targets, requests, pub
}

func TestSubmitApproveGrantsTarget(t *testing.T) {
	ctx := context.Background()
	wf, targets, _, pub := newTestWorkflow()

	req, err := wf.Submit(ctx, model.KindPlayerID, "777", "userA", model.CategoryDE)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Len(t, req.RequestID, 8)
	assert.Equal(t, model.StatusPending, req.Status)

	approved, err := wf.Approve(ctx, req.RequestID, "admin1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)

	owned, err := targets.OwnedBy(ctx, model.KindPlayerID, "777", "userA", model.CategoryDE)
	require.NoError(t, err)
	assert.True(t, owned)

	assert.Equal(t, []string{"request.submitted", "request.resolved"}, pub.events)
}

func TestSubmitRejectsDuplicatePending(t *testing.T) {
	ctx := context.Background()
	wf, _, _, _ := newTestWorkflow()

	_, err := wf.Submit(ctx, model.KindPlayerID, "777", "userA", model.CategoryDE)
	require.NoError(t, err)

	_, err = wf.Submit(ctx, model.KindPlayerID, "777", "userA", model.CategoryDE)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestSubmitRejectsAlreadyRegistered(t *testing.T) {
	ctx := context.Background()
	wf, targets, _, _ := newTestWorkflow()

	_, err := targets.Add(ctx, &model.WatchTarget{
		Kind: model.KindPlayerID, Value: "777", OwnerID: "userA", Category: model.CategoryDE,
	})
	require.NoError(t, err)

	_, err = wf.Submit(ctx, model.KindPlayerID, "777", "userA", model.CategoryDE)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestSubmitRejectsValueWatchedByAnotherUser(t *testing.T) {
	ctx := context.Background()
	wf, _, requests, _ := newTestWorkflow()

	reqA, err := wf.Submit(ctx, model.KindPlayerID, "777", "userA", model.CategoryDE)
	require.NoError(t, err)
	_, err = wf.Approve(ctx, reqA.RequestID, "admin1")
	require.NoError(t, err)

	_, err = wf.Submit(ctx, model.KindPlayerID, "777", "userB", model.CategoryDE)
	assert.ErrorIs(t, err, ErrWatchedByAnother)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	pending, err := requests.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "a refused submit leaves no pending request")
}

func TestDirectRegistrationAllowsSecondOwner(t *testing.T) {
	ctx := context.Background()
	targets := &memTargets{}
	svc := NewTargetService(targets, zap.NewNop())

	_, err := svc.Register(ctx, model.KindPlayerID, "777", "userA", model.CategoryDE)
	require.NoError(t, err)
	_, err = svc.Register(ctx, model.KindPlayerID, "777", "userB", model.CategoryDE)
	require.NoError(t, err)

	assert.Len(t, targets.targets, 2)
}

func TestApproveDeniesWhenAnotherUserRegisteredMeanwhile(t *testing.T) {
	ctx := context.Background()
	wf, targets, requests, _ := newTestWorkflow()

	req, err := wf.Submit(ctx, model.KindPlayerID, "777", "userA", model.CategoryDE)
	require.NoError(t, err)

	// Someone else gets the value registered directly while the request
	// is still open.
	_, err = targets.Add(ctx, &model.WatchTarget{
		Kind: model.KindPlayerID, Value: "777", OwnerID: "userB", Category: model.CategoryDE,
	})
	require.NoError(t, err)

	_, err = wf.Approve(ctx, req.RequestID, "admin1")
	assert.ErrorIs(t, err, ErrAlreadyOwned)

	stored, err := requests.ByRequestID(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDenied, stored.Status)
}

func TestApproveAlreadyOwnedClosesAsDenied(t *testing.T) {
	ctx := context.Background()
	wf, targets, requests, _ := newTestWorkflow()

	req, err := wf.Submit(ctx, model.KindPlayerID, "777", "userA", model.CategoryDE)
	require.NoError(t, err)

	// The claim gets satisfied directly while the request is still open.
	_, err = targets.Add(ctx, &model.WatchTarget{
		Kind: model.KindPlayerID, Value: "777", OwnerID: "userA", Category: model.CategoryDE,
	})
	require.NoError(t, err)

	_, err = wf.Approve(ctx, req.RequestID, "admin1")
	assert.ErrorIs(t, err, ErrAlreadyOwned)

	stored, err := requests.ByRequestID(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDenied, stored.Status)
}

func TestResolveTwiceFails(t *testing.T) {
	ctx := context.Background()
	wf, _, _, _ := newTestWorkflow()

	req, err := wf.Submit(ctx, model.KindPlayerID, "777", "userA", model.CategoryDE)
	require.NoError(t, err)

	_, err = wf.Deny(ctx, req.RequestID, "admin1")
	require.NoError(t, err)

	_, err = wf.Approve(ctx, req.RequestID, "admin2")
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	_, err = wf.Deny(ctx, req.RequestID, "admin2")
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestDenyUnknownRequest(t *testing.T) {
	ctx := context.Background()
	wf, _, _, _ := newTestWorkflow()

	_, err := wf.Deny(ctx, "nope1234", "admin1")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestDeniedClaimCanBeRequestedAgain(t *testing.T) {
	ctx := context.Background()
	wf, _, _, _ := newTestWorkflow()

	req, err := wf.Submit(ctx, model.KindPlayerID, "777", "userA", model.CategoryDE)
	require.NoError(t, err)
	_, err = wf.Deny(ctx, req.RequestID, "admin1")
	require.NoError(t, err)

	again, err := wf.Submit(ctx, model.KindPlayerID, "777", "userA", model.CategoryDE)
	require.NoError(t, err)
	assert.NotEqual(t, req.RequestID, again.RequestID)
}
