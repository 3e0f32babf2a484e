package service

import (
	"context"

	"go.uber.org/zap"

	"forumwatch/internal/model"
)

// TargetStore is the persistence the target service needs.
type TargetStore interface {
	Add(ctx context.Context, t *model.WatchTarget) (bool, error)
	Remove(ctx context.Context, kind model.TargetKind, value, ownerID string, category model.Category) (bool, error)
	Exists(ctx context.Context, kind model.TargetKind, value string, category model.Category) (bool, error)
	OwnedBy(ctx context.Context, kind model.TargetKind, value, ownerID string, category model.Category) (bool, error)
	ByOwner(ctx context.Context, ownerID string) ([]model.WatchTarget, error)
	All(ctx context.Context) ([]model.WatchTarget, error)
}

// TargetService covers the direct admin-side mutations of the watch list.
type TargetService struct {
	targets TargetStore
	logger  *zap.Logger
}

func NewTargetService(targets TargetStore, logger *zap.Logger) *TargetService {
	return &TargetService{targets: targets, logger: logger}
}

// Register adds a target directly, bypassing the request workflow.
func (s *TargetService) Register(ctx context.Context, kind model.TargetKind, value, ownerID string, category model.Category) (*model.WatchTarget, error) {
	t := &model.WatchTarget{
		Kind:     kind,
		Value:    value,
		OwnerID:  ownerID,
		Category: category,
	}
	added, err := s.targets.Add(ctx, t)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, ErrAlreadyRegistered
	}

	s.logger.Info("Target registered",
		zap.String("kind", string(kind)),
		zap.String("value", value),
		zap.String("owner", ownerID),
		zap.String("category", string(category)),
	)
	return t, nil
}

// Unregister removes a binding. An empty ownerID removes the value for
// every owner who watches it.
func (s *TargetService) Unregister(ctx context.Context, kind model.TargetKind, value, ownerID string, category model.Category) error {
	removed, err := s.targets.Remove(ctx, kind, value, ownerID, category)
	if err != nil {
		return err
	}
	if !removed {
		return ErrTargetNotFound
	}

	s.logger.Info("Target unregistered",
		zap.String("kind", string(kind)),
		zap.String("value", value),
		zap.String("owner", ownerID),
		zap.String("category", string(category)),
	)
	return nil
}

// UserWatches lists everything one user watches.
func (s *TargetService) UserWatches(ctx context.Context, ownerID string) ([]model.WatchTarget, error) {
	return s.targets.ByOwner(ctx, ownerID)
}

// All lists every registered target.
func (s *TargetService) All(ctx context.Context) ([]model.WatchTarget, error) {
	return s.targets.All(ctx)
}
