package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/learn-connect/internal/model"
	"github.com/iliyamo/learn-connect/internal/repository"
)

// ProfileStore is the subset of the credential store used by /me.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (model.User, error)
	Save(ctx context.Context, u model.User) (model.User, error)
}

// ProfileCacher caches public profiles. *repository.ProfileCache satisfies
// it, including as a nil pointer.
type ProfileCacher interface {
	Get(ctx context.Context, userID string) (model.PublicUser, bool)
	Set(ctx context.Context, p model.PublicUser) error
	Invalidate(ctx context.Context, userID string) error
}

// ProfileService serves the signed-in user's own profile.
type ProfileService struct {
	store ProfileStore
	cache ProfileCacher
	log   *zap.Logger
}

func NewProfileService(store ProfileStore, cache ProfileCacher, log *zap.Logger) *ProfileService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileService{store: store, cache: cache, log: log}
}

// Get returns the public profile of userID, from cache when possible.
func (s *ProfileService) Get(ctx context.Context, userID string) (model.PublicUser, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, userID); ok {
			return p, nil
		}
	}
	u, err := s.load(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	p := u.Public()
	if s.cache != nil {
		if err := s.cache.Set(ctx, p); err != nil {
			s.log.Warn("profile cache set failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return p, nil
}

// Update applies the non-empty fields of upd and returns the new profile.
func (s *ProfileService) Update(ctx context.Context, userID string, upd model.ProfileUpdate) (model.PublicUser, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	u, err = s.store.Save(ctx, u.Apply(upd))
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("save profile: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			s.log.Warn("profile cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return u.Public(), nil
}

func (s *ProfileService) load(ctx context.Context, userID string) (model.User, error) {
	u, err := s.store.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}
