package service

import (
	"context"

	"bizzy/internal/models"
	"bizzy/internal/repository"
)

// FollowState is the target's follow totals after a follow change.
type FollowState struct {
	Success        bool  `json:"success"`
	IsFollowing    bool  `json:"isFollowing"`
	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`
}

// FollowService provides follow-graph business logic.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// NewFollowService returns a new FollowService.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// Follow makes callerID follow targetID. Following twice is an error.
func (s *FollowService) Follow(ctx context.Context, callerID, targetID string) (*FollowState, error) {
	if callerID == targetID {
		return nil, models.NewValidationError("Cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	exists, err := s.followRepo.Exists(ctx, callerID, targetID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewValidationError("Already following this user")
	}
	if err := s.followRepo.Create(ctx, callerID, targetID); err != nil {
		if models.ErrorCode(err) == models.CodeConflict {
			return nil, models.NewValidationError("Already following this user")
		}
		return nil, err
	}
	return s.state(ctx, targetID, true)
}

// Unfollow removes the edge if present and reports the target's totals.
func (s *FollowService) Unfollow(ctx context.Context, callerID, targetID string) (*FollowState, error) {
	if err := s.followRepo.Delete(ctx, callerID, targetID); err != nil {
		return nil, err
	}
	return s.state(ctx, targetID, false)
}

// EnsureFollowing is the idempotent follow. It reports whether a new edge
// was created.
func (s *FollowService) EnsureFollowing(ctx context.Context, callerID, targetID string) (bool, error) {
	if callerID == targetID {
		return false, models.NewValidationError("Cannot follow yourself")
	}
	exists, err := s.followRepo.Exists(ctx, callerID, targetID)
	if err != nil || exists {
		return false, err
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return false, err
	}
	return s.followRepo.CreateIfMissing(ctx, callerID, targetID)
}

// IsFollowing reports whether callerID follows targetID. A user never
// follows themselves.
func (s *FollowService) IsFollowing(ctx context.Context, callerID, targetID string) (bool, error) {
	if callerID == "" || callerID == targetID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, callerID, targetID)
}

func (s *FollowService) Counts(ctx context.Context, userID string) (models.FollowCounts, error) {
	return s.followRepo.Counts(ctx, userID)
}

func (s *FollowService) Followers(ctx context.Context, userID string) ([]models.FollowListEntry, error) {
	return s.followRepo.Followers(ctx, userID)
}

func (s *FollowService) Following(ctx context.Context, userID string) ([]models.FollowListEntry, error) {
	return s.followRepo.Following(ctx, userID)
}

func (s *FollowService) state(ctx context.Context, targetID string, following bool) (*FollowState, error) {
	counts, err := s.followRepo.Counts(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return &FollowState{
		Success:        true,
		IsFollowing:    following,
		FollowersCount: counts.Followers,
		FollowingCount: counts.Following,
	}, nil
}
