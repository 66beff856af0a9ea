package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/repository"
	"bizzy/internal/validation"

	"github.com/goccy/go-json"
)

// ErrInvalidInterests rejects an onboarding body without an interests array.
var ErrInvalidInterests = models.NewValidationError("Invalid interests data")

// ProfileUser is the user block of a profile.
type ProfileUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is a user's public profile as seen by a viewer.
type Profile struct {
	User                ProfileUser `json:"user"`
	OnboardingCompleted bool        `json:"onboardingCompleted"`
	Interests           *string     `json:"interests"`
	FollowersCount      int64       `json:"followersCount"`
	FollowingCount      int64       `json:"followingCount"`
	IsFollowing         bool        `json:"isFollowing"`
}

// ProfileService owns profile reads and self-service profile edits.
type ProfileService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

// NewProfileService returns a new ProfileService.
func NewProfileService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *ProfileService {
	return &ProfileService{
		userRepo:   userRepo,
		followRepo: followRepo,
	}
}

// Get loads userID's profile. viewerID may be empty.
func (s *ProfileService) Get(ctx context.Context, viewerID, userID string) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.followRepo.Counts(ctx, userID)
	if err != nil {
		return nil, err
	}

	following := false
	if viewerID != "" && viewerID != userID {
		if following, err = s.followRepo.Exists(ctx, viewerID, userID); err != nil {
			return nil, err
		}
	}

	return &Profile{
		User: ProfileUser{
			ID:        user.ID,
			Name:      user.Name,
			Username:  user.Username,
			Email:     user.Email,
			Image:     user.Image,
			CreatedAt: user.CreatedAt,
		},
		OnboardingCompleted: user.OnboardingCompleted,
		Interests:           user.Interests,
		FollowersCount:      counts.Followers,
		FollowingCount:      counts.Following,
		IsFollowing:         following,
	}, nil
}

// CheckUsername reports whether raw is free. Rule violations are returned
// as validation errors.
func (s *ProfileService) CheckUsername(ctx context.Context, raw string) (bool, error) {
	username := validation.NormalizeUsername(raw)
	if err := validation.ValidateUsername(username); err != nil {
		return false, models.NewValidationError(err.Error())
	}
	taken, err := s.userRepo.UsernameExists(ctx, username, "")
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// UpdateName sets userID's display name and returns the stored value.
func (s *ProfileService) UpdateName(ctx context.Context, userID, raw string) (string, error) {
	req := validation.UpdateNameRequest{Name: strings.TrimSpace(raw)}
	if issues := validation.Struct(req); issues != nil {
		return "", models.NewValidationErrorWithDetails("Invalid input", issues)
	}
	if err := s.userRepo.UpdateName(ctx, userID, req.Name); err != nil {
		return "", err
	}
	return req.Name, nil
}

// UpdateUsername changes userID's username. Keeping one's own username is
// allowed.
func (s *ProfileService) UpdateUsername(ctx context.Context, userID, raw string) (string, error) {
	req := validation.UpdateUsernameRequest{Username: validation.NormalizeUsername(raw)}
	if issues := validation.Struct(req); issues != nil {
		return "", models.NewValidationErrorWithDetails("Invalid username", issues)
	}

	taken, err := s.userRepo.UsernameExists(ctx, req.Username, userID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", models.NewConflictError("Username already taken")
	}
	if err := s.userRepo.UpdateUsername(ctx, userID, req.Username); err != nil {
		return "", err
	}
	middleware.Logger.InfoContext(ctx, "username changed",
		slog.String("user_id", userID),
		slog.String("username", req.Username),
	)
	return req.Username, nil
}

// UpdateAvatar validates and normalizes a data URL avatar, then stores it.
func (s *ProfileService) UpdateAvatar(ctx context.Context, userID, dataURL string) (string, error) {
	image, err := NormalizeAvatar(dataURL)
	if err != nil {
		return "", err
	}
	if err := s.userRepo.UpdateImage(ctx, userID, image); err != nil {
		return "", err
	}
	return image, nil
}

// CompleteOnboarding stores interests, which must be a JSON array, and
// marks onboarding done.
func (s *ProfileService) CompleteOnboarding(ctx context.Context, userID string, interests json.RawMessage) error {
	var list []any
	if len(interests) == 0 || json.Unmarshal(interests, &list) != nil || list == nil {
		return ErrInvalidInterests
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.userRepo.CompleteOnboarding(ctx, userID, string(encoded))
}
