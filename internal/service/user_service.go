package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"bizzy/internal/models"
	"bizzy/internal/repository"
)

// MinSearchQueryLen is the shortest query that hits the database.
const MinSearchQueryLen = 2

// UserSearchResult is one row of a user search.
type UserSearchResult struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

// Suggestion is a user ranked by interests shared with the caller.
type Suggestion struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Image           *string `json:"image"`
	SharedInterests int     `json:"sharedInterests"`
}

// PublicUser is the profile card returned by username lookups.
type PublicUser struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Username        string    `json:"username"`
	DisplayUsername *string   `json:"displayUsername"`
	Image           *string   `json:"image"`
	Email           string    `json:"email"`
	CreatedAt       time.Time `json:"createdAt"`
}

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Search returns up to 20 users other than callerID whose name or email
// contains query. Queries shorter than two characters match nothing.
func (s *UserService) Search(ctx context.Context, callerID, query string) ([]UserSearchResult, error) {
	query = strings.TrimSpace(query)
	out := []UserSearchResult{}
	if len([]rune(query)) < MinSearchQueryLen {
		return out, nil
	}

	users, err := s.userRepo.Search(ctx, query, callerID, repository.SearchLimit)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out = append(out, UserSearchResult{
			ID:        u.ID,
			Name:      u.Name,
			Username:  u.Username,
			Email:     u.Email,
			Image:     u.Image,
			CreatedAt: u.CreatedAt,
		})
	}
	return out, nil
}

// Suggestions ranks every other user by how many of interests they share.
// Ties keep storage order.
func (s *UserService) Suggestions(ctx context.Context, callerID string, interests []string) ([]Suggestion, error) {
	users, err := s.userRepo.ListExcept(ctx, callerID)
	if err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, Suggestion{
			ID:              u.ID,
			Name:            u.Name,
			Image:           u.Image,
			SharedInterests: models.CountShared(interests, u.InterestList()),
		})
	}
	slices.SortStableFunc(out, func(a, b Suggestion) int {
		return b.SharedInterests - a.SharedInterests
	})
	return out, nil
}

// ByUsername resolves a handle, with or without a leading "@".
func (s *UserService) ByUsername(ctx context.Context, handle string) (*PublicUser, error) {
	username := strings.TrimPrefix(handle, "@")
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundMessage("User not found")
	}
	return &PublicUser{
		ID:              user.ID,
		Name:            user.Name,
		Username:        user.Username,
		DisplayUsername: user.DisplayUsername,
		Image:           user.Image,
		Email:           user.Email,
		CreatedAt:       user.CreatedAt,
	}, nil
}
