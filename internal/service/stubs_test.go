package service

import (
	"context"
	"sync"

	"bizzy/internal/models"
	"bizzy/internal/places"
)

type userRepoStub struct {
	getByIDFn            func(context.Context, string) (*models.User, error)
	getByEmailFn         func(context.Context, string) (*models.User, error)
	getByUsernameFn      func(context.Context, string) (*models.User, error)
	usernameExistsFn     func(context.Context, string, string) (bool, error)
	createWithAccountFn  func(context.Context, *models.User, *models.Account) error
	searchFn             func(context.Context, string, string, int) ([]models.User, error)
	listExceptFn         func(context.Context, string) ([]models.User, error)
	listWithInterestsFn  func(context.Context) ([]models.User, error)
	updateNameFn         func(context.Context, string, string) error
	updateUsernameFn     func(context.Context, string, string) error
	updateImageFn        func(context.Context, string, string) error
	completeOnboardingFn func(context.Context, string, string) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	if s.getByIDFn == nil {
		return nil, models.NewNotFoundMessage("User not found")
	}
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.getByEmailFn == nil {
		return nil, nil
	}
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.getByUsernameFn == nil {
		return nil, nil
	}
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) UsernameExists(ctx context.Context, username, excludeID string) (bool, error) {
	if s.usernameExistsFn == nil {
		return false, nil
	}
	return s.usernameExistsFn(ctx, username, excludeID)
}
func (s *userRepoStub) Create(context.Context, *models.User) error { return nil }
func (s *userRepoStub) CreateWithAccount(ctx context.Context, user *models.User, account *models.Account) error {
	if s.createWithAccountFn == nil {
		return nil
	}
	return s.createWithAccountFn(ctx, user, account)
}
func (s *userRepoStub) Search(ctx context.Context, query, excludeID string, limit int) ([]models.User, error) {
	return s.searchFn(ctx, query, excludeID, limit)
}
func (s *userRepoStub) ListExcept(ctx context.Context, excludeID string) ([]models.User, error) {
	return s.listExceptFn(ctx, excludeID)
}
func (s *userRepoStub) ListWithInterests(ctx context.Context) ([]models.User, error) {
	if s.listWithInterestsFn == nil {
		return nil, nil
	}
	return s.listWithInterestsFn(ctx)
}
func (s *userRepoStub) UpdateName(ctx context.Context, id, name string) error {
	if s.updateNameFn == nil {
		return nil
	}
	return s.updateNameFn(ctx, id, name)
}
func (s *userRepoStub) UpdateUsername(ctx context.Context, id, username string) error {
	if s.updateUsernameFn == nil {
		return nil
	}
	return s.updateUsernameFn(ctx, id, username)
}
func (s *userRepoStub) UpdateImage(ctx context.Context, id, image string) error {
	if s.updateImageFn == nil {
		return nil
	}
	return s.updateImageFn(ctx, id, image)
}
func (s *userRepoStub) CompleteOnboarding(ctx context.Context, id, interests string) error {
	if s.completeOnboardingFn == nil {
		return nil
	}
	return s.completeOnboardingFn(ctx, id, interests)
}

// followRepoStub keeps edges in memory.
type followRepoStub struct {
	edges     map[[2]string]bool
	createErr error
}

func newFollowRepoStub() *followRepoStub {
	return &followRepoStub{edges: map[[2]string]bool{}}
}

func (s *followRepoStub) Create(_ context.Context, follower, following string) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.edges[[2]string{follower, following}] {
		return models.NewConflictError("Already following this user")
	}
	s.edges[[2]string{follower, following}] = true
	return nil
}
func (s *followRepoStub) CreateIfMissing(_ context.Context, follower, following string) (bool, error) {
	key := [2]string{follower, following}
	if s.edges[key] {
		return false, nil
	}
	s.edges[key] = true
	return true, nil
}
func (s *followRepoStub) Delete(_ context.Context, follower, following string) error {
	delete(s.edges, [2]string{follower, following})
	return nil
}
func (s *followRepoStub) Exists(_ context.Context, follower, following string) (bool, error) {
	return s.edges[[2]string{follower, following}], nil
}
func (s *followRepoStub) Counts(_ context.Context, userID string) (models.FollowCounts, error) {
	var c models.FollowCounts
	for k := range s.edges {
		if k[1] == userID {
			c.Followers++
		}
		if k[0] == userID {
			c.Following++
		}
	}
	return c, nil
}
func (s *followRepoStub) Followers(context.Context, string) ([]models.FollowListEntry, error) {
	return []models.FollowListEntry{}, nil
}
func (s *followRepoStub) Following(context.Context, string) ([]models.FollowListEntry, error) {
	return []models.FollowListEntry{}, nil
}

type placeRepoStub struct {
	createFn      func(context.Context, *models.SavedPlace) error
	findFn        func(context.Context, string, string) (*models.SavedPlace, error)
	listByUsersFn func(context.Context, []string, int) ([]models.SavedPlace, error)
}

func (s *placeRepoStub) Create(ctx context.Context, place *models.SavedPlace) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, place)
}
func (s *placeRepoStub) FindByUserAndPlaceID(ctx context.Context, userID, placeID string) (*models.SavedPlace, error) {
	if s.findFn == nil {
		return nil, nil
	}
	return s.findFn(ctx, userID, placeID)
}
func (s *placeRepoStub) ListByUser(context.Context, string) ([]models.SavedPlace, error) {
	return []models.SavedPlace{}, nil
}
func (s *placeRepoStub) ListByUsers(ctx context.Context, ids []string, limit int) ([]models.SavedPlace, error) {
	if s.listByUsersFn == nil {
		return []models.SavedPlace{}, nil
	}
	return s.listByUsersFn(ctx, ids, limit)
}
func (s *placeRepoStub) Delete(context.Context, string, string) error { return nil }

type reviewRepoStub struct {
	reviews  []models.PlaceReview
	likes    map[[2]string]bool
	upserted *models.PlaceReview
}

func newReviewRepoStub(reviews ...models.PlaceReview) *reviewRepoStub {
	return &reviewRepoStub{reviews: reviews, likes: map[[2]string]bool{}}
}

func (s *reviewRepoStub) GetByID(_ context.Context, id string) (*models.PlaceReview, error) {
	for i := range s.reviews {
		if s.reviews[i].ID == id {
			r := s.reviews[i]
			return &r, nil
		}
	}
	return nil, models.NewNotFoundMessage("Review not found")
}
func (s *reviewRepoStub) GetByUserAndPlace(_ context.Context, userID, placeID string) (*models.PlaceReview, error) {
	for i := range s.reviews {
		if s.reviews[i].UserID == userID && s.reviews[i].PlaceID == placeID {
			r := s.reviews[i]
			return &r, nil
		}
	}
	return nil, nil
}
func (s *reviewRepoStub) ListByPlace(_ context.Context, placeID string, _ int) ([]models.PlaceReview, error) {
	out := []models.PlaceReview{}
	for _, r := range s.reviews {
		if r.PlaceID == placeID {
			out = append(out, r)
		}
	}
	return out, nil
}
func (s *reviewRepoStub) ListByUser(_ context.Context, userID string) ([]models.PlaceReview, error) {
	out := []models.PlaceReview{}
	for _, r := range s.reviews {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}
func (s *reviewRepoStub) Upsert(_ context.Context, review *models.PlaceReview) error {
	s.upserted = review
	return nil
}
func (s *reviewRepoStub) DeleteByUserAndPlace(context.Context, string, string) error { return nil }
func (s *reviewRepoStub) LikeCounts(_ context.Context, ids []string) (map[string]int64, error) {
	out := map[string]int64{}
	for k := range s.likes {
		out[k[1]]++
	}
	return out, nil
}
func (s *reviewRepoStub) LikedSet(_ context.Context, userID string, _ []string) (map[string]bool, error) {
	out := map[string]bool{}
	for k := range s.likes {
		if k[0] == userID {
			out[k[1]] = true
		}
	}
	return out, nil
}
func (s *reviewRepoStub) Like(_ context.Context, userID, reviewID string) error {
	s.likes[[2]string{userID, reviewID}] = true
	return nil
}
func (s *reviewRepoStub) Unlike(_ context.Context, userID, reviewID string) error {
	delete(s.likes, [2]string{userID, reviewID})
	return nil
}
func (s *reviewRepoStub) IsLiked(_ context.Context, userID, reviewID string) (bool, error) {
	return s.likes[[2]string{userID, reviewID}], nil
}

type nearbyStub struct {
	results map[string][]map[string]any
	errs    map[string]error
}

func (s *nearbyStub) Configured() bool { return true }
func (s *nearbyStub) NearbyResults(_ context.Context, p places.NearbyParams) ([]map[string]any, error) {
	if err := s.errs[p.Type]; err != nil {
		return nil, err
	}
	var out []map[string]any
	for _, r := range s.results[p.Type] {
		copied := make(map[string]any, len(r))
		for k, v := range r {
			copied[k] = v
		}
		out = append(out, copied)
	}
	return out, nil
}

type detailerStub struct {
	mu    sync.Mutex
	calls map[string]int
}

func (s *detailerStub) DetailsSummary(_ context.Context, placeID string) (*models.PlaceSummary, bool) {
	s.mu.Lock()
	s.calls[placeID]++
	s.mu.Unlock()
	if placeID == "missing" {
		return nil, false
	}
	return &models.PlaceSummary{PlaceID: placeID, Name: "Place " + placeID}, true
}

func strPtr(s string) *string { return &s }
