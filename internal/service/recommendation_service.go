package service

import (
	"context"
	"fmt"
	"log/slog"

	"bizzy/internal/cache"
	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/observability"
	"bizzy/internal/places"
	"bizzy/internal/repository"

	"golang.org/x/sync/errgroup"
)

// Recommendation paging and fan-out limits.
const (
	RecommendationsPageSize = 10

	maxInterestSearches = 3
	similarUsersLimit   = 20
)

// NearbySearcher runs nearby searches. *places.Client satisfies it.
type NearbySearcher interface {
	Configured() bool
	NearbyResults(ctx context.Context, p places.NearbyParams) ([]map[string]any, error)
}

// RecommendationPage is one page of recommended places.
type RecommendationPage struct {
	Places  []map[string]any `json:"places"`
	HasMore bool             `json:"hasMore"`
}

// RecommendationService mixes Google results for the caller's interests
// with places saved by users who share them.
type RecommendationService struct {
	userRepo  repository.UserRepository
	placeRepo repository.SavedPlaceRepository
	nearby    NearbySearcher
}

// NewRecommendationService returns a new RecommendationService. nearby may
// be nil, in which case only community places are recommended.
func NewRecommendationService(
	userRepo repository.UserRepository,
	placeRepo repository.SavedPlaceRepository,
	nearby NearbySearcher,
) *RecommendationService {
	return &RecommendationService{
		userRepo:  userRepo,
		placeRepo: placeRepo,
		nearby:    nearby,
	}
}

// Recommend returns page (1-based) of recommendations for interests. When
// interests is nil the caller's stored interests are used.
func (s *RecommendationService) Recommend(ctx context.Context, userID string, interests []string, page int) (*RecommendationPage, error) {
	if interests == nil {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		interests = user.InterestList()
	}
	if len(interests) == 0 {
		return &RecommendationPage{Places: []map[string]any{}}, nil
	}

	google := s.googlePlaces(ctx, interests)
	community, err := s.communityPlaces(ctx, interests)
	if err != nil {
		return nil, err
	}

	all := dedupePlaces(append(google, community...))
	return paginate(all, page), nil
}

// googlePlaces searches the first few interests concurrently. Results keep
// interest order; a failed search contributes nothing.
func (s *RecommendationService) googlePlaces(ctx context.Context, interests []string) []map[string]any {
	if s.nearby == nil || !s.nearby.Configured() {
		return nil
	}
	if len(interests) > maxInterestSearches {
		interests = interests[:maxInterestSearches]
	}

	slots := make([][]map[string]any, len(interests))
	g, gctx := errgroup.WithContext(ctx)
	for i, interest := range interests {
		g.Go(func() error {
			params := places.NearbyParams{
				Location: places.DefaultLocation,
				Radius:   places.DefaultRadius,
				Type:     interest,
			}
			var results []map[string]any
			err := cache.Aside(gctx, cache.NearbyKey(params.Location, params.Radius, params.Type), &results, cache.NearbyTTL, func() error {
				var err error
				results, err = s.nearby.NearbyResults(gctx, params)
				return err
			})
			if err != nil {
				observability.RecordErrorInContext(ctx, err)
				middleware.Logger.WarnContext(ctx, "nearby search for interest failed",
					slog.String("interest", interest),
					slog.String("error", err.Error()),
				)
				return nil
			}
			for _, place := range results {
				place["source"] = models.SourceGoogle
			}
			slots[i] = results
			return nil
		})
	}
	_ = g.Wait()

	var out []map[string]any
	for _, results := range slots {
		out = append(out, results...)
	}
	return out
}

// communityPlaces returns places saved by users sharing at least one
// interest. The caller counts as such a user.
func (s *RecommendationService) communityPlaces(ctx context.Context, interests []string) ([]map[string]any, error) {
	users, err := s.userRepo.ListWithInterests(ctx)
	if err != nil {
		return nil, err
	}

	var similar []string
	for i := range users {
		if models.CountShared(interests, users[i].InterestList()) > 0 {
			similar = append(similar, users[i].ID)
		}
	}
	if len(similar) == 0 {
		return nil, nil
	}
	if len(similar) > similarUsersLimit {
		similar = similar[:similarUsersLimit]
	}

	saved, err := s.placeRepo.ListByUsers(ctx, similar, repository.CommunityPlacesLimit)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(saved))
	for _, p := range saved {
		if p.PlaceID == nil || *p.PlaceID == "" {
			continue
		}
		out = append(out, map[string]any{
			"place_id":          *p.PlaceID,
			"name":              p.Name,
			"formatted_address": p.FormattedAddress,
			"source":            models.SourceCommunity,
		})
	}
	return out, nil
}

// dedupePlaces keys places by place_id, falling back to id. The first
// occurrence fixes the position, the last one supplies the value.
func dedupePlaces(in []map[string]any) []map[string]any {
	index := make(map[string]int, len(in))
	out := make([]map[string]any, 0, len(in))
	for _, place := range in {
		key := placeKey(place)
		if i, ok := index[key]; ok {
			out[i] = place
			continue
		}
		index[key] = len(out)
		out = append(out, place)
	}
	return out
}

func placeKey(place map[string]any) string {
	for _, field := range []string{"place_id", "id"} {
		if v, ok := place[field]; ok && v != nil && v != "" {
			return fmt.Sprint(v)
		}
	}
	return "undefined"
}

func paginate(all []map[string]any, page int) *RecommendationPage {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * RecommendationsPageSize
	out := &RecommendationPage{
		Places:  []map[string]any{},
		HasMore: offset+RecommendationsPageSize < len(all),
	}
	if offset >= len(all) {
		return out
	}
	end := min(offset+RecommendationsPageSize, len(all))
	out.Places = all[offset:end]
	return out
}
