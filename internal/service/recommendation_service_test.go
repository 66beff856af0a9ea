package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bizzy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommend_MergesDedupesAndTags(t *testing.T) {
	nearby := &nearbyStub{
		results: map[string][]map[string]any{
			"park":   {{"place_id": "g1", "name": "Park A"}, {"place_id": "g2", "name": "Park B"}},
			"cafe":   {{"place_id": "g2", "name": "Cafe B"}},
			"museum": {{"place_id": "g9", "name": "never searched"}},
		},
		errs: map[string]error{"zoo": errors.New("boom")},
	}
	users := &userRepoStub{
		listWithInterestsFn: func(context.Context) ([]models.User, error) {
			return []models.User{
				{ID: "u1", Interests: strPtr(`["park"]`)},
				{ID: "u2", Interests: strPtr(`["bar"]`)},
			}, nil
		},
	}
	placesRepo := &placeRepoStub{
		listByUsersFn: func(_ context.Context, ids []string, limit int) ([]models.SavedPlace, error) {
			assert.Equal(t, []string{"u1"}, ids)
			assert.Equal(t, 20, limit)
			return []models.SavedPlace{
				{ID: "s1", PlaceID: strPtr("g1"), Name: "Community A", FormattedAddress: "1 Main"},
				{ID: "s2", Name: "No place id"},
			}, nil
		},
	}
	svc := NewRecommendationService(users, placesRepo, nearby)

	page, err := svc.Recommend(context.Background(), "me", []string{"park", "zoo", "cafe", "museum"}, 1)
	require.NoError(t, err)
	require.Len(t, page.Places, 2)
	assert.False(t, page.HasMore)

	assert.Equal(t, "g1", page.Places[0]["place_id"])
	assert.Equal(t, "Community A", page.Places[0]["name"])
	assert.Equal(t, models.SourceCommunity, page.Places[0]["source"])

	assert.Equal(t, "g2", page.Places[1]["place_id"])
	assert.Equal(t, "Cafe B", page.Places[1]["name"])
	assert.Equal(t, models.SourceGoogle, page.Places[1]["source"])
}

func TestRecommend_FallsBackToStoredInterests(t *testing.T) {
	users := &userRepoStub{
		getByIDFn: func(context.Context, string) (*models.User, error) {
			return &models.User{ID: "me"}, nil
		},
	}
	svc := NewRecommendationService(users, &placeRepoStub{}, nil)

	page, err := svc.Recommend(context.Background(), "me", nil, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Places)
	assert.NotNil(t, page.Places)
	assert.False(t, page.HasMore)
}

func TestDedupePlaces_FallsBackToID(t *testing.T) {
	got := dedupePlaces([]map[string]any{
		{"id": "x", "v": 1},
		{"place_id": "y", "v": 2},
		{"id": "x", "v": 3},
		{"place_id": "", "id": "y", "v": 4},
	})
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0]["v"])
	assert.Equal(t, 4, got[1]["v"])
}

func TestPaginate(t *testing.T) {
	all := make([]map[string]any, 25)
	for i := range all {
		all[i] = map[string]any{"place_id": fmt.Sprint(i)}
	}

	p := paginate(all, 1)
	assert.Len(t, p.Places, 10)
	assert.True(t, p.HasMore)

	p = paginate(all, 0)
	assert.Equal(t, "0", p.Places[0]["place_id"])

	p = paginate(all, 3)
	assert.Len(t, p.Places, 5)
	assert.False(t, p.HasMore)
	assert.Equal(t, "20", p.Places[0]["place_id"])

	p = paginate(all, 4)
	assert.Empty(t, p.Places)
	assert.False(t, p.HasMore)

	p = paginate(all[:20], 2)
	assert.Len(t, p.Places, 10)
	assert.False(t, p.HasMore)
}
