package service

import (
	"context"
	"testing"

	"bizzy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_SearchShortQuery(t *testing.T) {
	called := false
	svc := NewUserService(&userRepoStub{
		searchFn: func(context.Context, string, string, int) ([]models.User, error) {
			called = true
			return nil, nil
		},
	})

	for _, q := range []string{"", " ", " a "} {
		got, err := svc.Search(context.Background(), "me", q)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	}
	assert.False(t, called)
}

func TestUserService_SearchTrimsAndExcludesCaller(t *testing.T) {
	svc := NewUserService(&userRepoStub{
		searchFn: func(_ context.Context, q, exclude string, limit int) ([]models.User, error) {
			assert.Equal(t, "al", q)
			assert.Equal(t, "me", exclude)
			assert.Equal(t, 20, limit)
			return []models.User{{ID: "u1", Name: "Alice", Username: "alice", Email: "a@x.com"}}, nil
		},
	})

	got, err := svc.Search(context.Background(), "me", "  al ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Username)
}

func TestUserService_SuggestionsStableRanking(t *testing.T) {
	svc := NewUserService(&userRepoStub{
		listExceptFn: func(_ context.Context, exclude string) ([]models.User, error) {
			assert.Equal(t, "me", exclude)
			return []models.User{
				{ID: "a", Interests: strPtr(`["zoo"]`)},
				{ID: "b", Interests: strPtr(`["park","cafe"]`)},
				{ID: "c", Interests: strPtr(`not json`)},
				{ID: "d", Interests: strPtr(`["cafe"]`)},
				{ID: "e"},
				{ID: "f", Interests: strPtr(`["park","cafe","zoo"]`)},
			}, nil
		},
	})

	got, err := svc.Suggestions(context.Background(), "me", []string{"park", "cafe"})
	require.NoError(t, err)

	var order []string
	var shared []int
	for _, s := range got {
		order = append(order, s.ID)
		shared = append(shared, s.SharedInterests)
	}
	assert.Equal(t, []string{"b", "f", "d", "a", "c", "e"}, order)
	assert.Equal(t, []int{2, 2, 1, 0, 0, 0}, shared)
}

func TestUserService_ByUsername(t *testing.T) {
	svc := NewUserService(&userRepoStub{
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			if username == "alice" {
				return &models.User{ID: "u1", Username: "alice", Name: "Alice"}, nil
			}
			return nil, nil
		},
	})

	got, err := svc.ByUsername(context.Background(), "@alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = svc.ByUsername(context.Background(), "@@alice")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	_, err = svc.ByUsername(context.Background(), "nobody")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
