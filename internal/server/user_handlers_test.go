package server

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchUsers(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "Alice Smith", "alice@example.com", "alice")
	signUp(t, app, "Bob Jones", "bob@example.com", "bob")
	signUp(t, app, "Alicia Keys", "alicia@example.com", "alicia")

	status, body := callJSON(t, app, http.MethodGet, "/api/users/search?q=ali", nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	users := body["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, "Alicia Keys", users[0].(map[string]any)["name"])

	status, body = callJSON(t, app, http.MethodGet, "/api/users/search?q=a", nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["users"])
}

func TestSuggestionsRankBySharedInterests(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "Alice", "alice@example.com", "alice")
	bob := signUp(t, app, "Bob", "bob@example.com", "bob")
	carol := signUp(t, app, "Carol", "carol@example.com", "carol")

	status, _ := callJSON(t, app, http.MethodPost, "/api/onboarding", map[string]any{
		"interests": []string{"cafe"},
	}, bob.Token)
	require.Equal(t, http.StatusOK, status)
	status, _ = callJSON(t, app, http.MethodPost, "/api/onboarding", map[string]any{
		"interests": []string{"cafe", "museum"},
	}, carol.Token)
	require.Equal(t, http.StatusOK, status)

	q := url.QueryEscape(`["cafe","museum"]`)
	status, body := callJSON(t, app, http.MethodGet, "/api/users/suggestions?interests="+q, nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	users := body["users"].([]any)
	require.Len(t, users, 2)
	first := users[0].(map[string]any)
	assert.Equal(t, carol.ID, first["id"])
	assert.InDelta(t, 2, first["sharedInterests"], 0)
}

func TestGetUserByUsername(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "Alice", "alice@example.com", "alice")

	status, body := callJSON(t, app, http.MethodGet, "/api/users/by-username/@alice", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, alice.ID, body["user"].(map[string]any)["id"])

	status, body = callJSON(t, app, http.MethodGet, "/api/users/by-username/nobody", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["error"])
}

func TestFollowLifecycle(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "Alice", "alice@example.com", "alice")
	bob := signUp(t, app, "Bob", "bob@example.com", "bob")

	status, body := callJSON(t, app, http.MethodPost, "/api/users/"+bob.ID+"/follow", nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["isFollowing"])
	assert.InDelta(t, 1, body["followersCount"], 0)

	status, body = callJSON(t, app, http.MethodPost, "/api/users/"+bob.ID+"/follow", nil, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Already following this user", body["error"])

	status, body = callJSON(t, app, http.MethodPost, "/api/users/"+alice.ID+"/follow", nil, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cannot follow yourself", body["error"])

	status, _ = callJSON(t, app, http.MethodPost, "/api/users/missing/follow", nil, alice.Token)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = callJSON(t, app, http.MethodGet, "/api/users/"+bob.ID+"/follow-status", nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["isFollowing"])

	status, body = callJSON(t, app, http.MethodGet, "/api/users/"+bob.ID+"/followers", nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	followers := body["followers"].([]any)
	require.Len(t, followers, 1)
	assert.Equal(t, alice.ID, followers[0].(map[string]any)["id"])

	status, body = callJSON(t, app, http.MethodGet, "/api/users/"+alice.ID+"/following", nil, bob.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["following"], 1)

	status, body = callJSON(t, app, http.MethodDelete, "/api/users/"+bob.ID+"/follow", nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["isFollowing"])
	assert.InDelta(t, 0, body["followersCount"], 0)
}

func TestProfileFollowIsIdempotent(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "Alice", "alice@example.com", "alice")
	bob := signUp(t, app, "Bob", "bob@example.com", "bob")

	path := "/api/profile/" + bob.ID + "/follow"
	status, body := callJSON(t, app, http.MethodPost, path, nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Successfully followed", body["message"])

	status, body = callJSON(t, app, http.MethodPost, path, nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Already following", body["message"])

	status, body = callJSON(t, app, http.MethodGet, "/api/profile/"+bob.ID, nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 1, body["followersCount"], 0)
	assert.Equal(t, true, body["isFollowing"])

	status, body = callJSON(t, app, http.MethodPost, "/api/profile/"+alice.ID+"/follow", nil, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cannot follow yourself", body["error"])

	status, body = callJSON(t, app, http.MethodDelete, path, nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Successfully unfollowed", body["message"])

	status, body = callJSON(t, app, http.MethodDelete, path, nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Successfully unfollowed", body["message"])
}

func TestGetProfile(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "Alice", "alice@example.com", "alice")

	status, body := callJSON(t, app, http.MethodGet, "/api/profile/"+alice.ID, nil, "")
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, false, body["onboardingCompleted"])
	assert.Nil(t, body["interests"])
	assert.Equal(t, false, body["isFollowing"])

	status, body = callJSON(t, app, http.MethodGet, "/api/profile/nobody", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["error"])
}

func TestCheckUsername(t *testing.T) {
	_, app := newTestServer(t, nil)
	signUp(t, app, "Alice", "alice@example.com", "alice")

	status, body := callJSON(t, app, http.MethodGet, "/api/profile/check-username", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username parameter required", body["error"])

	status, body = callJSON(t, app, http.MethodGet, "/api/profile/check-username?username=%20ALICE%20", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["available"])

	status, body = callJSON(t, app, http.MethodGet, "/api/profile/check-username?username=newname", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["available"])

	status, body = callJSON(t, app, http.MethodGet, "/api/profile/check-username?username=bad_name", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username can only contain letters and numbers", body["error"])
	assert.Equal(t, false, body["available"])

	status, body = callJSON(t, app, http.MethodGet, "/api/profile/check-username?username=ab", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username must be 3-20 characters", body["error"])
}

func TestUpdateNameAndUsername(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "Alice", "alice@example.com", "alice")
	signUp(t, app, "Bob", "bob@example.com", "bob")

	status, body := callJSON(t, app, http.MethodPost, "/api/profile/update-name", map[string]any{"name": "  Alice B  "}, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Alice B", body["name"])

	status, body = callJSON(t, app, http.MethodPost, "/api/profile/update-name", map[string]any{"name": "   "}, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid input", body["error"])

	status, body = callJSON(t, app, http.MethodPost, "/api/profile/update-username", map[string]any{"username": "BOB"}, alice.Token)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Username already taken", body["error"])

	status, body = callJSON(t, app, http.MethodPost, "/api/profile/update-username", map[string]any{"username": "x!"}, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid username", body["error"])

	status, body = callJSON(t, app, http.MethodPost, "/api/profile/update-username", map[string]any{"username": "AliceB"}, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "aliceb", body["username"])
}

func TestUpdateAvatarRejectsBadInput(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "Alice", "alice@example.com", "alice")

	status, body := callJSON(t, app, http.MethodPost, "/api/profile/update-avatar", map[string]any{"image": 42}, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid image data", body["error"])

	status, body = callJSON(t, app, http.MethodPost, "/api/profile/update-avatar", map[string]any{"image": "data:image/gif;base64,R0lG"}, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid image format. Only JPEG and PNG are allowed.", body["error"])
}

func TestOnboarding(t *testing.T) {
	_, app := newTestServer(t, nil)
	alice := signUp(t, app, "Alice", "alice@example.com", "alice")

	status, body := callJSON(t, app, http.MethodPost, "/api/onboarding", map[string]any{"interests": "cafe"}, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid interests data", body["error"])

	status, _ = callJSON(t, app, http.MethodPost, "/api/onboarding", map[string]any{}, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = callJSON(t, app, http.MethodPost, "/api/onboarding", map[string]any{"interests": []string{"park", "zoo"}}, alice.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, body = callJSON(t, app, http.MethodGet, "/api/profile/"+alice.ID, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["onboardingCompleted"])
	assert.JSONEq(t, `["park","zoo"]`, body["interests"].(string))
}

func TestInterestCatalog(t *testing.T) {
	_, app := newTestServer(t, nil)

	status, body := callJSON(t, app, http.MethodGet, "/api/onboarding/interests", nil, "")
	require.Equal(t, http.StatusOK, status)
	list := body["interests"].([]any)
	assert.Len(t, list, 15)
	assert.Equal(t, "amusement_park", list[0].(map[string]any)["id"])
}
