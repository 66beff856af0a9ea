package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	SessionKeyPrefix      = "session:%s"
	UserKeyPrefix         = "user:%s"
	PlaceDetailsKeyPrefix = "place:details:%s"
	OAuthStateKeyPrefix   = "oauth:state:%s"
	NearbyKeyPrefix       = "nearby:%s:%s:%s"
)

const (
	SessionTTL      = 15 * time.Minute
	UserTTL         = 5 * time.Minute
	PlaceDetailsTTL = 24 * time.Hour
	OAuthStateTTL   = 10 * time.Minute
	NearbyTTL       = 2 * time.Minute
)

func SessionKey(token string) string {
	return fmt.Sprintf(SessionKeyPrefix, token)
}

func UserKey(userID string) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PlaceDetailsKey(placeID string) string {
	return fmt.Sprintf(PlaceDetailsKeyPrefix, placeID)
}

func OAuthStateKey(state string) string {
	return fmt.Sprintf(OAuthStateKeyPrefix, state)
}

// NearbyKey keys a nearby search by the exact location, radius and type
// strings sent upstream.
func NearbyKey(location, radius, placeType string) string {
	return fmt.Sprintf(NearbyKeyPrefix, location, radius, placeType)
}

// family returns the key prefix up to the first colon, used as a metric label.
func family(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID string) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateSession(ctx context.Context, token string) {
	Invalidate(ctx, SessionKey(token))
}
