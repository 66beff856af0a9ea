package service

import (
	"context"
	"testing"
	"time"

	"bizzy/internal/cache"
	"bizzy/internal/models"
	"bizzy/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signupAlice(t *testing.T, svc *AuthService) *AuthResult {
	t.Helper()
	res, err := svc.Signup(context.Background(), validation.SignupRequest{
		Name:     "  Alice  ",
		Email:    "Alice.Smith@Example.com",
		Password: "hunter22",
	}, ClientInfo{IPAddress: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	return res
}

func TestSignup_CreatesUserAccountAndSession(t *testing.T) {
	svc, db := newAuthFixture(t)
	res := signupAlice(t, svc)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Alice", res.User.Name)
	assert.Equal(t, "alice.smith@example.com", res.User.Email)
	assert.Equal(t, "alicesmith", res.User.Username)
	require.NotNil(t, res.User.DisplayUsername)
	assert.Equal(t, "alicesmith", *res.User.DisplayUsername)

	var account models.Account
	require.NoError(t, db.Where("user_id = ?", res.User.ID).First(&account).Error)
	assert.Equal(t, models.ProviderCredential, account.ProviderID)
	require.NotNil(t, account.Password)
	assert.NotEqual(t, "hunter22", *account.Password)

	session, err := svc.Validate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, session.ID)
	assert.Equal(t, res.User.ID, session.UserID)
}

func TestSignup_TokenClaims(t *testing.T) {
	svc, _ := newAuthFixture(t)
	res := signupAlice(t, svc)

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(res.Token, claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)
	assert.Equal(t, res.Session.ID, claims.SessionID)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{TokenAudience}, claims.Audience)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestSignup_Rejections(t *testing.T) {
	svc, _ := newAuthFixture(t)
	signupAlice(t, svc)
	ctx := context.Background()

	_, err := svc.Signup(ctx, validation.SignupRequest{
		Name: "Other", Email: "alice.smith@example.com", Password: "hunter22",
	}, ClientInfo{})
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	_, err = svc.Signup(ctx, validation.SignupRequest{
		Name: "Bob", Email: "bob@example.com", Password: "password",
	}, ClientInfo{})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = svc.Signup(ctx, validation.SignupRequest{
		Name: "Bob", Email: "not-an-email", Password: "hunter22",
	}, ClientInfo{})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = svc.Signup(ctx, validation.SignupRequest{
		Name: "Bob", Email: "bob@example.com", Password: "hunter22", Username: "AliceSmith",
	}, ClientInfo{})
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	signupAlice(t, svc)
	ctx := context.Background()

	res, err := svc.Login(ctx, validation.LoginRequest{Email: "ALICE.smith@example.com", Password: "hunter22"}, ClientInfo{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	res, err = svc.Login(ctx, validation.LoginRequest{Username: "@alicesmith", Password: "hunter22"}, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, "alicesmith", res.User.Username)

	_, err = svc.Login(ctx, validation.LoginRequest{Email: "alice.smith@example.com", Password: "wrong123"}, ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, validation.LoginRequest{Email: "nobody@example.com", Password: "hunter22"}, ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogout_RevokesSession(t *testing.T) {
	svc, _ := newAuthFixture(t)
	res := signupAlice(t, svc)
	ctx := context.Background()

	// Warm the session cache so logout has to drop it.
	_, err := svc.Validate(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.Token))
	_, err = svc.Validate(ctx, res.Token)
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))

	assert.NoError(t, svc.Logout(ctx, "garbage"))
}

func TestValidate_Rejections(t *testing.T) {
	svc, _ := newAuthFixture(t)
	res := signupAlice(t, svc)
	ctx := context.Background()

	_, err := svc.Validate(ctx, "")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))

	other := NewAuthService(svc.users, svc.accounts, svc.sessions, AuthConfig{JWTSecret: "another-secret-another-secret-xx"})
	_, err = other.Validate(ctx, res.Token)
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))

	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	_, err = svc.Validate(ctx, res.Token)
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

func TestValidate_CachesSession(t *testing.T) {
	svc, _ := newAuthFixture(t)
	res := signupAlice(t, svc)
	ctx := context.Background()

	_, err := svc.Validate(ctx, res.Token)
	require.NoError(t, err)

	claims, err := svc.parse(res.Token)
	require.NoError(t, err)
	var cached models.Session
	found, err := cache.GetJSON(ctx, cache.SessionKey(claims.ID), &cached)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, res.Session.ID, cached.ID)
}

func TestCurrent(t *testing.T) {
	svc, _ := newAuthFixture(t)
	res := signupAlice(t, svc)
	ctx := context.Background()

	cur, err := svc.Current(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, cur)

	cur, err = svc.Current(ctx, "not-a-jwt")
	assert.NoError(t, err)
	assert.Nil(t, cur)

	cur, err = svc.Current(ctx, res.Token)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, res.User.ID, cur.User.ID)
	assert.Empty(t, cur.Token)
}

func TestDeriveUsername_LowestFreeCounter(t *testing.T) {
	svc, db := newAuthFixture(t)
	for _, name := range []string{"bob", "bob1"} {
		require.NoError(t, db.Create(&models.User{ID: name, Name: name, Email: name + "@x.com", Username: name}).Error)
	}

	got, err := svc.DeriveUsername(context.Background(), "B.o.b@example.com")
	require.NoError(t, err)
	assert.Equal(t, "bob2", got)

	got, err = svc.DeriveUsername(context.Background(), "...@example.com")
	require.NoError(t, err)
	assert.Equal(t, fallbackUsername, got)
}
