package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"bizzy/internal/cache"
	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/observability"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// GoogleUserInfoURL is the OpenID Connect userinfo endpoint.
const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleConfig configures Google sign-in. Endpoint and UserInfoURL default
// to Google's production endpoints.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
	HTTPClient   *http.Client
}

// GoogleProfile is the subset of the userinfo response used to sign in.
type GoogleProfile struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleOAuth runs the authorization-code flow against Google and signs the
// resulting user in through AuthService.
type GoogleOAuth struct {
	auth        *AuthService
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewGoogleOAuth returns nil when client credentials are missing.
func NewGoogleOAuth(auth *AuthService, cfg GoogleConfig) *GoogleOAuth {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil
	}
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = endpoints.Google
	}
	userInfo := cfg.UserInfoURL
	if userInfo == "" {
		userInfo = GoogleUserInfoURL
	}
	return &GoogleOAuth{
		auth: auth,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: userInfo,
		httpClient:  cfg.HTTPClient,
	}
}

// Configured reports whether Google sign-in is available.
func (g *GoogleOAuth) Configured() bool {
	return g != nil && g.oauth != nil
}

// AuthURL stores a fresh state value and returns the consent URL.
func (g *GoogleOAuth) AuthURL(ctx context.Context) (string, error) {
	if !g.Configured() {
		return "", models.NewInternalError(fmt.Errorf("google oauth not configured"))
	}
	state, err := randomState()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if err := cache.SetString(ctx, cache.OAuthStateKey(state), "1", cache.OAuthStateTTL); err != nil {
		return "", models.NewInternalError(err)
	}
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Callback consumes state, exchanges code and signs the Google user in,
// creating or linking the local user as needed.
func (g *GoogleOAuth) Callback(ctx context.Context, code, state string, client ClientInfo) (*AuthResult, error) {
	if !g.Configured() {
		return nil, models.NewInternalError(fmt.Errorf("google oauth not configured"))
	}
	if code == "" || state == "" {
		return nil, models.NewValidationError("Invalid OAuth callback")
	}
	stored, err := cache.TakeString(ctx, cache.OAuthStateKey(state))
	if err != nil || stored == "" {
		observability.AuthEvents.WithLabelValues("google", "invalid_state").Inc()
		return nil, models.NewValidationError("Invalid OAuth state")
	}

	if g.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	}
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		observability.AuthEvents.WithLabelValues("google", "exchange_failed").Inc()
		return nil, models.NewUnauthorizedError("Google sign-in failed")
	}
	profile, err := g.fetchProfile(ctx, tok)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if profile.Sub == "" || profile.Email == "" {
		return nil, models.NewUnauthorizedError("Google sign-in failed")
	}

	user, err := g.resolveUser(ctx, profile, tok)
	if err != nil {
		return nil, err
	}
	observability.AuthEvents.WithLabelValues("google", "ok").Inc()
	return g.auth.issue(ctx, user, client)
}

func (g *GoogleOAuth) fetchProfile(ctx context.Context, tok *oauth2.Token) (*GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := g.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo: status %d", res.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var profile GoogleProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	return &profile, nil
}

// resolveUser finds the user linked to the Google subject, else links the
// account to the user with the same email, else creates a new user whose
// ID is the subject. Linking by email requires Google to have verified it.
func (g *GoogleOAuth) resolveUser(ctx context.Context, p *GoogleProfile, tok *oauth2.Token) (*models.User, error) {
	users, accounts := g.auth.users, g.auth.accounts

	linked, err := accounts.GetByProvider(ctx, models.ProviderGoogle, p.Sub)
	if err != nil {
		return nil, err
	}
	if linked != nil {
		return users.GetByID(ctx, linked.UserID)
	}

	email := strings.ToLower(strings.TrimSpace(p.Email))
	account := googleAccount(p.Sub, tok)

	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !p.EmailVerified {
			observability.AuthEvents.WithLabelValues("google", "unverified_email").Inc()
			return nil, models.NewConflictError("An account with this email already exists")
		}
		account.UserID = existing.ID
		if err := accounts.Create(ctx, account); err != nil {
			return nil, err
		}
		middleware.Logger.InfoContext(ctx, "linked google account", slog.String("user_id", existing.ID))
		return existing, nil
	}

	username, err := g.auth.DeriveUsername(ctx, email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = username
	}
	user := &models.User{
		ID:              p.Sub,
		Name:            name,
		Email:           email,
		Username:        username,
		DisplayUsername: &username,
	}
	if p.Picture != "" {
		picture := p.Picture
		user.Image = &picture
	}
	if err := users.CreateWithAccount(ctx, user, account); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "user signed up with google", slog.String("user_id", user.ID))
	return user, nil
}

func googleAccount(sub string, tok *oauth2.Token) *models.Account {
	account := &models.Account{
		ID:         uuid.NewString(),
		AccountID:  sub,
		ProviderID: models.ProviderGoogle,
	}
	if tok == nil {
		return account
	}
	if tok.AccessToken != "" {
		account.AccessToken = &tok.AccessToken
	}
	if tok.RefreshToken != "" {
		account.RefreshToken = &tok.RefreshToken
	}
	if idToken, ok := tok.Extra("id_token").(string); ok && idToken != "" {
		account.IDToken = &idToken
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		account.AccessTokenExpiresAt = &expiry
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		account.Scope = &scope
	}
	return account
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
