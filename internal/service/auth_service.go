package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"bizzy/internal/cache"
	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/observability"
	"bizzy/internal/repository"
	"bizzy/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Token claims shared by the issuer and the validator.
const (
	TokenIssuer   = "bizzy-api"
	TokenAudience = "bizzy-client"

	fallbackUsername = "user"
)

// ErrInvalidCredentials is returned for any failed password login.
var ErrInvalidCredentials = models.NewUnauthorizedError("Invalid credentials")

// AuthConfig configures session issuance.
type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
}

// ClientInfo describes the device a session is created for.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// AuthResult is a freshly issued or validated session.
type AuthResult struct {
	Token   string          `json:"token,omitempty"`
	User    *models.User    `json:"user"`
	Session *models.Session `json:"session"`
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// AuthService owns signup, login and session lifecycle.
type AuthService struct {
	users    repository.UserRepository
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	cfg      AuthConfig
	now      func() time.Time
}

// NewAuthService returns a new AuthService.
func NewAuthService(
	users repository.UserRepository,
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	cfg AuthConfig,
) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:    users,
		accounts: accounts,
		sessions: sessions,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Signup creates a credential user and logs them in.
func (s *AuthService) Signup(ctx context.Context, req validation.SignupRequest, client ClientInfo) (*AuthResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = validation.NormalizeUsername(req.Username)

	if issues := validation.Struct(req); issues != nil {
		observability.AuthEvents.WithLabelValues("signup", "invalid").Inc()
		return nil, models.NewValidationErrorWithDetails("Invalid input", issues)
	}
	if err := validation.ValidateName(req.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		observability.AuthEvents.WithLabelValues("signup", "invalid").Inc()
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		observability.AuthEvents.WithLabelValues("signup", "conflict").Inc()
		return nil, models.NewConflictError("User already exists")
	}

	username := req.Username
	if username != "" {
		taken, err := s.users.UsernameExists(ctx, username, "")
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewConflictError("Username already taken")
		}
	} else if username, err = s.DeriveUsername(ctx, req.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	hashed := string(hash)

	user := &models.User{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Email:           req.Email,
		Username:        username,
		DisplayUsername: &username,
	}
	account := &models.Account{
		ID:         uuid.NewString(),
		AccountID:  user.ID,
		ProviderID: models.ProviderCredential,
		Password:   &hashed,
	}
	if err := s.users.CreateWithAccount(ctx, user, account); err != nil {
		return nil, err
	}

	observability.AuthEvents.WithLabelValues("signup", "ok").Inc()
	middleware.Logger.InfoContext(ctx, "user signed up", slog.String("user_id", user.ID))
	return s.issue(ctx, user, client)
}

// Login authenticates by email or username plus password.
func (s *AuthService) Login(ctx context.Context, req validation.LoginRequest, client ClientInfo) (*AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = validation.NormalizeUsername(strings.TrimPrefix(strings.TrimSpace(req.Username), "@"))
	if issues := validation.Struct(req); issues != nil {
		return nil, models.NewValidationErrorWithDetails("Invalid input", issues)
	}

	var (
		user *models.User
		err  error
	)
	if req.Email != "" {
		user, err = s.users.GetByEmail(ctx, req.Email)
	} else {
		user, err = s.users.GetByUsername(ctx, req.Username)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		observability.AuthEvents.WithLabelValues("login", "rejected").Inc()
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.GetCredential(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.Password == nil ||
		bcrypt.CompareHashAndPassword([]byte(*account.Password), []byte(req.Password)) != nil {
		observability.AuthEvents.WithLabelValues("login", "rejected").Inc()
		return nil, ErrInvalidCredentials
	}

	observability.AuthEvents.WithLabelValues("login", "ok").Inc()
	return s.issue(ctx, user, client)
}

// Logout revokes the session behind token. Unknown or malformed tokens are
// ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	cache.InvalidateSession(ctx, claims.ID)
	return s.sessions.DeleteByToken(ctx, claims.ID)
}

// Validate checks the signed token and that its session still exists and
// has not expired.
func (s *AuthService) Validate(ctx context.Context, token string) (*models.Session, error) {
	ctx, span := observability.StartServiceSpan(ctx, "AuthService", "Validate")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	claims, err := s.parse(token)
	if err != nil {
		return nil, models.NewUnauthorizedError("Unauthorized")
	}

	session, err := s.lookupSession(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.ID != claims.SessionID || session.UserID != claims.Subject || session.Expired(s.now()) {
		return nil, models.NewUnauthorizedError("Unauthorized")
	}
	session.Token = claims.ID
	return session, nil
}

// Current resolves token into its user and session, or (nil, nil) when the
// caller is anonymous.
func (s *AuthService) Current(ctx context.Context, token string) (*AuthResult, error) {
	if token == "" {
		return nil, nil
	}
	session, err := s.Validate(ctx, token)
	if err != nil {
		if models.ErrorCode(err) == models.CodeUnauthorized {
			return nil, nil
		}
		return nil, err
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &AuthResult{User: user, Session: session}, nil
}

// DeriveUsername picks the first free name among base, base1, base2, ...
// where base is the sanitized local part of email.
func (s *AuthService) DeriveUsername(ctx context.Context, email string) (string, error) {
	base := validation.DeriveUsernameBase(email)
	if base == "" {
		base = fallbackUsername
	}
	candidate := base
	for i := 1; ; i++ {
		taken, err := s.users.UsernameExists(ctx, candidate, "")
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
}

// issue persists a session row for user and signs its token.
func (s *AuthService) issue(ctx context.Context, user *models.User, client ClientInfo) (*AuthResult, error) {
	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	claims := sessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        session.Token,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: signed, User: user, Session: session}, nil
}

func (s *AuthService) parse(token string) (*sessionClaims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.SessionID == "" || claims.Subject == "" {
		return nil, errors.New("incomplete session claims")
	}
	return claims, nil
}

// lookupSession reads the session from Redis, falling back to the database.
// Cached entries never outlive the session.
func (s *AuthService) lookupSession(ctx context.Context, token string) (*models.Session, error) {
	key := cache.SessionKey(token)
	var cached models.Session
	if found, err := cache.GetJSON(ctx, key, &cached); err == nil && found {
		observability.CacheLookups.WithLabelValues("session", "hit").Inc()
		return &cached, nil
	}
	observability.CacheLookups.WithLabelValues("session", "miss").Inc()

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil || session == nil {
		return session, err
	}
	ttl := cache.SessionTTL
	if remaining := session.ExpiresAt.Sub(s.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl > 0 {
		_ = cache.SetJSON(ctx, key, session, ttl)
	}
	return session, nil
}
