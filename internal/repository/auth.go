package repository

import (
	"context"
	"log/slog"
	"time"

	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/observability"

	"gorm.io/gorm"
)

// SessionRepository persists login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewSessionRepository returns a new SessionRepository implementation.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{
		db:  db,
		log: observability.NewRepoLogger("sessions", middleware.Logger),
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, slog.String("session_id", session.ID), slog.String("user_id", session.UserID))
	return nil
}

// GetByToken reads from the primary so a session is visible to the request
// right after login. It returns (nil, nil) when no row matches.
func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&session).Error
	if missing, err := absent(err); missing || err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx)
	return nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

// AccountRepository persists provider accounts linked to users.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByProvider(ctx context.Context, providerID, accountID string) (*models.Account, error)
	GetCredential(ctx context.Context, userID string) (*models.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository returns a new AccountRepository implementation.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Account already linked")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// GetByProvider returns (nil, nil) when the provider account is unknown.
func (r *accountRepository) GetByProvider(ctx context.Context, providerID, accountID string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND account_id = ?", providerID, accountID).
		First(&account).Error
	if missing, err := absent(err); missing || err != nil {
		return nil, err
	}
	return &account, nil
}

// GetCredential returns the password account of userID, or (nil, nil).
func (r *accountRepository) GetCredential(ctx context.Context, userID string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider_id = ?", userID, models.ProviderCredential).
		First(&account).Error
	if missing, err := absent(err); missing || err != nil {
		return nil, err
	}
	return &account, nil
}
