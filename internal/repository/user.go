package repository

import (
	"context"
	"log/slog"
	"strings"

	"bizzy/internal/cache"
	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/observability"

	"gorm.io/gorm"
)

// SearchLimit caps user search results.
const SearchLimit = 20

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	CreateWithAccount(ctx context.Context, user *models.User, account *models.Account) error
	Search(ctx context.Context, query, excludeID string, limit int) ([]models.User, error)
	ListExcept(ctx context.Context, excludeID string) ([]models.User, error)
	ListWithInterests(ctx context.Context) ([]models.User, error)
	UpdateName(ctx context.Context, id, name string) error
	UpdateUsername(ctx context.Context, id, username string) error
	UpdateImage(ctx context.Context, id, image string) error
	CompleteOnboarding(ctx context.Context, id, interests string) error
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db:  db,
		log: observability.NewRepoLogger("users", middleware.Logger),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
			return notFoundOr(err, "User not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := readDB(r.db).WithContext(ctx).Where("email = ?", email).First(&user).Error
	if missing, err := absent(err); missing || err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := readDB(r.db).WithContext(ctx).Where("username = ?", username).First(&user).Error
	if missing, err := absent(err); missing || err != nil {
		return nil, err
	}
	return &user, nil
}

// UsernameExists reports whether username belongs to a user other than
// excludeID. An empty excludeID checks every user.
func (r *userRepository) UsernameExists(ctx context.Context, username, excludeID string) (bool, error) {
	var count int64
	q := readDB(r.db).WithContext(ctx).Model(&models.User{}).Where("username = ?", username)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, slog.String("user_id", user.ID))
	return nil
}

// CreateWithAccount inserts a user and its first login account atomically.
func (r *userRepository) CreateWithAccount(ctx context.Context, user *models.User, account *models.Account) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		account.UserID = user.ID
		return tx.Create(account).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists")
		}
		r.log.LogError(ctx, err, "create_with_account")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, slog.String("user_id", user.ID), slog.String("provider", account.ProviderID))
	return nil
}

// Search matches query case-insensitively against name or email.
func (r *userRepository) Search(ctx context.Context, query, excludeID string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > SearchLimit {
		limit = SearchLimit
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	ctx, span := observability.StartRepositorySpan(ctx, "Search", "users")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var users []models.User
	err = readDB(r.db).WithContext(ctx).
		Where("id <> ?", excludeID).
		Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\')", pattern, pattern).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// ListExcept returns every user but excludeID in insertion order.
func (r *userRepository) ListExcept(ctx context.Context, excludeID string) ([]models.User, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "ListExcept", "users")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var users []models.User
	err = readDB(r.db).WithContext(ctx).
		Select("id", "name", "image", "interests").
		Where("id <> ?", excludeID).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// ListWithInterests returns the ID and interests of every user that has
// stored interests.
func (r *userRepository) ListWithInterests(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Select("id", "interests").
		Where("interests IS NOT NULL").
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) UpdateName(ctx context.Context, id, name string) error {
	return r.update(ctx, id, "update_name", map[string]any{"name": name})
}

func (r *userRepository) UpdateUsername(ctx context.Context, id, username string) error {
	err := r.update(ctx, id, "update_username", map[string]any{
		"username":         username,
		"display_username": username,
	})
	if models.ErrorCode(err) == models.CodeConflict {
		return models.NewConflictError("Username already taken")
	}
	return err
}

func (r *userRepository) UpdateImage(ctx context.Context, id, image string) error {
	return r.update(ctx, id, "update_image", map[string]any{"image": image})
}

func (r *userRepository) CompleteOnboarding(ctx context.Context, id, interests string) error {
	return r.update(ctx, id, "complete_onboarding", map[string]any{
		"interests":            interests,
		"onboarding_completed": true,
	})
}

func (r *userRepository) update(ctx context.Context, id, op string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewConflictError("User already exists")
		}
		r.log.LogError(ctx, res.Error, op)
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundMessage("User not found")
	}
	cache.InvalidateUser(ctx, id)
	r.log.LogUpdate(ctx, slog.String("user_id", id), slog.String("op", op))
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
