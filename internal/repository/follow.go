package repository

import (
	"context"
	"log/slog"

	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines persistence operations for follow edges.
type FollowRepository interface {
	Create(ctx context.Context, followerID, followingID string) error
	CreateIfMissing(ctx context.Context, followerID, followingID string) (bool, error)
	Delete(ctx context.Context, followerID, followingID string) error
	Exists(ctx context.Context, followerID, followingID string) (bool, error)
	Counts(ctx context.Context, userID string) (models.FollowCounts, error)
	Followers(ctx context.Context, userID string) ([]models.FollowListEntry, error)
	Following(ctx context.Context, userID string) ([]models.FollowListEntry, error)
}

type followRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{
		db:  db,
		log: observability.NewRepoLogger("follows", middleware.Logger),
	}
}

func (r *followRepository) Create(ctx context.Context, followerID, followingID string) error {
	edge := models.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := r.db.WithContext(ctx).Create(&edge).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Already following this user")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, slog.String("follower_id", followerID), slog.String("following_id", followingID))
	return nil
}

// CreateIfMissing inserts the edge unless it already exists and reports
// whether a row was written.
func (r *followRepository) CreateIfMissing(ctx context.Context, followerID, followingID string) (bool, error) {
	edge := models.Follow{FollowerID: followerID, FollowingID: followingID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "create_if_missing")
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID string) error {
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{}).Error
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, slog.String("follower_id", followerID), slog.String("following_id", followingID))
	return nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Counts reads from the primary so counts returned after a follow or
// unfollow include that write.
func (r *followRepository) Counts(ctx context.Context, userID string) (models.FollowCounts, error) {
	var counts models.FollowCounts
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Follow{}).Where("following_id = ?", userID).Count(&counts.Followers).Error; err != nil {
		return counts, models.NewInternalError(err)
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&counts.Following).Error; err != nil {
		return counts, models.NewInternalError(err)
	}
	return counts, nil
}

func (r *followRepository) Followers(ctx context.Context, userID string) ([]models.FollowListEntry, error) {
	return r.list(ctx, "follows.follower_id", "follows.following_id", userID)
}

func (r *followRepository) Following(ctx context.Context, userID string) ([]models.FollowListEntry, error) {
	return r.list(ctx, "follows.following_id", "follows.follower_id", userID)
}

// list joins the users on the joinCol side of edges whose filterCol is userID.
func (r *followRepository) list(ctx context.Context, joinCol, filterCol, userID string) ([]models.FollowListEntry, error) {
	entries := []models.FollowListEntry{}
	err := readDB(r.db).WithContext(ctx).
		Table("follows").
		Select("users.id, users.name, users.username, users.image, follows.created_at").
		Joins("JOIN users ON users.id = "+joinCol).
		Where(filterCol+" = ?", userID).
		Order("follows.created_at ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}
