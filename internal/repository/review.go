package repository

import (
	"context"
	"log/slog"
	"time"

	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaceReviewsLimit caps the per-place review listing.
const PlaceReviewsLimit = 50

// ReviewRepository defines persistence operations for reviews and likes.
type ReviewRepository interface {
	GetByID(ctx context.Context, id string) (*models.PlaceReview, error)
	GetByUserAndPlace(ctx context.Context, userID, placeID string) (*models.PlaceReview, error)
	ListByPlace(ctx context.Context, placeID string, limit int) ([]models.PlaceReview, error)
	ListByUser(ctx context.Context, userID string) ([]models.PlaceReview, error)
	Upsert(ctx context.Context, review *models.PlaceReview) error
	DeleteByUserAndPlace(ctx context.Context, userID, placeID string) error

	LikeCounts(ctx context.Context, reviewIDs []string) (map[string]int64, error)
	LikedSet(ctx context.Context, userID string, reviewIDs []string) (map[string]bool, error)
	Like(ctx context.Context, userID, reviewID string) error
	Unlike(ctx context.Context, userID, reviewID string) error
	IsLiked(ctx context.Context, userID, reviewID string) (bool, error)
}

type reviewRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewReviewRepository returns a new ReviewRepository implementation.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: observability.NewRepoLogger("place_reviews", middleware.Logger),
	}
}

func (r *reviewRepository) GetByID(ctx context.Context, id string) (*models.PlaceReview, error) {
	var review models.PlaceReview
	if err := readDB(r.db).WithContext(ctx).Preload("User").Where("id = ?", id).First(&review).Error; err != nil {
		return nil, notFoundOr(err, "Review not found")
	}
	return &review, nil
}

// GetByUserAndPlace returns (nil, nil) when userID has not reviewed placeID.
func (r *reviewRepository) GetByUserAndPlace(ctx context.Context, userID, placeID string) (*models.PlaceReview, error) {
	var review models.PlaceReview
	err := r.db.WithContext(ctx).
		Where("place_id = ? AND user_id = ?", placeID, userID).
		First(&review).Error
	if missing, err := absent(err); missing || err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByPlace(ctx context.Context, placeID string, limit int) ([]models.PlaceReview, error) {
	if limit <= 0 || limit > PlaceReviewsLimit {
		limit = PlaceReviewsLimit
	}
	ctx, span := observability.StartRepositorySpan(ctx, "ListByPlace", "place_reviews")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	reviews := []models.PlaceReview{}
	err = readDB(r.db).WithContext(ctx).
		Joins("User").
		Where("place_reviews.place_id = ?", placeID).
		Order("place_reviews.created_at DESC").
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID string) ([]models.PlaceReview, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "ListByUser", "place_reviews")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	reviews := []models.PlaceReview{}
	err = readDB(r.db).WithContext(ctx).
		Joins("User").
		Where("place_reviews.user_id = ?", userID).
		Order("place_reviews.created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

// Upsert inserts the review or, when the user already reviewed the place,
// overwrites its rating and text.
func (r *reviewRepository) Upsert(ctx context.Context, review *models.PlaceReview) error {
	now := time.Now()
	review.UpdatedAt = now
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "place_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "review", "updated_at"}),
	}).Create(review).Error
	if err != nil {
		r.log.LogError(ctx, err, "upsert")
		return models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, slog.String("user_id", review.UserID), slog.String("place_id", review.PlaceID))
	return nil
}

func (r *reviewRepository) DeleteByUserAndPlace(ctx context.Context, userID, placeID string) error {
	res := r.db.WithContext(ctx).
		Where("place_id = ? AND user_id = ?", placeID, userID).
		Delete(&models.PlaceReview{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundMessage("Review not found")
	}
	r.log.LogDelete(ctx, slog.String("user_id", userID), slog.String("place_id", placeID))
	return nil
}

type likeCountRow struct {
	ReviewID string
	Count    int64
}

// LikeCounts returns the like total per review. Reviews without likes are
// absent from the map.
func (r *reviewRepository) LikeCounts(ctx context.Context, reviewIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return counts, nil
	}
	var rows []likeCountRow
	err := readDB(r.db).WithContext(ctx).
		Model(&models.ReviewLike{}).
		Select("review_id, COUNT(*) AS count").
		Where("review_id IN ?", reviewIDs).
		Group("review_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		counts[row.ReviewID] = row.Count
	}
	return counts, nil
}

// LikedSet returns which of reviewIDs userID has liked.
func (r *reviewRepository) LikedSet(ctx context.Context, userID string, reviewIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool)
	if userID == "" || len(reviewIDs) == 0 {
		return liked, nil
	}
	var ids []string
	err := readDB(r.db).WithContext(ctx).
		Model(&models.ReviewLike{}).
		Where("user_id = ? AND review_id IN ?", userID, reviewIDs).
		Pluck("review_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (r *reviewRepository) Like(ctx context.Context, userID, reviewID string) error {
	like := models.ReviewLike{UserID: userID, ReviewID: reviewID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
		r.log.LogError(ctx, err, "like")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reviewRepository) Unlike(ctx context.Context, userID, reviewID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND review_id = ?", userID, reviewID).
		Delete(&models.ReviewLike{}).Error
	if err != nil {
		r.log.LogError(ctx, err, "unlike")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reviewRepository) IsLiked(ctx context.Context, userID, reviewID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReviewLike{}).
		Where("user_id = ? AND review_id = ?", userID, reviewID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
