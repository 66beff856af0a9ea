package repository

import (
	"context"
	"log/slog"

	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/observability"

	"gorm.io/gorm"
)

// CommunityPlacesLimit caps how many saved places feed recommendations.
const CommunityPlacesLimit = 20

// SavedPlaceRepository defines persistence operations for saved places.
type SavedPlaceRepository interface {
	Create(ctx context.Context, place *models.SavedPlace) error
	FindByUserAndPlaceID(ctx context.Context, userID, placeID string) (*models.SavedPlace, error)
	ListByUser(ctx context.Context, userID string) ([]models.SavedPlace, error)
	ListByUsers(ctx context.Context, userIDs []string, limit int) ([]models.SavedPlace, error)
	Delete(ctx context.Context, userID, id string) error
}

type savedPlaceRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewSavedPlaceRepository returns a new SavedPlaceRepository implementation.
func NewSavedPlaceRepository(db *gorm.DB) SavedPlaceRepository {
	return &savedPlaceRepository{
		db:  db,
		log: observability.NewRepoLogger("saved_places", middleware.Logger),
	}
}

func (r *savedPlaceRepository) Create(ctx context.Context, place *models.SavedPlace) error {
	if err := r.db.WithContext(ctx).Create(place).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, slog.String("saved_place_id", place.ID), slog.String("user_id", place.UserID))
	return nil
}

// FindByUserAndPlaceID returns (nil, nil) when userID has not saved placeID.
func (r *savedPlaceRepository) FindByUserAndPlaceID(ctx context.Context, userID, placeID string) (*models.SavedPlace, error) {
	var place models.SavedPlace
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND place_id = ?", userID, placeID).
		First(&place).Error
	if missing, err := absent(err); missing || err != nil {
		return nil, err
	}
	return &place, nil
}

// ListByUser returns userID's saved places, newest first.
func (r *savedPlaceRepository) ListByUser(ctx context.Context, userID string) ([]models.SavedPlace, error) {
	places := []models.SavedPlace{}
	err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&places).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return places, nil
}

func (r *savedPlaceRepository) ListByUsers(ctx context.Context, userIDs []string, limit int) ([]models.SavedPlace, error) {
	places := []models.SavedPlace{}
	if len(userIDs) == 0 {
		return places, nil
	}
	if limit <= 0 {
		limit = CommunityPlacesLimit
	}
	err := readDB(r.db).WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Limit(limit).
		Find(&places).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return places, nil
}

// Delete removes one of userID's saved places. Places owned by someone else
// are reported as missing.
func (r *savedPlaceRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.SavedPlace{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundMessage("Place not found")
	}
	r.log.LogDelete(ctx, slog.String("saved_place_id", id))
	return nil
}
