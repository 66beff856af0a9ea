package service

import (
	"context"
	"log/slog"

	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/repository"
)

// SavePlaceInput is a place bookmark request. Coordinates are pointers so
// zero stays distinguishable from absent.
type SavePlaceInput struct {
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formattedAddress"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	PlaceID          *string  `json:"placeId"`
}

// PlaceAlreadySavedError carries the existing bookmark of a duplicate save.
type PlaceAlreadySavedError struct {
	Place *models.SavedPlace
}

func (e *PlaceAlreadySavedError) Error() string { return "Place is already saved" }

// PlaceService manages saved places.
type PlaceService struct {
	placeRepo repository.SavedPlaceRepository
}

// NewPlaceService returns a new PlaceService.
func NewPlaceService(placeRepo repository.SavedPlaceRepository) *PlaceService {
	return &PlaceService{placeRepo: placeRepo}
}

// Save bookmarks a place for userID. Saving a Google place twice returns
// *PlaceAlreadySavedError.
func (s *PlaceService) Save(ctx context.Context, userID string, in SavePlaceInput) (*models.SavedPlace, error) {
	if in.Name == "" || in.FormattedAddress == "" || in.Latitude == nil || in.Longitude == nil {
		return nil, models.NewValidationError("Missing required fields: name, formattedAddress, latitude, longitude")
	}

	var placeID *string
	if in.PlaceID != nil && *in.PlaceID != "" {
		placeID = in.PlaceID
		existing, err := s.placeRepo.FindByUserAndPlaceID(ctx, userID, *placeID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, &PlaceAlreadySavedError{Place: existing}
		}
	}

	place := &models.SavedPlace{
		UserID:           userID,
		Name:             in.Name,
		FormattedAddress: in.FormattedAddress,
		Latitude:         *in.Latitude,
		Longitude:        *in.Longitude,
		PlaceID:          placeID,
	}
	if err := s.placeRepo.Create(ctx, place); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "place saved",
		slog.String("user_id", userID),
		slog.String("saved_place_id", place.ID),
	)
	return place, nil
}

// Check returns userID's bookmark of placeID, or nil.
func (s *PlaceService) Check(ctx context.Context, userID, placeID string) (*models.SavedPlace, error) {
	if placeID == "" {
		return nil, models.NewValidationError("placeId is required")
	}
	return s.placeRepo.FindByUserAndPlaceID(ctx, userID, placeID)
}

// ListForUser returns userID's bookmarks, newest first.
func (s *PlaceService) ListForUser(ctx context.Context, userID string) ([]models.SavedPlace, error) {
	return s.placeRepo.ListByUser(ctx, userID)
}

// Remove deletes one of userID's bookmarks.
func (s *PlaceService) Remove(ctx context.Context, userID, id string) error {
	return s.placeRepo.Delete(ctx, userID, id)
}
