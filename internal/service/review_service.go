package service

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/observability"
	"bizzy/internal/repository"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidReview rejects a bad rating or empty review text.
var ErrInvalidReview = models.NewValidationError("Rating must be an integer from 1 to 5, and review text cannot be empty")

// detailFanOut bounds concurrent place-detail lookups per request.
const detailFanOut = 4

// PlaceDetailer resolves a short place summary. *places.Client satisfies it.
type PlaceDetailer interface {
	DetailsSummary(ctx context.Context, placeID string) (*models.PlaceSummary, bool)
}

// MyReview is the caller's own review of a place.
type MyReview struct {
	Rating    int       `json:"rating"`
	Review    string    `json:"review"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SavedReview echoes an upserted review.
type SavedReview struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// ReviewService manages place reviews and likes.
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	details    PlaceDetailer
}

// NewReviewService returns a new ReviewService. details may be nil, in
// which case user review listings carry no place summaries.
func NewReviewService(reviewRepo repository.ReviewRepository, details PlaceDetailer) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		details:    details,
	}
}

// ParseRating coerces a decoded JSON value into a rating. Numbers, numeric
// strings and booleans are accepted; the result must be an integer in
// 1..5.
func ParseRating(v any) (int, bool) {
	var f float64
	switch r := v.(type) {
	case float64:
		f = r
	case int:
		f = float64(r)
	case int64:
		f = float64(r)
	case string:
		s := strings.TrimSpace(r)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if r {
			f = 1
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	rating := int(f)
	if !models.ValidRating(rating) {
		return 0, false
	}
	return rating, true
}

// reviewText coerces the review body to a trimmed string. Values other than
// strings, numbers and booleans count as empty.
func reviewText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// MyReview returns userID's review of placeID, or nil.
func (s *ReviewService) MyReview(ctx context.Context, userID, placeID string) (*MyReview, error) {
	review, err := s.reviewRepo.GetByUserAndPlace(ctx, userID, placeID)
	if err != nil || review == nil {
		return nil, err
	}
	return &MyReview{
		Rating:    review.Rating,
		Review:    review.Review,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}, nil
}

// Save creates or replaces userID's review of placeID.
func (s *ReviewService) Save(ctx context.Context, userID, placeID string, rawRating, rawReview any) (*SavedReview, error) {
	rating, ok := ParseRating(rawRating)
	text := reviewText(rawReview)
	if !ok || text == "" || placeID == "" {
		return nil, ErrInvalidReview
	}

	review := &models.PlaceReview{
		UserID:  userID,
		PlaceID: placeID,
		Rating:  rating,
		Review:  text,
	}
	if err := s.reviewRepo.Upsert(ctx, review); err != nil {
		return nil, err
	}
	return &SavedReview{Rating: rating, Review: text}, nil
}

// Delete removes userID's review of placeID.
func (s *ReviewService) Delete(ctx context.Context, userID, placeID string) error {
	return s.reviewRepo.DeleteByUserAndPlace(ctx, userID, placeID)
}

// ListForPlace returns the newest reviews of placeID. viewerID may be empty.
func (s *ReviewService) ListForPlace(ctx context.Context, viewerID, placeID string) ([]models.ReviewView, error) {
	reviews, err := s.reviewRepo.ListByPlace(ctx, placeID, repository.PlaceReviewsLimit)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, viewerID, reviews)
}

// Get returns one review with its like state for viewerID.
func (s *ReviewService) Get(ctx context.Context, viewerID, reviewID string) (*models.ReviewView, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, viewerID, []models.PlaceReview{*review})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListForUser returns userID's reviews enriched with place summaries.
// Each distinct place is looked up once.
func (s *ReviewService) ListForUser(ctx context.Context, userID string) ([]models.ReviewView, error) {
	ctx, span := observability.StartServiceSpan(ctx, "ReviewService", "ListForUser")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	reviews, err := s.reviewRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, userID, reviews)
	if err != nil {
		return nil, err
	}

	summaries := s.placeSummaries(ctx, reviews)
	for i := range views {
		if summary, ok := summaries[views[i].PlaceID]; ok {
			views[i].Place = summary
		}
	}
	return views, nil
}

func (s *ReviewService) placeSummaries(ctx context.Context, reviews []models.PlaceReview) map[string]*models.PlaceSummary {
	out := make(map[string]*models.PlaceSummary)
	if s.details == nil || len(reviews) == 0 {
		return out
	}

	seen := make(map[string]struct{}, len(reviews))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailFanOut)
	for _, r := range reviews {
		if _, dup := seen[r.PlaceID]; dup {
			continue
		}
		seen[r.PlaceID] = struct{}{}
		placeID := r.PlaceID
		g.Go(func() error {
			summary, ok := s.details.DetailsSummary(gctx, placeID)
			if !ok {
				return nil
			}
			mu.Lock()
			out[placeID] = summary
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *ReviewService) views(ctx context.Context, viewerID string, reviews []models.PlaceReview) ([]models.ReviewView, error) {
	out := make([]models.ReviewView, 0, len(reviews))
	if len(reviews) == 0 {
		return out, nil
	}
	ids := make([]string, len(reviews))
	for i := range reviews {
		ids[i] = reviews[i].ID
	}

	counts, err := s.reviewRepo.LikeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	liked, err := s.reviewRepo.LikedSet(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		v := models.NewReviewView(&reviews[i])
		v.LikeCount = counts[v.ID]
		v.IsLiked = liked[v.ID]
		out = append(out, v)
	}
	return out, nil
}

// Like records that userID likes reviewID. Liking twice is a no-op.
func (s *ReviewService) Like(ctx context.Context, userID, reviewID string) error {
	if _, err := s.reviewRepo.GetByID(ctx, reviewID); err != nil {
		return err
	}
	if err := s.reviewRepo.Like(ctx, userID, reviewID); err != nil {
		return err
	}
	middleware.Logger.DebugContext(ctx, "review liked",
		slog.String("review_id", reviewID),
	)
	return nil
}

func (s *ReviewService) Unlike(ctx context.Context, userID, reviewID string) error {
	return s.reviewRepo.Unlike(ctx, userID, reviewID)
}

func (s *ReviewService) IsLiked(ctx context.Context, userID, reviewID string) (bool, error) {
	return s.reviewRepo.IsLiked(ctx, userID, reviewID)
}
