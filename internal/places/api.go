package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"bizzy/internal/cache"
	"bizzy/internal/middleware"
	"bizzy/internal/models"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// DetailsFields is the field mask for the full place-details lookup.
var DetailsFields = []string{
	"place_id", "name", "formatted_address", "formatted_phone_number", "website",
	"rating", "user_ratings_total", "reviews", "opening_hours", "photos",
	"price_level", "business_status", "types",
}

var summaryFields = []string{"place_id", "name", "formatted_address"}

// StatusError is a details response whose "status" is not OK.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Google API returned status: " + e.Status
}

// NearbyParams are the nearby-search inputs. Empty fields take the defaults.
type NearbyParams struct {
	Location string
	Radius   string
	Type     string
}

func (p NearbyParams) withDefaults() NearbyParams {
	if p.Location == "" {
		p.Location = DefaultLocation
	}
	if p.Radius == "" {
		p.Radius = DefaultRadius
	}
	if p.Type == "" {
		p.Type = DefaultType
	}
	return p
}

// NearbySearch returns the raw nearby-search JSON body.
func (c *Client) NearbySearch(ctx context.Context, p NearbyParams) ([]byte, error) {
	p = p.withDefaults()
	q := url.Values{}
	q.Set("location", p.Location)
	q.Set("radius", p.Radius)
	q.Set("type", p.Type)

	resp, err := c.get(ctx, "nearby", "/nearbysearch/json", q)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return nil, errors.New("places: nearby search returned invalid JSON")
	}
	return resp.Body, nil
}

// NearbyResults runs a nearby search and decodes each entry of "results".
func (c *Client) NearbyResults(ctx context.Context, p NearbyParams) ([]map[string]any, error) {
	body, err := c.NearbySearch(ctx, p)
	if err != nil {
		return nil, err
	}
	results := gjson.GetBytes(body, "results")
	if !results.IsArray() {
		return nil, nil
	}

	out := make([]map[string]any, 0, len(results.Array()))
	var decodeErr error
	results.ForEach(func(_, v gjson.Result) bool {
		var place map[string]any
		if err := json.Unmarshal([]byte(v.Raw), &place); err != nil {
			decodeErr = err
			return false
		}
		out = append(out, place)
		return true
	})
	if decodeErr != nil {
		return nil, fmt.Errorf("places: decode nearby result: %w", decodeErr)
	}
	return out, nil
}

// Details returns the raw place-details body. A body whose status is not
// OK yields *StatusError.
func (c *Client) Details(ctx context.Context, placeID string) ([]byte, error) {
	return c.details(ctx, placeID, DetailsFields)
}

func (c *Client) details(ctx context.Context, placeID string, fields []string) ([]byte, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", strings.Join(fields, ","))

	resp, err := c.get(ctx, "details", "/details/json", q)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return nil, errors.New("places: details returned invalid JSON")
	}

	parsed := gjson.ParseBytes(resp.Body)
	if status := parsed.Get("status").String(); status != "OK" {
		middleware.Logger.WarnContext(ctx, "google places details error",
			slog.String("place_id", placeID),
			slog.String("status", status),
			slog.String("error_message", parsed.Get("error_message").String()),
		)
		return nil, &StatusError{Status: status, Message: parsed.Get("error_message").String()}
	}
	return resp.Body, nil
}

// DetailsSummary resolves {place_id, name, formatted_address} for a place,
// caching hits for a day. Any failure, including a missing API key,
// yields (nil, false).
func (c *Client) DetailsSummary(ctx context.Context, placeID string) (*models.PlaceSummary, bool) {
	if !c.Configured() || placeID == "" {
		return nil, false
	}

	var summary models.PlaceSummary
	err := cache.Aside(ctx, cache.PlaceDetailsKey(placeID), &summary, cache.PlaceDetailsTTL, func() error {
		body, err := c.details(ctx, placeID, summaryFields)
		if err != nil {
			return err
		}
		result := gjson.GetBytes(body, "result")
		if !result.Exists() {
			return errors.New("places: details without result")
		}
		summary = models.PlaceSummary{
			PlaceID:          result.Get("place_id").String(),
			Name:             result.Get("name").String(),
			FormattedAddress: result.Get("formatted_address").String(),
		}
		return nil
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "place summary unavailable",
			slog.String("place_id", placeID),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return &summary, true
}

// Photo is an upstream place photo.
type Photo struct {
	ContentType string
	Data        []byte
}

// Photo fetches a place photo by reference. maxWidth defaults to 400.
func (c *Client) Photo(ctx context.Context, reference, maxWidth string) (*Photo, error) {
	if maxWidth == "" {
		maxWidth = DefaultPhotoMaxWidth
	}
	q := url.Values{}
	q.Set("maxwidth", maxWidth)
	q.Set("photoreference", reference)

	resp, err := c.get(ctx, "photo", "/photo", q)
	if err != nil {
		return nil, err
	}
	ct := resp.ContentType
	if ct == "" {
		ct = "image/jpeg"
	}
	return &Photo{ContentType: ct, Data: resp.Body}, nil
}
