package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ecoquest/backend/internal/cache"
	"github.com/ecoquest/backend/internal/domain"
	"github.com/ecoquest/backend/internal/observability"
)

// GeocoderConfig configures the Nominatim client
type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
	CacheTTL  time.Duration
	Timeout   time.Duration
}

type geocodeHit struct {
	point domain.GeoPoint
	name  string
	found bool
}

// Geocoder resolves place names to coordinates and back using Nominatim.
// Answers, misses included, are cached for CacheTTL.
type Geocoder struct {
	cfg        GeocoderConfig
	httpClient *http.Client
	cache      *cache.Cache[geocodeHit]
	metrics    *observability.Metrics
	log        *slog.Logger
}

// NewGeocoder creates a new geocoder
func NewGeocoder(cfg GeocoderConfig, metrics *observability.Metrics, log *slog.Logger) *Geocoder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Geocoder{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache.New[geocodeHit](cfg.CacheTTL),
		metrics:    metrics,
		log:        log.With("component", "geocoder"),
	}
}

// Close stops the cache sweeper
func (g *Geocoder) Close() {
	g.cache.Close()
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Geocode looks up a place name. found is false when Nominatim has no match.
func (g *Geocoder) Geocode(ctx context.Context, query string) (domain.GeoPoint, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.GeoPoint{}, false, nil
	}
	key := "search:" + strings.ToLower(query)
	if hit, ok := g.cache.Get(key); ok {
		return hit.point, hit.found, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	var places []nominatimPlace
	if err := g.get(ctx, "search", "/search?"+params.Encode(), &places); err != nil {
		return domain.GeoPoint{}, false, err
	}

	hit := geocodeHit{}
	if len(places) > 0 {
		lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
		lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
		if latErr != nil || lonErr != nil {
			return domain.GeoPoint{}, false, fmt.Errorf("geocoder: invalid coordinates %q,%q", places[0].Lat, places[0].Lon)
		}
		hit = geocodeHit{point: domain.GeoPoint{Latitude: lat, Longitude: lon}, name: places[0].DisplayName, found: true}
	}
	g.cache.Set(key, hit)
	return hit.point, hit.found, nil
}

// Reverse returns the display name of the place at p
func (g *Geocoder) Reverse(ctx context.Context, p domain.GeoPoint) (string, bool, error) {
	key := fmt.Sprintf("reverse:%.5f,%.5f", p.Latitude, p.Longitude)
	if hit, ok := g.cache.Get(key); ok {
		return hit.name, hit.found, nil
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(p.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(p.Longitude, 'f', -1, 64))
	params.Set("format", "json")

	var place nominatimPlace
	if err := g.get(ctx, "reverse", "/reverse?"+params.Encode(), &place); err != nil {
		return "", false, err
	}

	// Nominatim answers 200 with {"error": "Unable to geocode"} on a miss
	hit := geocodeHit{point: p, name: place.DisplayName, found: place.Error == "" && place.DisplayName != ""}
	g.cache.Set(key, hit)
	return hit.name, hit.found, nil
}

func (g *Geocoder) get(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(g.cfg.BaseURL, "/")+path, nil)
	if err != nil {
		return fmt.Errorf("geocoder: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.metrics.ObserveUpstream("nominatim", op, "error")
		return fmt.Errorf("geocoder: %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.metrics.ObserveUpstream("nominatim", op, "error")
		return fmt.Errorf("geocoder: %s returned status %d", op, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		g.metrics.ObserveUpstream("nominatim", op, "error")
		return fmt.Errorf("geocoder: failed to decode %s response: %w", op, err)
	}

	g.metrics.ObserveUpstream("nominatim", op, "ok")
	g.log.Debug("nominatim lookup", "op", op)
	return nil
}
