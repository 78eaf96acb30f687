package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ecoquest/backend/internal/domain"
	"github.com/ecoquest/backend/internal/observability"
	"github.com/ecoquest/backend/pkg/utils"
)

const (
	minWeightKg = 0.1
	maxWeightKg = 1000.0

	defaultHistoryMonths = 12
	maxHistoryMonths     = 24

	sessionLockStripes = 64
)

// QuestService runs the EcoQuest missions: it calls the AI and geocoding
// collaborators, the pure scorers, and feeds events to the gamification engine.
type QuestService struct {
	ai       Generator
	geo      PlaceResolver
	sessions SessionRepository
	activity ActivityRepository
	metrics  *observability.Metrics
	log      *slog.Logger
	now      func() time.Time

	// read-modify-write of a session is serialized per stripe
	locks [sessionLockStripes]sync.Mutex

	wgBg sync.WaitGroup // tracks background goroutines for graceful shutdown
}

// NewQuestService creates a new quest service
func NewQuestService(
	ai Generator,
	geo PlaceResolver,
	sessions SessionRepository,
	activity ActivityRepository,
	metrics *observability.Metrics,
	log *slog.Logger,
) *QuestService {
	if log == nil {
		log = slog.Default()
	}
	return &QuestService{
		ai:       ai,
		geo:      geo,
		sessions: sessions,
		activity: activity,
		metrics:  metrics,
		log:      log.With("component", "quest"),
		now:      time.Now,
	}
}

// WaitBackground blocks until all background log writes complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *QuestService) WaitBackground() {
	s.wgBg.Wait()
}

// StartSession creates a fresh session
func (s *QuestService) StartSession(ctx context.Context) (domain.Profile, error) {
	state := domain.NewSessionState(uuid.NewString(), s.now())
	if err := s.sessions.SaveSession(ctx, state); err != nil {
		return domain.Profile{}, fmt.Errorf("quest: failed to start session: %w", err)
	}
	s.log.Info("session started", "session_id", state.SessionID)
	return BuildProfile(state), nil
}

// Profile returns the sidebar payload for a session
func (s *QuestService) Profile(ctx context.Context, sessionID string) (domain.Profile, error) {
	state, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Profile{}, err
	}
	return BuildProfile(state), nil
}

// DailyLogin awards the daily bonus once per UTC day
func (s *QuestService) DailyLogin(ctx context.Context, sessionID string) (domain.EventOutcome, error) {
	return s.applyEvents(ctx, sessionID, domain.EventDailyLogin)
}

// AnalyzeWaste runs the text analysis mission. Suggestions and geocoding run
// concurrently; facilities are searched only when the location resolves.
func (s *QuestService) AnalyzeWaste(ctx context.Context, sessionID string, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return domain.AnalysisResult{}, fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}

	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return domain.AnalysisResult{}, err
	}

	var (
		suggestion Generation
		center     domain.GeoPoint
		found      bool
		geoErr     error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		suggestion, err = s.ai.GenerateSuggestions(gctx, description, req.WasteType)
		return err
	})
	if req.Location != "" {
		g.Go(func() error {
			// a failed lookup is reported to the user, it does not fail the mission
			center, found, geoErr = s.geo.Geocode(gctx, req.Location)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("quest: analysis failed: %w", err)
	}

	classification := Score(description)
	top := classification.Top()
	s.metrics.ObserveClassification(string(top.Category))

	result := domain.AnalysisResult{
		Suggestion:     suggestion.Text,
		IsMock:         suggestion.IsFallback,
		Classification: classification,
	}

	// points are awarded only once the mission has succeeded
	events := []domain.EventKind{domain.EventAnalysis}
	switch {
	case req.Location == "":
	case geoErr != nil:
		s.log.Warn("geocoding failed", "session_id", sessionID, "error", geoErr)
		result.LocationMessage = "Error finding disposal locations. Please try a different location or try again later."
	case !found:
		result.LocationMessage = "Location not found. Please try a different address."
	default:
		category := req.WasteType
		if category == "" {
			category = string(domain.General)
		}
		search := buildSearch(center, category)
		search.Query = req.Location
		result.Search = &search
		result.LocationFound = true
		events = append(events, domain.EventLocationSearch)
	}

	outcome, err := s.applyEvents(ctx, sessionID, events...)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	result.Outcome = outcome

	s.logAnalysis(domain.AnalysisLog{
		SessionID:   sessionID,
		Source:      "text",
		Input:       description,
		TopCategory: top.Category,
		Confidence:  top.Confidence,
		Suggestion:  suggestion.Text,
		IsMock:      suggestion.IsFallback,
		CreatedAt:   s.now().UTC(),
	})

	return result, nil
}

// AnalyzeImage runs the visual recognition challenge: caption the image,
// clean the caption, then score it. A fallback caption is scored as empty text.
func (s *QuestService) AnalyzeImage(ctx context.Context, sessionID string, image []byte, mimeType string) (domain.ImageAnalysis, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return domain.ImageAnalysis{}, err
	}
	if len(image) == 0 {
		return domain.ImageAnalysis{}, fmt.Errorf("%w: image is empty", domain.ErrInvalidInput)
	}

	gen, err := s.ai.AnalyzeImage(ctx, image, mimeType)
	if err != nil {
		return domain.ImageAnalysis{}, fmt.Errorf("quest: image analysis failed: %w", err)
	}

	caption := CleanCaption(gen.Text)
	scored := caption
	if gen.IsFallback {
		scored = ""
	}
	classification := Score(scored)
	top := classification.Top()
	s.metrics.ObserveClassification(string(top.Category))

	s.logAnalysis(domain.AnalysisLog{
		SessionID:   sessionID,
		Source:      "image",
		Input:       caption,
		TopCategory: top.Category,
		Confidence:  top.Confidence,
		IsMock:      gen.IsFallback,
		CreatedAt:   s.now().UTC(),
	})

	return domain.ImageAnalysis{
		Caption:        caption,
		Classification: classification,
		PrimaryType:    top.Category,
		Confidence:     top.Confidence,
		HazardLevel:    top.HazardLevel,
		IsMock:         gen.IsFallback,
	}, nil
}

// FindFacilities ranks disposal facilities around coordinates or a place name
// and awards the location search bonus.
func (s *QuestService) FindFacilities(ctx context.Context, sessionID string, q domain.FacilityQuery) (domain.FacilityResult, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return domain.FacilityResult{}, err
	}

	search, err := s.Locate(ctx, q)
	if err != nil {
		return domain.FacilityResult{}, err
	}

	outcome, err := s.applyEvents(ctx, sessionID, domain.EventLocationSearch)
	if err != nil {
		return domain.FacilityResult{}, err
	}
	return domain.FacilityResult{Search: search, Outcome: outcome}, nil
}

// Locate resolves the search center and ranks facilities without touching any session
func (s *QuestService) Locate(ctx context.Context, q domain.FacilityQuery) (domain.FacilitySearch, error) {
	var center domain.GeoPoint
	switch {
	case q.Latitude != nil && q.Longitude != nil:
		center = domain.GeoPoint{Latitude: *q.Latitude, Longitude: *q.Longitude}
		if !validCoordinates(center) {
			return domain.FacilitySearch{}, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidInput)
		}
	case strings.TrimSpace(q.Place) != "":
		p, found, err := s.geo.Geocode(ctx, q.Place)
		if err != nil {
			return domain.FacilitySearch{}, fmt.Errorf("quest: %w", err)
		}
		if !found {
			return domain.FacilitySearch{}, domain.ErrLocationNotFound
		}
		center = p
	default:
		return domain.FacilitySearch{}, fmt.Errorf("%w: lat and lon, or q, are required", domain.ErrInvalidInput)
	}

	search := buildSearch(center, q.Category)
	search.Query = q.Place

	if name, ok, err := s.geo.Reverse(ctx, center); err != nil {
		s.log.Warn("reverse geocoding failed", "error", err)
	} else if ok {
		search.Address = name
	}
	return search, nil
}

// CalculateFootprint runs the climate impact calculator
func (s *QuestService) CalculateFootprint(ctx context.Context, sessionID, wasteType string, weightKg float64) (domain.FootprintOutcome, error) {
	if weightKg < minWeightKg || weightKg > maxWeightKg {
		return domain.FootprintOutcome{}, fmt.Errorf("%w: weight must be between %.1f and %.0f kg", domain.ErrInvalidInput, minWeightKg, maxWeightKg)
	}
	if strings.TrimSpace(wasteType) == "" {
		return domain.FootprintOutcome{}, fmt.Errorf("%w: waste_type is required", domain.ErrInvalidInput)
	}

	outcome, err := s.applyEvents(ctx, sessionID, domain.EventFootprintCalculated)
	if err != nil {
		return domain.FootprintOutcome{}, err
	}

	result := Footprint(wasteType, weightKg)
	// written inline: FootprintHistory reads it back on the next request
	if err := s.activity.SaveFootprintLog(ctx, sessionID, result, s.now().UTC()); err != nil {
		s.log.Error("failed to save footprint log", "session_id", sessionID, "error", err)
	}

	return domain.FootprintOutcome{Footprint: result, Outcome: outcome}, nil
}

// FootprintHistory returns monthly footprint totals for the chart. A session
// with no calculations yet gets a demo series marked IsMock.
func (s *QuestService) FootprintHistory(ctx context.Context, sessionID string, months int) (domain.FootprintHistory, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return domain.FootprintHistory{}, err
	}
	if months < 1 || months > maxHistoryMonths {
		months = defaultHistoryMonths
	}

	now := s.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	stored, err := s.activity.GetFootprintHistory(ctx, sessionID, first, now)
	if err != nil {
		return domain.FootprintHistory{}, fmt.Errorf("quest: %w", err)
	}

	byMonth := make(map[string]float64, len(stored))
	for _, p := range stored {
		byMonth[p.Month.UTC().Format("2006-01")] += p.KgCO2e
	}

	history := domain.FootprintHistory{
		Points: make([]domain.FootprintPoint, 0, months),
		IsMock: len(stored) == 0,
	}
	var rng *rand.Rand
	if history.IsMock {
		rng = demoRand(sessionID)
	}
	for i := 0; i < months; i++ {
		month := first.AddDate(0, i, 0)
		kg := byMonth[month.Format("2006-01")]
		if rng != nil {
			kg = max(0, rng.NormFloat64()*5+30)
		}
		kg = utils.RoundTo(kg, 2)
		history.Points = append(history.Points, domain.FootprintPoint{Month: month, KgCO2e: kg})
		history.TotalKg += kg
	}
	history.TotalKg = utils.RoundTo(history.TotalKg, 2)
	history.TreesToOffset = utils.RoundTo(TreesToOffset(history.TotalKg), 2)
	return history, nil
}

// demoRand is seeded from the session so the demo chart is stable across reloads.
func demoRand(sessionID string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// applyEvents loads the session, applies the events in order and saves it.
func (s *QuestService) applyEvents(ctx context.Context, sessionID string, kinds ...domain.EventKind) (domain.EventOutcome, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	prev, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.EventOutcome{}, err
	}

	next := prev
	at := s.now()
	for _, kind := range kinds {
		next = ApplyEvent(next, domain.Event{Kind: kind, At: at})
		s.metrics.ObserveMission(string(kind))
	}

	if err := s.sessions.SaveSession(ctx, next); err != nil {
		return domain.EventOutcome{}, fmt.Errorf("quest: failed to save session: %w", err)
	}

	outcome := domain.EventOutcome{
		PointsAwarded: next.Points - prev.Points,
		Unlocked:      NewlyUnlocked(prev, next),
		Progress:      ProgressFor(next),
	}
	for _, a := range outcome.Unlocked {
		s.log.Info("achievement unlocked", "session_id", sessionID, "achievement", a.ID)
	}
	return outcome, nil
}

func (s *QuestService) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%sessionLockStripes]
}

// logAnalysis persists an analysis asynchronously (tracked for graceful shutdown)
func (s *QuestService) logAnalysis(entry domain.AnalysisLog) {
	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.activity.SaveAnalysisLog(bgCtx, entry); err != nil {
			s.log.Error("failed to save analysis log", "session_id", entry.SessionID, "error", err)
		}
	}()
}

func validCoordinates(p domain.GeoPoint) bool {
	for _, v := range []float64{p.Latitude, p.Longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

func buildSearch(center domain.GeoPoint, category string) domain.FacilitySearch {
	facilities := Rank(center.Latitude, center.Longitude, category)
	return domain.FacilitySearch{
		Center:     center,
		Category:   domain.WasteCategory(category),
		Facilities: facilities,
		Map:        RenderMap(center, facilities),
	}
}
