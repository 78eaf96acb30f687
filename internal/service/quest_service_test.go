package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ecoquest/backend/internal/domain"
	"github.com/ecoquest/backend/internal/repository/postgres"
	"github.com/ecoquest/backend/pkg/utils"
)

type fakeGenerator struct {
	text     string
	fallback bool
	err      error
}

func (f *fakeGenerator) GenerateSuggestions(ctx context.Context, description, wasteType string) (Generation, error) {
	return Generation{Text: f.text, IsFallback: f.fallback}, f.err
}

func (f *fakeGenerator) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (Generation, error) {
	return Generation{Text: f.text, IsFallback: f.fallback}, f.err
}

type fakeResolver struct {
	places  map[string]domain.GeoPoint
	address string
	err     error
}

func (f *fakeResolver) Geocode(ctx context.Context, query string) (domain.GeoPoint, bool, error) {
	if f.err != nil {
		return domain.GeoPoint{}, false, f.err
	}
	p, ok := f.places[query]
	return p, ok, nil
}

func (f *fakeResolver) Reverse(ctx context.Context, p domain.GeoPoint) (string, bool, error) {
	return f.address, f.address != "", nil
}

type questFixture struct {
	svc   *QuestService
	repo  *postgres.MemoryRepository
	ai    *fakeGenerator
	geo   *fakeResolver
	clock time.Time
}

func newQuestFixture(t *testing.T) *questFixture {
	t.Helper()
	f := &questFixture{
		repo:  postgres.NewMemoryRepository(time.Hour),
		ai:    &fakeGenerator{text: "Rinse and recycle it."},
		geo:   &fakeResolver{places: map[string]domain.GeoPoint{"Boston": {Latitude: 42.3601, Longitude: -71.0589}}},
		clock: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	t.Cleanup(f.repo.Close)
	f.svc = NewQuestService(f.ai, f.geo, f.repo, f.repo, nil, nil)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *questFixture) start(t *testing.T) string {
	t.Helper()
	profile, err := f.svc.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	return profile.State.SessionID
}

func TestStartSessionAndProfile(t *testing.T) {
	f := newQuestFixture(t)
	id := f.start(t)

	profile, err := f.svc.Profile(context.Background(), id)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.State.Points != 0 || profile.Progress.Level != 1 || profile.Progress.PointsToNext != 200 {
		t.Fatalf("profile = %+v", profile)
	}

	if _, err := f.svc.Profile(context.Background(), "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Profile(missing) error = %v", err)
	}
}

func TestAnalyzeWasteWithLocation(t *testing.T) {
	f := newQuestFixture(t)
	id := f.start(t)

	res, err := f.svc.AnalyzeWaste(context.Background(), id, domain.AnalysisRequest{
		Description: "plastic bottle",
		Location:    "Boston",
		WasteType:   "Plastic",
	})
	if err != nil {
		t.Fatalf("AnalyzeWaste: %v", err)
	}
	if res.Suggestion != "Rinse and recycle it." || res.IsMock {
		t.Fatalf("suggestion = %q mock=%v", res.Suggestion, res.IsMock)
	}
	if res.Classification.Top().Category != domain.Plastic {
		t.Fatalf("top = %s", res.Classification.Top().Category)
	}
	if !res.LocationFound || res.Search == nil || len(res.Search.Facilities) != 2 {
		t.Fatalf("search = %+v", res.Search)
	}
	if res.Search.Query != "Boston" || len(res.Search.Map.Features) != 3 {
		t.Fatalf("search = %+v", res.Search)
	}
	if res.Outcome.PointsAwarded != 35 || res.Outcome.Progress.Points != 35 {
		t.Fatalf("outcome = %+v", res.Outcome)
	}
	if len(res.Outcome.Unlocked) != 1 || res.Outcome.Unlocked[0].ID != domain.AchievementFirstAnalysis {
		t.Fatalf("unlocked = %+v", res.Outcome.Unlocked)
	}

	f.svc.WaitBackground()
	logs := f.repo.AnalysisLogs(id)
	if len(logs) != 1 || logs[0].Source != "text" || logs[0].TopCategory != domain.Plastic {
		t.Fatalf("logs = %+v", logs)
	}
}

func TestAnalyzeWasteLocationOutcomes(t *testing.T) {
	cases := []struct {
		name     string
		location string
		geoErr   error
		message  string
	}{
		{"not found", "Atlantis", nil, "Location not found"},
		{"lookup error", "Boston", errors.New("timeout"), "Error finding disposal locations"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newQuestFixture(t)
			f.geo.err = tc.geoErr
			id := f.start(t)

			res, err := f.svc.AnalyzeWaste(context.Background(), id, domain.AnalysisRequest{
				Description: "glass jar",
				Location:    tc.location,
			})
			if err != nil {
				t.Fatalf("AnalyzeWaste: %v", err)
			}
			if res.LocationFound || res.Search != nil || !strings.HasPrefix(res.LocationMessage, tc.message) {
				t.Fatalf("result = %+v", res)
			}
			if res.Outcome.PointsAwarded != 20 {
				t.Fatalf("points = %d, want 20", res.Outcome.PointsAwarded)
			}
		})
	}
}

func TestAnalyzeWasteDefaultsToGeneralCategory(t *testing.T) {
	f := newQuestFixture(t)
	id := f.start(t)

	res, err := f.svc.AnalyzeWaste(context.Background(), id, domain.AnalysisRequest{
		Description: "an old chair",
		Location:    "Boston",
	})
	if err != nil {
		t.Fatalf("AnalyzeWaste: %v", err)
	}
	if res.Search == nil || res.Search.Category != domain.General || len(res.Search.Facilities) != 0 {
		t.Fatalf("search = %+v", res.Search)
	}
	if !res.Classification.IsFallback {
		t.Fatal("expected fallback classification")
	}
}

func TestAnalyzeWasteValidation(t *testing.T) {
	f := newQuestFixture(t)
	id := f.start(t)

	if _, err := f.svc.AnalyzeWaste(context.Background(), id, domain.AnalysisRequest{Description: "  "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty description error = %v", err)
	}
	if _, err := f.svc.AnalyzeWaste(context.Background(), "missing", domain.AnalysisRequest{Description: "can"}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("unknown session error = %v", err)
	}

}

func TestAnalyzeWasteFailureAwardsNothing(t *testing.T) {
	f := newQuestFixture(t)
	id := f.start(t)
	f.ai.err = errors.New("genai: failed to decode response")

	_, err := f.svc.AnalyzeWaste(context.Background(), id, domain.AnalysisRequest{
		Description: "aluminum can",
		Location:    "Boston",
		WasteType:   "Plastic",
	})
	if err == nil {
		t.Fatal("expected generator error to fail the mission")
	}

	profile, err := f.svc.Profile(context.Background(), id)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	state := profile.State
	if state.Points != 0 || state.AnalysesCompleted != 0 || state.LocationsFound != 0 || len(state.Achievements) != 0 {
		t.Fatalf("failed mission changed the session: %+v", state)
	}
	f.svc.WaitBackground()
	if logs := f.repo.AnalysisLogs(id); len(logs) != 0 {
		t.Fatalf("failed mission was logged: %+v", logs)
	}
}

func TestAnalyzeWasteConcurrent(t *testing.T) {
	f := newQuestFixture(t)
	id := f.start(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.AnalyzeWaste(context.Background(), id, domain.AnalysisRequest{Description: "food waste"}); err != nil {
				t.Errorf("AnalyzeWaste: %v", err)
			}
		}()
	}
	wg.Wait()
	f.svc.WaitBackground()

	profile, err := f.svc.Profile(context.Background(), id)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.State.AnalysesCompleted != 20 || profile.State.Points != 400 {
		t.Fatalf("state = %+v", profile.State)
	}
	if !profile.State.HasAchievement(domain.AchievementEcoWarrior) {
		t.Fatal("eco_warrior not unlocked")
	}
}

func TestAnalyzeImage(t *testing.T) {
	f := newQuestFixture(t)
	id := f.start(t)
	f.ai.text = "a crushed aluminum Aluminum can can"

	res, err := f.svc.AnalyzeImage(context.Background(), id, []byte("jpeg"), "image/jpeg")
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}
	if res.Caption != "a crushed aluminum can" || res.PrimaryType != domain.Metal || res.IsMock {
		t.Fatalf("result = %+v", res)
	}

	profile, _ := f.svc.Profile(context.Background(), id)
	if profile.State.Points != 0 {
		t.Fatalf("image analysis awarded %d points", profile.State.Points)
	}

	f.svc.WaitBackground()
	if logs := f.repo.AnalysisLogs(id); len(logs) != 1 || logs[0].Source != "image" {
		t.Fatalf("logs = %+v", logs)
	}
}

func TestAnalyzeImageFallbackIsNotScored(t *testing.T) {
	f := newQuestFixture(t)
	id := f.start(t)
	// keywords inside a fallback message must not be scored
	f.ai.text, f.ai.fallback = "Error analyzing the image: plastic bottle service down", true

	res, err := f.svc.AnalyzeImage(context.Background(), id, []byte("jpeg"), "")
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}
	if !res.IsMock || !res.Classification.IsFallback {
		t.Fatalf("result = %+v", res)
	}

	if _, err := f.svc.AnalyzeImage(context.Background(), id, nil, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty image error = %v", err)
	}
}

func TestFindFacilities(t *testing.T) {
	f := newQuestFixture(t)
	f.geo.address = "Boston, Massachusetts"
	id := f.start(t)
	lat, lon := 42.3601, -71.0589

	res, err := f.svc.FindFacilities(context.Background(), id, domain.FacilityQuery{Latitude: &lat, Longitude: &lon, Category: "Electronic"})
	if err != nil {
		t.Fatalf("FindFacilities: %v", err)
	}
	if len(res.Search.Facilities) != 2 || res.Search.Address != "Boston, Massachusetts" {
		t.Fatalf("search = %+v", res.Search)
	}
	if res.Outcome.PointsAwarded != 15 {
		t.Fatalf("points = %d, want 15", res.Outcome.PointsAwarded)
	}

	byName, err := f.svc.FindFacilities(context.Background(), id, domain.FacilityQuery{Place: "Boston", Category: "Electronic"})
	if err != nil {
		t.Fatalf("FindFacilities(place): %v", err)
	}
	if byName.Search.Center != res.Search.Center || byName.Search.Query != "Boston" {
		t.Fatalf("center = %+v", byName.Search.Center)
	}
}

func TestLocateErrors(t *testing.T) {
	f := newQuestFixture(t)
	bad := 91.0
	zero := 0.0
	nan := math.NaN()
	inf := math.Inf(1)

	cases := []struct {
		name string
		q    domain.FacilityQuery
		want error
	}{
		{"unknown place", domain.FacilityQuery{Place: "Atlantis"}, domain.ErrLocationNotFound},
		{"no center", domain.FacilityQuery{Category: "Plastic"}, domain.ErrInvalidInput},
		{"out of range", domain.FacilityQuery{Latitude: &bad, Longitude: &zero}, domain.ErrInvalidInput},
		{"nan latitude", domain.FacilityQuery{Latitude: &nan, Longitude: &zero}, domain.ErrInvalidInput},
		{"infinite longitude", domain.FacilityQuery{Latitude: &zero, Longitude: &inf}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		if _, err := f.svc.Locate(context.Background(), tc.q); !errors.Is(err, tc.want) {
			t.Errorf("%s: error = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestCalculateFootprintAndHistory(t *testing.T) {
	f := newQuestFixture(t)
	id := f.start(t)

	out, err := f.svc.CalculateFootprint(context.Background(), id, "plastic", 2)
	if err != nil {
		t.Fatalf("CalculateFootprint: %v", err)
	}
	if out.Footprint.KgCO2e != 12 || out.Outcome.PointsAwarded != 0 {
		t.Fatalf("outcome = %+v", out)
	}
	if len(out.Outcome.Unlocked) != 1 || out.Outcome.Unlocked[0].ID != domain.AchievementClimateConscious {
		t.Fatalf("unlocked = %+v", out.Outcome.Unlocked)
	}
	if out.Footprint.DrivingKmEquivalent != 48 {
		t.Fatalf("driving equivalent = %v, want 48", out.Footprint.DrivingKmEquivalent)
	}

	// the history is read straight after the calculation, without draining background work
	history, err := f.svc.FootprintHistory(context.Background(), id, 6)
	if err != nil {
		t.Fatalf("FootprintHistory: %v", err)
	}
	if history.IsMock || len(history.Points) != 6 || history.TotalKg != 12 || history.TreesToOffset != 0.12 {
		t.Fatalf("history = %+v", history)
	}
	last := history.Points[5]
	if !last.Month.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) || last.KgCO2e != 12 {
		t.Fatalf("last point = %+v", last)
	}
	if first := history.Points[0].Month; !first.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("first month = %v", first)
	}
}

func TestCalculateFootprintValidation(t *testing.T) {
	f := newQuestFixture(t)
	id := f.start(t)

	for _, w := range []float64{0, 0.05, 1000.5} {
		if _, err := f.svc.CalculateFootprint(context.Background(), id, "paper", w); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("weight %v error = %v", w, err)
		}
	}
	if _, err := f.svc.CalculateFootprint(context.Background(), id, " ", 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("blank waste type error = %v", err)
	}
}

func TestFootprintHistoryDemoSeries(t *testing.T) {
	f := newQuestFixture(t)
	id := f.start(t)

	a, err := f.svc.FootprintHistory(context.Background(), id, 0)
	if err != nil {
		t.Fatalf("FootprintHistory: %v", err)
	}
	if !a.IsMock || len(a.Points) != 12 {
		t.Fatalf("history = %+v", a)
	}
	if want := utils.RoundTo(a.TotalKg/100, 2); a.TreesToOffset != want {
		t.Fatalf("trees = %v, want %v", a.TreesToOffset, want)
	}
	b, _ := f.svc.FootprintHistory(context.Background(), id, 12)
	for i := range a.Points {
		if !a.Points[i].Month.Equal(b.Points[i].Month) || a.Points[i].KgCO2e != b.Points[i].KgCO2e {
			t.Fatalf("demo series not stable at %d: %v vs %v", i, a.Points[i], b.Points[i])
		}
		if a.Points[i].KgCO2e < 0 {
			t.Fatalf("negative demo value %v", a.Points[i].KgCO2e)
		}
	}

	if _, err := f.svc.FootprintHistory(context.Background(), "missing", 12); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("unknown session error = %v", err)
	}
}

func TestDailyLogin(t *testing.T) {
	f := newQuestFixture(t)
	id := f.start(t)

	for i, want := range []int{10, 0} {
		out, err := f.svc.DailyLogin(context.Background(), id)
		if err != nil {
			t.Fatalf("DailyLogin #%d: %v", i, err)
		}
		if out.PointsAwarded != want {
			t.Fatalf("DailyLogin #%d awarded %d, want %d", i, out.PointsAwarded, want)
		}
	}

	f.clock = f.clock.Add(24 * time.Hour)
	out, err := f.svc.DailyLogin(context.Background(), id)
	if err != nil {
		t.Fatalf("DailyLogin next day: %v", err)
	}
	if out.PointsAwarded != 10 || out.Progress.Points != 20 {
		t.Fatalf("next day outcome = %+v", out)
	}
}
