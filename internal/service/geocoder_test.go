package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ecoquest/backend/internal/domain"
)

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) (*Geocoder, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if ua := r.Header.Get("User-Agent"); ua != "ecoquest-test" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	g := NewGeocoder(GeocoderConfig{BaseURL: srv.URL, UserAgent: "ecoquest-test"}, nil, nil)
	t.Cleanup(g.Close)
	return g, &calls
}

func TestGeocodeCachesHits(t *testing.T) {
	g, calls := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/search" || q.Get("format") != "json" || q.Get("limit") != "1" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if q.Get("q") != "Berlin" {
			t.Errorf("q = %q", q.Get("q"))
		}
		w.Write([]byte(`[{"lat":"52.5170365","lon":"13.3888599","display_name":"Berlin, Deutschland"}]`))
	})

	for i := 0; i < 3; i++ {
		p, found, err := g.Geocode(context.Background(), "Berlin")
		if err != nil {
			t.Fatalf("Geocode: %v", err)
		}
		if !found || p.Latitude != 52.5170365 || p.Longitude != 13.3888599 {
			t.Fatalf("Geocode = %+v, %v", p, found)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("upstream called %d times, want 1", calls.Load())
	}
}

func TestGeocodeMiss(t *testing.T) {
	g, calls := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	for i := 0; i < 2; i++ {
		_, found, err := g.Geocode(context.Background(), "Atlantis")
		if err != nil {
			t.Fatalf("Geocode: %v", err)
		}
		if found {
			t.Fatal("expected a miss")
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("misses should be cached, upstream called %d times", calls.Load())
	}

	if _, found, err := g.Geocode(context.Background(), "   "); err != nil || found {
		t.Fatalf("blank query = %v, %v", found, err)
	}
	if calls.Load() != 1 {
		t.Fatal("blank query reached upstream")
	}
}

func TestGeocodeUpstreamError(t *testing.T) {
	g, _ := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if _, _, err := g.Geocode(context.Background(), "Paris"); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestReverse(t *testing.T) {
	g, _ := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("lat") == "0" {
			w.Write([]byte(`{"error":"Unable to geocode"}`))
			return
		}
		w.Write([]byte(`{"lat":"48.85","lon":"2.35","display_name":"Paris, France"}`))
	})

	name, found, err := g.Reverse(context.Background(), domain.GeoPoint{Latitude: 48.85, Longitude: 2.35})
	if err != nil || !found || name != "Paris, France" {
		t.Fatalf("Reverse = %q, %v, %v", name, found, err)
	}

	_, found, err = g.Reverse(context.Background(), domain.GeoPoint{})
	if err != nil || found {
		t.Fatalf("Reverse(ocean) = %v, %v", found, err)
	}
}
