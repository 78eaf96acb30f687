package postgres

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ecoquest/backend/internal/cache"
	"github.com/ecoquest/backend/internal/domain"
)

// MemoryRepository implements the repositories in process memory for demo
// mode, when no database is configured. Sessions are stored encoded so callers
// never share slices with the store.
type MemoryRepository struct {
	sessions *cache.Cache[[]byte]

	mu         sync.RWMutex
	analyses   []domain.AnalysisLog
	footprints []footprintEntry
}

type footprintEntry struct {
	sessionID string
	kgCO2e    float64
	at        time.Time
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository(sessionTTL time.Duration) *MemoryRepository {
	return &MemoryRepository{sessions: cache.New[[]byte](sessionTTL)}
}

// Close stops the session sweeper
func (r *MemoryRepository) Close() {
	r.sessions.Close()
}

// GetSession loads a live session
func (r *MemoryRepository) GetSession(ctx context.Context, id string) (domain.SessionState, error) {
	raw, ok := r.sessions.Get(id)
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	var state domain.SessionState
	if err := state.UnmarshalBinary(raw); err != nil {
		return domain.SessionState{}, err
	}
	return state, nil
}

// SaveSession stores the session and refreshes its expiry
func (r *MemoryRepository) SaveSession(ctx context.Context, state domain.SessionState) error {
	raw, err := state.MarshalBinary()
	if err != nil {
		return err
	}
	r.sessions.Set(state.SessionID, raw)
	return nil
}

// SaveAnalysisLog appends to the in-memory log
func (r *MemoryRepository) SaveAnalysisLog(ctx context.Context, entry domain.AnalysisLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses = append(r.analyses, entry)
	return nil
}

// AnalysisLogs returns a copy of the logged analyses for a session
func (r *MemoryRepository) AnalysisLogs(sessionID string) []domain.AnalysisLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.AnalysisLog
	for _, a := range r.analyses {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out
}

// SaveFootprintLog appends to the in-memory log
func (r *MemoryRepository) SaveFootprintLog(ctx context.Context, sessionID string, result domain.FootprintResult, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.footprints = append(r.footprints, footprintEntry{sessionID: sessionID, kgCO2e: result.KgCO2e, at: at})
	return nil
}

// GetFootprintHistory sums footprints per UTC calendar month, oldest first
func (r *MemoryRepository) GetFootprintHistory(ctx context.Context, sessionID string, from, to time.Time) ([]domain.FootprintPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := make(map[time.Time]float64)
	for _, f := range r.footprints {
		if f.sessionID != sessionID || f.at.Before(from) || f.at.After(to) {
			continue
		}
		totals[monthOf(f.at)] += f.kgCO2e
	}

	points := make([]domain.FootprintPoint, 0, len(totals))
	for month, kg := range totals {
		points = append(points, domain.FootprintPoint{Month: month, KgCO2e: kg})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Month.Before(points[j].Month) })
	return points, nil
}

// Health always returns nil in memory mode
func (r *MemoryRepository) Health(ctx context.Context) error {
	return nil
}

func monthOf(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
