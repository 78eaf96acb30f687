package domain

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned for unknown or expired session ids
var ErrSessionNotFound = errors.New("session not found")

// AnalysisLog is one completed analysis mission
type AnalysisLog struct {
	SessionID   string        `json:"session_id"`
	Source      string        `json:"source"` // "text" or "image"
	Input       string        `json:"input"`
	TopCategory WasteCategory `json:"top_category"`
	Confidence  float64       `json:"confidence"`
	Suggestion  string        `json:"suggestion"`
	IsMock      bool          `json:"is_mock"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ActivityRepository stores the analysis and footprint activity log
type ActivityRepository interface {
	// SaveAnalysisLog persists an analysis mission
	SaveAnalysisLog(ctx context.Context, entry AnalysisLog) error

	// SaveFootprintLog persists a carbon calculation
	SaveFootprintLog(ctx context.Context, sessionID string, result FootprintResult, at time.Time) error

	// GetFootprintHistory returns monthly totals between from and to, oldest first
	GetFootprintHistory(ctx context.Context, sessionID string, from, to time.Time) ([]FootprintPoint, error)

	// Health checks storage connectivity
	Health(ctx context.Context) error
}

// SessionRepository stores session state for the lifetime of a session
type SessionRepository interface {
	// GetSession returns ErrSessionNotFound for unknown or expired ids
	GetSession(ctx context.Context, id string) (SessionState, error)

	// SaveSession inserts or replaces the state and refreshes its expiry
	SaveSession(ctx context.Context, state SessionState) error
}
