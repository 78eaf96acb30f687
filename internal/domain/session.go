package domain

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// AchievementID identifies an unlockable badge
type AchievementID string

const (
	AchievementFirstAnalysis    AchievementID = "first_analysis"
	AchievementLocationMaster   AchievementID = "location_master"
	AchievementEcoWarrior       AchievementID = "eco_warrior"
	AchievementGreenExpert      AchievementID = "green_expert"
	AchievementClimateConscious AchievementID = "climate_conscious"
)

// Achievement describes a badge shown on the profile card
type Achievement struct {
	ID          AchievementID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Points      int           `json:"points"`
}

// Achievements is the fixed catalogue, in display order.
var Achievements = []Achievement{
	{AchievementFirstAnalysis, "First Analysis", "Complete your first waste analysis", 50},
	{AchievementLocationMaster, "Location Master", "Find disposal locations 5 times", 100},
	{AchievementEcoWarrior, "Eco Warrior", "Complete 10 waste analyses", 200},
	{AchievementGreenExpert, "Green Expert", "Reach level 5", 500},
	{AchievementClimateConscious, "Climate Conscious", "Calculate your carbon footprint", 100},
}

// LookupAchievement returns the catalogue entry for id
func LookupAchievement(id AchievementID) (Achievement, bool) {
	for _, a := range Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// EventKind is a scored user action
type EventKind string

const (
	EventAnalysis            EventKind = "analysis"
	EventLocationSearch      EventKind = "location_search"
	EventDailyLogin          EventKind = "daily_login"
	EventFootprintCalculated EventKind = "footprint_calculated"
)

// Event is fed to the gamification engine
type Event struct {
	Kind EventKind `json:"kind"`
	At   time.Time `json:"at"`
}

// SessionState is everything the dashboard knows about one player session.
// It is a plain value: the gamification engine returns a new copy per event.
type SessionState struct {
	SessionID            string          `json:"session_id" msgpack:"session_id"`
	Points               int             `json:"points" msgpack:"points"`
	Level                int             `json:"level" msgpack:"level"`
	AnalysesCompleted    int             `json:"analyses_completed" msgpack:"analyses_completed"`
	LocationsFound       int             `json:"locations_found" msgpack:"locations_found"`
	FootprintsCalculated int             `json:"footprints_calculated" msgpack:"footprints_calculated"`
	Achievements         []AchievementID `json:"achievements" msgpack:"achievements"`
	LastLogin            time.Time       `json:"last_login" msgpack:"last_login"`
	CreatedAt            time.Time       `json:"created_at" msgpack:"created_at"`
}

// NewSessionState returns the starting state for a fresh session
func NewSessionState(id string, now time.Time) SessionState {
	return SessionState{
		SessionID:    id,
		Level:        1,
		Achievements: []AchievementID{},
		CreatedAt:    now.UTC(),
	}
}

// HasAchievement reports whether id is already unlocked
func (s SessionState) HasAchievement(id AchievementID) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// plainState has SessionState's fields but none of its methods, so msgpack
// does not call back into MarshalBinary/UnmarshalBinary.
type plainState SessionState

// MarshalBinary encodes the state for session stores.
func (s SessionState) MarshalBinary() ([]byte, error) {
	b, err := msgpack.Marshal(plainState(s))
	if err != nil {
		return nil, fmt.Errorf("domain: failed to encode session state: %w", err)
	}
	return b, nil
}

// UnmarshalBinary decodes a state produced by MarshalBinary.
func (s *SessionState) UnmarshalBinary(data []byte) error {
	var p plainState
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("domain: failed to decode session state: %w", err)
	}
	*s = SessionState(p)
	if s.Achievements == nil {
		s.Achievements = []AchievementID{}
	}
	return nil
}

// Progress is the derived level card shown in the sidebar
type Progress struct {
	Level           int     `json:"level"`
	Points          int     `json:"points"`
	Rank            int     `json:"rank"`
	PointsToNext    int     `json:"points_to_next_level"`
	ProgressPercent float64 `json:"progress_percent"`
}

// AchievementStatus pairs a catalogue entry with its lock state
type AchievementStatus struct {
	Achievement
	Unlocked bool `json:"unlocked"`
}

// Profile is the full sidebar payload for a session
type Profile struct {
	State        SessionState        `json:"state"`
	Progress     Progress            `json:"progress"`
	Achievements []AchievementStatus `json:"achievements"`
}

// EventOutcome reports what an event changed
type EventOutcome struct {
	PointsAwarded int           `json:"points_awarded"`
	Unlocked      []Achievement `json:"unlocked"`
	Progress      Progress      `json:"progress"`
}
