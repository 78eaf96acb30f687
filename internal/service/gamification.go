package service

import (
	"time"

	"github.com/ecoquest/backend/internal/domain"
	"github.com/ecoquest/backend/pkg/utils"
)

const (
	pointsPerLevel   = 200
	greenExpertLevel = 5
)

// eventPoints is the points table. Footprint calculations earn a badge, not points.
var eventPoints = map[domain.EventKind]int{
	domain.EventAnalysis:            20,
	domain.EventLocationSearch:      15,
	domain.EventDailyLogin:          10,
	domain.EventFootprintCalculated: 0,
}

// ApplyEvent returns the state after ev. The input state is not modified.
// Unknown event kinds leave the state unchanged.
func ApplyEvent(state domain.SessionState, ev domain.Event) domain.SessionState {
	points, known := eventPoints[ev.Kind]
	if !known {
		return state
	}

	next := state
	next.Achievements = append(make([]domain.AchievementID, 0, len(state.Achievements)+1), state.Achievements...)

	switch ev.Kind {
	case domain.EventAnalysis:
		next.AnalysesCompleted++
		switch next.AnalysesCompleted {
		case 1:
			next = unlock(next, domain.AchievementFirstAnalysis)
		case 10:
			next = unlock(next, domain.AchievementEcoWarrior)
		}
	case domain.EventLocationSearch:
		next.LocationsFound++
		if next.LocationsFound == 5 {
			next = unlock(next, domain.AchievementLocationMaster)
		}
	case domain.EventFootprintCalculated:
		next.FootprintsCalculated++
		if next.FootprintsCalculated == 1 {
			next = unlock(next, domain.AchievementClimateConscious)
		}
	case domain.EventDailyLogin:
		at := ev.At.UTC()
		if next.LastLogin.IsZero() || startOfDay(at).After(startOfDay(next.LastLogin)) {
			next.LastLogin = at
		} else {
			// already logged in today
			points = 0
		}
	}

	next.Points += points
	next.Level = LevelFor(next.Points)
	if next.Level >= greenExpertLevel {
		next = unlock(next, domain.AchievementGreenExpert)
	}
	return next
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func unlock(state domain.SessionState, id domain.AchievementID) domain.SessionState {
	if !state.HasAchievement(id) {
		state.Achievements = append(state.Achievements, id)
	}
	return state
}

// LevelFor maps a points total to a level, starting at 1
func LevelFor(points int) int {
	return points/pointsPerLevel + 1
}

// ProgressFor derives the sidebar level card
func ProgressFor(state domain.SessionState) domain.Progress {
	level := LevelFor(state.Points)
	toNext := level*pointsPerLevel - state.Points
	percent := float64(pointsPerLevel-toNext) / pointsPerLevel * 100
	return domain.Progress{
		Level:           level,
		Points:          state.Points,
		Rank:            min(level*10, 100),
		PointsToNext:    toNext,
		ProgressPercent: utils.Clamp(percent, 0, 100),
	}
}

// NewlyUnlocked lists achievements present in next but not in prev
func NewlyUnlocked(prev, next domain.SessionState) []domain.Achievement {
	unlocked := []domain.Achievement{}
	for _, id := range next.Achievements {
		if prev.HasAchievement(id) {
			continue
		}
		if a, ok := domain.LookupAchievement(id); ok {
			unlocked = append(unlocked, a)
		}
	}
	return unlocked
}

// BuildProfile pairs the state with its progress card and badge list
func BuildProfile(state domain.SessionState) domain.Profile {
	statuses := make([]domain.AchievementStatus, 0, len(domain.Achievements))
	for _, a := range domain.Achievements {
		statuses = append(statuses, domain.AchievementStatus{
			Achievement: a,
			Unlocked:    state.HasAchievement(a.ID),
		})
	}
	return domain.Profile{
		State:        state,
		Progress:     ProgressFor(state),
		Achievements: statuses,
	}
}
