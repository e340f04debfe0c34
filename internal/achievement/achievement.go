// v0
// internal/achievement/achievement.go
package achievement

import (
	"sort"
	"sync"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/analytics"
)

// ID identifies one threshold badge.
type ID string

const (
	FirstScan     ID = "FIRST_SCAN"
	WeekStreak    ID = "WEEK_STREAK"
	FiftyRecycled ID = "FIFTY_RECYCLED"
	CO2Milestone  ID = "CO2_MILESTONE"
)

const (
	weekStreakDays    = 7
	fiftyRecycledGoal = 50
	co2MilestoneKg    = 100.0
)

// Badge describes an achievement for display.
type Badge struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

var catalog = []Badge{
	{ID: FirstScan, Name: "First Scan", Description: "Scan your first item"},
	{ID: WeekStreak, Name: "Week Streak", Description: "Scan on 7 different days"},
	{ID: FiftyRecycled, Name: "Recycling Hero", Description: "Recycle 50 items"},
	{ID: CO2Milestone, Name: "Planet Saver", Description: "Save 100kg of CO2"},
}

// Set is an unordered collection of unlocked achievements.
type Set map[ID]struct{}

// Has reports whether id is unlocked.
func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the unlocked ids in catalogue order.
func (s Set) IDs() []ID {
	out := make([]ID, 0, len(s))
	for _, b := range catalog {
		if s.Has(b.ID) {
			out = append(out, b.ID)
		}
	}
	return out
}

// Evaluate checks the four threshold rules. The CO2 milestone is count based:
// every recyclable item is credited with a fixed 0.7 kg.
func Evaluate(eventCount, distinctActiveDays int, totals analytics.Totals) Set {
	set := Set{}
	recycled := analytics.RecyclableCount(totals)
	if eventCount >= 1 {
		set[FirstScan] = struct{}{}
	}
	if distinctActiveDays >= weekStreakDays {
		set[WeekStreak] = struct{}{}
	}
	if recycled >= fiftyRecycledGoal {
		set[FiftyRecycled] = struct{}{}
	}
	if float64(recycled)*analytics.CO2PerKg >= co2MilestoneKg {
		set[CO2Milestone] = struct{}{}
	}
	return set
}

// Badges renders the full catalogue with the unlocked flag taken from s.
func Badges(s Set) []Badge {
	out := make([]Badge, len(catalog))
	for i, b := range catalog {
		b.Unlocked = s.Has(b.ID)
		out[i] = b
	}
	return out
}

// Tracker remembers unlocked achievements per user for the life of the process.
// Once unlocked an achievement stays unlocked even if a later evaluation covers
// a window that no longer satisfies it.
type Tracker struct {
	mu    sync.Mutex
	users map[string]Set
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{users: make(map[string]Set)}
}

// Merge unions fresh into the user's stored set and returns the ids unlocked
// for the first time together with the full current set.
func (t *Tracker) Merge(userID string, fresh Set) (newly []ID, current Set) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stored, ok := t.users[userID]
	if !ok {
		stored = Set{}
		t.users[userID] = stored
	}
	for id := range fresh {
		if !stored.Has(id) {
			stored[id] = struct{}{}
			newly = append(newly, id)
		}
	}
	sort.Slice(newly, func(i, j int) bool { return newly[i] < newly[j] })

	current = make(Set, len(stored))
	for id := range stored {
		current[id] = struct{}{}
	}
	return newly, current
}
