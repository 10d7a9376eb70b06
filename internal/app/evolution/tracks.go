// Package evolution implements the pet evolution state machine.
// Stages are gated by the owner's level through a fixed per-track table,
// and a pet climbs at most one stage per check.
package evolution

import (
	"strconv"

	"github.com/lingopal/lingopal/internal/domain"
)

// Stage is one tier of an evolution track.
type Stage struct {
	Stage    int    `json:"stage"`
	Name     string `json:"name"`
	MinLevel int    `json:"min_level"`
}

// Track is the ordered stage ladder for one TrackID. Stages[i].Stage == i.
type Track struct {
	ID     domain.TrackID `json:"id"`
	Stages []Stage        `json:"stages"`
}

// tracks is the fixed evolution table.
var tracks = map[domain.TrackID]Track{
	domain.TrackKnowledge: {
		ID: domain.TrackKnowledge,
		Stages: []Stage{
			{0, "Egg", 1},
			{1, "Hatchling", 3},
			{2, "Bookworm", 7},
			{3, "Scholar", 12},
			{4, "Sage", 20},
			{5, "Grand Sage", 30},
		},
	},
	domain.TrackCreativity: {
		ID: domain.TrackCreativity,
		Stages: []Stage{
			{0, "Egg", 1},
			{1, "Sprout", 4},
			{2, "Doodler", 8},
			{3, "Artist", 14},
			{4, "Dreamer", 22},
			{5, "Maestro", 32},
		},
	},
	domain.TrackFriendship: {
		ID: domain.TrackFriendship,
		Stages: []Stage{
			{0, "Egg", 1},
			{1, "Cub", 3},
			{2, "Buddy", 6},
			{3, "Companion", 10},
			{4, "Guardian", 16},
			{5, "Legend", 25},
		},
	},
}

// LookupTrack returns the table for id.
func LookupTrack(id domain.TrackID) (Track, error) {
	t, ok := tracks[id]
	if !ok {
		return Track{}, &domain.ConfigurationError{Kind: "track", Key: string(id)}
	}
	return t, nil
}

// Tracks returns every known track id.
func Tracks() []domain.TrackID {
	return []domain.TrackID{domain.TrackKnowledge, domain.TrackCreativity, domain.TrackFriendship}
}

// MaxStage returns the highest reachable stage.
func (t Track) MaxStage() int {
	return len(t.Stages) - 1
}

// StageName returns the display name of stage.
func (t Track) StageName(stage int) (string, error) {
	if stage < 0 || stage >= len(t.Stages) {
		return "", &domain.ConfigurationError{
			Kind: "stage",
			Key:  string(t.ID) + "/" + strconv.Itoa(stage),
		}
	}
	return t.Stages[stage].Name, nil
}

// CanEvolve reports whether a pet at stage qualifies for stage+1 at level.
// Negative stage is treated as 0 and level below 1 as 1.
func (t Track) CanEvolve(stage, level int) bool {
	if stage < 0 {
		stage = 0
	}
	if level < 1 {
		level = 1
	}
	next := stage + 1
	if next >= len(t.Stages) {
		return false
	}
	return level >= t.Stages[next].MinLevel
}

// NextRequirement returns the level needed for the stage after stage,
// or false when the pet is fully evolved.
func (t Track) NextRequirement(stage int) (Stage, bool) {
	if stage < 0 {
		stage = 0
	}
	if stage+1 >= len(t.Stages) {
		return Stage{}, false
	}
	return t.Stages[stage+1], true
}
