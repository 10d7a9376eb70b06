package evolution

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lingopal/lingopal/internal/domain"
)

// HappinessBoost is added to the pet's happiness on every evolution.
const HappinessBoost = 20

// OutcomeKind tags an evolution check result.
type OutcomeKind int

const (
	NoChange OutcomeKind = iota
	TransitionTo
)

func (k OutcomeKind) String() string {
	switch k {
	case NoChange:
		return "no_change"
	case TransitionTo:
		return "transition"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of CheckAndTrigger. NextStage is set only for
// TransitionTo.
type Outcome struct {
	Kind      OutcomeKind `json:"kind"`
	NextStage int         `json:"next_stage,omitempty"`
}

// Changed reports whether the outcome carries a transition.
func (o Outcome) Changed() bool { return o.Kind == TransitionTo }

// NewPet adopts a pet on track. The track is fixed for the pet's lifetime.
func NewPet(track domain.TrackID, name string, now time.Time) (domain.PetState, error) {
	if _, err := LookupTrack(track); err != nil {
		return domain.PetState{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Pip"
	}
	return domain.PetState{
		ID:        uuid.NewString(),
		Name:      name,
		Track:     track,
		Stage:     0,
		History:   []domain.EvolutionRecord{},
		Happiness: domain.DefaultHappiness,
		Emotion:   domain.EmotionHappy,
		CreatedAt: now,
	}, nil
}

// CanEvolve is the pure predicate for a pet's track.
// Unknown tracks yield a ConfigurationError.
func CanEvolve(track domain.TrackID, stage, level int) (bool, error) {
	t, err := LookupTrack(track)
	if err != nil {
		return false, err
	}
	return t.CanEvolve(stage, level), nil
}

// CheckAndTrigger decides whether pet may advance at level.
//
// A pet already holding a history record for its current stage at this
// exact level is never re-evaluated, so repeated checks inside one session
// cannot fire twice. At most one stage is returned per check even when level
// clears several thresholds.
func CheckAndTrigger(pet domain.PetState, level int) (Outcome, error) {
	t, err := LookupTrack(pet.Track)
	if err != nil {
		return Outcome{}, err
	}
	if level < 1 {
		level = 1
	}
	stage := max(pet.Stage, 0)

	if pet.HasRecord(stage, level) {
		return Outcome{Kind: NoChange}, nil
	}
	if !t.CanEvolve(stage, level) {
		return Outcome{Kind: NoChange}, nil
	}
	return Outcome{Kind: TransitionTo, NextStage: stage + 1}, nil
}

// ApplyTransition returns a new snapshot with pet advanced to nextStage.
// It is the only function that changes evolution state; pet itself is
// left untouched.
func ApplyTransition(pet domain.PetState, nextStage, level int, now time.Time) (domain.PetState, error) {
	t, err := LookupTrack(pet.Track)
	if err != nil {
		return domain.PetState{}, err
	}
	if nextStage != max(pet.Stage, 0)+1 {
		return domain.PetState{}, fmt.Errorf("%w: stage %d -> %d", domain.ErrTransitionMismatch, pet.Stage, nextStage)
	}
	name, err := t.StageName(nextStage)
	if err != nil {
		return domain.PetState{}, err
	}
	if level < 1 {
		level = 1
	}

	out := pet.WithHistory(pet.History, domain.EvolutionRecord{
		Stage:     nextStage,
		StageName: name,
		EvolvedAt: now,
		UserLevel: level,
	})
	out.Stage = nextStage
	out.Happiness = min(domain.MaxHappiness, domain.ClampHappiness(pet.Happiness)+HappinessBoost)
	out.Emotion = domain.EmotionExcited
	return out, nil
}

// CurrentStageName returns the display name for pet's current stage.
func CurrentStageName(pet domain.PetState) (string, error) {
	t, err := LookupTrack(pet.Track)
	if err != nil {
		return "", err
	}
	return t.StageName(pet.Stage)
}
