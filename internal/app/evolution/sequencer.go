package evolution

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lingopal/lingopal/internal/domain"
)

// Phase is the state of the two-phase evolution protocol.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseApplied
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseApplied:
		return "applied"
	case PhaseCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Transition is a detected but not yet applied evolution.
// The presentation layer animates it, then acknowledges by ID.
type Transition struct {
	ID         string    `json:"id"`
	PetID      string    `json:"pet_id"`
	FromStage  int       `json:"from_stage"`
	NextStage  int       `json:"next_stage"`
	StageName  string    `json:"stage_name"`
	Level      int       `json:"level"`
	DetectedAt time.Time `json:"detected_at"`
}

// Sequencer drives Idle → Pending → Applied, with Cancel dropping a pending
// transition. Phase 1 (Begin) never touches pet state; phase 2 (Confirm)
// applies it. A scheduled confirmation dies with Cancel or Close.
type Sequencer struct {
	mu      sync.Mutex
	clock   domain.Clock
	phase   Phase
	pending *Transition
	timer   *time.Timer
	gen     uint64 // bumped on every cancel so a late timer is ignored
	closed  bool
}

// NewSequencer creates an idle sequencer.
func NewSequencer(clock domain.Clock) *Sequencer {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Sequencer{clock: clock}
}

// Phase returns the current protocol phase.
func (s *Sequencer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Pending returns the pending transition, if any.
func (s *Sequencer) Pending() (Transition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Transition{}, false
	}
	return *s.pending, true
}

// Begin runs phase 1: it checks pet at level and, when eligible, parks a
// pending transition. While a transition is pending, Begin returns it
// unchanged instead of detecting a new one.
func (s *Sequencer) Begin(pet domain.PetState, level int) (Transition, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Transition{}, false, nil
	}
	if s.pending != nil {
		return *s.pending, true, nil
	}

	out, err := CheckAndTrigger(pet, level)
	if err != nil {
		return Transition{}, false, err
	}
	if !out.Changed() {
		return Transition{}, false, nil
	}

	t, _ := LookupTrack(pet.Track) // CheckAndTrigger already resolved it
	name, err := t.StageName(out.NextStage)
	if err != nil {
		return Transition{}, false, err
	}

	s.pending = &Transition{
		ID:         uuid.NewString(),
		PetID:      pet.ID,
		FromStage:  pet.Stage,
		NextStage:  out.NextStage,
		StageName:  name,
		Level:      max(level, 1),
		DetectedAt: s.clock.Now(),
	}
	s.phase = PhasePending
	return *s.pending, true, nil
}

// Confirm runs phase 2 for the pending transition id against pet, the
// caller's current snapshot. A pet that no longer matches the detected
// state drops the transition.
func (s *Sequencer) Confirm(pet domain.PetState, id string) (domain.PetState, Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil || s.pending.ID != id {
		return domain.PetState{}, Transition{}, domain.ErrNoPendingTransition
	}
	tr := *s.pending
	if pet.ID != tr.PetID || pet.Stage != tr.FromStage {
		s.dropLocked(PhaseCancelled)
		return domain.PetState{}, tr, fmt.Errorf("%w: pet %s at stage %d", domain.ErrTransitionMismatch, pet.ID, pet.Stage)
	}

	next, err := ApplyTransition(pet, tr.NextStage, tr.Level, s.clock.Now())
	if err != nil {
		s.dropLocked(PhaseCancelled)
		return domain.PetState{}, tr, err
	}
	s.dropLocked(PhaseApplied)
	return next, tr, nil
}

// ConfirmAfter schedules fn to run with the pending transition's id after d.
// fn is expected to call Confirm. Cancel or Close before the timer fires
// means fn never runs.
func (s *Sequencer) ConfirmAfter(d time.Duration, fn func(id string)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil || s.closed {
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	id, gen := s.pending.ID, s.gen
	s.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		live := !s.closed && s.gen == gen && s.pending != nil && s.pending.ID == id
		s.mu.Unlock()
		if live {
			fn(id)
		}
	})
	return true
}

// Cancel drops the pending transition. Returns false when nothing was pending.
func (s *Sequencer) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return false
	}
	s.dropLocked(PhaseCancelled)
	return true
}

// Close tears the sequencer down. A pending transition is dropped and no
// later Begin parks a new one.
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.dropLocked(PhaseCancelled)
	}
	s.closed = true
}

func (s *Sequencer) dropLocked(phase Phase) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.pending = nil
	s.phase = phase
}
