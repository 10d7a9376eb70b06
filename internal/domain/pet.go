package domain

import "time"

// ─── Pet ────────────────────────────────────────────────────────────────────

// TrackID names an evolution track. Fixed when the pet is adopted.
type TrackID string

const (
	TrackKnowledge  TrackID = "knowledge"
	TrackCreativity TrackID = "creativity"
	TrackFriendship TrackID = "friendship"
)

// Emotion is the pet's visible mood.
type Emotion string

const (
	EmotionHappy   Emotion = "happy"
	EmotionExcited Emotion = "excited"
	EmotionSad     Emotion = "sad"
	EmotionSleepy  Emotion = "sleepy"
	EmotionHungry  Emotion = "hungry"
)

// Valid reports whether e is one of the known emotions.
func (e Emotion) Valid() bool {
	switch e {
	case EmotionHappy, EmotionExcited, EmotionSad, EmotionSleepy, EmotionHungry:
		return true
	}
	return false
}

const (
	MaxHappiness     = 100
	DefaultHappiness = 50
)

// EvolutionRecord is one entry of the append-only evolution audit log.
type EvolutionRecord struct {
	Stage     int       `json:"stage"`
	StageName string    `json:"stage_name"`
	EvolvedAt time.Time `json:"evolved_at"`
	UserLevel int       `json:"user_level"`
}

// PetState is the reader's companion.
// Stage never decreases, and every stage > 0 has exactly one History entry.
type PetState struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Track     TrackID           `json:"track"`
	Stage     int               `json:"stage"`
	History   []EvolutionRecord `json:"history"`
	Happiness int               `json:"happiness"`
	Emotion   Emotion           `json:"emotion"`
	CreatedAt time.Time         `json:"created_at"`
}

// WithHistory returns a copy of p whose History is a fresh slice holding
// records. The receiver's backing array is never shared or written.
func (p PetState) WithHistory(records []EvolutionRecord, extra ...EvolutionRecord) PetState {
	h := make([]EvolutionRecord, 0, len(records)+len(extra))
	h = append(h, records...)
	h = append(h, extra...)
	p.History = h
	return p
}

// HasRecord reports whether the log already holds an entry for stage at level.
func (p PetState) HasRecord(stage, level int) bool {
	for _, r := range p.History {
		if r.Stage == stage && r.UserLevel == level {
			return true
		}
	}
	return false
}

// ClampHappiness bounds h to [0, MaxHappiness].
func ClampHappiness(h int) int {
	if h < 0 {
		return 0
	}
	if h > MaxHappiness {
		return MaxHappiness
	}
	return h
}
