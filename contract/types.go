package contract

import (
	"encoding/json"
	"time"
)

// GenerateRequest is the body of POST /api/v1/generate.
type GenerateRequest struct {
	TopValues         []string `json:"top_values" yaml:"top_values"`
	GreatestStrength  string   `json:"greatest_strength" yaml:"greatest_strength"`
	AspirationalTrait string   `json:"aspirational_trait" yaml:"aspirational_trait"`
	MetaphorArchetype string   `json:"metaphor_archetype" yaml:"metaphor_archetype"`
	EnergyStyle       string   `json:"energy_style" yaml:"energy_style"`
	LifeFocus         string   `json:"life_focus" yaml:"life_focus"`
	CulturalMode      string   `json:"cultural_mode" yaml:"cultural_mode"`
	Pronouns          string   `json:"pronouns" yaml:"pronouns"`
	DisplayName       *string  `json:"display_name" yaml:"display_name"`
	FreeWriteLetter   string   `json:"free_write_letter" yaml:"free_write_letter"`
}

// Clone returns a deep copy so a stored submission can't be mutated through a
// later override.
func (r GenerateRequest) Clone() GenerateRequest {
	out := r
	if r.TopValues != nil {
		out.TopValues = append([]string(nil), r.TopValues...)
	}
	if r.DisplayName != nil {
		name := *r.DisplayName
		out.DisplayName = &name
	}
	return out
}

type Poem struct {
	PoemLines    []string `json:"poem_lines"`
	CulturalMode string   `json:"cultural_mode"`
	StyleNotes   string   `json:"style_notes,omitempty"`
}

type Affirmations struct {
	Affirmations []string `json:"affirmations"`
	FocusAreas   []string `json:"focus_areas,omitempty"`
}

// GenerateResponse is the success body of POST /api/v1/generate. Poem and
// Affirmations are pointers so an absent section can be told apart from an
// empty one.
type GenerateResponse struct {
	Poem         *Poem           `json:"poem"`
	Affirmations *Affirmations   `json:"affirmations"`
	Themes       json.RawMessage `json:"themes,omitempty"`
	CulturalMode string          `json:"cultural_mode,omitempty"`
}

type AudioRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

type AudioResponse struct {
	AudioBase64     string  `json:"audio_base64"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type RemoteOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type RemoteQuestion struct {
	ID            string         `json:"id"`
	Text          string         `json:"text"`
	IsMultiSelect bool           `json:"is_multi_select"`
	MaxSelections *int           `json:"max_selections,omitempty"`
	Options       []RemoteOption `json:"options"`
}

// QuestionsResponse is the body of GET /api/v1/quiz/questions.
type QuestionsResponse struct {
	Questions      []RemoteQuestion `json:"questions"`
	TotalQuestions int              `json:"total_questions"`
	Version        string           `json:"version"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// CachedResult is the record kept in the single result slot. Poem and
// Affirmations are pointers so a record missing either field is detectable.
type CachedResult struct {
	Poem         *[]string       `json:"poem"`
	Affirmations *[]string       `json:"affirmations"`
	CulturalMode string          `json:"cultural_mode"`
	Themes       json.RawMessage `json:"themes,omitempty"`
	SavedAt      time.Time       `json:"saved_at"`
}
