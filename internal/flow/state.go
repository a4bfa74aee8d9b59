package flow

import (
	"encoding/json"
	"time"

	"github.com/tebogo/mathmate/internal/difficulty"
)

// BurstState tracks progress through a multi-question burst.
type BurstState struct {
	Index        int    `json:"index"`
	CorrectCount int    `json:"correct_count"`
	Size         int    `json:"size"`
	UsedIDs      []uint `json:"used_ids,omitempty"`
}

// State is the persisted per-session flow state. Step decides dispatch;
// every other field is only meaningful for the steps that set it. The
// struct round-trips as JSON in the session row.
type State struct {
	Step Step `json:"step"`

	// Band is the difficulty band the session is currently working at.
	Band difficulty.Band `json:"band,omitempty"`

	// PinBand freezes Band for the rest of the step: answers still update
	// the skill rate, but the session is not re-banded. Set when a step
	// promised a specific difficulty, like the easy warm-up rung.
	PinBand bool `json:"pin_band,omitempty"`

	Topic string `json:"topic,omitempty"`

	Burst *BurstState `json:"burst,omitempty"`

	// Stress flow.
	PanicLevel int        `json:"panic_level,omitempty"`
	ExamDate   *time.Time `json:"exam_date,omitempty"`

	// Confidence flow.
	Reason         string `json:"reason,omitempty"`
	PreConfidence  int    `json:"pre_confidence,omitempty"`
	PostConfidence int    `json:"post_confidence,omitempty"`
	Rung           int    `json:"rung,omitempty"`

	// Exam-prep flow.
	ProblemDetails string `json:"problem_details,omitempty"`
	PreferredTime  string `json:"preferred_time,omitempty"`
}

// Encode serializes the state for the session row.
func (s State) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeState parses a persisted session state. Malformed JSON or an
// unrecognized step tag decodes to StepNeedsReset rather than failing:
// old sessions written by a newer or older build must not strand the user.
func DecodeState(raw string) State {
	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return State{Step: StepNeedsReset}
	}
	if !knownSteps[s.Step] {
		return State{Step: StepNeedsReset}
	}
	return s
}
