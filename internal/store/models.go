package store

import (
	"time"

	"github.com/tebogo/mathmate/internal/difficulty"
)

// FlowType identifies a flow family. A user has at most one active session
// per flow type at any time.
type FlowType string

const (
	FlowStress     FlowType = "stress"
	FlowConfidence FlowType = "confidence"
	FlowExamPrep   FlowType = "examprep"
	FlowPractice   FlowType = "practice"
)

// Grade values accepted for users. Empty means not yet captured.
const (
	Grade10      = "10"
	Grade11      = "11"
	GradeVarsity = "varsity"
)

// User is one learner, keyed by the opaque identity the transport layer
// hands us. Created on first contact, mutated on every turn, never deleted.
type User struct {
	ID                uint   `gorm:"primaryKey"`
	Identity          string `gorm:"uniqueIndex;size:64;not null"`
	Grade             string `gorm:"size:16"`
	SkillRate         float64
	StreakCount       int
	CurrentQuestionID *uint  // weak reference: the question awaiting an answer
	CurrentMenu       string `gorm:"size:32"`
	LastActiveAt      time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DefaultSkillRate is the rate assigned to a brand-new learner.
const DefaultSkillRate = 0.5

// Session is one run through a flow. EndedAt == nil means active.
type Session struct {
	ID        string   `gorm:"primaryKey;size:36"`
	UserID    uint     `gorm:"index:idx_sessions_user_flow"`
	FlowType  FlowType `gorm:"size:16;index:idx_sessions_user_flow"`
	StartedAt time.Time
	EndedAt   *time.Time `gorm:"index"`

	// State is the step-tagged flow state as JSON. The flow package owns
	// its shape; the store treats it as opaque.
	State string `gorm:"type:text"`

	// Version supports optimistic locking on concurrent turns.
	Version int64 `gorm:"not null;default:0"`

	// Denormalized flow fields, kept queryable for reporting.
	PanicLevel     int
	Reason         string `gorm:"type:text"`
	PreConfidence  *int
	PostConfidence *int
	ExamDate       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the session has not ended.
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

// Question is a multiple-choice question in the content bank.
type Question struct {
	ID           uint            `gorm:"primaryKey"`
	Topic        string          `gorm:"size:64;index:idx_questions_topic_band"`
	Subject      string          `gorm:"size:64;index"`
	Difficulty   difficulty.Band `gorm:"size:8;index:idx_questions_topic_band"`
	Text         string          `gorm:"type:text;not null"`
	Choices      []Choice        `gorm:"constraint:OnDelete:CASCADE"`
	Correct      string          `gorm:"size:2;not null"`
	Active       bool            `gorm:"not null;default:true"`
	TimesServed  int
	TimesCorrect int
	LastServedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Choice is one answer option. WeaknessTag labels the misconception a
// learner reveals by picking this distractor; empty on the correct choice
// and on untagged distractors.
type Choice struct {
	ID          uint   `gorm:"primaryKey"`
	QuestionID  uint   `gorm:"index;not null"`
	Letter      string `gorm:"size:2;not null"`
	Text        string `gorm:"type:text;not null"`
	WeaknessTag string `gorm:"size:64"`
}

// Response is an append-only attempt record. Immutable once created.
type Response struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     uint   `gorm:"index"`
	QuestionID uint   `gorm:"index"`
	Submitted  string `gorm:"size:8"`
	Correct    bool
	CreatedAt  time.Time
}

// Weakness is a per-(user, tag) counter. Incremented, never decremented.
type Weakness struct {
	ID              uint   `gorm:"primaryKey"`
	UserID          uint   `gorm:"uniqueIndex:idx_weakness_user_tag"`
	Tag             string `gorm:"size:64;uniqueIndex:idx_weakness_user_tag"`
	OccurrenceCount int    `gorm:"not null;default:0"`
	FirstLoggedAt   time.Time
	LastLoggedAt    time.Time
}
