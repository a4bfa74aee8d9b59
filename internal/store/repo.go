package store

import (
	"context"
	"errors"
	"time"

	"github.com/tebogo/mathmate/internal/difficulty"
)

// ErrStaleSession is returned by SessionRepo.Update when the session row was
// modified by a concurrent turn since it was loaded.
var ErrStaleSession = errors.New("session was modified concurrently")

// UserRepo manages learner records.
type UserRepo interface {
	// GetOrCreate finds the user for identity, creating one with defaults
	// on first contact. The second return is true when a row was created.
	GetOrCreate(ctx context.Context, identity string, now time.Time) (*User, bool, error)

	// ByIdentity finds the user for identity, or nil if none exists.
	ByIdentity(ctx context.Context, identity string) (*User, error)

	// Update persists all mutable fields of the user.
	Update(ctx context.Context, u *User) error

	// ClearFlowState resets the user's flow-scoped fields (current
	// question, menu tag) to the neutral welcome state.
	ClearFlowState(ctx context.Context, userID uint) error
}

// SessionRepo manages flow sessions.
type SessionRepo interface {
	// Create inserts a new session row.
	Create(ctx context.Context, s *Session) error

	// Active returns the most recently started active session for the
	// user and flow type, or nil if none is active.
	Active(ctx context.Context, userID uint, flow FlowType) (*Session, error)

	// ActiveAny returns the most recently started active session for the
	// user across all flow types, or nil.
	ActiveAny(ctx context.Context, userID uint) (*Session, error)

	// Update persists the session with an optimistic version check.
	// Returns ErrStaleSession when a concurrent turn won the race; the
	// in-memory Version is bumped on success.
	Update(ctx context.Context, s *Session) error
}

// QuestionRepo manages the question bank.
type QuestionRepo interface {
	// ByID fetches a question with its choices, or nil if it does not
	// exist or is inactive.
	ByID(ctx context.Context, id uint) (*Question, error)

	// NextByTopic returns the least-recently-served active question for
	// (topic, band), excluding the given ids. Never-served questions sort
	// first; ties break toward the least-served. Nil when none match.
	NextByTopic(ctx context.Context, topic string, band difficulty.Band, excludeIDs []uint) (*Question, error)

	// NextBySubject is NextByTopic widened to a whole subject.
	NextBySubject(ctx context.Context, subject string, band difficulty.Band, excludeIDs []uint) (*Question, error)

	// NextInSubject returns any active question in the subject regardless
	// of topic or band, same ordering. Nil when the subject is empty.
	NextInSubject(ctx context.Context, subject string, excludeIDs []uint) (*Question, error)

	// MarkServed bumps times_served and stamps last_served_at. The
	// increment is an SQL expression so concurrent serves never lose
	// updates.
	MarkServed(ctx context.Context, id uint, now time.Time) error

	// RecordResult bumps times_correct for a correct answer.
	RecordResult(ctx context.Context, id uint, correct bool) error
}

// ResponseRepo appends attempt records.
type ResponseRepo interface {
	// Insert appends one attempt. Responses are immutable.
	Insert(ctx context.Context, r *Response) error

	// Stats returns the user's lifetime attempt counts.
	Stats(ctx context.Context, userID uint) (total int, correct int, err error)
}

// WeaknessRepo maintains per-(user, tag) counters.
type WeaknessRepo interface {
	// Increment upserts the counter: insert at 1, or bump and refresh
	// last_logged_at.
	Increment(ctx context.Context, userID uint, tag string, now time.Time) error

	// ByUser lists the user's weaknesses, most frequent first.
	ByUser(ctx context.Context, userID uint) ([]Weakness, error)
}
