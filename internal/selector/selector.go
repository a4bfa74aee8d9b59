// Package selector picks the next question for a learner, rotating fairly
// through the bank and widening its search when the requested slice is empty.
package selector

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tebogo/mathmate/internal/difficulty"
	"github.com/tebogo/mathmate/internal/store"
)

// Selector resolves (topic, band) requests against the question bank.
type Selector struct {
	questions store.QuestionRepo
	users     store.UserRepo
	now       func() time.Time
	log       *logrus.Entry
}

// New builds a Selector. now may be nil, in which case time.Now is used.
func New(questions store.QuestionRepo, users store.UserRepo, now func() time.Time, log *logrus.Entry) *Selector {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Selector{questions: questions, users: users, now: now, log: log}
}

// Next walks the fallback cascade and returns the best available question,
// or nil when the bank has nothing left to offer. A nil result is a normal
// outcome, not an error; callers render a "try later" message for it.
//
// The cascade, in order:
//  1. topic + exact band, excluding ids already used this burst
//  2. topic + exact band, accepting a repeat
//  3. same subject, adjacent bands in fixed fallback order
//  4. anything in the subject, excluding used ids, then accepting repeats
func (s *Selector) Next(ctx context.Context, topic, subject string, band difficulty.Band, excludeIDs []uint) (*store.Question, error) {
	q, err := s.questions.NextByTopic(ctx, topic, band, excludeIDs)
	if err != nil {
		return nil, err
	}
	if q != nil {
		return q, nil
	}

	if len(excludeIDs) > 0 {
		q, err = s.questions.NextByTopic(ctx, topic, band, nil)
		if err != nil {
			return nil, err
		}
		if q != nil {
			s.log.WithFields(logrus.Fields{"topic": topic, "band": band}).
				Debug("topic slice exhausted, repeating a question")
			return q, nil
		}
	}

	for _, alt := range difficulty.FallbackOrder(band) {
		q, err = s.questions.NextBySubject(ctx, subject, alt, excludeIDs)
		if err != nil {
			return nil, err
		}
		if q != nil {
			s.log.WithFields(logrus.Fields{"topic": topic, "want": band, "got": alt}).
				Debug("falling back to adjacent band")
			return q, nil
		}
	}

	q, err = s.questions.NextInSubject(ctx, subject, excludeIDs)
	if err != nil {
		return nil, err
	}
	if q == nil && len(excludeIDs) > 0 {
		q, err = s.questions.NextInSubject(ctx, subject, nil)
		if err != nil {
			return nil, err
		}
	}
	if q == nil {
		s.log.WithFields(logrus.Fields{"topic": topic, "subject": subject, "band": band}).
			Warn("question bank exhausted")
	}
	return q, nil
}

// Serve records that the question is about to be sent: serve stats on the
// question, current_question_id on the user. Both writes must land before
// the caller renders the question; if either fails the question is not
// considered served and the error propagates.
func (s *Selector) Serve(ctx context.Context, u *store.User, q *store.Question) error {
	if err := s.questions.MarkServed(ctx, q.ID, s.now()); err != nil {
		return fmt.Errorf("mark question served: %w", err)
	}
	u.CurrentQuestionID = &q.ID
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("pin question to user: %w", err)
	}
	return nil
}
