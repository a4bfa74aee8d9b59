package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tebogo/mathmate/internal/difficulty"
	"github.com/tebogo/mathmate/internal/evaluator"
	"github.com/tebogo/mathmate/internal/store"
)

// Confidence is the confidence-building flow: name the block, rate it,
// get a supportive nudge, climb a small ladder of wins, rate it again.
type Confidence struct {
	Deps
}

// NewConfidence builds the confidence-flow engine.
func NewConfidence(d Deps) *Confidence { return &Confidence{Deps: d} }

func (e *Confidence) FlowType() store.FlowType { return store.FlowConfidence }

const confidenceOpening = "Let's work on that confidence. No marks, no pressure — just you and me."

const confidenceReasonPrompt = "What's knocking your confidence in maths at the moment? Tell me in your own words."

const confidencePrePrompt = "On a scale of 1 to 5, how confident do you feel about maths right now? (1 = not at all, 5 = very). You can also reply *skip*."

const confidenceLadder = "Here's a small ladder — pick a rung:\n" +
	"1. Warm-up: 3 easy questions\n" +
	"2. Reflect: one small win\n" +
	"3. Challenge: one tougher question\n" +
	"Or reply *skip* to wrap up."

const confidencePostPrompt = "Last one: on a scale of 1 to 5, how confident do you feel now? You can also reply *skip*."

// neutralConfidence substitutes for a skipped rating so the delta is
// always defined.
const neutralConfidence = 3

func (e *Confidence) Start(ctx context.Context, u *store.User) (*Result, error) {
	state := State{Step: StepAskReason, Band: e.initialBand(ctx, u)}
	return &Result{
		Reply: confidenceOpening + "\n\n" + confidenceReasonPrompt,
		State: state,
	}, nil
}

func (e *Confidence) Handle(ctx context.Context, u *store.User, sess *store.Session, state State, input string) (*Result, error) {
	switch state.Step {
	case StepAskReason:
		reason := strings.TrimSpace(input)
		if reason == "" {
			return &Result{Reply: confidenceReasonPrompt, State: state}, nil
		}
		state.Reason = reason
		sess.Reason = reason
		state.Step = StepAskPreConfidence
		return &Result{Reply: "Thanks for telling me. That takes guts.\n\n" + confidencePrePrompt, State: state}, nil

	case StepAskPreConfidence:
		if !isSkip(input) {
			n, ok := parseChoice(input, 5)
			if !ok {
				return &Result{Reply: "Please reply with a number from 1 to 5, or *skip*.", State: state}, nil
			}
			state.PreConfidence = n
			sess.PreConfidence = &n
		}
		support := e.genText(ctx,
			"You are a warm, honest maths coach. Two or three sentences, plain text, no platitudes.",
			fmt.Sprintf("A learner says this is hurting their maths confidence: %q. Write a short supportive response that takes them seriously.", state.Reason),
			"What you're describing is something almost every strong maths student has felt at some point. It says nothing about your ceiling — only about where you are today, and that can change.")
		state.Step = StepShowLadder
		return &Result{Reply: support + "\n\n" + confidenceLadder, State: state}, nil

	case StepShowLadder:
		if isSkip(input) {
			state.Step = StepAskPostConfidence
			return &Result{Reply: confidencePostPrompt, State: state}, nil
		}
		choice, ok := parseChoice(input, 3)
		if !ok {
			return &Result{Reply: "Please reply 1, 2, 3 or *skip*.\n\n" + confidenceLadder, State: state}, nil
		}
		state.Rung = choice
		switch choice {
		case 1:
			state.Step = StepBurst
			state.Band = difficulty.BandEasy
			state.PinBand = true
			text, served, err := e.startBurst(ctx, u, &state, defaultBurstSize)
			if err != nil {
				return nil, err
			}
			if !served {
				state.Step = StepAskPostConfidence
				return &Result{Reply: text + "\n\n" + confidencePostPrompt, State: state}, nil
			}
			return &Result{Reply: "Warm-up time. These are on the easier side — stack up some wins.\n\n" + text, State: state}, nil
		case 2:
			state.Step = StepReflect
			return &Result{Reply: "Tell me one maths thing you figured out recently — however small. It counts.", State: state}, nil
		default:
			state.Step = StepRungQuestion
			state.Band = difficulty.BandMedium
			return e.serveSingle(ctx, u, state,
				"Respect — going straight for the challenge.\n\n")
		}

	case StepBurst:
		reply, done, err := e.burstTurn(ctx, u, &state, input)
		if err != nil {
			return nil, err
		}
		if !done {
			return &Result{Reply: reply, State: state}, nil
		}
		if state.Burst.Index > 0 {
			reply += "\n\n" + burstSummary(state.Burst)
		}
		state.Step = StepAskPostConfidence
		return &Result{Reply: reply + "\n\n" + confidencePostPrompt, State: state}, nil

	case StepReflect:
		state.Step = StepAskPostConfidence
		return &Result{
			Reply: "See? You already know how to get unstuck — you've done it before.\n\n" + confidencePostPrompt,
			State: state,
		}, nil

	case StepRungQuestion:
		v, err := e.recordAnswer(ctx, u, &state, input)
		if errors.Is(err, evaluator.ErrQuestionNotFound) {
			u.CurrentQuestionID = nil
			if uerr := e.Users.Update(ctx, u); uerr != nil {
				return nil, uerr
			}
			return e.serveSingle(ctx, u, state, "That question is no longer available — here is another one.\n\n")
		}
		if err != nil {
			return nil, err
		}
		reply := feedbackLine(v.Correct, v.CorrectLetter)
		if !v.Correct {
			reply += " Wrong answers on hard questions are how progress looks up close."
		}
		state.Step = StepAskPostConfidence
		return &Result{Reply: reply + "\n\n" + confidencePostPrompt, State: state}, nil

	case StepAskPostConfidence:
		if !isSkip(input) {
			n, ok := parseChoice(input, 5)
			if !ok {
				return &Result{Reply: "Please reply with a number from 1 to 5, or *skip*.", State: state}, nil
			}
			state.PostConfidence = n
			sess.PostConfidence = &n
		}
		return &Result{
			Reply:      closingMessage(state.PreConfidence, state.PostConfidence),
			State:      state,
			EndSession: true,
			ClearUser:  true,
		}, nil

	case StepNeedsReset:
		return e.Start(ctx, u)
	}

	return nil, fmt.Errorf("confidence flow: unhandled step %q", state.Step)
}

// serveSingle serves one question at the session band for the challenge
// rung.
func (e *Confidence) serveSingle(ctx context.Context, u *store.User, state State, prefix string) (*Result, error) {
	q, err := e.Selector.Next(ctx, state.Topic, Subject, state.Band, nil)
	if err != nil {
		return nil, err
	}
	if q == nil {
		state.Step = StepAskPostConfidence
		return &Result{Reply: msgNoContent + "\n\n" + confidencePostPrompt, State: state}, nil
	}
	if err := e.Selector.Serve(ctx, u, q); err != nil {
		return nil, err
	}
	return &Result{Reply: prefix + renderQuestion(q), State: state}, nil
}

// closingMessage classifies the confidence delta. Skipped ratings default
// to the neutral midpoint so the arithmetic is always defined.
func closingMessage(pre, post int) string {
	if pre == 0 {
		pre = neutralConfidence
	}
	if post == 0 {
		post = neutralConfidence
	}
	delta := post - pre

	switch {
	case delta > 0:
		return fmt.Sprintf("That's a climb from %d to %d — up %d. Hold on to what that felt like. Type *menu* any time you want more.", pre, post, delta)
	case delta < 0:
		return fmt.Sprintf("From %d to %d — some days are like that, and showing up still counts for a lot. Come back tomorrow and we'll go again. Type *menu* when you're ready.", pre, post)
	default:
		return fmt.Sprintf("Steady at %d. Confidence builds in layers — today was one of them. Type *menu* any time.", post)
	}
}
