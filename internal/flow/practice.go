package flow

import (
	"context"
	"fmt"

	"github.com/tebogo/mathmate/internal/store"
)

// Practice is the plain practice flow: pick a topic, answer a round of
// questions at your level, go again or stop.
type Practice struct {
	Deps
}

// NewPractice builds the practice engine.
func NewPractice(d Deps) *Practice { return &Practice{Deps: d} }

func (e *Practice) FlowType() store.FlowType { return store.FlowPractice }

// practiceRoundSize is how many questions make up one round.
const practiceRoundSize = 5

const practiceContinueMenu = "1. Another round\n" +
	"2. Stop for now\n" +
	"Reply 1 or 2."

func (e *Practice) Start(ctx context.Context, u *store.User) (*Result, error) {
	state := State{Step: StepAskTopic, Band: e.initialBand(ctx, u)}
	return &Result{
		Reply: "Practice time. Which topic?\n" + topicMenu(),
		State: state,
	}, nil
}

func (e *Practice) Handle(ctx context.Context, u *store.User, _ *store.Session, state State, input string) (*Result, error) {
	switch state.Step {
	case StepAskTopic:
		topic, ok := parseTopic(input)
		if !ok {
			return &Result{Reply: "Please pick a topic from the list:\n" + topicMenu(), State: state}, nil
		}
		state.Topic = topic
		return e.beginRound(ctx, u, state)

	case StepQuestion:
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
		state.Step = StepAskContinue
		return &Result{Reply: reply + "\n\n" + practiceContinueMenu, State: state}, nil

	case StepAskContinue:
		choice, ok := parseChoice(input, 2)
		if !ok {
			return &Result{Reply: "Please reply 1 or 2.\n\n" + practiceContinueMenu, State: state}, nil
		}
		if choice == 1 {
			return e.beginRound(ctx, u, state)
		}
		return &Result{
			Reply:      "Good session. Type *menu* whenever you want more.",
			State:      state,
			EndSession: true,
			ClearUser:  true,
		}, nil

	case StepNeedsReset:
		return e.Start(ctx, u)
	}

	return nil, fmt.Errorf("practice flow: unhandled step %q", state.Step)
}

// beginRound starts a fresh practice round on the chosen topic.
func (e *Practice) beginRound(ctx context.Context, u *store.User, state State) (*Result, error) {
	state.Step = StepQuestion
	text, ok, err := e.startBurst(ctx, u, &state, practiceRoundSize)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Result{Reply: text, State: state, EndSession: true, ClearUser: true}, nil
	}
	return &Result{Reply: text, State: state}, nil
}
