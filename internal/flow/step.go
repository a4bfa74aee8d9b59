package flow

// Step tags one state of a flow state machine. The persisted session state
// is dispatched on this tag; the rest of the payload is step-specific.
type Step string

const (
	// Shared steps.
	StepAskGrade Step = "ask_grade"
	StepAskTopic Step = "ask_topic"

	// Stress flow.
	StepAskLevel     Step = "ask_level"
	StepAskExamDate  Step = "ask_exam_date"
	StepPlan         Step = "plan"
	StepMicroModule  Step = "micro_module"
	StepBurst        Step = "burst"
	StepMomentumMenu Step = "momentum_menu"

	// Confidence flow.
	StepAskReason         Step = "ask_reason"
	StepAskPreConfidence  Step = "ask_pre_confidence"
	StepShowLadder        Step = "show_ladder"
	StepReflect           Step = "reflect"
	StepRungQuestion      Step = "rung_question"
	StepAskPostConfidence Step = "ask_post_confidence"

	// Exam-prep flow.
	StepAskSubject        Step = "ask_subject"
	StepAskProblemDetails Step = "ask_problem_details"
	StepExamDate          Step = "exam_date"
	StepAskPreferredTime  Step = "ask_preferred_time"
	StepPlanAction        Step = "plan_action"
	StepLesson            Step = "lesson"
	StepPractice          Step = "practice"
	StepPracticeContinue  Step = "practice_continue"

	// Practice flow.
	StepQuestion    Step = "question"
	StepAskContinue Step = "ask_continue"

	// StepNeedsReset is the decode result for an unrecognized step tag.
	// Handlers treat it as "start this flow over", never as a fault.
	StepNeedsReset Step = "needs_reset"
)

// knownSteps is the closed set a persisted state may decode into.
var knownSteps = map[Step]bool{
	StepAskGrade:          true,
	StepAskTopic:          true,
	StepAskLevel:          true,
	StepAskExamDate:       true,
	StepPlan:              true,
	StepMicroModule:       true,
	StepBurst:             true,
	StepMomentumMenu:      true,
	StepAskReason:         true,
	StepAskPreConfidence:  true,
	StepShowLadder:        true,
	StepReflect:           true,
	StepRungQuestion:      true,
	StepAskPostConfidence: true,
	StepAskSubject:        true,
	StepAskProblemDetails: true,
	StepExamDate:          true,
	StepAskPreferredTime:  true,
	StepPlanAction:        true,
	StepLesson:            true,
	StepPractice:          true,
	StepPracticeContinue:  true,
	StepQuestion:          true,
	StepAskContinue:       true,
}
