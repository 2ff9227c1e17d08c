// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// State tags the position of a run draft in the pipeline.
type State string

const (
	// StateEmpty: no candidate submitted yet.
	StateEmpty State = "empty"
	// StateTextChecking: the quality gate rejected the candidate;
	// attempts remain.
	StateTextChecking State = "text_checking"
	// StateTextLocked: the quality-gate budget is exhausted.
	StateTextLocked State = "text_locked"
	// StateStage1Failed: the initial parse refused the description;
	// attempts remain.
	StateStage1Failed State = "stage1_failed"
	// StateStage1Locked: the stage-1 budget is exhausted.
	StateStage1Locked State = "stage1_locked"
	// StateAmbiguousStage2: the description is plausible but unclear;
	// the clarification loop is open.
	StateAmbiguousStage2 State = "ambiguous_stage2"
	// StateStage2Locked: clarification refused or exhausted.
	StateStage2Locked State = "stage2_locked"
	// StateConvergedClear: accepted and clear; ready for the framework
	// builder.
	StateConvergedClear State = "converged_clear"
	StateFrameworkBuilt State = "framework_built"
	StateQueriesBuilt   State = "queries_built"
	StateExecuted       State = "executed"
	StateIngested       State = "ingested"
)

// Locked reports whether the state is one of the three terminal lock
// states, recoverable only by resetting the draft with new base text.
func (s State) Locked() bool {
	return s == StateTextLocked || s == StateStage1Locked || s == StateStage2Locked
}

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerUser   Speaker = "user"
	SpeakerSystem Speaker = "system"
)

// TranscriptEntry is one ordered line of the validation dialogue.
type TranscriptEntry struct {
	Speaker Speaker `json:"speaker" yaml:"speaker"`
	Text    string  `json:"text" yaml:"text"`
}

// MaxStageAttempts is the per-stage attempt budget shared by the quality
// gate, stage-1 parsing, and stage-2 clarification.
const MaxStageAttempts = 3

// Draft is the serializable working state of one attempt at producing a
// retrieval plan within a run. It is owned by a single orchestrator
// instance and persisted wholesale between CLI invocations.
type Draft struct {
	// CandidateText is the base description most recently submitted.
	CandidateText string `json:"candidate_text" yaml:"candidate_text"`

	// ComposedText is the base description plus any accepted
	// clarifications. Empty until the quality gate passes.
	ComposedText string `json:"composed_text,omitempty" yaml:"composed_text,omitempty"`

	// Transcript is the ordered user/system dialogue for this draft.
	Transcript []TranscriptEntry `json:"transcript,omitempty" yaml:"transcript,omitempty"`

	// TextAttempts counts quality-gate submissions, including ones that
	// failed because the service was unreachable.
	TextAttempts int `json:"text_attempts" yaml:"text_attempts"`

	// Stage1Attempts counts initial-parse calls.
	Stage1Attempts int `json:"stage1_attempts" yaml:"stage1_attempts"`

	// Stage2Attempts counts clarification-parse calls.
	Stage2Attempts int `json:"stage2_attempts" yaml:"stage2_attempts"`

	// TextLocked, Stage1Locked, and Stage2Locked are the terminal stage
	// locks. Once set they hold until the draft is reset.
	TextLocked   bool `json:"text_locked" yaml:"text_locked"`
	Stage1Locked bool `json:"stage1_locked" yaml:"stage1_locked"`
	Stage2Locked bool `json:"stage2_locked" yaml:"stage2_locked"`

	// LastParse is the most recent parse result; each parse replaces it
	// wholesale.
	LastParse *ParseResult `json:"last_parse,omitempty" yaml:"last_parse,omitempty"`

	// FrameworkGenerated records that a retrieval framework has been
	// built for this draft at least once.
	FrameworkGenerated bool `json:"framework_generated" yaml:"framework_generated"`

	// State is the draft's position in the pipeline.
	State State `json:"state" yaml:"state"`
}

// Run is a persisted run record holding one draft.
type Run struct {
	ID      string    `json:"id" yaml:"id"`
	Label   string    `json:"label,omitempty" yaml:"label,omitempty"`
	Created time.Time `json:"created" yaml:"created"`
}
