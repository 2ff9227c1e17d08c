// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"

	"github.com/pdiddy/litmap/pkg/types"
)

// serviceUnavailableReason is the fixed quality-gate reason recorded
// when the planning service cannot be reached. The attempt still counts
// against the text-validation budget.
const serviceUnavailableReason = "service unavailable"

// NewDraft returns the initial draft state for a fresh or reset run:
// all counters zero, all locks cleared, empty transcript.
func NewDraft() types.Draft {
	return types.Draft{State: types.StateEmpty}
}

// The transition functions below are pure: (draft, outcome) → draft.
// They are the only code that mutates counters, locks, transcript, and
// state, and they run only after a definitive outcome from the remote
// call is known.

// applySubmit records a base-text submission before the quality gate
// runs. The new candidate supersedes the previous description entirely:
// the composed text, last parse, and framework flag are dropped so a
// stale acceptance can never gate downstream stages. Counters and locks
// are untouched.
func applySubmit(d types.Draft, text string) types.Draft {
	d.CandidateText = text
	d.ComposedText = ""
	d.LastParse = nil
	d.FrameworkGenerated = false
	d.Transcript = appendEntry(d.Transcript, types.SpeakerUser, text)
	return d
}

// applyQualityFailure counts a quality-gate rejection. The third counted
// failure sets the text-validation lock.
func applyQualityFailure(d types.Draft, reason string) types.Draft {
	d.TextAttempts++
	if d.TextAttempts >= types.MaxStageAttempts {
		d.TextLocked = true
		d.State = types.StateTextLocked
		d.Transcript = appendEntry(d.Transcript, types.SpeakerSystem,
			fmt.Sprintf("Description rejected: %s. Validation attempts exhausted; start a new description.", reason))
		return d
	}
	d.State = types.StateTextChecking
	d.Transcript = appendEntry(d.Transcript, types.SpeakerSystem,
		fmt.Sprintf("Description rejected: %s (attempt %d/%d).", reason, d.TextAttempts, types.MaxStageAttempts))
	return d
}

// applyQualityPass accepts the candidate as the run's base description.
func applyQualityPass(d types.Draft, text string) types.Draft {
	d.TextLocked = false
	d.ComposedText = text
	d.Transcript = appendEntry(d.Transcript, types.SpeakerSystem,
		"Description passed quality validation.")
	return d
}

// applyStage1 counts an initial parse and branches on its verdict:
// refusal (with lock on the third), ready-for-framework, or open the
// clarification loop.
func applyStage1(d types.Draft, res types.ParseResult) types.Draft {
	d.Stage1Attempts++
	r := res
	d.LastParse = &r

	switch {
	case !res.Research():
		if d.Stage1Attempts >= types.MaxStageAttempts {
			d.Stage1Locked = true
			d.State = types.StateStage1Locked
			d.Transcript = appendEntry(d.Transcript, types.SpeakerSystem,
				fmt.Sprintf("Description refused: %s. Parse attempts exhausted; start a new description.", refusalReason(res)))
			return d
		}
		d.State = types.StateStage1Failed
		d.Transcript = appendEntry(d.Transcript, types.SpeakerSystem,
			fmt.Sprintf("Description refused: %s (attempt %d/%d). Edit the description and resubmit.",
				refusalReason(res), d.Stage1Attempts, types.MaxStageAttempts))
		return d

	case res.IsClearForSearch:
		d.State = types.StateConvergedClear
		d.Transcript = appendEntry(d.Transcript, types.SpeakerSystem,
			"Description accepted and clear for search.")
		return d

	default:
		d.State = types.StateAmbiguousStage2
		d.Transcript = appendEntry(d.Transcript, types.SpeakerSystem,
			fmt.Sprintf("Description accepted but ambiguous; %d clarification question(s) follow.",
				len(res.ClarificationQuestions)))
		return d
	}
}

// applyStage2 counts a clarification parse. The additional info joins
// the composite description regardless of verdict. An impossible or
// non-research verdict locks stage 2 immediately, even on the first
// attempt; exhaustion of the budget locks it too.
func applyStage2(d types.Draft, additionalInfo string, res types.ParseResult) types.Draft {
	d.Stage2Attempts++
	d.ComposedText = d.ComposedText + "\n\nAdditional info:\n" + additionalInfo
	r := res
	d.LastParse = &r
	d.Transcript = appendEntry(d.Transcript, types.SpeakerUser, additionalInfo)

	switch {
	case !res.Research():
		d.Stage2Locked = true
		d.State = types.StateStage2Locked
		d.Transcript = appendEntry(d.Transcript, types.SpeakerSystem,
			fmt.Sprintf("Clarification refused: %s. This draft cannot proceed; start a new description.", refusalReason(res)))
		return d

	case res.IsClearForSearch:
		d.State = types.StateConvergedClear
		d.Transcript = appendEntry(d.Transcript, types.SpeakerSystem,
			"Description is now clear for search.")
		return d

	case d.Stage2Attempts >= types.MaxStageAttempts:
		d.Stage2Locked = true
		d.State = types.StateStage2Locked
		d.Transcript = appendEntry(d.Transcript, types.SpeakerSystem,
			"Clarification attempts exhausted without convergence; start a new description.")
		return d

	default:
		d.State = types.StateAmbiguousStage2
		d.Transcript = appendEntry(d.Transcript, types.SpeakerSystem,
			fmt.Sprintf("Still ambiguous; %d clarification question(s) remain.",
				len(res.ClarificationQuestions)))
		return d
	}
}

// applyFrameworkBuilt marks the draft as having produced a framework.
func applyFrameworkBuilt(d types.Draft) types.Draft {
	d.FrameworkGenerated = true
	d.State = types.StateFrameworkBuilt
	d.Transcript = appendEntry(d.Transcript, types.SpeakerSystem,
		"Retrieval framework generated.")
	return d
}

func refusalReason(res types.ParseResult) string {
	if res.Guidance != "" {
		return res.Guidance
	}
	if res.Plausibility == types.PlausibilityImpossible {
		return "the request cannot be answered by a literature search"
	}
	return "the text is not a research description"
}

func appendEntry(ts []types.TranscriptEntry, speaker types.Speaker, text string) []types.TranscriptEntry {
	return append(ts, types.TranscriptEntry{Speaker: speaker, Text: text})
}
