package synth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stepwright/stepwright/recording"
)

// Suggestion is one recommended improvement to a session's step list.
// Suggestions are advice only; nothing applies them automatically.
type Suggestion struct {
	StepID     string  `json:"step_id,omitempty"`
	OrderIndex int     `json:"order_index"`
	Text       string  `json:"text"`
	Reasoning  string  `json:"reasoning"`
	Score      float64 `json:"score"`
}

// Suggest inspects a session's steps and returns ranked improvement
// suggestions, most important first.
func Suggest(steps []*recording.Step, limits recording.QualityLimits) []Suggestion {
	var suggestions []Suggestion

	for i, step := range steps {
		if step.ConfidenceScore < limits.LowConfidenceThreshold && !step.UserVerified {
			suggestions = append(suggestions, Suggestion{
				StepID:     step.ID.String(),
				OrderIndex: step.OrderIndex,
				Text:       fmt.Sprintf("Review and verify step %d", step.OrderIndex),
				Reasoning: fmt.Sprintf("The step was synthesized with confidence %.2f, below the %.2f review threshold, and has not been verified.",
					step.ConfidenceScore, limits.LowConfidenceThreshold),
				Score: 0.9,
			})
		}

		if isStructuralSelector(step.ElementSelector) {
			suggestions = append(suggestions, Suggestion{
				StepID:     step.ID.String(),
				OrderIndex: step.OrderIndex,
				Text:       fmt.Sprintf("Add a data-testid attribute to the element targeted by step %d", step.OrderIndex),
				Reasoning:  "The primary selector is a structural CSS path, which breaks whenever the page layout or styling changes.",
				Score:      0.7,
			})
		}

		if step.ActionType.RequiresValue() && step.Value == "" {
			suggestions = append(suggestions, Suggestion{
				StepID:     step.ID.String(),
				OrderIndex: step.OrderIndex,
				Text:       fmt.Sprintf("Fill in the missing input value for step %d", step.OrderIndex),
				Reasoning:  fmt.Sprintf("A %s step replays nothing without a value.", step.ActionType),
				Score:      0.8,
			})
		}

		if step.ActionType == recording.ActionInput && !followedByCheck(steps, i) {
			suggestions = append(suggestions, Suggestion{
				StepID:     step.ID.String(),
				OrderIndex: step.OrderIndex,
				Text:       fmt.Sprintf("Add a verify step after step %d", step.OrderIndex),
				Reasoning:  "Typed input is never asserted afterwards, so a silently rejected value would not fail the test.",
				Score:      0.5,
			})
		}
	}

	if len(steps) > 0 && steps[len(steps)-1].ActionType == recording.ActionNavigate {
		last := steps[len(steps)-1]
		suggestions = append(suggestions, Suggestion{
			StepID:     last.ID.String(),
			OrderIndex: last.OrderIndex,
			Text:       "Add a verify step after the final navigation",
			Reasoning:  "The test ends on a navigation without checking the destination page loaded what was expected.",
			Score:      0.6,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	return suggestions
}

// isStructuralSelector reports whether a selector depends on page structure
// rather than a stable attribute.
func isStructuralSelector(selector string) bool {
	if selector == "" {
		return false
	}
	return !strings.HasPrefix(selector, "#") &&
		!strings.HasPrefix(selector, "[data-testid") &&
		!strings.HasPrefix(selector, "[aria-label") &&
		!strings.Contains(selector, "[name=")
}

// followedByCheck reports whether a later step verifies or waits on anything.
func followedByCheck(steps []*recording.Step, from int) bool {
	for _, step := range steps[from+1:] {
		if step.ActionType == recording.ActionVerify || step.ActionType == recording.ActionWait {
			return true
		}
	}
	return false
}
