package recording

import (
	"fmt"
	"strings"
)

// QualityIssue describes one problem found while analyzing a step.
type QualityIssue struct {
	StepID     string `json:"step_id"`
	OrderIndex int    `json:"order_index"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

// QualityReport summarizes the reviewability of a session's step list.
type QualityReport struct {
	StepsAnalyzed int            `json:"steps_analyzed"`
	Verified      int            `json:"verified"`
	LowConfidence int            `json:"low_confidence"`
	Score         float64        `json:"score"`
	Issues        []QualityIssue `json:"issues"`
}

// QualityLimits defines the bounds used by quality analysis.
type QualityLimits struct {
	MinNaturalLanguageLength int
	MaxNaturalLanguageLength int
	LowConfidenceThreshold   float64
}

// DefaultQualityLimits returns the default quality analysis bounds.
func DefaultQualityLimits() QualityLimits {
	return QualityLimits{
		MinNaturalLanguageLength: 8,
		MaxNaturalLanguageLength: 500,
		LowConfidenceThreshold:   0.7,
	}
}

// actionKeywords maps an action type to words expected somewhere in its
// natural language description.
var actionKeywords = map[ActionType][]string{
	ActionClick:    {"click", "press", "tap"},
	ActionInput:    {"type", "enter", "fill"},
	ActionVerify:   {"verify", "check", "assert", "confirm"},
	ActionNavigate: {"navigate", "go to", "open", "visit"},
	ActionWait:     {"wait"},
	ActionSelect:   {"select", "choose", "pick"},
	ActionScroll:   {"scroll"},
	ActionHover:    {"hover", "move"},
}

// AnalyzeQuality inspects a session's steps and reports issues a reviewer
// should look at before exporting the session as a test. Steps are never
// rejected; low quality only lowers the score.
func AnalyzeQuality(steps []*Step, limits QualityLimits) *QualityReport {
	report := &QualityReport{
		StepsAnalyzed: len(steps),
		Issues:        []QualityIssue{},
	}
	if len(steps) == 0 {
		return report
	}

	clean := 0
	for _, step := range steps {
		issues := analyzeStep(step, limits)
		report.Issues = append(report.Issues, issues...)
		if len(issues) == 0 {
			clean++
		}
		if step.UserVerified {
			report.Verified++
		}
		if step.ConfidenceScore < limits.LowConfidenceThreshold {
			report.LowConfidence++
		}
	}

	report.Score = float64(clean) / float64(len(steps))
	return report
}

func analyzeStep(step *Step, limits QualityLimits) []QualityIssue {
	var issues []QualityIssue

	issue := func(field, message string) {
		issues = append(issues, QualityIssue{
			StepID:     step.ID.String(),
			OrderIndex: step.OrderIndex,
			Field:      field,
			Message:    message,
		})
	}

	text := strings.TrimSpace(step.NaturalLanguage)
	if len(text) < limits.MinNaturalLanguageLength {
		issue("natural_language", fmt.Sprintf("description is too short (%d characters, min %d)",
			len(text), limits.MinNaturalLanguageLength))
	}
	if len(text) > limits.MaxNaturalLanguageLength {
		issue("natural_language", fmt.Sprintf("description is too long (%d characters, max %d)",
			len(text), limits.MaxNaturalLanguageLength))
	}

	if keywords, ok := actionKeywords[step.ActionType]; ok && len(text) > 0 {
		lower := strings.ToLower(text)
		found := false
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				found = true
				break
			}
		}
		if !found {
			issue("natural_language", fmt.Sprintf("description does not mention a %q action", step.ActionType))
		}
	}

	if step.ActionType.RequiresValue() && step.Value == "" {
		issue("value", fmt.Sprintf("%s steps require a value", step.ActionType))
	}

	if step.ConfidenceScore < limits.LowConfidenceThreshold && !step.UserVerified {
		issue("confidence_score", fmt.Sprintf("confidence %.2f is below %.2f and the step is unverified",
			step.ConfidenceScore, limits.LowConfidenceThreshold))
	}

	return issues
}
