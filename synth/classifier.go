package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/stepwright/stepwright/browser"
	"github.com/stepwright/stepwright/recording"
)

var (
	// ErrUnknownEventType is returned when an event cannot be classified.
	ErrUnknownEventType = errors.New("unknown event type")
)

// Draft is a classified step before it is persisted. A draft carries the
// synthesis confidence that becomes the step's immutable score.
type Draft struct {
	NaturalLanguage    string
	ActionType         recording.ActionType
	ElementDescription string
	ElementSelector    string
	Alternatives       recording.Selectors
	Value              string
	Confidence         float64
}

// Classifier turns one raw browser event into a draft step.
type Classifier interface {
	Classify(ctx context.Context, event browser.Event) (*Draft, error)
}

// RuleClassifier classifies events with deterministic rules. It is the
// default classifier and the fallback when the LLM classifier is down.
type RuleClassifier struct{}

// NewRuleClassifier creates a rule-based classifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify maps a raw event to a draft step.
func (c *RuleClassifier) Classify(ctx context.Context, event browser.Event) (*Draft, error) {
	switch event.Type {
	case browser.EventClick:
		return c.elementDraft(event, recording.ActionClick, "Click on the %s"), nil
	case browser.EventInput:
		draft := c.elementDraft(event, recording.ActionInput, "")
		draft.Value = event.Value
		draft.NaturalLanguage = fmt.Sprintf("Type %q into the %s", event.Value, draft.ElementDescription)
		return draft, nil
	case browser.EventSelect:
		draft := c.elementDraft(event, recording.ActionSelect, "")
		draft.Value = event.Value
		draft.NaturalLanguage = fmt.Sprintf("Select %q from the %s", event.Value, draft.ElementDescription)
		return draft, nil
	case browser.EventHover:
		return c.elementDraft(event, recording.ActionHover, "Hover over the %s"), nil
	case browser.EventSubmit:
		return c.elementDraft(event, recording.ActionClick, "Submit the %s"), nil
	case browser.EventNavigate:
		return &Draft{
			NaturalLanguage: fmt.Sprintf("Navigate to %s", event.PageURL),
			ActionType:      recording.ActionNavigate,
			Value:           event.PageURL,
			Confidence:      0.95,
		}, nil
	case browser.EventScroll:
		return &Draft{
			NaturalLanguage: fmt.Sprintf("Scroll to position (%d, %d)", event.ScrollX, event.ScrollY),
			ActionType:      recording.ActionScroll,
			Value:           fmt.Sprintf("%d,%d", event.ScrollX, event.ScrollY),
			Confidence:      0.9,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, event.Type)
	}
}

func (c *RuleClassifier) elementDraft(event browser.Event, action recording.ActionType, format string) *Draft {
	description := describeElement(event.Element)
	selectors := buildSelectors(event.Element)

	draft := &Draft{
		ActionType:         action,
		ElementDescription: description,
		Confidence:         scoreConfidence(event.Element, selectors),
	}
	if len(selectors) > 0 {
		draft.ElementSelector = selectors[0]
		if len(selectors) > 1 {
			draft.Alternatives = selectors[1:]
		}
	}
	if format != "" {
		draft.NaturalLanguage = fmt.Sprintf(format, description)
	}
	return draft
}

// describeElement builds a human readable description of the target element.
// Visible text wins over aria-label, which wins over form metadata, which
// wins over the bare tag name.
func describeElement(el *browser.Element) string {
	if el == nil {
		return "element"
	}

	noun := elementNoun(el.Tag)

	if text := strings.TrimSpace(el.Text); text != "" {
		return fmt.Sprintf("%q %s", truncate(text, 60), noun)
	}
	if el.AriaLabel != "" {
		return fmt.Sprintf("%q %s", el.AriaLabel, noun)
	}
	if label := el.Attr("name"); label != "" {
		return fmt.Sprintf("%s %s", label, noun)
	}
	if placeholder := el.Attr("placeholder"); placeholder != "" {
		return fmt.Sprintf("%q %s", placeholder, noun)
	}
	return noun
}

func elementNoun(tag string) string {
	switch strings.ToLower(tag) {
	case "a":
		return "link"
	case "button":
		return "button"
	case "input":
		return "field"
	case "textarea":
		return "text area"
	case "select":
		return "dropdown"
	case "form":
		return "form"
	case "img":
		return "image"
	case "":
		return "element"
	default:
		return strings.ToLower(tag) + " element"
	}
}

// buildSelectors produces the primary selector followed by up to three
// fallbacks, most stable first. Test ids beat accessibility attributes,
// which beat structural CSS.
func buildSelectors(el *browser.Element) recording.Selectors {
	if el == nil {
		return nil
	}

	var selectors recording.Selectors
	add := func(s string) {
		if s == "" || len(selectors) >= 4 {
			return
		}
		for _, existing := range selectors {
			if existing == s {
				return
			}
		}
		selectors = append(selectors, s)
	}

	if testID := el.Attr("data-testid"); testID != "" {
		add(fmt.Sprintf(`[data-testid="%s"]`, testID))
	}
	if id := el.Attr("id"); id != "" {
		add("#" + id)
	}
	if el.AriaLabel != "" {
		add(fmt.Sprintf(`[aria-label="%s"]`, el.AriaLabel))
	}
	if name := el.Attr("name"); name != "" {
		add(fmt.Sprintf(`%s[name="%s"]`, strings.ToLower(el.Tag), name))
	}
	add(cssPath(el))

	return selectors
}

// cssPath builds a structural selector from the tag and classes. It is the
// least stable option and only ever a fallback.
func cssPath(el *browser.Element) string {
	tag := strings.ToLower(el.Tag)
	if tag == "" {
		return ""
	}
	class := el.Attr("class")
	if class == "" {
		return tag
	}

	parts := strings.Fields(class)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return tag + "." + strings.Join(parts, ".")
}

// scoreConfidence rates how reliably the step will replay. The primary
// selector's stability dominates; a recognizable description adds a little.
func scoreConfidence(el *browser.Element, selectors recording.Selectors) float64 {
	if el == nil || len(selectors) == 0 {
		return 0.3
	}

	var score float64
	switch {
	case el.Attr("data-testid") != "":
		score = 0.95
	case el.Attr("id") != "":
		score = 0.9
	case el.AriaLabel != "":
		score = 0.85
	case el.Attr("name") != "":
		score = 0.75
	default:
		score = 0.55
	}

	if strings.TrimSpace(el.Text) == "" && el.AriaLabel == "" {
		score -= 0.1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// truncate cuts s to at most max runes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
