package codegen

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/stepwright/stepwright/recording"
)

// UnsupportedActionError reports a step the target framework cannot express.
// Generation aborts; it never silently drops steps.
type UnsupportedActionError struct {
	OrderIndex int
	ActionType recording.ActionType
	Framework  Framework
}

// Error implements the error interface.
func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("unsupported action type %q at step %d for framework %s",
		e.ActionType, e.OrderIndex, e.Framework)
}

// emitter renders a full test file for one target framework.
type emitter interface {
	fileName(testName string) string
	emit(steps []*recording.Step, opts Options) (string, error)
}

func emitterFor(framework Framework) (emitter, error) {
	switch framework {
	case FrameworkPlaywrightTest:
		return playwrightTestEmitter{}, nil
	case FrameworkPlaywright:
		return playwrightPythonEmitter{}, nil
	case FrameworkSelenium:
		return seleniumEmitter{}, nil
	default:
		return nil, ErrInvalidFramework
	}
}

// Generate renders the steps as test code for the target framework. It is a
// pure function of its inputs: the same steps and options always produce
// byte-identical output, which is what makes the cache sound.
func Generate(steps []*recording.Step, opts Options) (string, string, error) {
	if err := opts.Validate(); err != nil {
		return "", "", err
	}

	em, err := emitterFor(opts.Framework)
	if err != nil {
		return "", "", err
	}

	ordered := make([]*recording.Step, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	for _, step := range ordered {
		if !step.ActionType.IsValid() {
			return "", "", &UnsupportedActionError{
				OrderIndex: step.OrderIndex,
				ActionType: step.ActionType,
				Framework:  opts.Framework,
			}
		}
	}

	code, err := em.emit(ordered, opts)
	if err != nil {
		return "", "", err
	}
	return code, em.fileName(opts.TestName), nil
}

// stepFingerprint is the part of a step that influences generated code.
type stepFingerprint struct {
	OrderIndex      int                  `json:"order_index"`
	ActionType      recording.ActionType `json:"action_type"`
	NaturalLanguage string               `json:"natural_language"`
	Selector        string               `json:"selector"`
	Alternatives    []string             `json:"alternatives,omitempty"`
	Value           string               `json:"value,omitempty"`
}

// OptionsHash derives the cache key for a generation run. Any change to the
// options or to a step's code-relevant fields changes the hash.
func OptionsHash(steps []*recording.Step, opts Options) string {
	fingerprints := make([]stepFingerprint, 0, len(steps))
	for _, step := range steps {
		fingerprints = append(fingerprints, stepFingerprint{
			OrderIndex:      step.OrderIndex,
			ActionType:      step.ActionType,
			NaturalLanguage: step.NaturalLanguage,
			Selector:        step.ElementSelector,
			Alternatives:    step.ElementAlternatives,
			Value:           step.Value,
		})
	}
	sort.Slice(fingerprints, func(i, j int) bool {
		return fingerprints[i].OrderIndex < fingerprints[j].OrderIndex
	})

	payload, _ := json.Marshal(struct {
		Options Options           `json:"options"`
		Steps   []stepFingerprint `json:"steps"`
	}{opts, fingerprints})

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
