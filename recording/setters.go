package recording

// SetName returns an UpdateSetter that renames the recording session.
func SetName(name string) UpdateSetter {
	return func(rs *RecordingSession) error {
		if name == "" {
			return ErrInvalidName
		}
		rs.Name = name
		return nil
	}
}

// SetCurrentURL returns an UpdateSetter that tracks the active page URL.
func SetCurrentURL(url string) UpdateSetter {
	return func(rs *RecordingSession) error {
		rs.CurrentURL = url
		return nil
	}
}

// SetStepsCount returns an UpdateSetter that sets the cached step count.
func SetStepsCount(count int) UpdateSetter {
	return func(rs *RecordingSession) error {
		rs.StepsCount = count
		return nil
	}
}

// Step setters. There is deliberately no setter for ConfidenceScore: the
// score reflects synthesis provenance and user edits never change it.

// SetNaturalLanguage returns a StepUpdateSetter that rewrites the step's
// natural language description.
func SetNaturalLanguage(text string) StepUpdateSetter {
	return func(st *Step) error {
		st.NaturalLanguage = text
		return nil
	}
}

// SetActionType returns a StepUpdateSetter that changes the step's action.
func SetActionType(action ActionType) StepUpdateSetter {
	return func(st *Step) error {
		if !action.IsValid() {
			return ErrInvalidActionType
		}
		st.ActionType = action
		return nil
	}
}

// SetElementSelector returns a StepUpdateSetter that replaces the primary
// selector.
func SetElementSelector(selector string) StepUpdateSetter {
	return func(st *Step) error {
		st.ElementSelector = selector
		return nil
	}
}

// SetElementDescription returns a StepUpdateSetter that replaces the human
// readable element description.
func SetElementDescription(description string) StepUpdateSetter {
	return func(st *Step) error {
		st.ElementDescription = description
		return nil
	}
}

// SetElementAlternatives returns a StepUpdateSetter that replaces the
// fallback selector list.
func SetElementAlternatives(alternatives Selectors) StepUpdateSetter {
	return func(st *Step) error {
		st.ElementAlternatives = alternatives
		return nil
	}
}

// SetValue returns a StepUpdateSetter that replaces the step's input value.
func SetValue(value string) StepUpdateSetter {
	return func(st *Step) error {
		st.Value = value
		return nil
	}
}

// SetScreenshotBefore returns a StepUpdateSetter that records the path of
// the screenshot taken before the step executed.
func SetScreenshotBefore(path string) StepUpdateSetter {
	return func(st *Step) error {
		st.ScreenshotBefore = path
		return nil
	}
}

// SetScreenshotAfter returns a StepUpdateSetter that records the path of
// the screenshot taken after the step executed.
func SetScreenshotAfter(path string) StepUpdateSetter {
	return func(st *Step) error {
		st.ScreenshotAfter = path
		return nil
	}
}
