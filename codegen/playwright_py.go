package codegen

import (
	"fmt"
	"strings"

	"github.com/stepwright/stepwright/recording"
)

// playwrightPythonEmitter renders Python for Playwright's sync API.
type playwrightPythonEmitter struct{}

func (playwrightPythonEmitter) fileName(testName string) string {
	return "test_" + slug(testName, "_") + ".py"
}

func (e playwrightPythonEmitter) emit(steps []*recording.Step, opts Options) (string, error) {
	var b strings.Builder

	b.WriteString("from playwright.sync_api import expect, sync_playwright\n\n\n")
	fmt.Fprintf(&b, "def %s(page):\n", pyFuncName(opts.TestName))

	if opts.BaseURL != "" && (len(steps) == 0 || steps[0].ActionType != recording.ActionNavigate) {
		fmt.Fprintf(&b, "    page.goto(%s)\n", quoteDouble(opts.BaseURL))
	}

	if len(steps) == 0 && opts.BaseURL == "" {
		b.WriteString("    pass\n")
	}

	for _, step := range steps {
		if opts.IncludeComments && step.NaturalLanguage != "" {
			fmt.Fprintf(&b, "    # %s\n", step.NaturalLanguage)
		}
		line, err := e.statement(step, opts)
		if err != nil {
			return "", err
		}
		b.WriteString("    " + line + "\n")
	}

	b.WriteString("\n\ndef main():\n")
	b.WriteString("    with sync_playwright() as p:\n")
	b.WriteString("        browser = p.chromium.launch()\n")
	b.WriteString("        page = browser.new_page()\n")
	fmt.Fprintf(&b, "        %s(page)\n", pyFuncName(opts.TestName))
	b.WriteString("        browser.close()\n")
	b.WriteString("\n\nif __name__ == \"__main__\":\n")
	b.WriteString("    main()\n")

	return b.String(), nil
}

func (playwrightPythonEmitter) statement(step *recording.Step, opts Options) (string, error) {
	switch step.ActionType {
	case recording.ActionNavigate:
		return fmt.Sprintf("page.goto(%s)", quoteDouble(step.Value)), nil
	case recording.ActionClick:
		return fmt.Sprintf("page.click(%s)", quoteDouble(step.ElementSelector)), nil
	case recording.ActionInput:
		return fmt.Sprintf("page.fill(%s, %s)",
			quoteDouble(step.ElementSelector), quoteDouble(step.Value)), nil
	case recording.ActionSelect:
		return fmt.Sprintf("page.select_option(%s, %s)",
			quoteDouble(step.ElementSelector), quoteDouble(step.Value)), nil
	case recording.ActionHover:
		return fmt.Sprintf("page.hover(%s)", quoteDouble(step.ElementSelector)), nil
	case recording.ActionScroll:
		x, y := scrollTarget(step.Value)
		return fmt.Sprintf("page.evaluate(%s)", quoteDouble(fmt.Sprintf("window.scrollTo(%d, %d)", x, y))), nil
	case recording.ActionWait:
		if step.ElementSelector == "" {
			return "page.wait_for_timeout(1000)", nil
		}
		return fmt.Sprintf("page.wait_for_selector(%s)", quoteDouble(step.ElementSelector)), nil
	case recording.ActionVerify:
		return fmt.Sprintf("expect(page.locator(%s)).to_be_visible()",
			quoteDouble(step.ElementSelector)), nil
	default:
		return "", &UnsupportedActionError{
			OrderIndex: step.OrderIndex,
			ActionType: step.ActionType,
			Framework:  opts.Framework,
		}
	}
}

// pyFuncName renders a test name as a python identifier.
func pyFuncName(testName string) string {
	name := slug(testName, "_")
	if name == "" {
		name = "recorded"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "test_" + name
	}
	if !strings.HasPrefix(name, "test_") && name != "test" {
		name = "test_" + name
	}
	return name
}
