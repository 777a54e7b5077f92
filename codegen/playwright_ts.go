package codegen

import (
	"fmt"
	"strings"

	"github.com/stepwright/stepwright/recording"
)

// playwrightTestEmitter renders TypeScript for @playwright/test.
type playwrightTestEmitter struct{}

func (playwrightTestEmitter) fileName(testName string) string {
	return slug(testName, "-") + ".spec.ts"
}

func (e playwrightTestEmitter) emit(steps []*recording.Step, opts Options) (string, error) {
	var b strings.Builder

	b.WriteString("import { test, expect } from '@playwright/test';\n\n")
	fmt.Fprintf(&b, "test(%s, async ({ page }) => {\n", quoteSingle(opts.TestName))

	if opts.BaseURL != "" && (len(steps) == 0 || steps[0].ActionType != recording.ActionNavigate) {
		fmt.Fprintf(&b, "  await page.goto(%s);\n", quoteSingle(opts.BaseURL))
	}

	for _, step := range steps {
		if opts.IncludeComments && step.NaturalLanguage != "" {
			fmt.Fprintf(&b, "  // %s\n", step.NaturalLanguage)
		}
		line, err := e.statement(step, opts)
		if err != nil {
			return "", err
		}
		b.WriteString("  " + line + "\n")
	}

	b.WriteString("});\n")
	return b.String(), nil
}

func (playwrightTestEmitter) statement(step *recording.Step, opts Options) (string, error) {
	switch step.ActionType {
	case recording.ActionNavigate:
		return fmt.Sprintf("await page.goto(%s);", quoteSingle(step.Value)), nil
	case recording.ActionClick:
		return fmt.Sprintf("await page.click(%s);", quoteSingle(step.ElementSelector)), nil
	case recording.ActionInput:
		return fmt.Sprintf("await page.fill(%s, %s);",
			quoteSingle(step.ElementSelector), quoteSingle(step.Value)), nil
	case recording.ActionSelect:
		return fmt.Sprintf("await page.selectOption(%s, %s);",
			quoteSingle(step.ElementSelector), quoteSingle(step.Value)), nil
	case recording.ActionHover:
		return fmt.Sprintf("await page.hover(%s);", quoteSingle(step.ElementSelector)), nil
	case recording.ActionScroll:
		x, y := scrollTarget(step.Value)
		return fmt.Sprintf("await page.evaluate(() => window.scrollTo(%d, %d));", x, y), nil
	case recording.ActionWait:
		if step.ElementSelector == "" {
			return "await page.waitForTimeout(1000);", nil
		}
		return fmt.Sprintf("await page.waitForSelector(%s);", quoteSingle(step.ElementSelector)), nil
	case recording.ActionVerify:
		return fmt.Sprintf("await expect(page.locator(%s)).toBeVisible();",
			quoteSingle(step.ElementSelector)), nil
	default:
		return "", &UnsupportedActionError{
			OrderIndex: step.OrderIndex,
			ActionType: step.ActionType,
			Framework:  opts.Framework,
		}
	}
}
