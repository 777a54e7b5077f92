package codegen

import (
	"fmt"
	"strings"

	"github.com/stepwright/stepwright/recording"
)

// seleniumEmitter renders Python for Selenium WebDriver.
type seleniumEmitter struct{}

func (seleniumEmitter) fileName(testName string) string {
	return "test_" + slug(testName, "_") + ".py"
}

func (e seleniumEmitter) emit(steps []*recording.Step, opts Options) (string, error) {
	var b strings.Builder

	if hasBareWait(steps) {
		b.WriteString("import time\n\n")
	}
	b.WriteString("from selenium import webdriver\n")
	b.WriteString("from selenium.webdriver.common.action_chains import ActionChains\n")
	b.WriteString("from selenium.webdriver.common.by import By\n")
	b.WriteString("from selenium.webdriver.support import expected_conditions as EC\n")
	b.WriteString("from selenium.webdriver.support.ui import Select, WebDriverWait\n\n\n")
	fmt.Fprintf(&b, "def %s(driver):\n", pyFuncName(opts.TestName))
	b.WriteString("    wait = WebDriverWait(driver, 5)\n")

	if opts.BaseURL != "" && (len(steps) == 0 || steps[0].ActionType != recording.ActionNavigate) {
		fmt.Fprintf(&b, "    driver.get(%s)\n", quoteDouble(opts.BaseURL))
	}

	for _, step := range steps {
		if opts.IncludeComments && step.NaturalLanguage != "" {
			fmt.Fprintf(&b, "    # %s\n", step.NaturalLanguage)
		}
		lines, err := e.statements(step, opts)
		if err != nil {
			return "", err
		}
		for _, line := range lines {
			b.WriteString("    " + line + "\n")
		}
	}

	b.WriteString("\n\ndef main():\n")
	b.WriteString("    driver = webdriver.Chrome()\n")
	b.WriteString("    try:\n")
	fmt.Fprintf(&b, "        %s(driver)\n", pyFuncName(opts.TestName))
	b.WriteString("    finally:\n")
	b.WriteString("        driver.quit()\n")
	b.WriteString("\n\nif __name__ == \"__main__\":\n")
	b.WriteString("    main()\n")

	return b.String(), nil
}

func hasBareWait(steps []*recording.Step) bool {
	for _, step := range steps {
		if step.ActionType == recording.ActionWait && step.ElementSelector == "" {
			return true
		}
	}
	return false
}

func (seleniumEmitter) statements(step *recording.Step, opts Options) ([]string, error) {
	find := func(selector string) string {
		return fmt.Sprintf("driver.find_element(By.CSS_SELECTOR, %s)", quoteDouble(selector))
	}

	switch step.ActionType {
	case recording.ActionNavigate:
		return []string{fmt.Sprintf("driver.get(%s)", quoteDouble(step.Value))}, nil
	case recording.ActionClick:
		return []string{find(step.ElementSelector) + ".click()"}, nil
	case recording.ActionInput:
		return []string{
			"element = " + find(step.ElementSelector),
			"element.clear()",
			fmt.Sprintf("element.send_keys(%s)", quoteDouble(step.Value)),
		}, nil
	case recording.ActionSelect:
		return []string{fmt.Sprintf("Select(%s).select_by_value(%s)",
			find(step.ElementSelector), quoteDouble(step.Value))}, nil
	case recording.ActionHover:
		return []string{fmt.Sprintf("ActionChains(driver).move_to_element(%s).perform()",
			find(step.ElementSelector))}, nil
	case recording.ActionScroll:
		x, y := scrollTarget(step.Value)
		return []string{fmt.Sprintf("driver.execute_script(%s)",
			quoteDouble(fmt.Sprintf("window.scrollTo(%d, %d);", x, y)))}, nil
	case recording.ActionWait:
		if step.ElementSelector == "" {
			return []string{"time.sleep(1)"}, nil
		}
		return []string{fmt.Sprintf("wait.until(EC.presence_of_element_located((By.CSS_SELECTOR, %s)))",
			quoteDouble(step.ElementSelector))}, nil
	case recording.ActionVerify:
		return []string{fmt.Sprintf("assert wait.until(EC.visibility_of_element_located((By.CSS_SELECTOR, %s)))",
			quoteDouble(step.ElementSelector))}, nil
	default:
		return nil, &UnsupportedActionError{
			OrderIndex: step.OrderIndex,
			ActionType: step.ActionType,
			Framework:  opts.Framework,
		}
	}
}
