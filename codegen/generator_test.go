package codegen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepwright/stepwright/recording"
)

func sampleSteps() []*recording.Step {
	return []*recording.Step{
		{
			ID:              uuid.New(),
			OrderIndex:      0,
			NaturalLanguage: "Navigate to the shop",
			ActionType:      recording.ActionNavigate,
			Value:           "https://shop.example.com",
			ConfidenceScore: 0.95,
		},
		{
			ID:                  uuid.New(),
			OrderIndex:          1,
			NaturalLanguage:     `Type "alice@example.com" into the email field`,
			ActionType:          recording.ActionInput,
			ElementSelector:     "#email",
			ElementAlternatives: recording.Selectors{`input[name="email"]`},
			Value:               "alice@example.com",
			ConfidenceScore:     0.9,
		},
		{
			ID:              uuid.New(),
			OrderIndex:      2,
			NaturalLanguage: "Click on the submit button",
			ActionType:      recording.ActionClick,
			ElementSelector: `[data-testid="submit"]`,
			ConfidenceScore: 0.95,
		},
		{
			ID:              uuid.New(),
			OrderIndex:      3,
			NaturalLanguage: "Verify the welcome banner",
			ActionType:      recording.ActionVerify,
			ElementSelector: "#welcome",
			ConfidenceScore: 0.9,
		},
	}
}

func defaultOptions(framework Framework) Options {
	return Options{
		Framework:       framework,
		TestName:        "Checkout flow",
		IncludeComments: true,
	}
}

func TestGenerate_ByteIdenticalIdempotence(t *testing.T) {
	for _, framework := range []Framework{FrameworkPlaywrightTest, FrameworkPlaywright, FrameworkSelenium} {
		t.Run(string(framework), func(t *testing.T) {
			opts := defaultOptions(framework)

			first, firstName, err := Generate(sampleSteps(), opts)
			require.NoError(t, err)

			second, secondName, err := Generate(sampleSteps(), opts)
			require.NoError(t, err)

			assert.Equal(t, first, second)
			assert.Equal(t, firstName, secondName)
		})
	}
}

func TestGenerate_PlaywrightTest(t *testing.T) {
	code, fileName, err := Generate(sampleSteps(), defaultOptions(FrameworkPlaywrightTest))
	require.NoError(t, err)

	assert.Equal(t, "checkout-flow.spec.ts", fileName)
	assert.Contains(t, code, "import { test, expect } from '@playwright/test';")
	assert.Contains(t, code, "test('Checkout flow', async ({ page }) => {")
	assert.Contains(t, code, "await page.goto('https://shop.example.com');")
	assert.Contains(t, code, "await page.fill('#email', 'alice@example.com');")
	assert.Contains(t, code, `await page.click('[data-testid="submit"]');`)
	assert.Contains(t, code, "await expect(page.locator('#welcome')).toBeVisible();")
	assert.Contains(t, code, "// Click on the submit button")
}

func TestGenerate_PlaywrightPython(t *testing.T) {
	code, fileName, err := Generate(sampleSteps(), defaultOptions(FrameworkPlaywright))
	require.NoError(t, err)

	assert.Equal(t, "test_checkout_flow.py", fileName)
	assert.Contains(t, code, "from playwright.sync_api import expect, sync_playwright")
	assert.Contains(t, code, "def test_checkout_flow(page):")
	assert.Contains(t, code, `page.goto("https://shop.example.com")`)
	assert.Contains(t, code, `page.fill("#email", "alice@example.com")`)
	assert.Contains(t, code, `expect(page.locator("#welcome")).to_be_visible()`)
}

func TestGenerate_Selenium(t *testing.T) {
	code, fileName, err := Generate(sampleSteps(), defaultOptions(FrameworkSelenium))
	require.NoError(t, err)

	assert.Equal(t, "test_checkout_flow.py", fileName)
	assert.Contains(t, code, "from selenium import webdriver")
	assert.Contains(t, code, `driver.get("https://shop.example.com")`)
	assert.Contains(t, code, `element.send_keys("alice@example.com")`)
	assert.NotContains(t, code, "import time")

	selectStep := &recording.Step{
		ID:              uuid.New(),
		OrderIndex:      0,
		ActionType:      recording.ActionSelect,
		ElementSelector: "#shipping",
		Value:           "express",
		ConfidenceScore: 0.9,
	}
	code, _, err = Generate([]*recording.Step{selectStep}, defaultOptions(FrameworkSelenium))
	require.NoError(t, err)
	assert.Contains(t, code, `Select(driver.find_element(By.CSS_SELECTOR, "#shipping")).select_by_value("express")`)
}

func TestGenerate_CommentsAreOptional(t *testing.T) {
	opts := defaultOptions(FrameworkPlaywrightTest)
	opts.IncludeComments = false

	code, _, err := Generate(sampleSteps(), opts)
	require.NoError(t, err)
	assert.NotContains(t, code, "// Click on the submit button")
}

func TestGenerate_BaseURLPrefix(t *testing.T) {
	opts := defaultOptions(FrameworkPlaywrightTest)
	opts.BaseURL = "https://shop.example.com"

	steps := []*recording.Step{{
		ID:              uuid.New(),
		OrderIndex:      0,
		ActionType:      recording.ActionClick,
		ElementSelector: "#submit",
		ConfidenceScore: 0.9,
	}}

	code, _, err := Generate(steps, opts)
	require.NoError(t, err)
	assert.Contains(t, code, "await page.goto('https://shop.example.com');")

	// A leading navigate step suppresses the extra goto.
	code, _, err = Generate(sampleSteps(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, countOccurrences(code, "page.goto("))
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}

func TestGenerate_UnsupportedAction(t *testing.T) {
	steps := sampleSteps()
	steps[2].ActionType = "drag"

	_, _, err := Generate(steps, defaultOptions(FrameworkPlaywrightTest))
	require.Error(t, err)

	var unsupported *UnsupportedActionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, 2, unsupported.OrderIndex)
	assert.Contains(t, err.Error(), "step 2")
}

func TestGenerate_StepsAreOrderedByIndex(t *testing.T) {
	steps := sampleSteps()
	// Shuffle: generation must order by index, not slice position.
	steps[0], steps[3] = steps[3], steps[0]

	code, _, err := Generate(steps, defaultOptions(FrameworkPlaywrightTest))
	require.NoError(t, err)

	gotoPos := indexOf(code, "page.goto")
	verifyPos := indexOf(code, "toBeVisible")
	assert.Less(t, gotoPos, verifyPos)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestGenerate_InvalidOptions(t *testing.T) {
	_, _, err := Generate(sampleSteps(), Options{Framework: "cypress", TestName: "x"})
	assert.ErrorIs(t, err, ErrInvalidFramework)

	_, _, err = Generate(sampleSteps(), Options{Framework: FrameworkSelenium})
	assert.Error(t, err)
}

func TestOptionsHash(t *testing.T) {
	opts := defaultOptions(FrameworkPlaywrightTest)

	t.Run("stable across calls", func(t *testing.T) {
		assert.Equal(t, OptionsHash(sampleSteps(), opts), OptionsHash(sampleSteps(), opts))
	})

	t.Run("step edit changes the hash", func(t *testing.T) {
		edited := sampleSteps()
		edited[1].Value = "bob@example.com"
		assert.NotEqual(t, OptionsHash(sampleSteps(), opts), OptionsHash(edited, opts))
	})

	t.Run("option change changes the hash", func(t *testing.T) {
		other := opts
		other.Framework = FrameworkSelenium
		assert.NotEqual(t, OptionsHash(sampleSteps(), opts), OptionsHash(sampleSteps(), other))
	})

	t.Run("id churn does not change the hash", func(t *testing.T) {
		relabeled := sampleSteps()
		for _, step := range relabeled {
			step.ID = uuid.New()
		}
		assert.Equal(t, OptionsHash(sampleSteps(), opts), OptionsHash(relabeled, opts))
	})
}

func TestQuoting(t *testing.T) {
	steps := []*recording.Step{{
		ID:              uuid.New(),
		OrderIndex:      0,
		ActionType:      recording.ActionInput,
		ElementSelector: "#note",
		Value:           `it's "quoted"`,
		ConfidenceScore: 0.9,
	}}

	tsCode, _, err := Generate(steps, defaultOptions(FrameworkPlaywrightTest))
	require.NoError(t, err)
	assert.Contains(t, tsCode, `'it\'s "quoted"'`)

	pyCode, _, err := Generate(steps, defaultOptions(FrameworkPlaywright))
	require.NoError(t, err)
	assert.Contains(t, pyCode, `"it's \"quoted\""`)
}
