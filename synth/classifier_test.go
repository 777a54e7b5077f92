package synth

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepwright/stepwright/browser"
	"github.com/stepwright/stepwright/recording"
)

func clickOn(el *browser.Element) browser.Event {
	return browser.Event{
		Type:      browser.EventClick,
		PageURL:   "https://shop.example.com/cart",
		Element:   el,
		Timestamp: time.Now(),
	}
}

func TestRuleClassifier_ActionMapping(t *testing.T) {
	c := NewRuleClassifier()
	ctx := context.Background()

	tests := []struct {
		name  string
		event browser.Event
		want  recording.ActionType
	}{
		{"click", browser.Event{Type: browser.EventClick}, recording.ActionClick},
		{"input", browser.Event{Type: browser.EventInput}, recording.ActionInput},
		{"select", browser.Event{Type: browser.EventSelect}, recording.ActionSelect},
		{"hover", browser.Event{Type: browser.EventHover}, recording.ActionHover},
		{"submit maps to click", browser.Event{Type: browser.EventSubmit}, recording.ActionClick},
		{"navigate", browser.Event{Type: browser.EventNavigate}, recording.ActionNavigate},
		{"scroll", browser.Event{Type: browser.EventScroll}, recording.ActionScroll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := c.Classify(ctx, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, draft.ActionType)
		})
	}

	t.Run("unknown event type fails", func(t *testing.T) {
		_, err := c.Classify(ctx, browser.Event{Type: "drag"})
		assert.ErrorIs(t, err, ErrUnknownEventType)
	})
}

func TestRuleClassifier_ElementDescription(t *testing.T) {
	c := NewRuleClassifier()
	ctx := context.Background()

	t.Run("visible text wins", func(t *testing.T) {
		draft, err := c.Classify(ctx, clickOn(&browser.Element{
			Tag:       "button",
			Text:      "Add to cart",
			AriaLabel: "add-to-cart",
		}))
		require.NoError(t, err)
		assert.Equal(t, `"Add to cart" button`, draft.ElementDescription)
		assert.Equal(t, `Click on the "Add to cart" button`, draft.NaturalLanguage)
	})

	t.Run("aria label beats form metadata", func(t *testing.T) {
		draft, err := c.Classify(ctx, clickOn(&browser.Element{
			Tag:        "input",
			AriaLabel:  "Search products",
			Attributes: map[string]string{"name": "q"},
		}))
		require.NoError(t, err)
		assert.Equal(t, `"Search products" field`, draft.ElementDescription)
	})

	t.Run("name beats placeholder", func(t *testing.T) {
		draft, err := c.Classify(ctx, clickOn(&browser.Element{
			Tag:        "input",
			Attributes: map[string]string{"name": "email", "placeholder": "you@example.com"},
		}))
		require.NoError(t, err)
		assert.Equal(t, "email field", draft.ElementDescription)
	})

	t.Run("bare tag as last resort", func(t *testing.T) {
		draft, err := c.Classify(ctx, clickOn(&browser.Element{Tag: "a"}))
		require.NoError(t, err)
		assert.Equal(t, "link", draft.ElementDescription)
	})

	t.Run("nil element", func(t *testing.T) {
		draft, err := c.Classify(ctx, clickOn(nil))
		require.NoError(t, err)
		assert.Equal(t, "element", draft.ElementDescription)
	})

	t.Run("long multi-byte text truncates on rune boundary", func(t *testing.T) {
		draft, err := c.Classify(ctx, clickOn(&browser.Element{
			Tag:  "button",
			Text: strings.Repeat("購入手続きへ進むボタン", 12),
		}))
		require.NoError(t, err)
		assert.True(t, utf8.ValidString(draft.ElementDescription))
		assert.True(t, utf8.ValidString(draft.NaturalLanguage))
		assert.Contains(t, draft.ElementDescription, "購入手続き")
	})
}

func TestRuleClassifier_SelectorPriority(t *testing.T) {
	c := NewRuleClassifier()
	ctx := context.Background()

	t.Run("data-testid wins over everything", func(t *testing.T) {
		draft, err := c.Classify(ctx, clickOn(&browser.Element{
			Tag: "button",
			Attributes: map[string]string{
				"data-testid": "checkout",
				"id":          "checkout-btn",
				"class":       "btn btn-primary",
			},
		}))
		require.NoError(t, err)
		assert.Equal(t, `[data-testid="checkout"]`, draft.ElementSelector)
		assert.Contains(t, draft.Alternatives, "#checkout-btn")
	})

	t.Run("id beats aria", func(t *testing.T) {
		draft, err := c.Classify(ctx, clickOn(&browser.Element{
			Tag:        "button",
			AriaLabel:  "Checkout",
			Attributes: map[string]string{"id": "checkout-btn"},
		}))
		require.NoError(t, err)
		assert.Equal(t, "#checkout-btn", draft.ElementSelector)
	})

	t.Run("css path as fallback", func(t *testing.T) {
		draft, err := c.Classify(ctx, clickOn(&browser.Element{
			Tag:        "button",
			Attributes: map[string]string{"class": "btn primary rounded"},
		}))
		require.NoError(t, err)
		assert.Equal(t, "button.btn.primary", draft.ElementSelector)
		assert.Empty(t, draft.Alternatives)
	})

	t.Run("at most three alternatives", func(t *testing.T) {
		draft, err := c.Classify(ctx, clickOn(&browser.Element{
			Tag:       "button",
			AriaLabel: "Checkout",
			Attributes: map[string]string{
				"data-testid": "checkout",
				"id":          "checkout-btn",
				"name":        "checkout",
				"class":       "btn",
			},
		}))
		require.NoError(t, err)
		assert.NotEmpty(t, draft.ElementSelector)
		assert.LessOrEqual(t, len(draft.Alternatives), 3)
	})
}

func TestRuleClassifier_Confidence(t *testing.T) {
	c := NewRuleClassifier()
	ctx := context.Background()

	testid, err := c.Classify(ctx, clickOn(&browser.Element{
		Tag:        "button",
		Text:       "Buy",
		Attributes: map[string]string{"data-testid": "buy"},
	}))
	require.NoError(t, err)

	cssOnly, err := c.Classify(ctx, clickOn(&browser.Element{
		Tag:        "div",
		Attributes: map[string]string{"class": "clickable"},
	}))
	require.NoError(t, err)

	assert.Greater(t, testid.Confidence, cssOnly.Confidence)
	assert.LessOrEqual(t, testid.Confidence, 1.0)
	assert.GreaterOrEqual(t, cssOnly.Confidence, 0.0)
}

func TestRuleClassifier_ValueCarryingActions(t *testing.T) {
	c := NewRuleClassifier()
	ctx := context.Background()

	t.Run("input carries the typed value", func(t *testing.T) {
		draft, err := c.Classify(ctx, browser.Event{
			Type:    browser.EventInput,
			Value:   "alice@example.com",
			Element: &browser.Element{Tag: "input", Attributes: map[string]string{"name": "email"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", draft.Value)
		assert.Equal(t, `Type "alice@example.com" into the email field`, draft.NaturalLanguage)
	})

	t.Run("select carries the chosen option", func(t *testing.T) {
		draft, err := c.Classify(ctx, browser.Event{
			Type:    browser.EventSelect,
			Value:   "express",
			Element: &browser.Element{Tag: "select", Attributes: map[string]string{"name": "shipping"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "express", draft.Value)
		assert.Equal(t, `Select "express" from the shipping dropdown`, draft.NaturalLanguage)
	})

	t.Run("navigate carries the url", func(t *testing.T) {
		draft, err := c.Classify(ctx, browser.Event{
			Type:    browser.EventNavigate,
			PageURL: "https://shop.example.com/cart",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://shop.example.com/cart", draft.Value)
		assert.Equal(t, "Navigate to https://shop.example.com/cart", draft.NaturalLanguage)
	})
}
