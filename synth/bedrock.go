package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/stepwright/stepwright/browser"
	"github.com/stepwright/stepwright/logger"
)

// BedrockClassifier refines rule-classified drafts with an LLM. Selectors,
// action types and confidence always come from the rules; the model only
// rewrites the natural language so a failure or a bad completion can never
// corrupt a step's replay data. When Bedrock is unreachable the rule draft
// is returned as-is.
type BedrockClassifier struct {
	client    *bedrockruntime.Client
	rules     *RuleClassifier
	logger    logger.Logger
	modelID   string
	maxTokens int
}

// NewBedrockClassifier creates an LLM-backed classifier.
func NewBedrockClassifier(region, modelID string, maxTokens int, log logger.Logger) (*BedrockClassifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &BedrockClassifier{
		client:    bedrockruntime.NewFromConfig(cfg),
		rules:     NewRuleClassifier(),
		logger:    log,
		modelID:   modelID,
		maxTokens: maxTokens,
	}, nil
}

// Classify classifies the event with rules, then asks the model for a better
// natural language description.
func (c *BedrockClassifier) Classify(ctx context.Context, event browser.Event) (*Draft, error) {
	draft, err := c.rules.Classify(ctx, event)
	if err != nil {
		return nil, err
	}

	refined, err := c.refine(ctx, event, draft)
	if err != nil {
		c.logger.Warn(ctx, "LLM refinement failed, keeping rule description", map[string]interface{}{
			"error":       err.Error(),
			"action_type": draft.ActionType,
		})
		return draft, nil
	}
	draft.NaturalLanguage = refined
	return draft, nil
}

func (c *BedrockClassifier) refine(ctx context.Context, event browser.Event, draft *Draft) (string, error) {
	prompt := buildRefinePrompt(event, draft)

	requestBody := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        c.maxTokens,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": prompt,
					},
				},
			},
		},
	}

	payloadBytes, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payloadBytes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	text := strings.TrimSpace(response.Content[0].Text)
	if text == "" {
		return "", fmt.Errorf("empty refined description")
	}
	// One sentence in, one sentence out. Anything multi-line means the model
	// ignored the instructions.
	if strings.Contains(text, "\n") {
		return "", fmt.Errorf("refined description is not a single sentence")
	}
	return text, nil
}

func buildRefinePrompt(event browser.Event, draft *Draft) string {
	var b strings.Builder
	b.WriteString("Rewrite the following browser test step as one short imperative English sentence.\n")
	b.WriteString("Respond with the sentence only, no quotes, no markdown.\n\n")
	fmt.Fprintf(&b, "Action: %s\n", draft.ActionType)
	fmt.Fprintf(&b, "Current description: %s\n", draft.NaturalLanguage)
	if draft.ElementDescription != "" {
		fmt.Fprintf(&b, "Target element: %s\n", draft.ElementDescription)
	}
	if draft.Value != "" {
		fmt.Fprintf(&b, "Value: %s\n", draft.Value)
	}
	if event.PageURL != "" {
		fmt.Fprintf(&b, "Page: %s\n", event.PageURL)
	}
	return b.String()
}
