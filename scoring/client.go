// Package scoring turns a case into a priority assessment by asking an
// external language model and normalizing whatever comes back.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/models"
)

// Caller sends one system instruction plus user prompt to a text model and
// returns the raw text of its reply.
type Caller interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Messager is the subset of the Anthropic client we use
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// MessagerCreator builds a Messager for an API key. Tests swap it out.
type MessagerCreator func(apiKey string) Messager

func defaultMessagerCreator(apiKey string) Messager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newMessager MessagerCreator = defaultMessagerCreator

// AnthropicCaller is a Caller backed by the Anthropic Messages API
type AnthropicCaller struct {
	messages    Messager
	model       anthropic.Model
	maxTokens   int64
	temperature float64
}

// NewAnthropicCaller creates a caller using the model, output budget and
// temperature from the scheduler settings
func NewAnthropicCaller(apiKey string, settings config.SchedulerSettings) (*AnthropicCaller, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	return &AnthropicCaller{
		messages:    newMessager(apiKey),
		model:       anthropic.Model(settings.Model),
		maxTokens:   settings.MaxTokens,
		temperature: settings.Temperature,
	}, nil
}

// Complete sends the prompt and concatenates the text blocks of the reply
func (a *AnthropicCaller) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(a.temperature),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

// Client scores cases
type Client struct {
	caller           Caller
	descriptionLimit int
	now              func() time.Time
}

// NewClient creates a scoring client. descriptionLimit bounds how much of the
// case description is sent to the model.
func NewClient(caller Caller, descriptionLimit int) *Client {
	if descriptionLimit < 1 {
		descriptionLimit = config.DefaultDescriptionLimit
	}
	return &Client{
		caller:           caller,
		descriptionLimit: descriptionLimit,
		now:              time.Now,
	}
}

// Score builds the case summary, asks the model and parses the reply. Errors
// from the model call are returned; an unusable reply is not an error and
// yields the default result instead.
func (c *Client) Score(ctx context.Context, legalCase models.Case, lawyer *models.User) (models.AnalysisResult, error) {
	summary := Summarize(legalCase, lawyer, c.now(), c.descriptionLimit)

	raw, err := c.caller.Complete(ctx, SystemPrompt, RenderPrompt(summary))
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("scoring request for case %s failed: %w", legalCase.Details.CaseNumber, err)
	}

	result, err := ParseResponse(raw)
	if err != nil {
		zap.S().Warnw("unusable scoring response, applying default analysis",
			"caseId", legalCase.ID.Hex(),
			"caseNumber", legalCase.Details.CaseNumber,
			"error", err,
		)
	}
	return result, nil
}
