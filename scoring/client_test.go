package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/legal-case-api/config"
)

// mockMessager implements Messager for testing.
type mockMessager struct {
	response *anthropic.Message
	err      error
	params   anthropic.MessageNewParams
}

func (m *mockMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	m.params = params
	return m.response, m.err
}

func newMockMessage(parts ...string) *anthropic.Message {
	msg := &anthropic.Message{}
	for _, p := range parts {
		msg.Content = append(msg.Content, anthropic.ContentBlockUnion{Type: "text", Text: p})
	}
	return msg
}

func withMockMessager(m *mockMessager) func() {
	old := newMessager
	newMessager = func(_ string) Messager { return m }
	return func() { newMessager = old }
}

type fakeCaller struct {
	reply  string
	err    error
	system string
	prompt string
}

func (f *fakeCaller) Complete(_ context.Context, system, prompt string) (string, error) {
	f.system = system
	f.prompt = prompt
	return f.reply, f.err
}

func TestNewAnthropicCallerRequiresKey(t *testing.T) {
	_, err := NewAnthropicCaller("  ", config.DefaultSchedulerSettings())
	assert.EqualError(t, err, "ANTHROPIC_API_KEY not configured")
}

func TestAnthropicCallerComplete(t *testing.T) {
	m := &mockMessager{response: newMockMessage(`{"priorityScore":`, ` 61}`)}
	defer withMockMessager(m)()

	caller, err := NewAnthropicCaller("test-key", config.DefaultSchedulerSettings())
	require.NoError(t, err)

	out, err := caller.Complete(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"priorityScore": 61}`, out)

	assert.Equal(t, anthropic.Model(config.DefaultModel), m.params.Model)
	assert.Equal(t, int64(config.DefaultMaxTokens), m.params.MaxTokens)
	assert.Equal(t, "system", m.params.System[0].Text)
	assert.Equal(t, config.DefaultTemperature, m.params.Temperature.Value)
}

func TestAnthropicCallerError(t *testing.T) {
	m := &mockMessager{err: errors.New("429 rate limited")}
	defer withMockMessager(m)()

	caller, err := NewAnthropicCaller("test-key", config.DefaultSchedulerSettings())
	require.NoError(t, err)

	_, err = caller.Complete(context.Background(), "system", "prompt")
	assert.EqualError(t, err, "429 rate limited")
}

func TestClientScore(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	f := &fakeCaller{reply: "```json\n{\"priorityScore\": 88, \"estimatedDuration\": 90, \"reasoning\": \"Urgent.\"}\n```"}
	c := NewClient(f, 500)
	c.now = func() time.Time { return now }

	r, err := c.Score(context.Background(), propertyCase(now), propertyLawyer())
	require.NoError(t, err)
	assert.Equal(t, 88, r.PriorityScore)
	assert.Equal(t, 90, r.EstimatedDuration)
	assert.Equal(t, SystemPrompt, f.system)
	assert.Contains(t, f.prompt, "Case Age: 40 days")
}

func TestClientScoreMalformedReplyIsNotAnError(t *testing.T) {
	now := time.Now()
	c := NewClient(&fakeCaller{reply: `{"priorityScore": 9`}, 0)

	r, err := c.Score(context.Background(), propertyCase(now), nil)
	require.NoError(t, err)
	assert.Equal(t, 50, r.PriorityScore)
	assert.NotEmpty(t, r.Reasoning)
}

func TestClientScoreCallErrorPropagates(t *testing.T) {
	now := time.Now()
	callErr := errors.New("connection refused")
	c := NewClient(&fakeCaller{err: callErr}, 0)

	_, err := c.Score(context.Background(), propertyCase(now), nil)
	assert.ErrorIs(t, err, callErr)
	assert.Contains(t, err.Error(), "CASE-2024-0042")
}
