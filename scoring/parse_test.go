package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/legal-case-api/models"
)

func assertInRange(t *testing.T, r models.AnalysisResult) {
	t.Helper()
	assert.GreaterOrEqual(t, r.PriorityScore, 0)
	assert.LessOrEqual(t, r.PriorityScore, 100)
	assert.GreaterOrEqual(t, r.ComplexityScore, 0)
	assert.LessOrEqual(t, r.ComplexityScore, 100)
	assert.GreaterOrEqual(t, r.SuccessProbability, 0)
	assert.LessOrEqual(t, r.SuccessProbability, 100)
	assert.GreaterOrEqual(t, r.EstimatedDuration, 1)
	assert.GreaterOrEqual(t, r.SimilarCasesCount, 0)
	assert.NotNil(t, r.UrgencyFactors)
	assert.NotNil(t, r.DelayRiskFactors)
}

func TestParseResponseValid(t *testing.T) {
	r, err := ParseResponse(`{
		"priorityScore": 88,
		"complexityScore": 64,
		"urgencyFactors": ["Hearing soon", "High value"],
		"delayRiskFactors": ["Pending documents"],
		"estimatedDuration": 120,
		"successProbability": 72,
		"similarCasesCount": 14,
		"reasoning": "High value property dispute with limited time."
	}`)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisResult{
		PriorityScore:      88,
		ComplexityScore:    64,
		UrgencyFactors:     []string{"Hearing soon", "High value"},
		DelayRiskFactors:   []string{"Pending documents"},
		EstimatedDuration:  120,
		SuccessProbability: 72,
		SimilarCasesCount:  14,
		Reasoning:          "High value property dispute with limited time.",
	}, r)
}

func TestParseResponseCodeFenceAndProse(t *testing.T) {
	for name, raw := range map[string]string{
		"json fence":  "```json\n{\"priorityScore\": 70, \"reasoning\": \"ok\"}\n```",
		"plain fence": "```\n{\"priorityScore\": 70, \"reasoning\": \"ok\"}\n```",
		"prose":       "Here is the assessment:\n{\"priorityScore\": 70, \"reasoning\": \"ok\"}\nThanks.",
	} {
		t.Run(name, func(t *testing.T) {
			r, err := ParseResponse(raw)
			require.NoError(t, err)
			assert.Equal(t, 70, r.PriorityScore)
			assert.Equal(t, "ok", r.Reasoning)
		})
	}
}

func TestParseResponseClampsAndCoerces(t *testing.T) {
	r, err := ParseResponse(`{
		"priorityScore": 140.6,
		"complexityScore": -20,
		"urgencyFactors": "Statute of limitations",
		"delayRiskFactors": 12,
		"estimatedDuration": 0,
		"successProbability": "85",
		"similarCasesCount": -3,
		"reasoning": "  "
	}`)
	require.NoError(t, err)
	assertInRange(t, r)
	assert.Equal(t, 100, r.PriorityScore)
	assert.Equal(t, 0, r.ComplexityScore)
	assert.Equal(t, []string{"Statute of limitations"}, r.UrgencyFactors)
	assert.Equal(t, []string{}, r.DelayRiskFactors)
	assert.Equal(t, 1, r.EstimatedDuration)
	assert.Equal(t, 85, r.SuccessProbability)
	assert.Equal(t, 0, r.SimilarCasesCount)
	assert.Equal(t, "No reasoning provided.", r.Reasoning)
}

func TestParseResponseMissingOptionalFields(t *testing.T) {
	r, err := ParseResponse(`{"priorityScore": 35}`)
	require.NoError(t, err)
	assert.Equal(t, 35, r.PriorityScore)
	assert.Equal(t, models.DefaultComplexityScore, r.ComplexityScore)
	assert.Equal(t, models.DefaultEstimatedDuration, r.EstimatedDuration)
	assert.Equal(t, models.DefaultSuccessProbability, r.SuccessProbability)
	assert.Equal(t, 0, r.SimilarCasesCount)
}

func TestParseResponseMalformedFallsBack(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":            "",
		"truncated":        `{"priorityScore": 88, "complexityScore": 4`,
		"missing score":    `{"complexityScore": 40, "reasoning": "no score"}`,
		"non numeric":      `{"priorityScore": "very high"}`,
		"array":            `[1, 2, 3]`,
		"plain text":       "I cannot assess this case.",
		"null score":       `{"priorityScore": null}`,
		"fence without js": "```\n```",
	} {
		t.Run(name, func(t *testing.T) {
			r, err := ParseResponse(raw)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.Equal(t, 50, r.PriorityScore)
			assert.NotEmpty(t, r.Reasoning)
			assertInRange(t, r)
			assert.Equal(t, models.DefaultAnalysisResult(fallbackReasoning), r)
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`  {"a":1}  `))
}
