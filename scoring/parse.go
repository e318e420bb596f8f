package scoring

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/linesmerrill/legal-case-api/models"
)

// ErrMalformedResponse marks a model reply that could not be used as-is
var ErrMalformedResponse = errors.New("malformed scoring response")

const fallbackReasoning = "Automated analysis unavailable; default priority applied because the model response could not be parsed."

// ParseResponse reads the model reply into a result. It never fails hard:
// when the reply is unusable it returns the default result together with an
// error describing why, so callers can log it and carry on.
func ParseResponse(raw string) (models.AnalysisResult, error) {
	body := extractJSON(raw)
	if body == "" {
		return models.DefaultAnalysisResult(fallbackReasoning), fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	if !gjson.Valid(body) {
		return models.DefaultAnalysisResult(fallbackReasoning), fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}

	doc := gjson.Parse(body)
	if !doc.IsObject() {
		return models.DefaultAnalysisResult(fallbackReasoning), fmt.Errorf("%w: not a JSON object", ErrMalformedResponse)
	}

	score, ok := intField(doc, "priorityScore")
	if !ok {
		return models.DefaultAnalysisResult(fallbackReasoning), fmt.Errorf("%w: priorityScore missing or not numeric", ErrMalformedResponse)
	}

	r := models.AnalysisResult{
		PriorityScore:      score,
		ComplexityScore:    intFieldOr(doc, "complexityScore", models.DefaultComplexityScore),
		UrgencyFactors:     stringList(doc, "urgencyFactors"),
		DelayRiskFactors:   stringList(doc, "delayRiskFactors"),
		EstimatedDuration:  intFieldOr(doc, "estimatedDuration", models.DefaultEstimatedDuration),
		SuccessProbability: intFieldOr(doc, "successProbability", models.DefaultSuccessProbability),
		SimilarCasesCount:  intFieldOr(doc, "similarCasesCount", models.DefaultSimilarCasesCount),
		Reasoning:          strings.TrimSpace(doc.Get("reasoning").String()),
	}
	if r.Reasoning == "" {
		r.Reasoning = "No reasoning provided."
	}
	return r.Normalize(), nil
}

// extractJSON strips code fences and any prose around the outermost object
func extractJSON(raw string) string {
	s := stripCodeFences(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	return s
}

func intField(doc gjson.Result, key string) (int, bool) {
	v := doc.Get(key)
	switch v.Type {
	case gjson.Number:
		return roundInt(v.Float())
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return roundInt(f)
	}
	return 0, false
}

func roundInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// clamp before converting so huge values cannot overflow
	f = math.Max(math.Min(f, math.MaxInt32), math.MinInt32)
	return int(math.Round(f)), true
}

func intFieldOr(doc gjson.Result, key string, fallback int) int {
	if v, ok := intField(doc, key); ok {
		return v
	}
	return fallback
}

func stringList(doc gjson.Result, key string) []string {
	v := doc.Get(key)
	out := []string{}
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
	case v.Type == gjson.String:
		if s := strings.TrimSpace(v.Str); s != "" {
			out = append(out, s)
		}
	}
	return out
}
