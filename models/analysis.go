package models

import (
	"fmt"
	"time"
)

// Fallback values used when the model response cannot be used
const (
	DefaultComplexityScore    = 50
	DefaultEstimatedDuration  = 30
	DefaultSuccessProbability = 50
	DefaultSimilarCasesCount  = 0
)

// AnalysisResult is one priority assessment for a case. It is never persisted
// on its own; ApplyAnalysis copies it onto the case.
type AnalysisResult struct {
	PriorityScore      int      `json:"priorityScore"`
	ComplexityScore    int      `json:"complexityScore"`
	UrgencyFactors     []string `json:"urgencyFactors"`
	DelayRiskFactors   []string `json:"delayRiskFactors"`
	EstimatedDuration  int      `json:"estimatedDuration"`
	SuccessProbability int      `json:"successProbability"`
	SimilarCasesCount  int      `json:"similarCasesCount"`
	Reasoning          string   `json:"reasoning"`
}

// DefaultAnalysisResult is returned when a model response is unusable.
func DefaultAnalysisResult(reason string) AnalysisResult {
	if reason == "" {
		reason = "Default analysis applied."
	}
	return AnalysisResult{
		PriorityScore:      DefaultPriorityScore,
		ComplexityScore:    DefaultComplexityScore,
		UrgencyFactors:     []string{},
		DelayRiskFactors:   []string{},
		EstimatedDuration:  DefaultEstimatedDuration,
		SuccessProbability: DefaultSuccessProbability,
		SimilarCasesCount:  DefaultSimilarCasesCount,
		Reasoning:          reason,
	}
}

// Normalize clamps every bounded field into range and replaces nil lists
func (r AnalysisResult) Normalize() AnalysisResult {
	r.PriorityScore = clamp(r.PriorityScore, 0, 100)
	r.ComplexityScore = clamp(r.ComplexityScore, 0, 100)
	r.SuccessProbability = clamp(r.SuccessProbability, 0, 100)
	if r.EstimatedDuration < 1 {
		r.EstimatedDuration = 1
	}
	if r.SimilarCasesCount < 0 {
		r.SimilarCasesCount = 0
	}
	if r.UrgencyFactors == nil {
		r.UrgencyFactors = []string{}
	}
	if r.DelayRiskFactors == nil {
		r.DelayRiskFactors = []string{}
	}
	return r
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AnalysisNote renders the system note appended after every analysis
func AnalysisNote(r AnalysisResult) string {
	return fmt.Sprintf("AI Analysis: Priority Score %d/100. %s", r.PriorityScore, r.Reasoning)
}

// AnalysisUpdate is what ApplyAnalysis changed on a case: the appended system
// note and the updatedAt the case carried when it was read, which the store
// uses to detect concurrent edits.
type AnalysisUpdate struct {
	Note          Note
	ReadUpdatedAt time.Time
}

// ApplyAnalysis writes a result onto the case's scheduling fields at now.
// The expected completion date is only (re)set when missing or when the case
// was assigned since its last analysis. UpdatedAt is pinned to the analysis
// time so the write itself does not make the case eligible again.
func (d *CaseDetails) ApplyAnalysis(r AnalysisResult, now time.Time) AnalysisUpdate {
	r = r.Normalize()
	update := AnalysisUpdate{ReadUpdatedAt: d.UpdatedAt}

	freshlyAssigned := d.Status == StatusAssigned &&
		(d.AIAnalysis == nil || d.UpdatedAt.After(d.AIAnalysis.LastAnalyzed))

	d.PriorityScore = r.PriorityScore
	d.Priority = PriorityLabel(r.PriorityScore)
	d.AIAnalysis = &AIAnalysis{
		ComplexityScore:    r.ComplexityScore,
		UrgencyFactors:     r.UrgencyFactors,
		DelayRiskFactors:   r.DelayRiskFactors,
		EstimatedDuration:  r.EstimatedDuration,
		SimilarCasesCount:  r.SimilarCasesCount,
		SuccessProbability: r.SuccessProbability,
		LastAnalyzed:       now,
	}

	if d.ExpectedCompletionDate == nil || freshlyAssigned {
		due := now.AddDate(0, 0, r.EstimatedDuration)
		d.ExpectedCompletionDate = &due
	}

	update.Note = Note{
		Content:   AnalysisNote(r),
		System:    true,
		CreatedAt: now,
	}
	d.Notes = append(d.Notes, update.Note)
	d.UpdatedAt = now
	d.RefreshDelayInfo(now)
	return update
}
