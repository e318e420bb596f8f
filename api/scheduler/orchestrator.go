package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linesmerrill/legal-case-api/models"
)

// Outcome is the result of analyzing one case within a run
type Outcome struct {
	CaseID        primitive.ObjectID `json:"caseId"`
	CaseNumber    string             `json:"caseNumber"`
	Batch         int                `json:"batch"`
	PriorityScore int                `json:"priorityScore,omitempty"`
	Priority      string             `json:"priority,omitempty"`
	Err           error              `json:"-"`
	Error         string             `json:"error,omitempty"`
}

// OK reports whether the case was scored and saved
func (o Outcome) OK() bool {
	return o.Err == nil
}

func (o *Outcome) fail(err error) {
	o.Err = err
	o.Error = err.Error()
}

// RunReport collects the outcome of every case attempted in a run
type RunReport struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Batches    int       `json:"batches"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Succeeded counts the cases that were scored and saved
func (r *RunReport) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed counts the cases that were attempted and failed
func (r *RunReport) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Failures returns the failed outcomes
func (r *RunReport) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// ProcessCases scores cases in consecutive batches of BatchSize. Cases within
// a batch run concurrently and every one of them settles before the next
// batch starts. BatchDelay is slept between batches, never after the last.
// A failing case never aborts its batch or the run.
func (s *Scheduler) ProcessCases(ctx context.Context, cases []models.Case) *RunReport {
	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
		Outcomes:  make([]Outcome, len(cases)),
	}

	lawyers := s.loadLawyers(ctx, cases)
	size := s.settings.BatchSize
	if size < 1 {
		size = 1
	}

	for start := 0; start < len(cases); start += size {
		end := min(start+size, len(cases))

		if start > 0 {
			if err := s.sleep(ctx, s.settings.BatchDelay); err != nil {
				for i := start; i < len(cases); i++ {
					report.Outcomes[i] = Outcome{CaseID: cases[i].ID, CaseNumber: cases[i].Details.CaseNumber}
					report.Outcomes[i].fail(err)
				}
				zap.S().Warnw("case analysis run interrupted", "runId", report.RunID, "remaining", len(cases)-start, "error", err)
				break
			}
		}

		report.Batches++
		batch := report.Batches

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				report.Outcomes[i] = s.analyze(ctx, cases[i], lawyers, batch)
				return nil
			})
		}
		_ = g.Wait()
	}

	report.FinishedAt = s.now()
	return report
}

func (s *Scheduler) analyze(ctx context.Context, c models.Case, lawyers map[primitive.ObjectID]*models.User, batch int) Outcome {
	out := Outcome{
		CaseID:     c.ID,
		CaseNumber: c.Details.CaseNumber,
		Batch:      batch,
	}

	var lawyer *models.User
	if c.Details.AssignedLawyerID != nil {
		lawyer = lawyers[*c.Details.AssignedLawyerID]
	}

	result, err := s.Scorer.Score(ctx, c, lawyer)
	if err != nil {
		out.fail(err)
		zap.S().Errorw("failed to analyze case", "caseId", c.ID.Hex(), "caseNumber", c.Details.CaseNumber, "error", err)
		return out
	}

	update := c.Details.ApplyAnalysis(result, s.now())
	if err := s.CaseDB.SaveAnalysis(ctx, &c, update); err != nil {
		out.fail(err)
		zap.S().Errorw("failed to save case analysis", "caseId", c.ID.Hex(), "caseNumber", c.Details.CaseNumber, "error", err)
		return out
	}

	out.PriorityScore = c.Details.PriorityScore
	out.Priority = c.Details.Priority
	zap.S().Debugw("case analyzed",
		"caseId", c.ID.Hex(),
		"caseNumber", c.Details.CaseNumber,
		"priorityScore", out.PriorityScore,
		"priority", out.Priority,
	)
	return out
}
