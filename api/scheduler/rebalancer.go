package scheduler

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/databases"
)

// RebalanceReport lists the lawyers whose active case count was refreshed
type RebalanceReport struct {
	Lawyers  int               `json:"lawyers"`
	Updated  int               `json:"updated"`
	Failures map[string]string `json:"failures,omitempty"`
}

// RebalanceWorkload recounts the non-terminal cases assigned to every active
// lawyer and writes the count to their case stats. A failure for one lawyer
// is recorded and the remaining lawyers are still processed.
func (s *Scheduler) RebalanceWorkload(ctx context.Context) (*RebalanceReport, error) {
	lawyers, err := s.UserDB.Find(ctx, databases.ActiveLawyersFilter())
	if err != nil {
		return nil, fmt.Errorf("failed to load active lawyers: %w", err)
	}

	report := &RebalanceReport{Lawyers: len(lawyers), Failures: map[string]string{}}
	for _, lawyer := range lawyers {
		count, err := s.CaseDB.CountDocuments(ctx, databases.AssignedLawyerFilter(lawyer.ID))
		if err != nil {
			report.Failures[lawyer.ID.Hex()] = err.Error()
			zap.S().Errorw("failed to count active cases", "lawyerId", lawyer.ID.Hex(), "error", err)
			continue
		}

		err = s.UserDB.UpdateOne(ctx, bson.M{"_id": lawyer.ID}, bson.M{
			"$set": bson.M{
				"user.caseStats.activeCases": count,
				"user.updatedAt":             s.now(),
			},
		})
		if err != nil {
			report.Failures[lawyer.ID.Hex()] = err.Error()
			zap.S().Errorw("failed to update lawyer workload", "lawyerId", lawyer.ID.Hex(), "error", err)
			continue
		}
		report.Updated++
	}

	zap.S().Infow("Lawyer workload rebalanced",
		"lawyers", report.Lawyers,
		"updated", report.Updated,
		"failed", len(report.Failures),
	)
	return report, nil
}
