package scheduler

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/models"
)

// SelectCandidates returns at most CandidateLimit non-terminal cases that
// were never analyzed, whose analysis is stale, or that changed since their
// last analysis while under active management.
func (s *Scheduler) SelectCandidates(ctx context.Context, now time.Time) ([]models.Case, error) {
	cases, err := s.CaseDB.Find(ctx,
		databases.AnalysisDueFilter(now, s.settings.StaleAfter),
		databases.Limit(int64(s.settings.CandidateLimit)),
	)
	if err != nil {
		return nil, err
	}

	// the store evaluates the updatedAt > lastAnalyzed comparison as an
	// expression; the same rule is applied here so a store without $expr
	// support cannot widen the selection
	due := make([]models.Case, 0, len(cases))
	for _, c := range cases {
		if !c.Details.NeedsAnalysis(now, s.settings.StaleAfter) {
			continue
		}
		due = append(due, c)
		if len(due) == s.settings.CandidateLimit {
			break
		}
	}
	return due, nil
}

// loadLawyers fetches every assigned lawyer for the given cases in one query.
// A lookup failure is logged and the cases are scored without lawyer context.
func (s *Scheduler) loadLawyers(ctx context.Context, cases []models.Case) map[primitive.ObjectID]*models.User {
	lawyers := map[primitive.ObjectID]*models.User{}

	seen := map[primitive.ObjectID]bool{}
	ids := bson.A{}
	for _, c := range cases {
		id := c.Details.AssignedLawyerID
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		ids = append(ids, *id)
	}
	if len(ids) == 0 {
		return lawyers
	}

	users, err := s.UserDB.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		zap.S().Warnw("failed to load assigned lawyers, scoring without lawyer context", "error", err)
		return lawyers
	}
	for i := range users {
		lawyers[users[i].ID] = &users[i]
	}
	return lawyers
}

func (s *Scheduler) lawyerFor(ctx context.Context, c models.Case) *models.User {
	if c.Details.AssignedLawyerID == nil {
		return nil
	}
	lawyer, err := s.UserDB.FindOne(ctx, bson.M{"_id": *c.Details.AssignedLawyerID})
	if err != nil {
		zap.S().Warnw("failed to load assigned lawyer",
			"caseId", c.ID.Hex(),
			"lawyerId", c.Details.AssignedLawyerID.Hex(),
			"error", err,
		)
		return nil
	}
	return lawyer
}

func (s *Scheduler) clientFor(ctx context.Context, c models.Case) *models.User {
	if c.Details.ClientID.IsZero() {
		return nil
	}
	client, err := s.UserDB.FindOne(ctx, bson.M{"_id": c.Details.ClientID})
	if err != nil {
		zap.S().Warnw("failed to load case client",
			"caseId", c.ID.Hex(),
			"clientId", c.Details.ClientID.Hex(),
			"error", err,
		)
		return nil
	}
	return client
}
