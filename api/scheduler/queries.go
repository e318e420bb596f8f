package scheduler

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/models"
)

// Query limits
const (
	DefaultPrioritizedLimit = 50
	UrgentLimit             = 100
)

// PrioritizedCases returns a lawyer's non-terminal cases ordered by priority
// score descending, then by nearest hearing date
func (s *Scheduler) PrioritizedCases(ctx context.Context, lawyerID primitive.ObjectID, limit int) ([]models.Case, error) {
	if limit <= 0 {
		limit = DefaultPrioritizedLimit
	}
	cases, err := s.CaseDB.Find(ctx, databases.AssignedLawyerFilter(lawyerID), databases.PriorityOrder(int64(limit)))
	if err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []models.Case{}
	}
	return cases, nil
}

// UrgentCases returns non-terminal cases that score at least 80, have been
// delayed 30 days or more, or have a hearing within the next seven days
func (s *Scheduler) UrgentCases(ctx context.Context) ([]models.Case, error) {
	now := s.now()
	cases, err := s.CaseDB.Find(ctx, databases.UrgentFilter(now), databases.PriorityOrder(UrgentLimit))
	if err != nil {
		return nil, err
	}

	urgent := make([]models.Case, 0, len(cases))
	for _, c := range cases {
		if c.Details.IsUrgent(now) {
			urgent = append(urgent, c)
		}
	}
	return urgent, nil
}
