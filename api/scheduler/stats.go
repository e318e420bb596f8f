package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/databases"
)

// CaseStatistics is the daily snapshot of the case store
type CaseStatistics struct {
	Total      int64            `json:"total"`
	Delayed    int64            `json:"delayed"`
	ByStatus   map[string]int64 `json:"byStatus"`
	ByType     map[string]int64 `json:"byType"`
	ByPriority map[string]int64 `json:"byPriority"`
	ComputedAt time.Time        `json:"computedAt"`
}

// ComputeStatistics groups the stored cases by status, type and priority
func (s *Scheduler) ComputeStatistics(ctx context.Context) (*CaseStatistics, error) {
	stats := &CaseStatistics{ComputedAt: s.now()}

	var err error
	if stats.Total, err = s.CaseDB.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}
	delayed := databases.NotTerminalFilter()
	delayed["case.delayInfo.isDelayed"] = true
	if stats.Delayed, err = s.CaseDB.CountDocuments(ctx, delayed); err != nil {
		return nil, fmt.Errorf("failed to count delayed cases: %w", err)
	}
	if stats.ByStatus, err = s.groupCounts(ctx, "$case.status"); err != nil {
		return nil, err
	}
	if stats.ByType, err = s.groupCounts(ctx, "$case.caseType"); err != nil {
		return nil, err
	}
	if stats.ByPriority, err = s.groupCounts(ctx, "$case.priority"); err != nil {
		return nil, err
	}

	zap.S().Infow("Case statistics computed",
		"total", stats.Total,
		"delayed", stats.Delayed,
		"byStatus", stats.ByStatus,
	)
	return stats, nil
}

func (s *Scheduler) groupCounts(ctx context.Context, field string) (map[string]int64, error) {
	rows, err := s.CaseDB.Aggregate(ctx, bson.A{
		bson.M{"$group": bson.M{"_id": field, "count": bson.M{"$sum": 1}}},
		bson.M{"$sort": bson.M{"count": -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to group cases by %s: %w", field, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		key, _ := row["_id"].(string)
		if key == "" {
			key = "unknown"
		}
		counts[key] += toInt64(row["count"])
	}
	return counts, nil
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
