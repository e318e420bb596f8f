package databases

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/legal-case-api/models"
)

// NotTerminalFilter matches cases that are still being worked on
func NotTerminalFilter() bson.M {
	return bson.M{"case.status": bson.M{"$nin": models.TerminalStatuses}}
}

// AnalysisDueFilter matches non-terminal cases that were never analyzed, whose
// analysis is older than staleAfter, or that are under active management and
// were updated after their last analysis. The last branch compares two fields
// of the same document and relies on $expr.
func AnalysisDueFilter(now time.Time, staleAfter time.Duration) bson.M {
	cutoff := now.Add(-staleAfter)
	return bson.M{
		"case.status": bson.M{"$nin": models.TerminalStatuses},
		"$or": []bson.M{
			{"case.aiAnalysis.lastAnalyzed": bson.M{"$exists": false}},
			{"case.aiAnalysis.lastAnalyzed": bson.M{"$lt": cutoff}},
			{
				"case.status": bson.M{"$in": models.ActiveManagementStatuses},
				"$expr": bson.M{"$gt": bson.A{"$case.updatedAt", "$case.aiAnalysis.lastAnalyzed"}},
			},
		},
	}
}

// AssignedLawyerFilter matches the non-terminal cases assigned to lawyerID
func AssignedLawyerFilter(lawyerID primitive.ObjectID) bson.M {
	return bson.M{
		"case.assignedLawyer": lawyerID,
		"case.status":         bson.M{"$nin": models.TerminalStatuses},
	}
}

// UrgentFilter matches non-terminal cases with a high priority score, a long
// delay or a hearing in the coming week
func UrgentFilter(now time.Time) bson.M {
	return bson.M{
		"case.status": bson.M{"$nin": models.TerminalStatuses},
		"$or": []bson.M{
			{"case.priorityScore": bson.M{"$gte": models.UrgentScoreThreshold}},
			{"case.delayInfo.isDelayed": true, "case.delayInfo.delayDays": bson.M{"$gte": models.UrgentDelayDays}},
			{"case.hearingDate": bson.M{"$gte": now, "$lte": now.Add(models.UrgentHearingWindow)}},
		},
	}
}

// ActiveLawyersFilter matches lawyers whose accounts are active
func ActiveLawyersFilter() bson.M {
	return bson.M{"user.role": models.RoleLawyer, "user.isActive": true}
}

// PriorityOrder sorts by priority score descending, then hearing date ascending
func PriorityOrder(limit int64) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "case.priorityScore", Value: -1}, {Key: "case.hearingDate", Value: 1}}).
		SetLimit(limit)
}

// Limit returns find options bounded to limit documents
func Limit(limit int64) *options.FindOptions {
	return options.Find().SetLimit(limit)
}
