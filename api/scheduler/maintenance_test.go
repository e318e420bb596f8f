package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/models"
)

func newLawyer(name string) models.User {
	return models.User{
		ID: primitive.NewObjectID(),
		Details: models.UserDetails{
			Name:     name,
			Role:     models.RoleLawyer,
			IsActive: true,
		},
	}
}

func TestRebalanceWorkloadIsolatesFailures(t *testing.T) {
	broken := newLawyer("Broken")
	healthy := newLawyer("Healthy")

	h := newHarness(t, fixedScore(60))
	h.userDB.On("Find", mock.Anything, databases.ActiveLawyersFilter()).Return([]models.User{broken, healthy}, nil)
	h.caseDB.On("CountDocuments", mock.Anything, databases.AssignedLawyerFilter(broken.ID)).Return(int64(0), errors.New("timeout"))
	h.caseDB.On("CountDocuments", mock.Anything, databases.AssignedLawyerFilter(healthy.ID)).Return(int64(4), nil)
	h.userDB.On("UpdateOne", mock.Anything, bson.M{"_id": healthy.ID}, bson.M{
		"$set": bson.M{
			"user.caseStats.activeCases": int64(4),
			"user.updatedAt":             testNow,
		},
	}).Return(nil)

	report, err := h.s.RebalanceWorkload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Lawyers)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, map[string]string{broken.ID.Hex(): "timeout"}, report.Failures)
	h.userDB.AssertNumberOfCalls(t, "UpdateOne", 1)
}

func TestRebalanceWorkloadUpdateFailure(t *testing.T) {
	first := newLawyer("First")
	second := newLawyer("Second")

	h := newHarness(t, fixedScore(60))
	h.userDB.On("Find", mock.Anything, mock.Anything).Return([]models.User{first, second}, nil)
	h.caseDB.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(2), nil)
	h.userDB.On("UpdateOne", mock.Anything, bson.M{"_id": first.ID}, mock.Anything).Return(errors.New("write failed"))
	h.userDB.On("UpdateOne", mock.Anything, bson.M{"_id": second.ID}, mock.Anything).Return(nil)

	report, err := h.s.RebalanceWorkload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Contains(t, report.Failures, first.ID.Hex())
}

func TestRebalanceWorkloadLawyerLookupFails(t *testing.T) {
	h := newHarness(t, fixedScore(60))
	h.userDB.On("Find", mock.Anything, mock.Anything).Return(nil, errors.New("no primary"))

	_, err := h.s.RebalanceWorkload(context.Background())
	assert.EqualError(t, err, "failed to load active lawyers: no primary")
}

func groupedBy(field string) interface{} {
	return mock.MatchedBy(func(p bson.A) bool {
		group, ok := p[0].(bson.M)["$group"].(bson.M)
		return ok && group["_id"] == field
	})
}

func TestRunDaily(t *testing.T) {
	lawyer := newLawyer("Only")

	h := newHarness(t, fixedScore(60))
	h.caseDB.On("CountDocuments", mock.Anything, bson.M{}).Return(int64(12), nil)
	h.caseDB.On("CountDocuments", mock.Anything, mock.MatchedBy(func(f bson.M) bool {
		return f["case.delayInfo.isDelayed"] == true
	})).Return(int64(3), nil)
	h.caseDB.On("CountDocuments", mock.Anything, databases.AssignedLawyerFilter(lawyer.ID)).Return(int64(5), nil)
	h.caseDB.On("Aggregate", mock.Anything, groupedBy("$case.status")).Return([]bson.M{
		{"_id": "in_progress", "count": int32(7)},
		{"_id": "completed", "count": int32(5)},
	}, nil)
	h.caseDB.On("Aggregate", mock.Anything, groupedBy("$case.caseType")).Return([]bson.M{
		{"_id": "civil", "count": int32(9)},
		{"_id": nil, "count": int32(3)},
	}, nil)
	h.caseDB.On("Aggregate", mock.Anything, groupedBy("$case.priority")).Return([]bson.M{
		{"_id": "high", "count": int64(12)},
	}, nil)
	h.userDB.On("Find", mock.Anything, mock.Anything).Return([]models.User{lawyer}, nil)
	h.userDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	report, err := h.s.RunDaily(context.Background())
	require.NoError(t, err)

	require.NotNil(t, report.Statistics)
	assert.Equal(t, int64(12), report.Statistics.Total)
	assert.Equal(t, int64(3), report.Statistics.Delayed)
	assert.Equal(t, map[string]int64{"in_progress": 7, "completed": 5}, report.Statistics.ByStatus)
	assert.Equal(t, map[string]int64{"civil": 9, "unknown": 3}, report.Statistics.ByType)
	assert.Equal(t, map[string]int64{"high": 12}, report.Statistics.ByPriority)
	assert.Equal(t, 1, report.Rebalance.Updated)

	status := h.s.Status()
	assert.Equal(t, StateIdle, status.State)
	assert.Same(t, report.Statistics, status.Statistics)
	require.NotNil(t, status.LastDailyRunTime)
	assert.Nil(t, status.LastRunTime)
}

func TestRunDailyStatisticsFailureStillRebalances(t *testing.T) {
	h := newHarness(t, fixedScore(60))
	h.caseDB.On("CountDocuments", mock.Anything, bson.M{}).Return(int64(0), errors.New("unavailable"))
	h.userDB.On("Find", mock.Anything, mock.Anything).Return([]models.User{}, nil)

	report, err := h.s.RunDaily(context.Background())
	require.NoError(t, err)
	assert.Nil(t, report.Statistics)
	assert.Equal(t, 0, report.Rebalance.Lawyers)
}

func TestPrioritizedCasesDefaultLimit(t *testing.T) {
	lawyerID := primitive.NewObjectID()
	h := newHarness(t, fixedScore(60))
	h.caseDB.On("Find", mock.Anything, databases.AssignedLawyerFilter(lawyerID),
		mock.MatchedBy(func(o *options.FindOptions) bool {
			return o.Limit != nil && *o.Limit == DefaultPrioritizedLimit && o.Sort != nil
		})).Return(nil, nil)

	cases, err := h.s.PrioritizedCases(context.Background(), lawyerID, 0)
	require.NoError(t, err)
	assert.NotNil(t, cases)
	assert.Empty(t, cases)
}

func TestUrgentCases(t *testing.T) {
	high := newCase("LC-HIGH")
	high.Details.PriorityScore = 82

	medium := newCase("LC-MEDIUM")
	medium.Details.PriorityScore = 70

	hearing := newCase("LC-HEARING")
	hearing.Details.PriorityScore = 40
	soon := testNow.Add(3 * 24 * time.Hour)
	hearing.Details.HearingDate = &soon

	h := newHarness(t, fixedScore(60))
	h.caseDB.On("Find", mock.Anything, databases.UrgentFilter(testNow), mock.Anything).
		Return([]models.Case{high, medium, hearing}, nil)

	cases, err := h.s.UrgentCases(context.Background())
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "LC-HIGH", cases[0].Details.CaseNumber)
	assert.Equal(t, "LC-HEARING", cases[1].Details.CaseNumber)
}
