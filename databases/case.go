package databases

// go generate: mockery --name CaseDatabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/legal-case-api/models"
)

const caseName = "cases"

// ErrCaseModified is returned by SaveAnalysis when the stored case changed since it was read
var ErrCaseModified = errors.New("case was modified concurrently")

// CaseDatabase contains the methods to use with the case database
type CaseDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}) ([]bson.M, error)
	SaveAnalysis(ctx context.Context, c *models.Case, update models.AnalysisUpdate) error
}

type caseDatabase struct {
	db  DatabaseHelper
	now func() time.Time
}

// NewCaseDatabase initializes a new instance of case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db:  db,
		now: time.Now,
	}
}

func (c *caseDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error) {
	legalCase := &models.Case{}
	err := c.db.Collection(caseName).FindOne(ctx, filter, opts...).Decode(&legalCase)
	if err != nil {
		return nil, err
	}
	return legalCase, nil
}

func (c *caseDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error) {
	var cases []models.Case
	curr, err := c.db.Collection(caseName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &cases)
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *caseDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(caseName).CountDocuments(ctx, filter, opts...)
}

func (c *caseDatabase) Aggregate(ctx context.Context, pipeline interface{}) ([]bson.M, error) {
	var results []bson.M
	curr, err := c.db.Collection(caseName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	if err := curr.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// SaveAnalysis writes the scheduling fields of an analyzed case and appends
// its analysis note. Every other field belongs to the rest of the system and
// is left untouched. The write only applies while case.updatedAt still holds
// the value read before the analysis; delay info is recomputed first.
func (c *caseDatabase) SaveAnalysis(ctx context.Context, legalCase *models.Case, update models.AnalysisUpdate) error {
	d := &legalCase.Details
	d.RefreshDelayInfo(c.now())

	res, err := c.db.Collection(caseName).UpdateOne(ctx, analysisFilter(legalCase.ID, update.ReadUpdatedAt), bson.M{
		"$set": bson.M{
			"case.priorityScore":          d.PriorityScore,
			"case.priority":               d.Priority,
			"case.aiAnalysis":             d.AIAnalysis,
			"case.expectedCompletionDate": d.ExpectedCompletionDate,
			"case.delayInfo":              d.DelayInfo,
			"case.updatedAt":              d.UpdatedAt,
		},
		"$push": bson.M{"case.notes": update.Note},
	})
	if err != nil {
		return fmt.Errorf("failed to save case %s: %w", legalCase.ID.Hex(), err)
	}
	if res == nil || res.MatchedCount == 0 {
		return ErrCaseModified
	}
	return nil
}

// analysisFilter matches the case only while its updatedAt is unchanged. A
// case read without updatedAt matches while the field is still missing.
func analysisFilter(id primitive.ObjectID, readUpdatedAt time.Time) bson.M {
	if readUpdatedAt.IsZero() {
		return bson.M{"_id": id, "case.updatedAt": bson.M{"$in": bson.A{nil, readUpdatedAt}}}
	}
	return bson.M{"_id": id, "case.updatedAt": readUpdatedAt}
}
