package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/databases/mocks"
	"github.com/linesmerrill/legal-case-api/models"
)

func TestNewUserDatabase(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	userDB := databases.NewUserDatabase(db)

	assert.NotEmpty(t, userDB)
}

func TestUserDatabase_FindOne(t *testing.T) {
	mockedID := primitive.NewObjectID()

	// define variables for interfaces
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	// set interfaces implementation to mocked structures
	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).ID = mockedID
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": true}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": false}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "users").Return(collectionHelper)

	// Create new database with mocked Database interface
	userDba := databases.NewUserDatabase(dbHelper)

	// Call method with defined filter, that in our mocked function returns
	// mocked-error
	user, err := userDba.FindOne(context.Background(), bson.M{"error": true})

	assert.Empty(t, user)
	assert.EqualError(t, err, "mocked-error")

	// Now call the same function with different different filter for correct
	// result
	user, err = userDba.FindOne(context.Background(), bson.M{"error": false})

	assert.Equal(t, &models.User{ID: mockedID}, user)
	assert.NoError(t, err)
}

func TestUserDatabase_Find(t *testing.T) {
	mockedID := primitive.NewObjectID()

	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursorCorrect := &mocks.CursorHelper{}

	cursorCorrect.On("All", mock.Anything, mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.User)
		*arg = []models.User{{ID: mockedID}}
	})
	cursorCorrect.On("Close", mock.Anything).Return(nil)

	collectionHelper.On("Find", context.Background(), bson.M{"error": true}).
		Return(nil, errors.New("mocked-error"))
	collectionHelper.On("Find", context.Background(), bson.M{"error": false}).
		Return(cursorCorrect, nil)

	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	users, err := userDba.Find(context.Background(), bson.M{"error": true})
	assert.Empty(t, users)
	assert.EqualError(t, err, "mocked-error")

	users, err = userDba.Find(context.Background(), bson.M{"error": false})
	assert.NoError(t, err)
	assert.Equal(t, []models.User{{ID: mockedID}}, users)
	cursorCorrect.AssertCalled(t, "Close", mock.Anything)
}

func TestUserDatabase_UpdateOne(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	update := bson.M{"$set": bson.M{"user.caseStats.activeCases": 3}}
	collectionHelper.On("UpdateOne", context.Background(), bson.M{"_id": "a"}, update).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	collectionHelper.On("UpdateOne", context.Background(), bson.M{"_id": "b"}, update).
		Return(nil, errors.New("mocked-error"))
	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	assert.NoError(t, userDba.UpdateOne(context.Background(), bson.M{"_id": "a"}, update))
	assert.EqualError(t, userDba.UpdateOne(context.Background(), bson.M{"_id": "b"}, update), "mocked-error")
}
