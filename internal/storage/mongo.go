package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aqibcreates/teachreach-backend/internal/lifecycle"
	"github.com/aqibcreates/teachreach-backend/internal/models"
)

// Collection names.
const (
	ColAccounts = "accounts"
	ColMessages = "messages"
	ColReviews  = "reviews"
)

// MongoStore implements lifecycle.Store on the MongoDB document store.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// EnsureIndexes creates the indexes the store relies on. The unique index on
// accounts.email turns a concurrent duplicate registration into a
// duplicate-key error instead of a second account.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	accountIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_accounts_email"),
	}
	if _, err := s.db.Collection(ColAccounts).Indexes().CreateOne(ctx, accountIdx); err != nil {
		return err
	}

	messageIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "receiver_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
		Options: options.Index().SetName("idx_messages_receiver_created"),
	}
	if _, err := s.db.Collection(ColMessages).Indexes().CreateOne(ctx, messageIdx); err != nil {
		return err
	}

	return nil
}

func (s *MongoStore) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := s.db.Collection(ColAccounts).FindOne(ctx, bson.M{"email": email}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *MongoStore) FindAccountByID(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := s.db.Collection(ColAccounts).FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *MongoStore) InsertAccount(ctx context.Context, a *models.Account) error {
	_, err := s.db.Collection(ColAccounts).InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return lifecycle.ErrDuplicateEmail
	}
	return err
}

// UpdateAccount writes the full snapshot; last write wins, no version check.
func (s *MongoStore) UpdateAccount(ctx context.Context, a *models.Account) error {
	res, err := s.db.Collection(ColAccounts).ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return lifecycle.ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.Collection(ColAccounts).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteMessagesBySender(ctx context.Context, accountID string) (int64, error) {
	res, err := s.db.Collection(ColMessages).DeleteMany(ctx, bson.M{"sender_id": accountID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) DeleteReviewsByAuthor(ctx context.Context, accountID string) (int64, error) {
	res, err := s.db.Collection(ColReviews).DeleteMany(ctx, bson.M{"author_id": accountID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
