package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection         = "users"
	ComplaintsCollection    = "complaints"
	WorkerUpdatesCollection = "workerupdates"
)

// EnsureIndexes creates the indexes the repositories rely on. The unique
// phone index backs the one-account-per-phone rule.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "village", Value: 1}}},
		},
		ComplaintsCollection: {
			{Keys: bson.D{{Key: "createdBy", Value: 1}}},
			{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		WorkerUpdatesCollection: {
			{Keys: bson.D{{Key: "complaintId", Value: 1}, {Key: "timestamp", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

// nameLookup joins the _id and name of the user referenced by field into field.
func nameLookup(field string) []bson.M {
	return []bson.M{
		{"$lookup": bson.M{
			"from":         UsersCollection,
			"localField":   field,
			"foreignField": "_id",
			"as":           field,
			"pipeline":     bson.A{bson.M{"$project": bson.M{"_id": 1, "name": 1}}},
		}},
		{"$unwind": bson.M{"path": "$" + field, "preserveNullAndEmptyArrays": true}},
	}
}
