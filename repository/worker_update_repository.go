package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"fixmyarea-be/models"
)

type MongoWorkerUpdateRepository struct {
	coll *mongo.Collection
}

func NewWorkerUpdateRepository(db *mongo.Database) *MongoWorkerUpdateRepository {
	return &MongoWorkerUpdateRepository{coll: db.Collection(WorkerUpdatesCollection)}
}

func (r *MongoWorkerUpdateRepository) Append(ctx context.Context, update *models.WorkerUpdate) error {
	if update.ID.IsZero() {
		update.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, update); err != nil {
		return fmt.Errorf("insert worker update: %w", err)
	}
	return nil
}

// ListByComplaint returns the complaint's timeline, oldest first.
func (r *MongoWorkerUpdateRepository) ListByComplaint(ctx context.Context, complaintID primitive.ObjectID) ([]models.WorkerUpdateView, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"complaintId": complaintID}},
		{"$sort": bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}},
	}
	pipeline = append(pipeline, nameLookup("workerId")...)

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate worker updates: %w", err)
	}
	defer cursor.Close(ctx)

	updates := []models.WorkerUpdateView{}
	if err := cursor.All(ctx, &updates); err != nil {
		return nil, fmt.Errorf("decode worker updates: %w", err)
	}
	return updates, nil
}
