package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fixmyarea-be/models"
)

type MongoComplaintRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewComplaintRepository(db *mongo.Database) *MongoComplaintRepository {
	return &MongoComplaintRepository{coll: db.Collection(ComplaintsCollection), now: time.Now}
}

func (r *MongoComplaintRepository) Insert(ctx context.Context, complaint *models.Complaint) error {
	if complaint.ID.IsZero() {
		complaint.ID = primitive.NewObjectID()
	}
	if complaint.Upvotes == nil {
		complaint.Upvotes = []primitive.ObjectID{}
	}
	if _, err := r.coll.InsertOne(ctx, complaint); err != nil {
		return fmt.Errorf("insert complaint: %w", translate(err))
	}
	return nil
}

func (r *MongoComplaintRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&complaint); err != nil {
		return nil, translate(err)
	}
	return &complaint, nil
}

func (r *MongoComplaintRepository) FindView(ctx context.Context, id primitive.ObjectID) (*models.ComplaintView, error) {
	views, err := r.aggregateViews(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return &views[0], nil
}

func (r *MongoComplaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]models.ComplaintView, error) {
	match := bson.M{}
	if filter.CreatedBy != nil {
		match["createdBy"] = *filter.CreatedBy
	}
	if filter.AssignedTo != nil {
		match["assignedTo"] = *filter.AssignedTo
	}
	return r.aggregateViews(ctx, match)
}

func (r *MongoComplaintRepository) aggregateViews(ctx context.Context, match bson.M) ([]models.ComplaintView, error) {
	pipeline := []bson.M{
		{"$match": match},
		{"$sort": bson.M{"createdAt": -1}},
	}
	pipeline = append(pipeline, nameLookup("createdBy")...)
	pipeline = append(pipeline, nameLookup("assignedTo")...)

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate complaints: %w", err)
	}
	defer cursor.Close(ctx)

	views := []models.ComplaintView{}
	if err := cursor.All(ctx, &views); err != nil {
		return nil, fmt.Errorf("decode complaints: %w", err)
	}
	return views, nil
}

func (r *MongoComplaintRepository) Assign(ctx context.Context, id, workerID primitive.ObjectID) (*models.Complaint, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$ne": models.StatusResolved}}
	complaint, err := r.update(ctx, filter, bson.M{"$set": bson.M{
		"assignedTo": workerID,
		"status":     models.StatusInProgress,
		"updatedAt":  r.now(),
	}})
	if err == nil || !errors.Is(err, ErrNotFound) {
		return complaint, err
	}
	return nil, r.missOrPrecondition(ctx, id)
}

func (r *MongoComplaintRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.Status, assignee primitive.ObjectID) (*models.Complaint, error) {
	filter := bson.M{
		"_id":        id,
		"status":     bson.M{"$ne": models.StatusResolved},
		"assignedTo": bson.M{"$in": bson.A{nil, assignee}},
	}
	complaint, err := r.update(ctx, filter, bson.M{"$set": bson.M{
		"assignedTo": assignee,
		"status":     status,
		"updatedAt":  r.now(),
	}})
	if err == nil || !errors.Is(err, ErrNotFound) {
		return complaint, err
	}
	return nil, r.missOrPrecondition(ctx, id)
}

// missOrPrecondition tells a missing complaint apart from a guard that did not match.
func (r *MongoComplaintRepository) missOrPrecondition(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return ErrPrecondition
}

func (r *MongoComplaintRepository) update(ctx context.Context, filter, update bson.M) (*models.Complaint, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var complaint models.Complaint
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&complaint); err != nil {
		return nil, translate(err)
	}
	return &complaint, nil
}

func (r *MongoComplaintRepository) AddUpvote(ctx context.Context, id, userID primitive.ObjectID) (*models.Complaint, bool, error) {
	// The $ne guard makes check-and-insert a single atomic write.
	complaint, err := r.update(ctx,
		bson.M{"_id": id, "upvotes": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"upvotes": userID}, "$set": bson.M{"updatedAt": r.now()}},
	)
	if err == nil {
		return complaint, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *MongoComplaintRepository) ReleaseAssignments(ctx context.Context, workerID primitive.ObjectID, reopenResolved bool) (int64, error) {
	now := r.now()
	var released int64

	reopen := bson.M{"assignedTo": workerID}
	if !reopenResolved {
		reopen["status"] = bson.M{"$ne": models.StatusResolved}
	}
	result, err := r.coll.UpdateMany(ctx, reopen, bson.M{"$set": bson.M{
		"assignedTo": nil,
		"status":     models.StatusOpen,
		"updatedAt":  now,
	}})
	if err != nil {
		return 0, fmt.Errorf("release assignments: %w", err)
	}
	released += result.ModifiedCount

	if !reopenResolved {
		result, err = r.coll.UpdateMany(ctx,
			bson.M{"assignedTo": workerID, "status": models.StatusResolved},
			bson.M{"$set": bson.M{"assignedTo": nil, "updatedAt": now}},
		)
		if err != nil {
			return released, fmt.Errorf("release resolved assignments: %w", err)
		}
		released += result.ModifiedCount
	}
	return released, nil
}

func (r *MongoComplaintRepository) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	var counts models.StatusCounts

	solved, err := r.coll.CountDocuments(ctx, bson.M{"status": models.StatusResolved})
	if err != nil {
		return counts, fmt.Errorf("count solved: %w", err)
	}
	pending, err := r.coll.CountDocuments(ctx, bson.M{"status": bson.M{"$in": models.PendingStatuses}})
	if err != nil {
		return counts, fmt.Errorf("count pending: %w", err)
	}

	counts.Solved = solved
	counts.Pending = pending
	return counts, nil
}

func (r *MongoComplaintRepository) CountByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"_id": 1}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate categories: %w", err)
	}
	defer cursor.Close(ctx)

	counts := []models.CategoryCount{}
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return counts, nil
}

func (r *MongoComplaintRepository) GroupByVillage(ctx context.Context) ([]models.VillageGroup, error) {
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id": "$village",
			"complaints": bson.M{"$push": bson.M{
				"_id":    "$_id",
				"title":  "$title",
				"status": "$status",
			}},
			"count": bson.M{"$sum": 1},
		}},
		{"$project": bson.M{
			"_id":        0,
			"village":    bson.M{"$ifNull": bson.A{"$_id", ""}},
			"complaints": 1,
			"count":      1,
		}},
		{"$sort": bson.M{"village": 1}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate complaints by village: %w", err)
	}
	defer cursor.Close(ctx)

	groups := []models.VillageGroup{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode complaints by village: %w", err)
	}
	return groups, nil
}
