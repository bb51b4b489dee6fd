package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fixmyarea-be/models"
)

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(UsersCollection)}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"phone": phone})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	set := bson.M{}
	setIf := func(key string, value *string) {
		if value != nil {
			set[key] = *value
		}
	}
	setIf("name", update.Name)
	setIf("email", update.Email)
	setIf("gender", update.Gender)
	setIf("state", update.State)
	setIf("district", update.District)
	setIf("village", update.Village)
	setIf("pincode", update.Pincode)
	if update.DOB != nil {
		set["dob"] = *update.DOB
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"role": role}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (r *MongoUserRepository) GroupWorkersByVillage(ctx context.Context) ([]models.WorkerVillageGroup, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"role": models.RoleWorker}},
		{"$group": bson.M{
			"_id": "$village",
			"workers": bson.M{"$push": bson.M{
				"_id":   "$_id",
				"name":  "$name",
				"phone": "$phone",
			}},
			"count": bson.M{"$sum": 1},
		}},
		{"$project": bson.M{
			"_id":     0,
			"village": bson.M{"$ifNull": bson.A{"$_id", ""}},
			"workers": 1,
			"count":   1,
		}},
		{"$sort": bson.M{"village": 1}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate workers by village: %w", err)
	}
	defer cursor.Close(ctx)

	groups := []models.WorkerVillageGroup{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode workers by village: %w", err)
	}
	return groups, nil
}
