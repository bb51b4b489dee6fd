package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// StatusCounts is the public solved/pending summary.
type StatusCounts struct {
	Solved  int64 `json:"solved"`
	Pending int64 `json:"pending"`
}

// CategoryCount is one bucket of the category analytics.
type CategoryCount struct {
	Category Category `bson:"_id" json:"_id"`
	Count    int64    `bson:"count" json:"count"`
}

// ComplaintSummary is the per-complaint entry inside a village group.
type ComplaintSummary struct {
	ID     primitive.ObjectID `bson:"_id" json:"_id"`
	Title  string             `bson:"title" json:"title"`
	Status Status             `bson:"status" json:"status"`
}

// VillageGroup groups complaints by the village they were reported in.
type VillageGroup struct {
	Village    string             `bson:"village" json:"village"`
	Complaints []ComplaintSummary `bson:"complaints" json:"complaints"`
	Count      int64              `bson:"count" json:"count"`
}

// WorkerSummary is the per-worker entry inside a village group.
type WorkerSummary struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Phone string             `bson:"phone" json:"phone"`
}

// WorkerVillageGroup groups workers by their home village.
type WorkerVillageGroup struct {
	Village string          `bson:"village" json:"village"`
	Workers []WorkerSummary `bson:"workers" json:"workers"`
	Count   int64           `bson:"count" json:"count"`
}
