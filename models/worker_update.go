package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkerUpdate is one entry in a complaint's resolution timeline. Entries are
// appended when a worker changes a complaint's status and never modified.
type WorkerUpdate struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ComplaintID primitive.ObjectID `bson:"complaintId" json:"complaintId"`
	WorkerID    primitive.ObjectID `bson:"workerId" json:"workerId"`
	UpdateText  string             `bson:"updateText" json:"updateText"`
	PhotoURL    string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Status      Status             `bson:"status" json:"status"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}

// WorkerUpdateView is a timeline entry with the worker's name joined in.
type WorkerUpdateView struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	ComplaintID primitive.ObjectID `bson:"complaintId" json:"complaintId"`
	Worker      *UserRef           `bson:"workerId" json:"workerId"`
	UpdateText  string             `bson:"updateText" json:"updateText"`
	PhotoURL    string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Status      Status             `bson:"status" json:"status"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}
