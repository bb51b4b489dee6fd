package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the closed set of complaint categories.
type Category string

const (
	Roads        Category = "Roads"
	Garbage      Category = "Garbage"
	Streetlights Category = "Streetlights"
	Water        Category = "Water"
	Drainage     Category = "Drainage"
	StrayDogs    Category = "Stray Dogs"
	Safety       Category = "Safety"
)

// Categories lists every valid category in display order.
var Categories = []Category{Roads, Garbage, Streetlights, Water, Drainage, StrayDogs, Safety}

// ParseCategory reports whether s names a valid category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Status is the lifecycle state of a complaint.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
)

// Statuses lists every complaint status.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusResolved}

// WorkerStatuses are the statuses a worker may set through a progress update.
var WorkerStatuses = []Status{StatusInProgress, StatusResolved}

// PendingStatuses are the statuses counted as pending on the public dashboard.
var PendingStatuses = []Status{StatusOpen, StatusInProgress}

func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// IsWorkerStatus reports whether a worker update may move a complaint into s.
func IsWorkerStatus(s Status) bool {
	for _, st := range WorkerStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Complaint represents a civic problem reported by a citizen
type Complaint struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Category    Category             `bson:"category" json:"category"`
	PhotoURL    string               `bson:"photoURL" json:"photoURL"`
	Location    Location             `bson:"location" json:"location"`
	Address     string               `bson:"address" json:"address"`
	State       string               `bson:"state,omitempty" json:"state,omitempty"`
	District    string               `bson:"district,omitempty" json:"district,omitempty"`
	Village     string               `bson:"village,omitempty" json:"village,omitempty"`
	Status      Status               `bson:"status" json:"status"`
	CreatedBy   primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	AssignedTo  *primitive.ObjectID  `bson:"assignedTo" json:"assignedTo"`
	Upvotes     []primitive.ObjectID `bson:"upvotes" json:"upvotes"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasUpvote reports whether userID already upvoted the complaint.
func (c *Complaint) HasUpvote(userID primitive.ObjectID) bool {
	for _, id := range c.Upvotes {
		if id == userID {
			return true
		}
	}
	return false
}

// UserRef is the joined name of a user referenced by a complaint or update.
type UserRef struct {
	ID   primitive.ObjectID `bson:"_id" json:"_id"`
	Name string             `bson:"name" json:"name"`
}

// ComplaintView is a complaint with its creator and assignee names joined in.
type ComplaintView struct {
	ID          primitive.ObjectID   `bson:"_id" json:"_id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Category    Category             `bson:"category" json:"category"`
	PhotoURL    string               `bson:"photoURL" json:"photoURL"`
	Location    Location             `bson:"location" json:"location"`
	Address     string               `bson:"address" json:"address"`
	State       string               `bson:"state,omitempty" json:"state,omitempty"`
	District    string               `bson:"district,omitempty" json:"district,omitempty"`
	Village     string               `bson:"village,omitempty" json:"village,omitempty"`
	Status      Status               `bson:"status" json:"status"`
	CreatedBy   *UserRef             `bson:"createdBy" json:"createdBy"`
	AssignedTo  *UserRef             `bson:"assignedTo" json:"assignedTo"`
	Upvotes     []primitive.ObjectID `bson:"upvotes" json:"upvotes"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}
