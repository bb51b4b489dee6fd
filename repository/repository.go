// Package repository persists users, complaints and worker updates in MongoDB.
package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fixmyarea-be/models"
)

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate key")
	// ErrPrecondition is returned when a guarded write finds the document
	// but its current state no longer allows the change.
	ErrPrecondition = errors.New("write precondition failed")
)

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	GroupWorkersByVillage(ctx context.Context) ([]models.WorkerVillageGroup, error)
}

// ComplaintFilter narrows a complaint listing. Zero values match everything.
type ComplaintFilter struct {
	CreatedBy  *primitive.ObjectID
	AssignedTo *primitive.ObjectID
}

type ComplaintRepository interface {
	Insert(ctx context.Context, complaint *models.Complaint) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error)
	FindView(ctx context.Context, id primitive.ObjectID) (*models.ComplaintView, error)
	List(ctx context.Context, filter ComplaintFilter) ([]models.ComplaintView, error)

	// Assign sets the assignee and forces the complaint into In Progress.
	// A resolved complaint is left untouched and ErrPrecondition is returned.
	Assign(ctx context.Context, id, workerID primitive.ObjectID) (*models.Complaint, error)
	// SetStatus writes a worker-driven status change and the assignee it applies to.
	// The write only lands while the complaint is unresolved and either unassigned
	// or held by assignee; otherwise it returns ErrPrecondition.
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.Status, assignee primitive.ObjectID) (*models.Complaint, error)
	// AddUpvote inserts userID into upvotes only if absent, in one atomic update.
	// It returns false when the user had already upvoted.
	AddUpvote(ctx context.Context, id, userID primitive.ObjectID) (*models.Complaint, bool, error)
	// ReleaseAssignments unassigns every complaint held by workerID and sets it back to Open.
	// Resolved complaints are only reopened when reopenResolved is set.
	ReleaseAssignments(ctx context.Context, workerID primitive.ObjectID, reopenResolved bool) (int64, error)

	CountByStatus(ctx context.Context) (models.StatusCounts, error)
	CountByCategory(ctx context.Context) ([]models.CategoryCount, error)
	GroupByVillage(ctx context.Context) ([]models.VillageGroup, error)
}

// WorkerUpdateRepository is the append-only worker update log.
type WorkerUpdateRepository interface {
	Append(ctx context.Context, update *models.WorkerUpdate) error
	ListByComplaint(ctx context.Context, complaintID primitive.ObjectID) ([]models.WorkerUpdateView, error)
}

// TxRunner runs fn as one unit of work. Repositories called with the ctx
// passed to fn take part in the same transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CountsCache caches the public status counts.
type CountsCache interface {
	Get(ctx context.Context) (*models.StatusCounts, error)
	Set(ctx context.Context, counts models.StatusCounts) error
	Invalidate(ctx context.Context) error
}
