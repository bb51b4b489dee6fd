package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/metrics"
	"fixmyarea-be/models"
	"fixmyarea-be/notify"
	"fixmyarea-be/realtime"
	"fixmyarea-be/repository"
	"fixmyarea-be/storage"
)

type CreateComplaintInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Category    string   `json:"category" validate:"required,category"`
	Lat         *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng         *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	Address     string   `json:"address" validate:"required,max=500"`
	State       string   `json:"state" validate:"max=100"`
	District    string   `json:"district" validate:"max=100"`
	Village     string   `json:"village" validate:"max=100"`
}

type ProgressInput struct {
	Status     string `json:"status" validate:"required"`
	UpdateText string `json:"updateText" validate:"required,max=2000"`
}

type ComplaintDeps struct {
	Complaints repository.ComplaintRepository
	Updates    repository.WorkerUpdateRepository
	Users      repository.UserRepository
	Photos     storage.PhotoStore
	Tx         repository.TxRunner
	Counts     repository.CountsCache
	Events     Publisher
	Notifier   notify.Notifier
}

type ComplaintService struct {
	complaints repository.ComplaintRepository
	updates    repository.WorkerUpdateRepository
	users      repository.UserRepository
	photos     storage.PhotoStore
	tx         repository.TxRunner
	counts     repository.CountsCache
	events     Publisher
	notifier   notify.Notifier
	log        *zap.Logger
	now        func() time.Time
}

func NewComplaintService(deps ComplaintDeps, log *zap.Logger) *ComplaintService {
	s := &ComplaintService{
		complaints: deps.Complaints,
		updates:    deps.Updates,
		users:      deps.Users,
		photos:     deps.Photos,
		tx:         deps.Tx,
		counts:     deps.Counts,
		events:     deps.Events,
		notifier:   deps.Notifier,
		log:        log,
		now:        time.Now,
	}
	if s.tx == nil {
		s.tx = repository.SequentialTxRunner{}
	}
	if s.events == nil {
		s.events = nopPublisher{}
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	return s
}

// Create files a new complaint for the calling citizen. The photo is stored
// first; a failed upload leaves nothing behind.
func (s *ComplaintService) Create(ctx context.Context, identity models.Identity, input CreateComplaintInput, photo *storage.Photo) (*models.Complaint, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if photo == nil || photo.Size == 0 {
		return nil, apperrors.Validation("Photo is required", map[string]string{"photo": "is required"})
	}

	photoURL, err := s.photos.Upload(ctx, *photo)
	if err != nil {
		return nil, apperrors.Upstream("Failed to upload photo", err)
	}

	category, _ := models.ParseCategory(input.Category)
	now := s.now().UTC()
	complaint := &models.Complaint{
		Title:       input.Title,
		Description: input.Description,
		Category:    category,
		PhotoURL:    photoURL,
		Location:    models.Location{Lat: *input.Lat, Lng: *input.Lng},
		Address:     input.Address,
		State:       input.State,
		District:    input.District,
		Village:     input.Village,
		Status:      models.StatusOpen,
		CreatedBy:   identity.UserID,
		Upvotes:     []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.complaints.Insert(ctx, complaint); err != nil {
		return nil, apperrors.Storage("Failed to save complaint", err)
	}

	s.changed(ctx)
	metrics.ComplaintCreated(string(category))
	s.events.Publish(realtime.EventComplaintCreated, complaint)
	s.log.Info("Complaint created",
		zap.String("complaintId", complaint.ID.Hex()),
		zap.String("userId", identity.UserID.Hex()),
		zap.String("category", string(category)))
	return complaint, nil
}

// Assign hands a complaint to a worker and moves it to In Progress.
func (s *ComplaintService) Assign(ctx context.Context, identity models.Identity, complaintID, workerID string) (*models.Complaint, error) {
	id, err := parseID(complaintID, "complaint")
	if err != nil {
		return nil, err
	}
	if workerID == "" {
		return nil, apperrors.Validation("workerId is required", map[string]string{"workerId": "is required"})
	}
	wid, err := parseID(workerID, "worker")
	if err != nil {
		return nil, err
	}

	complaint, err := s.findComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	if complaint.Status == models.StatusResolved {
		return nil, apperrors.Conflict("Complaint is already resolved")
	}

	worker, err := s.users.FindByID(ctx, wid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Worker")
		}
		return nil, apperrors.Storage("Failed to load worker", err)
	}
	if worker.Role != models.RoleWorker {
		return nil, apperrors.NotFound("Worker")
	}

	updated, err := s.complaints.Assign(ctx, id, wid)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("Complaint")
		case errors.Is(err, repository.ErrPrecondition):
			return nil, apperrors.Conflict("Complaint is already resolved")
		}
		return nil, apperrors.Storage("Failed to assign complaint", err)
	}

	s.changed(ctx)
	metrics.ComplaintStatusChanged(string(models.StatusInProgress))
	s.events.Publish(realtime.EventComplaintAssigned, updated)
	s.log.Info("Complaint assigned",
		zap.String("complaintId", id.Hex()),
		zap.String("workerId", wid.Hex()),
		zap.String("adminId", identity.UserID.Hex()))
	return updated, nil
}

// RecordProgress lets a worker move a complaint forward and logs the update.
// An unassigned complaint is claimed by the calling worker.
func (s *ComplaintService) RecordProgress(ctx context.Context, identity models.Identity, complaintID string, input ProgressInput, photo *storage.Photo) (*models.Complaint, error) {
	id, err := parseID(complaintID, "complaint")
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	status, ok := models.ParseStatus(input.Status)
	if !ok || !models.IsWorkerStatus(status) {
		return nil, apperrors.Validation("Invalid status", map[string]string{"status": "must be one of: In Progress, Resolved"})
	}

	complaint, err := s.findComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	if complaint.Status == models.StatusResolved {
		return nil, apperrors.Conflict("Complaint is already resolved")
	}
	if complaint.AssignedTo != nil && *complaint.AssignedTo != identity.UserID {
		return nil, apperrors.Forbidden("Complaint is assigned to another worker")
	}
	if complaint.AssignedTo == nil {
		// Tokens outlive removed accounts; only a current worker may claim.
		if err := s.requireWorker(ctx, identity.UserID); err != nil {
			return nil, err
		}
	}

	var photoURL string
	if photo != nil && photo.Size > 0 {
		photoURL, err = s.photos.Upload(ctx, *photo)
		if err != nil {
			return nil, apperrors.Upstream("Failed to upload photo", err)
		}
	}

	var updated *models.Complaint
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.complaints.SetStatus(ctx, id, status, identity.UserID)
		if err != nil {
			return err
		}
		return s.updates.Append(ctx, &models.WorkerUpdate{
			ComplaintID: id,
			WorkerID:    identity.UserID,
			UpdateText:  input.UpdateText,
			PhotoURL:    photoURL,
			Status:      status,
			Timestamp:   s.now().UTC(),
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("Complaint")
		case errors.Is(err, repository.ErrPrecondition):
			return nil, s.progressRejected(ctx, id)
		}
		return nil, apperrors.Storage("Failed to update complaint", err)
	}

	s.changed(ctx)
	metrics.ComplaintStatusChanged(string(status))
	s.events.Publish(realtime.EventComplaintStatus, updated)
	s.log.Info("Complaint status updated",
		zap.String("complaintId", id.Hex()),
		zap.String("workerId", identity.UserID.Hex()),
		zap.String("status", string(status)))

	if status == models.StatusResolved {
		s.notifyResolved(ctx, updated, input.UpdateText)
	}
	return updated, nil
}

func (s *ComplaintService) requireWorker(ctx context.Context, id primitive.ObjectID) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Forbidden("Worker account no longer exists")
		}
		return apperrors.Storage("Failed to load worker", err)
	}
	if user.Role != models.RoleWorker {
		return apperrors.Forbidden("Only workers can take complaints")
	}
	return nil
}

// progressRejected explains a status write that lost a race with another change.
func (s *ComplaintService) progressRejected(ctx context.Context, id primitive.ObjectID) error {
	current, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Complaint")
		}
		return apperrors.Storage("Failed to load complaint", err)
	}
	if current.Status == models.StatusResolved {
		return apperrors.Conflict("Complaint is already resolved")
	}
	return apperrors.Forbidden("Complaint is assigned to another worker")
}

func (s *ComplaintService) notifyResolved(ctx context.Context, complaint *models.Complaint, note string) {
	citizen, err := s.users.FindByID(ctx, complaint.CreatedBy)
	if err != nil {
		s.log.Warn("Resolution notice skipped, creator not found",
			zap.String("complaintId", complaint.ID.Hex()), zap.Error(err))
		return
	}
	if err := s.notifier.ComplaintResolved(ctx, citizen, complaint, note); err != nil {
		s.log.Error("Failed to send resolution notice",
			zap.String("complaintId", complaint.ID.Hex()), zap.Error(err))
	}
}

// Upvote records the citizen's support. Each citizen counts once.
func (s *ComplaintService) Upvote(ctx context.Context, identity models.Identity, complaintID string) (*models.Complaint, error) {
	id, err := parseID(complaintID, "complaint")
	if err != nil {
		return nil, err
	}

	complaint, added, err := s.complaints.AddUpvote(ctx, id, identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Complaint")
		}
		return nil, apperrors.Storage("Failed to upvote complaint", err)
	}
	if !added {
		return nil, apperrors.Conflict("You have already upvoted this complaint")
	}

	metrics.UpvoteRecorded()
	s.events.Publish(realtime.EventComplaintUpvoted, map[string]interface{}{
		"complaintId": complaint.ID,
		"upvotes":     len(complaint.Upvotes),
	})
	return complaint, nil
}

func (s *ComplaintService) ListByCreator(ctx context.Context, identity models.Identity) ([]models.ComplaintView, error) {
	return s.list(ctx, repository.ComplaintFilter{CreatedBy: &identity.UserID})
}

func (s *ComplaintService) ListByAssignee(ctx context.Context, identity models.Identity) ([]models.ComplaintView, error) {
	return s.list(ctx, repository.ComplaintFilter{AssignedTo: &identity.UserID})
}

func (s *ComplaintService) ListPublic(ctx context.Context) ([]models.ComplaintView, error) {
	return s.list(ctx, repository.ComplaintFilter{})
}

func (s *ComplaintService) list(ctx context.Context, filter repository.ComplaintFilter) ([]models.ComplaintView, error) {
	complaints, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Storage("Failed to fetch complaints", err)
	}
	return complaints, nil
}

func (s *ComplaintService) Get(ctx context.Context, complaintID string) (*models.ComplaintView, error) {
	id, err := parseID(complaintID, "complaint")
	if err != nil {
		return nil, err
	}
	view, err := s.complaints.FindView(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Complaint")
		}
		return nil, apperrors.Storage("Failed to fetch complaint", err)
	}
	return view, nil
}

// Counts returns the public solved/pending summary, served from cache when
// possible. Cache failures fall through to the database. A mutation that
// invalidates between the count and the Set leaves the cached value stale
// until COUNTS_CACHE_TTL expires.
func (s *ComplaintService) Counts(ctx context.Context) (models.StatusCounts, error) {
	if s.counts != nil {
		cached, err := s.counts.Get(ctx)
		if err != nil {
			s.log.Warn("Counts cache read failed", zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	counts, err := s.complaints.CountByStatus(ctx)
	if err != nil {
		return models.StatusCounts{}, apperrors.Storage("Failed to count complaints", err)
	}

	if s.counts != nil {
		if err := s.counts.Set(ctx, counts); err != nil {
			s.log.Warn("Counts cache write failed", zap.Error(err))
		}
	}
	return counts, nil
}

func (s *ComplaintService) CountsByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	counts, err := s.complaints.CountByCategory(ctx)
	if err != nil {
		return nil, apperrors.Storage("Failed to fetch analytics", err)
	}
	return counts, nil
}

func (s *ComplaintService) GroupByVillage(ctx context.Context) ([]models.VillageGroup, error) {
	groups, err := s.complaints.GroupByVillage(ctx)
	if err != nil {
		return nil, apperrors.Storage("Failed to group complaints", err)
	}
	return groups, nil
}

// Timeline lists the worker updates for a complaint, oldest first.
func (s *ComplaintService) Timeline(ctx context.Context, complaintID string) ([]models.WorkerUpdateView, error) {
	id, err := parseID(complaintID, "complaint")
	if err != nil {
		return nil, err
	}
	updates, err := s.updates.ListByComplaint(ctx, id)
	if err != nil {
		return nil, apperrors.Storage("Failed to fetch worker updates", err)
	}
	return updates, nil
}

func (s *ComplaintService) findComplaint(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	complaint, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Complaint")
		}
		return nil, apperrors.Storage("Failed to fetch complaint", err)
	}
	return complaint, nil
}

// changed drops the cached counts after a mutation.
func (s *ComplaintService) changed(ctx context.Context) {
	if s.counts == nil {
		return
	}
	if err := s.counts.Invalidate(ctx); err != nil {
		s.log.Warn("Counts cache invalidation failed", zap.Error(err))
	}
}
