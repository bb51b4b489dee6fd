package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/metrics"
	"fixmyarea-be/models"
	"fixmyarea-be/realtime"
	"fixmyarea-be/repository"
)

type UserDeps struct {
	Users      repository.UserRepository
	Complaints repository.ComplaintRepository
	Tx         repository.TxRunner
	Counts     repository.CountsCache
	Events     Publisher
}

// RemovalPolicy controls worker removal.
type RemovalPolicy struct {
	Key            string
	ReopenResolved bool
}

type UserService struct {
	users      repository.UserRepository
	complaints repository.ComplaintRepository
	tx         repository.TxRunner
	counts     repository.CountsCache
	events     Publisher
	policy     RemovalPolicy
	log        *zap.Logger
}

func NewUserService(deps UserDeps, policy RemovalPolicy, log *zap.Logger) *UserService {
	s := &UserService{
		users:      deps.Users,
		complaints: deps.Complaints,
		tx:         deps.Tx,
		counts:     deps.Counts,
		events:     deps.Events,
		policy:     policy,
		log:        log,
	}
	if s.tx == nil {
		s.tx = repository.SequentialTxRunner{}
	}
	if s.events == nil {
		s.events = nopPublisher{}
	}
	return s
}

func (s *UserService) ListWorkers(ctx context.Context) ([]models.User, error) {
	workers, err := s.users.ListByRole(ctx, models.RoleWorker)
	if err != nil {
		return nil, apperrors.Storage("Failed to fetch workers", err)
	}
	return workers, nil
}

func (s *UserService) WorkersByVillage(ctx context.Context) ([]models.WorkerVillageGroup, error) {
	groups, err := s.users.GroupWorkersByVillage(ctx)
	if err != nil {
		return nil, apperrors.Storage("Failed to group workers", err)
	}
	return groups, nil
}

// RemoveResult reports what a worker removal changed.
type RemoveResult struct {
	WorkerID           string `json:"workerId"`
	ReleasedComplaints int64  `json:"releasedComplaints"`
}

// RemoveWorker deletes a worker account after releasing every complaint
// assigned to it. Released complaints go back to Open with no assignee.
func (s *UserService) RemoveWorker(ctx context.Context, identity models.Identity, workerID, removalKey string) (*RemoveResult, error) {
	if !secretsEqual(s.policy.Key, removalKey) {
		return nil, apperrors.InvalidKey("Invalid removal key")
	}
	id, err := parseID(workerID, "worker")
	if err != nil {
		return nil, err
	}

	worker, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Worker")
		}
		return nil, apperrors.Storage("Failed to load worker", err)
	}
	if worker.Role != models.RoleWorker {
		return nil, apperrors.NotFound("Worker")
	}

	var released int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Release first: a failed delete then leaves a worker with nothing assigned.
		n, err := s.complaints.ReleaseAssignments(ctx, id, s.policy.ReopenResolved)
		if err != nil {
			return err
		}
		released = n
		return s.users.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Worker")
		}
		return nil, apperrors.Storage("Failed to remove worker", err)
	}

	if s.counts != nil {
		if err := s.counts.Invalidate(ctx); err != nil {
			s.log.Warn("Counts cache invalidation failed", zap.Error(err))
		}
	}
	metrics.WorkerRemoved()
	s.events.Publish(realtime.EventWorkerRemoved, map[string]interface{}{
		"workerId":           id,
		"releasedComplaints": released,
	})
	s.log.Info("Worker removed",
		zap.String("workerId", id.Hex()),
		zap.String("adminId", identity.UserID.Hex()),
		zap.Int64("released", released))

	return &RemoveResult{WorkerID: id.Hex(), ReleasedComplaints: released}, nil
}
