package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerStore stops calling the underlying store after repeated upload
// failures, so requests fail fast while the store is down. Nothing is retried.
type BreakerStore struct {
	next PhotoStore
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerStore(next PhotoStore, log *zap.Logger) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        "photo-store",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not a store failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &BreakerStore{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (s *BreakerStore) Upload(ctx context.Context, photo Photo) (string, error) {
	url, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.Upload(ctx, photo)
	})
	if err != nil {
		return "", err
	}
	return url.(string), nil
}

// Open is not guarded: downloads should keep working while uploads trip.
func (s *BreakerStore) Open(ctx context.Context, id string) (*Object, error) {
	return s.next.Open(ctx, id)
}

// State reports the breaker state for health checks.
func (s *BreakerStore) State() string {
	return s.cb.State().String()
}
