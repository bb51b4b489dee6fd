package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fixmyarea-be/apperrors"
	"fixmyarea-be/mocks"
	"fixmyarea-be/models"
	"fixmyarea-be/storage"
)

type fixture struct {
	users      *mocks.MockUserRepository
	complaints *mocks.MockComplaintRepository
	updates    *mocks.MockWorkerUpdateRepository
	photos     *storage.MemoryStore
	tx         *mocks.MockTxRunner
	counts     *mocks.MockCountsCache
	events     *mocks.MockPublisher
	notifier   *mocks.MockNotifier

	complaintSvc *ComplaintService
	userSvc      *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    mocks.NewMockUserRepository(),
		photos:   storage.NewMemoryStore("http://localhost:8080"),
		tx:       &mocks.MockTxRunner{},
		counts:   mocks.NewMockCountsCache(),
		events:   &mocks.MockPublisher{},
		notifier: &mocks.MockNotifier{},
	}
	f.complaints = mocks.NewMockComplaintRepository(f.users)
	f.updates = mocks.NewMockWorkerUpdateRepository(f.users)

	f.complaintSvc = NewComplaintService(ComplaintDeps{
		Complaints: f.complaints,
		Updates:    f.updates,
		Users:      f.users,
		Photos:     f.photos,
		Tx:         f.tx,
		Counts:     f.counts,
		Events:     f.events,
		Notifier:   f.notifier,
	}, zap.NewNop())
	f.userSvc = NewUserService(UserDeps{
		Users:      f.users,
		Complaints: f.complaints,
		Tx:         f.tx,
		Counts:     f.counts,
		Events:     f.events,
	}, RemovalPolicy{Key: "remove-me", ReopenResolved: true}, zap.NewNop())
	return f
}

func (f *fixture) identity(role models.Role, name string) models.Identity {
	u := f.users.Put(models.User{Name: name, Phone: primitive.NewObjectID().Hex(), Role: role, Email: strings.ToLower(name) + "@example.com"})
	return models.Identity{UserID: u.ID, Role: u.Role, Name: u.Name}
}

func (f *fixture) createComplaint(t *testing.T, citizen models.Identity, village string) *models.Complaint {
	t.Helper()
	c, err := f.complaintSvc.Create(context.Background(), citizen, validComplaint(village), photo("img"))
	if err != nil {
		t.Fatalf("create complaint: %v", err)
	}
	return c
}

func validComplaint(village string) CreateComplaintInput {
	lat, lng := 12.97, 77.59
	return CreateComplaintInput{
		Title:    "Pothole on Main Road",
		Category: string(models.Roads),
		Lat:      &lat,
		Lng:      &lng,
		Address:  "Main Road",
		Village:  village,
	}
}

func photo(content string) *storage.Photo {
	return &storage.Photo{
		Filename:    "photo.jpg",
		ContentType: "image/jpeg",
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
	}
}

func assertKind(t *testing.T, err error, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}

func assertHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	if got := apperrors.From(err).HTTPStatus; got != status {
		t.Errorf("expected HTTP %d, got %d", status, got)
	}
}
