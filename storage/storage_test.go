package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type failingStore struct {
	calls int
}

func (f *failingStore) Upload(ctx context.Context, photo Photo) (string, error) {
	f.calls++
	return "", errors.New("store unavailable")
}

func (f *failingStore) Open(ctx context.Context, id string) (*Object, error) {
	return nil, ErrNotFound
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore("http://localhost:8080")

	url, err := store.Upload(context.Background(), Photo{
		Filename:    "pothole.jpg",
		ContentType: "image/jpeg",
		Body:        strings.NewReader("jpeg-bytes"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	prefix := "http://localhost:8080/api/files/"
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("unexpected url %s", url)
	}

	obj, err := store.Open(context.Background(), strings.TrimPrefix(url, prefix))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer obj.Body.Close()

	data, _ := io.ReadAll(obj.Body)
	if string(data) != "jpeg-bytes" || obj.ContentType != "image/jpeg" {
		t.Errorf("unexpected object %q %s", data, obj.ContentType)
	}
}

func TestMemoryStoreMissing(t *testing.T) {
	store := NewMemoryStore("")
	if _, err := store.Open(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	next := &failingStore{}
	store := NewBreakerStore(next, zap.NewNop())

	for i := 0; i < 5; i++ {
		if _, err := store.Upload(context.Background(), Photo{Body: strings.NewReader("x")}); err == nil {
			t.Fatal("expected upload error")
		}
	}
	if store.State() != "open" {
		t.Fatalf("expected breaker to be open, got %s", store.State())
	}

	_, err := store.Upload(context.Background(), Photo{Body: strings.NewReader("x")})
	if err == nil {
		t.Fatal("expected open breaker to reject upload")
	}
	if next.calls != 5 {
		t.Errorf("expected open breaker not to call the store, got %d calls", next.calls)
	}
}
