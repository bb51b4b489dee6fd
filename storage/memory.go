package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps photos in memory. It backs tests and local runs without MongoDB.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memoryObject
}

type memoryObject struct {
	contentType string
	data        []byte
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: baseURL, objects: map[string]memoryObject{}}
}

func (s *MemoryStore) Upload(ctx context.Context, photo Photo) (string, error) {
	data, err := io.ReadAll(photo.Body)
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	id := primitive.NewObjectID().Hex()

	s.mu.Lock()
	s.objects[id] = memoryObject{contentType: photo.ContentType, data: data}
	s.mu.Unlock()

	return URLFor(s.baseURL, id), nil
}

func (s *MemoryStore) Open(ctx context.Context, id string) (*Object, error) {
	s.mu.RLock()
	obj, ok := s.objects[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &Object{
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
	}, nil
}

// Len reports how many photos are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
