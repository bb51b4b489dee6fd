package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const photoBucket = "photos"

// GridFSStore keeps photos in a GridFS bucket of the application database
// and serves them back through the API's /files route.
type GridFSStore struct {
	bucket  *gridfs.Bucket
	baseURL string
}

func NewGridFSStore(db *mongo.Database, publicBaseURL string) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(photoBucket))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFSStore{bucket: bucket, baseURL: publicBaseURL}, nil
}

func (s *GridFSStore) Upload(ctx context.Context, photo Photo) (string, error) {
	id := primitive.NewObjectID()
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": photo.ContentType})

	stream, err := s.bucket.OpenUploadStreamWithID(id, photo.Filename, opts)
	if err != nil {
		return "", fmt.Errorf("open upload stream: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}

	if _, err := io.Copy(stream, photo.Body); err != nil {
		_ = stream.Abort()
		return "", fmt.Errorf("write photo: %w", err)
	}
	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("close upload stream: %w", err)
	}
	return URLFor(s.baseURL, id.Hex()), nil
}

func (s *GridFSStore) Open(ctx context.Context, id string) (*Object, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	stream, err := s.bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open download stream: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	file := stream.GetFile()
	contentType := "application/octet-stream"
	var meta struct {
		ContentType string `bson:"contentType"`
	}
	if file.Metadata != nil && bson.Unmarshal(file.Metadata, &meta) == nil && meta.ContentType != "" {
		contentType = meta.ContentType
	}

	return &Object{ContentType: contentType, Size: file.Length, Body: stream}, nil
}

// URLFor builds the public URL of a stored photo.
func URLFor(baseURL, id string) string {
	return baseURL + "/api/files/" + id
}
