// Package storage keeps complaint and proof photos and hands back the URL
// clients use to fetch them.
package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("photo not found")

// Photo is an uploaded image on its way into the store.
type Photo struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Object is a stored photo opened for reading.
type Object struct {
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// PhotoStore is the object store behind complaint photos.
type PhotoStore interface {
	Upload(ctx context.Context, photo Photo) (url string, err error)
	Open(ctx context.Context, id string) (*Object, error)
}
