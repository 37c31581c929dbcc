package objstore

import (
	"context"
	"io"
)

// ObjectStoreMock is a mock implementation of the ObjectStore interface.
type ObjectStoreMock struct {
	PutFunc   func(ctx context.Context, bucket, obj string, reader io.Reader, size int64, contentType string, metadata map[string]string) error
	CloseFunc func() error
}

func (m *ObjectStoreMock) Put(ctx context.Context, bucket, obj string, reader io.Reader, size int64, contentType string, metadata map[string]string) error {
	return m.PutFunc(ctx, bucket, obj, reader, size, contentType, metadata)
}

func (m *ObjectStoreMock) Close() error {
	if m.CloseFunc == nil {
		return nil
	}
	return m.CloseFunc()
}
