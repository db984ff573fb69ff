package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"stream_server/server/common/metrics"
)

// ErrStorageUnavailable is the error kind every gateway failure carries.
// Callers never see backend specific errors.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrObjectNotFound marks a failure caused by a missing key. It still
// matches ErrStorageUnavailable.
var ErrObjectNotFound = fmt.Errorf("%w: object not found", ErrStorageUnavailable)

type ObjectMeta struct {
	Size        int64
	ContentType string
}

// Gateway reads and manages objects in one bucket. GetRange returns a lazy
// reader over the inclusive byte window [start, end].
type Gateway interface {
	Head(ctx context.Context, key string) (ObjectMeta, error)
	GetRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error)
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

func unavailable(op, key string, err error) error {
	if key == "" {
		return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s %s: %v", ErrStorageUnavailable, op, key, err)
}

func notFound(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrObjectNotFound, op, key, err)
}

func observe(backend, op string, startedAt time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordStorageOperation(backend, op, status, time.Since(startedAt).Seconds())
}

// rangeReader reports mid-stream backend failures as ErrStorageUnavailable.
type rangeReader struct {
	io.ReadCloser
	key string
}

func (r *rangeReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, unavailable("read", r.key, err)
	}
	return n, err
}
