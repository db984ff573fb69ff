package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream_server/server/common/config"
)

func TestMemoryGatewayRangeReads(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()
	require.NoError(t, gw.Put(ctx, "videos/a.mp4", bytes.NewReader([]byte("0123456789")), 10, "video/mp4"))

	meta, err := gw.Head(ctx, "videos/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, ObjectMeta{Size: 10, ContentType: "video/mp4"}, meta)

	rc, err := gw.GetRange(ctx, "videos/a.mp4", 2, 5)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "2345", string(data))
}

func TestMemoryGatewayErrorsAreStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()

	_, err := gw.Head(ctx, "missing")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	gw.Store("k", []byte("abc"), "")
	gw.FailOn("get_range", errors.New("connection reset"))
	_, err = gw.GetRange(ctx, "k", 0, 1)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	gw.FailOn("get_range", nil)
	_, err = gw.GetRange(ctx, "k", 0, 1)
	assert.NoError(t, err)

	gw.FailOn("remove", errors.New("denied"))
	assert.ErrorIs(t, gw.Remove(ctx, "k"), ErrStorageUnavailable)
	assert.True(t, gw.Has("k"))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("socket closed") }
func (failingReader) Close() error             { return nil }

func TestRangeReaderWrapsMidStreamErrors(t *testing.T) {
	r := &rangeReader{ReadCloser: failingReader{}, key: "k"}
	_, err := r.Read(make([]byte, 4))
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	r = &rangeReader{ReadCloser: io.NopCloser(bytes.NewReader(nil)), key: "k"}
	_, err = r.Read(make([]byte, 4))
	assert.ErrorIs(t, err, io.EOF)
	assert.NotErrorIs(t, err, ErrStorageUnavailable)
}

func TestS3EndpointScheme(t *testing.T) {
	assert.Equal(t, "", s3Endpoint("", true))
	assert.Equal(t, "https://minio.local:9000", s3Endpoint("minio.local:9000/", true))
	assert.Equal(t, "http://minio.local:9000", s3Endpoint("minio.local:9000", false))
	assert.Equal(t, "http://already.set", s3Endpoint("http://already.set", true))
}

func TestNewSelectsDriver(t *testing.T) {
	gw, err := New(context.Background(), config.Storage{Driver: "memory", Bucket: "b"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryGateway{}, gw)

	_, err = New(context.Background(), config.Storage{Driver: "ftp"})
	assert.Error(t, err)
}

func TestS3CauseUsesServiceErrorCode(t *testing.T) {
	err := s3Cause(fmt.Errorf("operation error S3: HeadObject: %w", &smithy.GenericAPIError{Code: "NotFound", Message: "no such key"}))
	assert.EqualError(t, err, "NotFound: no such key")

	plain := errors.New("dial tcp: refused")
	assert.Equal(t, plain, s3Cause(plain))
}

func TestMissingKeysAreObjectNotFound(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()

	_, err := gw.Head(ctx, "thumbnails/missing.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	gw.Store("thumbnails/a.jpg", []byte("abc"), "image/jpeg")
	gw.FailOn("head", errors.New("timeout"))
	_, err = gw.Head(ctx, "thumbnails/a.jpg")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
}

func TestBackendNotFoundClassification(t *testing.T) {
	wrapped := func(code string) error {
		return fmt.Errorf("operation error S3: GetObject: %w", &smithy.GenericAPIError{Code: code, Message: "x"})
	}
	assert.ErrorIs(t, s3Failure("head", "k", wrapped("NotFound")), ErrObjectNotFound)
	assert.ErrorIs(t, s3Failure("get_range", "k", wrapped("NoSuchKey")), ErrObjectNotFound)
	err := s3Failure("head", "k", wrapped("AccessDenied"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrObjectNotFound)

	assert.ErrorIs(t, minioFailure("head", "k", minio.ErrorResponse{Code: "NoSuchKey"}), ErrObjectNotFound)
	err = minioFailure("head", "k", errors.New("dial tcp: refused"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
}
