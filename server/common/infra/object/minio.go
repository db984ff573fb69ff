package object

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const backendMinio = "minio"

func NewClient(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	return minio.New(strings.TrimRight(endpoint, "/"), &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
}

func EnsureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}

type MinioGateway struct {
	client *minio.Client
	bucket string
}

func NewMinioGateway(client *minio.Client, bucket string) *MinioGateway {
	return &MinioGateway{client: client, bucket: bucket}
}

func minioFailure(op, key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return notFound(op, key, err)
	}
	return unavailable(op, key, err)
}

func (g *MinioGateway) Head(ctx context.Context, key string) (meta ObjectMeta, err error) {
	defer func(startedAt time.Time) { observe(backendMinio, "head", startedAt, err) }(time.Now())
	info, err := g.client.StatObject(ctx, g.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectMeta{}, minioFailure("head", key, err)
	}
	return ObjectMeta{Size: info.Size, ContentType: info.ContentType}, nil
}

func (g *MinioGateway) GetRange(ctx context.Context, key string, start, end int64) (rc io.ReadCloser, err error) {
	defer func(startedAt time.Time) { observe(backendMinio, "get_range", startedAt, err) }(time.Now())
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(start, end); err != nil {
		return nil, unavailable("get_range", key, err)
	}
	obj, err := g.client.GetObject(ctx, g.bucket, key, opts)
	if err != nil {
		return nil, minioFailure("get_range", key, err)
	}
	// Stat issues the ranged request so a missing object fails here and not
	// after the response headers are written.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, minioFailure("get_range", key, err)
	}
	return &rangeReader{ReadCloser: obj, key: key}, nil
}

func (g *MinioGateway) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (err error) {
	defer func(startedAt time.Time) { observe(backendMinio, "put", startedAt, err) }(time.Now())
	_, err = g.client.PutObject(ctx, g.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return unavailable("put", key, err)
	}
	return nil
}

func (g *MinioGateway) Remove(ctx context.Context, key string) (err error) {
	defer func(startedAt time.Time) { observe(backendMinio, "remove", startedAt, err) }(time.Now())
	if err = g.client.RemoveObject(ctx, g.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return unavailable("remove", key, err)
	}
	return nil
}

func (g *MinioGateway) Ping(ctx context.Context) (err error) {
	defer func(startedAt time.Time) { observe(backendMinio, "ping", startedAt, err) }(time.Now())
	exists, err := g.client.BucketExists(ctx, g.bucket)
	if err != nil {
		return unavailable("ping", "", err)
	}
	if !exists {
		return unavailable("ping", "", fmt.Errorf("bucket %s does not exist", g.bucket))
	}
	return nil
}
