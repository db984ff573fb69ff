package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

const backendS3 = "s3"

type S3Options struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
}

type S3Gateway struct {
	client *s3.Client
	bucket string
}

func NewS3Gateway(ctx context.Context, opts S3Options) (*S3Gateway, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := s3Endpoint(opts.Endpoint, opts.UseSSL)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	return &S3Gateway{client: client, bucket: opts.Bucket}, nil
}

func s3Endpoint(endpoint string, useSSL bool) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" || strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// s3Cause shortens service errors to their code and message.
func s3Cause(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err
}

func s3Failure(op, key string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return notFound(op, key, s3Cause(err))
		}
	}
	return unavailable(op, key, s3Cause(err))
}

func (g *S3Gateway) Head(ctx context.Context, key string) (meta ObjectMeta, err error) {
	defer func(startedAt time.Time) { observe(backendS3, "head", startedAt, err) }(time.Now())
	out, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ObjectMeta{}, s3Failure("head", key, err)
	}
	return ObjectMeta{Size: aws.ToInt64(out.ContentLength), ContentType: aws.ToString(out.ContentType)}, nil
}

func (g *S3Gateway) GetRange(ctx context.Context, key string, start, end int64) (rc io.ReadCloser, err error) {
	defer func(startedAt time.Time) { observe(backendS3, "get_range", startedAt, err) }(time.Now())
	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		return nil, s3Failure("get_range", key, err)
	}
	return &rangeReader{ReadCloser: out.Body, key: key}, nil
}

func (g *S3Gateway) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (err error) {
	defer func(startedAt time.Time) { observe(backendS3, "put", startedAt, err) }(time.Now())
	input := &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err = g.client.PutObject(ctx, input); err != nil {
		return unavailable("put", key, s3Cause(err))
	}
	return nil
}

func (g *S3Gateway) Remove(ctx context.Context, key string) (err error) {
	defer func(startedAt time.Time) { observe(backendS3, "remove", startedAt, err) }(time.Now())
	_, err = g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return unavailable("remove", key, s3Cause(err))
	}
	return nil
}

func (g *S3Gateway) Ping(ctx context.Context) (err error) {
	defer func(startedAt time.Time) { observe(backendS3, "ping", startedAt, err) }(time.Now())
	if _, err = g.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(g.bucket)}); err != nil {
		return unavailable("ping", "", s3Cause(err))
	}
	return nil
}
