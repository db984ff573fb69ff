package object

import (
	"context"
	"fmt"

	"stream_server/server/common/config"
)

// New builds the gateway selected by STORAGE_DRIVER.
func New(ctx context.Context, cfg config.Storage) (Gateway, error) {
	switch cfg.Driver {
	case backendMinio:
		client, err := NewClient(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.UseSSL)
		if err != nil {
			return nil, fmt.Errorf("initialize minio: %w", err)
		}
		if cfg.EnsureBucket {
			if err := EnsureBucket(ctx, client, cfg.Bucket); err != nil {
				return nil, fmt.Errorf("ensure bucket: %w", err)
			}
		}
		return NewMinioGateway(client, cfg.Bucket), nil
	case backendS3:
		gw, err := NewS3Gateway(ctx, S3Options{
			Endpoint:     cfg.Endpoint,
			Region:       cfg.Region,
			Bucket:       cfg.Bucket,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			UseSSL:       cfg.UseSSL,
			UsePathStyle: cfg.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize s3: %w", err)
		}
		return gw, nil
	case backendMemory:
		return NewMemoryGateway(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
