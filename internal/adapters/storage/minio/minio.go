package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"chunk-transfer/internal/config"
	"chunk-transfer/internal/core/domain"
	"chunk-transfer/internal/core/port"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const stagingPrefix = "staging/"

// Adapter is a minio chunk store. Chunks are stored as
// staging/<owner>/<filename>/<start>-<end> objects.
type Adapter struct {
	client *minio.Client
	config config.MinioConfig
	logger *slog.Logger
}

var _ port.ChunkStore = (*Adapter)(nil)

// NewAdapter returns Adapter
func NewAdapter(ctx context.Context, cfg config.MinioConfig, logger *slog.Logger) (*Adapter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Adapter{client: client, config: cfg, logger: logger}, nil
}

func uploadPrefix(owner, filename string) string {
	return stagingPrefix + owner + "/" + filename + "/"
}

func chunkKey(owner, filename string, r domain.ByteRange) string {
	return uploadPrefix(owner, filename) + r.Key()
}

// Put uploads a chunk payload, replacing any previous object for the range
func (a *Adapter) Put(ctx context.Context, owner, filename string, r domain.ByteRange, payload []byte) error {
	_, err := a.client.PutObject(ctx, a.config.BucketName, chunkKey(owner, filename, r), bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to put chunk: %w", err)
	}
	return nil
}

// Get downloads a chunk payload
func (a *Adapter) Get(ctx context.Context, owner, filename string, r domain.ByteRange) ([]byte, error) {
	key := chunkKey(owner, filename, r)
	object, err := a.client.GetObject(ctx, a.config.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, a.mapError(err, key)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, a.mapError(err, key)
	}
	return data, nil
}

// Delete removes one chunk object
func (a *Adapter) Delete(ctx context.Context, owner, filename string, r domain.ByteRange) error {
	err := a.client.RemoveObject(ctx, a.config.BucketName, chunkKey(owner, filename, r), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete chunk: %w", err)
	}
	return nil
}

// DeleteAll removes every chunk object of an upload
func (a *Adapter) DeleteAll(ctx context.Context, owner, filename string) error {
	objects := a.client.ListObjects(ctx, a.config.BucketName, minio.ListObjectsOptions{
		Prefix:    uploadPrefix(owner, filename),
		Recursive: true,
	})

	var listErr error
	toRemove := make(chan minio.ObjectInfo)
	go func() {
		defer close(toRemove)
		for object := range objects {
			if object.Err != nil {
				listErr = object.Err
				return
			}
			toRemove <- object
		}
	}()

	var removeErr error
	for result := range a.client.RemoveObjects(ctx, a.config.BucketName, toRemove, minio.RemoveObjectsOptions{}) {
		if result.Err != nil && removeErr == nil {
			removeErr = fmt.Errorf("failed to delete chunk %s: %w", result.ObjectName, result.Err)
		}
	}
	if removeErr != nil {
		return removeErr
	}
	if listErr != nil {
		return fmt.Errorf("failed to list chunks: %w", listErr)
	}

	a.logger.Debug("staged chunks deleted",
		slog.String("owner", owner),
		slog.String("filename", filename),
		slog.String("bucket", a.config.BucketName))

	return nil
}

// Uploads lists every (owner, filename) that has staged objects
func (a *Adapter) Uploads(ctx context.Context) ([]domain.UploadKey, error) {
	objects := a.client.ListObjects(ctx, a.config.BucketName, minio.ListObjectsOptions{
		Prefix:    stagingPrefix,
		Recursive: true,
	})

	seen := make(map[domain.UploadKey]struct{})
	var keys []domain.UploadKey
	for object := range objects {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list chunks: %w", object.Err)
		}
		parts := strings.Split(strings.TrimPrefix(object.Key, stagingPrefix), "/")
		if len(parts) != 3 {
			a.logger.Warn("unexpected object in staging", slog.String("key", object.Key))
			continue
		}
		key := domain.UploadKey{Owner: parts[0], Filename: parts[1]}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys, nil
}

func (a *Adapter) mapError(err error, key string) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", domain.ErrChunkMissing, path.Base(key))
	}
	return fmt.Errorf("failed to get chunk: %w", err)
}
