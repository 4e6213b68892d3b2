// Package minio archives raw CSV uploads and stores exported analysis
// reports in S3-compatible object storage.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/moleculab/sarscope/internal/config"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
)

// Object key layout under the configured bucket.
const (
	rawPrefix    = "raw/"
	exportPrefix = "exports/"
)

// ObjectStorage stores raw dataset files and exported reports.
type ObjectStorage struct {
	client        *minio.Client
	bucket        string
	presignExpiry time.Duration
	logger        logging.Logger
}

// NewObjectStorage connects to MinIO and ensures the bucket exists.
func NewObjectStorage(ctx context.Context, cfg config.MinIOConfig, logger logging.Logger) (*ObjectStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "creating minio client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "checking bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "creating bucket")
		}
		logger.Info("bucket created", logging.String("bucket", cfg.Bucket))
	}

	return &ObjectStorage{
		client:        client,
		bucket:        cfg.Bucket,
		presignExpiry: cfg.PresignExpiry,
		logger:        logger.Named("object-storage"),
	}, nil
}

// ArchiveRawCSV stores the original CSV bytes of a dataset and returns the
// object key.
func (s *ObjectStorage) ArchiveRawCSV(ctx context.Context, datasetID string, data []byte) (string, error) {
	key := fmt.Sprintf("%s%s.csv", rawPrefix, datasetID)
	if err := s.put(ctx, key, data, "text/csv"); err != nil {
		return "", err
	}
	return key, nil
}

// PutExport stores an exported report (summary or correlation CSV) for a
// dataset and returns the object key.
func (s *ObjectStorage) PutExport(ctx context.Context, datasetID, name string, data []byte) (string, error) {
	key := fmt.Sprintf("%s%s/%s", exportPrefix, datasetID, name)
	if err := s.put(ctx, key, data, "text/csv"); err != nil {
		return "", err
	}
	return key, nil
}

func (s *ObjectStorage) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "storing object").
			WithDetail("key: " + key)
	}
	s.logger.Debug("object stored",
		logging.String("key", key),
		logging.Int("bytes", len(data)))
	return nil
}

// Get retrieves an object's full content.
func (s *ObjectStorage) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "opening object").
			WithDetail("key: " + key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "reading object").
			WithDetail("key: " + key)
	}
	return data, nil
}

// PresignedGetURL returns a time-limited download URL for an object.
func (s *ObjectStorage) PresignedGetURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignExpiry, url.Values{})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeStorageError, "presigning object").
			WithDetail("key: " + key)
	}
	return u.String(), nil
}

// DeleteDatasetObjects removes the raw archive and all exports of a dataset.
func (s *ObjectStorage) DeleteDatasetObjects(ctx context.Context, datasetID string) error {
	keys := []string{fmt.Sprintf("%s%s.csv", rawPrefix, datasetID)}

	prefix := exportPrefix + datasetID + "/"
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return apperrors.Wrap(obj.Err, apperrors.ErrCodeStorageError, "listing exports")
		}
		keys = append(keys, obj.Key)
	}

	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "removing object").
				WithDetail("key: " + key)
		}
	}
	return nil
}
