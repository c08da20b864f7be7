package storage

import (
	"context"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"animeHub/domain"
)

// S3Config configures an S3 compatible avatar bucket.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the prefix objects are served under. Defaults to the endpoint and bucket.
	PublicURL string
}

// S3Store keeps avatars in an S3 compatible bucket, such as MinIO.
type S3Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewS3Store connects to the endpoint and makes sure the bucket exists.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "create s3 client")
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.WithMessagef(err, "check bucket %s", cfg.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.WithMessagef(err, "create bucket %s", cfg.Bucket)
		}
		logrus.WithField("bucket", cfg.Bucket).Info("[storage] created avatar bucket")
	}
	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL(cfg),
	}, nil
}

var _ domain.AvatarStore = &S3Store{}

// Put uploads the avatar and returns its public url.
func (s *S3Store) Put(ctx context.Context, avatar *domain.Avatar) (string, error) {
	key := avatarKey(avatar)
	_, err := s.client.PutObject(ctx, s.bucket, key, avatar.File, avatar.Size, minio.PutObjectOptions{
		ContentType: avatar.ContentType,
	})
	if err != nil {
		return "", errors.WithMessagef(err, "upload %s", key)
	}
	return s.publicURL + "/" + key, nil
}

// Delete removes an uploaded avatar. Urls outside the bucket are ignored.
func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.publicURL+"/")
	if !ok {
		return nil
	}
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	return errors.WithMessagef(err, "remove %s", key)
}

// publicURL returns the configured public prefix or derives one from the endpoint.
func publicURL(cfg S3Config) string {
	if cfg.PublicURL != "" {
		return strings.TrimSuffix(cfg.PublicURL, "/")
	}
	scheme := "http://"
	if cfg.UseSSL {
		scheme = "https://"
	}
	return scheme + cfg.Endpoint + "/" + cfg.Bucket
}
