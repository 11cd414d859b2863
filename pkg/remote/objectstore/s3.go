package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"waveform-hq/archivist/pkg/remote"
	"waveform-hq/archivist/pkg/sds"
)

// checksumMetadataKey is the object metadata key carrying the file
// checksum. S3 lowercases metadata keys on the wire.
const checksumMetadataKey = "checksum"

// Config configures the S3 client.
type Config struct {
	// Endpoint is the S3-compatible endpoint URL. Empty uses AWS.
	Endpoint string

	// Region is the bucket region.
	Region string

	// Bucket holds the archive objects.
	Bucket string

	// Prefix is prepended to every object key. Optional.
	Prefix string

	// AccessKey and SecretKey are static credentials. When empty the
	// default AWS credential chain applies.
	AccessKey string
	SecretKey string

	// ForcePathStyle addresses the bucket in the URL path instead of
	// the hostname. Required by most non-AWS endpoints.
	ForcePathStyle bool

	// Limiter bounds the outbound request rate. Optional.
	Limiter *remote.Limiter
}

// Store implements remote.ObjectStore backed by S3.
type Store struct {
	client  *s3.Client
	cfg     Config
	limiter *remote.Limiter
	logger  *slog.Logger
}

// New creates a Store for the configured bucket.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("object store bucket cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &Store{
		client:  client,
		cfg:     cfg,
		limiter: cfg.Limiter,
		logger:  logger.With("component", "objectstore"),
	}, nil
}

// Key returns the object key for a file: the archive-relative path under
// the configured prefix.
func (s *Store) Key(file *sds.File) string {
	return path.Join(s.cfg.Prefix,
		fmt.Sprintf("%04d", file.Date.Year()),
		file.Stream.Network,
		file.Stream.Station,
		fmt.Sprintf("%s.%s", file.Stream.Channel, file.Quality),
		file.Filename())
}

func (s *Store) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return &remote.RequestError{Service: "objectstore", Cause: err}
	}
	return nil
}

// Exists reports whether the object for file is present.
func (s *Store) Exists(ctx context.Context, file *sds.File) (bool, error) {
	_, err := s.head(ctx, file)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Checksum returns the checksum recorded in the object's metadata.
func (s *Store) Checksum(ctx context.Context, file *sds.File) (string, error) {
	head, err := s.head(ctx, file)
	if err != nil {
		return "", err
	}
	sum, ok := head.Metadata[checksumMetadataKey]
	if !ok {
		return "", &remote.RequestError{
			Service: "objectstore",
			Cause:   fmt.Errorf("object %s has no checksum metadata", s.Key(file)),
		}
	}
	return sum, nil
}

func (s *Store) head(ctx context.Context, file *sds.File) (*s3.HeadObjectOutput, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.Key(file)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("objectstore %s: %w", s.Key(file), remote.ErrNotFound)
		}
		return nil, &remote.RequestError{Service: "objectstore", Cause: err}
	}
	return head, nil
}

// Put uploads the file with its checksum as object metadata. When the
// stored object already carries the same checksum the upload is skipped.
func (s *Store) Put(ctx context.Context, file *sds.File) error {
	sum, err := file.Checksum()
	if err != nil {
		return &remote.RequestError{Service: "objectstore", Cause: err}
	}

	stored, err := s.Checksum(ctx, file)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		return err
	}
	if err == nil && stored == sum {
		s.logger.Debug("object already current, skipping upload", "key", s.Key(file))
		return nil
	}

	handle, err := os.Open(file.Path())
	if err != nil {
		return &remote.RequestError{Service: "objectstore", Cause: err}
	}
	defer handle.Close()

	if err := s.wait(ctx); err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(s.cfg.Bucket),
		Key:      aws.String(s.Key(file)),
		Body:     handle,
		Metadata: map[string]string{checksumMetadataKey: sum},
	})
	if err != nil {
		return &remote.RequestError{Service: "objectstore", Cause: err}
	}

	s.logger.Info("object uploaded", "key", s.Key(file), "checksum", sum)
	return nil
}

// Delete removes the object. S3 deletes are idempotent, so an absent
// object is a no-op success.
func (s *Store) Delete(ctx context.Context, file *sds.File) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.Key(file)),
	})
	if err != nil {
		return &remote.RequestError{Service: "objectstore", Cause: err}
	}

	s.logger.Info("object deleted", "key", s.Key(file))
	return nil
}
