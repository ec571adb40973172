package reports

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const archiveContentType = "application/msgpack"

// Uploader is the subset of manager.Uploader used by the archiver
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// ArchiveConfig holds S3 compatible bucket settings
type ArchiveConfig struct {
	Bucket          string
	Region          string
	Endpoint        string // R2 or MinIO endpoint; empty for AWS
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// S3Archiver stores msgpack encoded reports in a bucket
type S3Archiver struct {
	uploader Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewS3Archiver builds an S3 client from cfg and wraps it in an uploader
func NewS3Archiver(ctx context.Context, cfg ArchiveConfig, log zerolog.Logger) (*S3Archiver, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3ArchiverWithUploader(manager.NewUploader(client), cfg.Bucket, cfg.Prefix, log), nil
}

// NewS3ArchiverWithUploader creates an archiver around an existing uploader
func NewS3ArchiverWithUploader(uploader Uploader, bucket, prefix string, log zerolog.Logger) *S3Archiver {
	return &S3Archiver{
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("notifier", "archive").Logger(),
	}
}

func (a *S3Archiver) Name() string { return "archive" }

// Key returns the object key for a report
func (a *S3Archiver) Key(r *Report) string {
	return path.Join(a.prefix, string(r.Kind), r.SessionDate, r.ID+".msgpack")
}

// Notify encodes and uploads the report
func (a *S3Archiver) Notify(ctx context.Context, r *Report) error {
	data, err := EncodeReport(r)
	if err != nil {
		return err
	}

	key := a.Key(r)
	if _, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(archiveContentType),
	}); err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	a.log.Info().Str("report_id", r.ID).Str("key", key).Int("bytes", len(data)).Msg("Report archived")
	return nil
}

// EncodeReport serialises a report for the archive
func EncodeReport(r *Report) ([]byte, error) {
	data, err := msgpack.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}

// DecodeReport reads an archived report
func DecodeReport(data []byte) (*Report, error) {
	var r Report
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}
