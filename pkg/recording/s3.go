package recording

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of *s3.Client used by S3Sink.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// S3Sink uploads finalized recordings to an S3 bucket.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	sink := recording.NewS3Sink(s3.NewFromConfig(cfg), "cctv-archive", "recordings/")
type S3Sink struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Sink creates an S3 sink. Keys are prefix + Artifact.Filename().
func NewS3Sink(client S3API, bucket, prefix string) *S3Sink {
	return &S3Sink{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Key returns the object key for a.
func (s *S3Sink) Key(a *Artifact) string {
	return s.prefix + a.Filename()
}

// Save implements Sink.
func (s *S3Sink) Save(ctx context.Context, a *Artifact) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.Key(a)),
		Body:          bytes.NewReader(a.Data),
		ContentLength: aws.Int64(int64(len(a.Data))),
		ContentType:   aws.String(a.ContentType()),
		Metadata: map[string]string{
			"element-id": a.ElementID,
			"media-id":   a.MediaID,
			"codec":      a.Codec.String(),
			"frames":     strconv.Itoa(a.Frames),
			"started":    a.Started.UTC().Format(time.RFC3339),
			"stopped":    a.Stopped.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}
