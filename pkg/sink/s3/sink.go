// Package s3 archives collection runs to an S3 bucket as gzipped
// NDJSON, one object per run under a time-partitioned key.
package s3

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// Sink writes event archives to one bucket/prefix.
type Sink struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// New builds a Sink from a bucket URL. Both virtual-hosted-style
// (bucket.s3.region.amazonaws.com/prefix) and path-style
// (s3.region.amazonaws.com/bucket/prefix) URLs are accepted.
func New(bucketURL string, awsCfg aws.Config) (*Sink, error) {
	bucket, keyPrefix, err := parseBucketURL(bucketURL)
	if err != nil {
		return nil, err
	}
	return &Sink{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    bucket,
		keyPrefix: keyPrefix,
	}, nil
}

func parseBucketURL(bucketURL string) (bucket, keyPrefix string, err error) {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 URL: %w", err)
	}

	if strings.Contains(u.Host, ".s3.") || strings.Contains(u.Host, ".s3-") {
		// Virtual-hosted-style: bucket.s3.region.amazonaws.com
		parts := strings.Split(u.Host, ".")
		if len(parts) > 0 {
			bucket = parts[0]
		}
		keyPrefix = strings.Trim(u.Path, "/")
	} else {
		// Path-style: s3.region.amazonaws.com/bucket/prefix
		pathParts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
		if len(pathParts) > 0 {
			bucket = pathParts[0]
		}
		if len(pathParts) > 1 {
			keyPrefix = pathParts[1]
		}
	}

	if bucket == "" {
		return "", "", fmt.Errorf("could not parse bucket name from URL: %s", bucketURL)
	}
	return bucket, keyPrefix, nil
}

// Store uploads one run's events as a single gzipped NDJSON object.
func (s *Sink) Store(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	var buf bytes.Buffer
	gz, _ := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	enc := json.NewEncoder(gz)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("encoding event: %w", err)
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compressing archive: %w", err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("%s/%d/%02d/%02d/%02d/%s-%s.ndjson.gz",
		s.keyPrefix,
		now.Year(), now.Month(), now.Day(), now.Hour(),
		now.Format("2006-01-02T15:04:05.000Z"),
		uuid.New().String(),
	)
	key = strings.TrimPrefix(key, "/")

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("uploading archive to s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Close cleans up resources.
func (s *Sink) Close() error {
	return nil
}
