package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver uploads rendered reports to an S3 bucket so exports survive
// beyond the session's lifetime.
type Archiver struct {
	client *s3.Client
	bucket string
}

// NewArchiver builds an S3-backed archiver. The profile is optional; when
// empty the default AWS credential chain applies.
func NewArchiver(ctx context.Context, bucket, region, profile string) (*Archiver, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Archiver{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// Upload stores one rendered report and returns its object key.
func (a *Archiver) Upload(ctx context.Context, sessionID, body string) (string, error) {
	key := reportKey(sessionID, time.Now().UTC())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(body),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading report %s: %w", key, err)
	}
	return key, nil
}

func reportKey(sessionID string, at time.Time) string {
	return fmt.Sprintf("reports/%s/%s.txt", sessionID, at.Format("2006-01-02T15-04-05Z"))
}
