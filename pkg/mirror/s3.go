package mirror

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/samvad-hq/samvad-feed-translator/internal/logger"
)

// FeedContentType is sent with every uploaded feed.
const FeedContentType = "application/rss+xml; charset=utf-8"

// Config selects the object the feed is mirrored to.
type Config struct {
	Bucket       string
	Key          string
	Region       string
	CacheControl string
	// UsePathStyle forces path-style addressing for S3-compatible stores.
	UsePathStyle bool
}

type putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads the rendered feed to a bucket.
type S3 struct {
	cfg    Config
	client putter
	log    logger.Logger
}

// NewS3 builds an uploader using the default AWS credential chain.
func NewS3(ctx context.Context, cfg Config, log logger.Logger) (*S3, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, fmt.Errorf("s3 mirror requires bucket and key")
	}

	var opts []func(*awscfg.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awscfg.WithRegion(cfg.Region))
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3{cfg: cfg, client: client, log: logger.Ensure(log)}, nil
}

// Upload replaces the mirrored object with feed.
func (m *S3) Upload(ctx context.Context, feed []byte) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.Bucket),
		Key:           aws.String(m.cfg.Key),
		Body:          bytes.NewReader(feed),
		ContentLength: aws.Int64(int64(len(feed))),
		ContentType:   aws.String(FeedContentType),
	}
	if m.cfg.CacheControl != "" {
		in.CacheControl = aws.String(m.cfg.CacheControl)
	}

	if _, err := m.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", m.cfg.Bucket, m.cfg.Key, err)
	}
	m.log.InfoObj("feed mirrored", "feed_mirror", map[string]any{
		"bucket": m.cfg.Bucket,
		"key":    m.cfg.Key,
		"bytes":  len(feed),
	})
	return nil
}
