// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storage mirrors downloaded PDFs to an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// putObjectAPI is the part of *s3.Client the mirror uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Mirror uploads PDFs to one bucket.
type Mirror struct {
	client   putObjectAPI
	bucket   string
	endpoint string
}

// NewS3Mirror builds a client for cfg. A custom endpoint switches to
// path-style addressing, which most S3-compatible stores require.
func NewS3Mirror(ctx context.Context, cfg types.S3Config) (*Mirror, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: s3 bucket is not set", types.ErrConfiguration)
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS config: %v", types.ErrConfiguration, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewMirror(client, cfg.Bucket, cfg.Endpoint), nil
}

// NewMirror wraps an existing client.
func NewMirror(client putObjectAPI, bucket, endpoint string) *Mirror {
	return &Mirror{client: client, bucket: bucket, endpoint: endpoint}
}

// ObjectKey returns the key for a PDF: publisher/keywords/file.pdf.
func ObjectKey(publisher string, keywords []string, pdfPath string) string {
	return path.Join(publisher, types.KeywordNamespace(keywords), filepath.Base(pdfPath))
}

// Upload puts the artifact's file under key, tagged with its DOI and the
// publisher, and returns the object's location.
func (m *Mirror) Upload(ctx context.Context, art *types.DownloadedArtifact, key, publisher string) (string, error) {
	f, err := os.Open(art.Path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", art.Path, err)
	}
	defer f.Close()

	tags := url.Values{}
	tags.Set("doi", art.DOI)
	tags.Set("publisher", publisher)

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(art.Size),
		ContentType:   aws.String("application/pdf"),
		Tagging:       aws.String(tags.Encode()),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s to s3://%s/%s: %w", art.Path, m.bucket, key, err)
	}
	return m.location(key), nil
}

func (m *Mirror) location(key string) string {
	if m.endpoint == "" {
		return fmt.Sprintf("s3://%s/%s", m.bucket, key)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(m.endpoint, "/"), m.bucket, key)
}
