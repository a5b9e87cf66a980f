// Package export writes result CSVs to a local directory, S3 or stdout.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/KaramelBytes/esgsynth-cli/internal/utils"
)

// Sink stores a named artifact and returns where it ended up.
type Sink interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// Options tune sink construction.
type Options struct {
	// Region for S3 destinations. Empty defers to the AWS default chain.
	Region string
	// Stdout receives data for the "-" destination. Defaults to os.Stdout.
	Stdout io.Writer
}

// NewSink picks a sink from dest:
//
//	""  or "."          current directory
//	"/some/dir"         local directory
//	"file:///some/dir"  local directory
//	"s3://bucket/pre"   S3 upload under pre/<run-id>/
//	"-"                 stdout
func NewSink(dest string, opt Options) (Sink, error) {
	dest = strings.TrimSpace(dest)
	switch {
	case dest == "-":
		w := opt.Stdout
		if w == nil {
			w = os.Stdout
		}
		return &StdoutSink{W: w}, nil
	case dest == "":
		return &LocalSink{Dir: "."}, nil
	case !strings.Contains(dest, "://"):
		return &LocalSink{Dir: dest}, nil
	}
	parsed, err := url.Parse(dest)
	if err != nil {
		return nil, fmt.Errorf("parse destination %q: %w", dest, err)
	}
	switch parsed.Scheme {
	case "file":
		dir := parsed.Path
		if dir == "" {
			dir = "."
		}
		return &LocalSink{Dir: dir}, nil
	case "s3":
		if parsed.Host == "" {
			return nil, fmt.Errorf("s3 destination %q has no bucket", dest)
		}
		return &S3Sink{
			Bucket: parsed.Host,
			Prefix: strings.Trim(parsed.Path, "/"),
			RunID:  uuid.NewString(),
			Region: opt.Region,
		}, nil
	}
	return nil, fmt.Errorf("unsupported destination scheme %q", parsed.Scheme)
}

// LocalSink writes files atomically into Dir.
type LocalSink struct {
	Dir string
}

func (s *LocalSink) Write(_ context.Context, name string, data []byte) (string, error) {
	p := filepath.Join(s.Dir, filepath.Base(name))
	if err := utils.SafeWriteFile(p, data); err != nil {
		return "", err
	}
	return p, nil
}

// StdoutSink streams the artifact to W.
type StdoutSink struct {
	W io.Writer
}

func (s *StdoutSink) Write(_ context.Context, _ string, data []byte) (string, error) {
	if _, err := s.W.Write(data); err != nil {
		return "", fmt.Errorf("write stdout: %w", err)
	}
	return "-", nil
}

// S3Client is the subset of the S3 API the upload manager needs.
type S3Client interface {
	manager.UploadAPIClient
}

// S3Sink uploads artifacts to s3://Bucket/Prefix/RunID/name.
type S3Sink struct {
	Bucket string
	Prefix string
	RunID  string
	Region string

	client S3Client
	// sendFunc replaces the real upload in tests.
	sendFunc func(ctx context.Context, bucket, key string, body io.Reader) error
}

// Key returns the object key used for name.
func (s *S3Sink) Key(name string) string {
	return path.Join(s.Prefix, s.RunID, path.Base(name))
}

func (s *S3Sink) Write(ctx context.Context, name string, data []byte) (string, error) {
	key := s.Key(name)
	loc := fmt.Sprintf("s3://%s/%s", s.Bucket, key)
	if s.sendFunc != nil {
		if err := s.sendFunc(ctx, s.Bucket, key, bytes.NewReader(data)); err != nil {
			return "", fmt.Errorf("upload %s: %w", loc, err)
		}
		return loc, nil
	}
	client, err := s.s3Client(ctx)
	if err != nil {
		return "", err
	}
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 16 * 1024 * 1024
	})
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", loc, err)
	}
	return loc, nil
}

func (s *S3Sink) s3Client(ctx context.Context) (S3Client, error) {
	if s.client != nil {
		return s.client, nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if s.Region != "" {
		opts = append(opts, awsconfig.WithRegion(s.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	s.client = s3.NewFromConfig(cfg)
	return s.client, nil
}
