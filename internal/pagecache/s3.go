package pagecache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/zjrosen/factorytown/internal/config"
	"github.com/zjrosen/factorytown/internal/log"
)

// S3Store keeps pages as objects named <prefix><namespace>/<key> in one bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Option adjusts the S3 client built by NewS3Store.
type S3Option func(*s3.Options)

// WithHTTPClient routes S3 requests through c.
func WithHTTPClient(c *http.Client) S3Option {
	return func(o *s3.Options) { o.HTTPClient = c }
}

// WithCredentials sets the credentials provider, overriding the default chain.
func WithCredentials(p aws.CredentialsProvider) S3Option {
	return func(o *s3.Options) { o.Credentials = p }
}

// NewS3Store builds a store from cfg. Credentials come from the default AWS
// chain unless an option overrides them.
func NewS3Store(ctx context.Context, cfg config.S3Config, opts ...S3Option) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		for _, opt := range opts {
			opt(o)
		}
	})
	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Driver names the backend.
func (s *S3Store) Driver() string { return DriverS3 }

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *S3Store) Close() error { return nil }

func (s *S3Store) nsPrefix(ns string) string {
	return s.prefix + ns + "/"
}

func (s *S3Store) objectKey(ns, key string) (string, error) {
	if err := checkEntry(ns, key); err != nil {
		return "", err
	}
	return s.nsPrefix(ns) + key, nil
}

// Get downloads the object. A missing object is reported as not found.
func (s *S3Store) Get(ctx context.Context, ns, key string) ([]byte, bool, error) {
	objKey, err := s.objectKey(ns, key)
	if err != nil {
		return nil, false, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &objKey})
	if isNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting s3://%s/%s: %w", s.bucket, objKey, err)
	}
	defer func() { _ = out.Body.Close() }()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("reading s3://%s/%s: %w", s.bucket, objKey, err)
	}
	return body, true, nil
}

// Put uploads body, replacing any existing object.
func (s *S3Store) Put(ctx context.Context, ns, key string, body []byte) error {
	objKey, err := s.objectKey(ns, key)
	if err != nil {
		return err
	}
	contentType := "text/html; charset=utf-8"
	if ns == NamespaceMD {
		contentType = "text/plain; charset=utf-8"
	}
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &objKey,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	}); err != nil {
		return fmt.Errorf("putting s3://%s/%s: %w", s.bucket, objKey, err)
	}
	log.Debug(log.CatCache, "Uploaded page", "bucket", s.bucket, "key", objKey, "size", len(body))
	return nil
}

// Delete removes the object.
func (s *S3Store) Delete(ctx context.Context, ns, key string) error {
	objKey, err := s.objectKey(ns, key)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &objKey}); err != nil && !isNotFound(err) {
		return fmt.Errorf("deleting s3://%s/%s: %w", s.bucket, objKey, err)
	}
	return nil
}

// List pages through ListObjectsV2 under the namespace prefix.
func (s *S3Store) List(ctx context.Context, ns string) ([]string, error) {
	if err := CheckNamespace(ns); err != nil {
		return nil, err
	}
	prefix := s.nsPrefix(ns)

	var keys []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            &prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", s.bucket, prefix, err)
		}
		for _, obj := range out.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if key == "" || strings.Contains(key, "/") {
				continue
			}
			keys = append(keys, key)
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear deletes every object in the namespace one by one.
func (s *S3Store) Clear(ctx context.Context, ns string) (int, error) {
	keys, err := s.List(ctx, ns)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, key := range keys {
		if err := s.Delete(ctx, ns, key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
