package asset

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3 connection settings.
type S3Config struct {
	AccessKey string
	SecretKey string

	// Optional endpoint for S3-compatible object stores. When set, requests
	// use path-style addressing.
	Endpoint string
	Region   string
}

// Load S3 settings from the S3_ACCESS_KEY, S3_SECRET_KEY, S3_ENDPOINT and
// S3_REGION environment variables. The region falls back to AWS_REGION.
func S3ConfigFromEnv() S3Config {
	cfg := S3Config{
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		Region:    os.Getenv("S3_REGION"),
	}
	if cfg.Region == "" {
		cfg.Region = os.Getenv("AWS_REGION")
	}
	return cfg
}

// Create an S3 client. When no access key is configured the default AWS
// credential chain is used.
func NewS3Client(cfg S3Config) (*s3.S3, error) {
	awsCfg := &aws.Config{}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.Region != "" {
		awsCfg.Region = aws.String(cfg.Region)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("resource: could not create S3 session: %s", err)
	}
	return s3.New(sess), nil
}

// Split an s3://bucket/key location into its bucket and key.
func ParseS3Location(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", err
	}
	return splitS3URL(u)
}

func splitS3URL(u *url.URL) (string, string, error) {
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("resource: expected s3 URL; got '%s'", u.String())
	}
	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("resource: s3 URL '%s' must specify a bucket and a key", u.String())
	}
	return bucket, key, nil
}

// Upload data to an s3://bucket/key location.
func PutS3Object(ctx context.Context, cfg S3Config, location string, data []byte, contentType string) error {
	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return err
	}

	client, err := NewS3Client(cfg)
	if err != nil {
		return err
	}

	_, err = client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("resource: failed to upload '%s': %s", location, err)
	}
	return nil
}

// Open an s3://bucket/key object for reading.
func getS3Object(u *url.URL) (*s3.GetObjectOutput, error) {
	bucket, key, err := splitS3URL(u)
	if err != nil {
		return nil, err
	}

	client, err := NewS3Client(S3ConfigFromEnv())
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("resource: could not fetch '%s': %s", u.String(), err)
	}
	return out, nil
}
