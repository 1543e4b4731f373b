package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/m-manu/virtualpath/logging"
)

// S3Config holds settings of an S3 (or S3-compatible) bucket
type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string // empty for AWS itself
	AccessKey    string // empty to use the default credential chain
	SecretKey    string
	UsePathStyle bool
}

func (c S3Config) validate() error {
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return errors.New("access key and secret key must be set together")
	}
	return nil
}

// S3FS implements Backend over an S3 bucket through aws-sdk-go-v2
type S3FS struct {
	cfg     S3Config
	keys    objectKeys
	session *session[*s3.Client]
}

// NewS3FS returns an S3FS. The SDK client is built on first use.
func NewS3FS(cfg S3Config) (*S3FS, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	b := &S3FS{cfg: cfg, keys: newObjectKeys(cfg.Prefix)}
	b.session = newSession(b.connect, nil)
	return b, nil
}

func (b *S3FS) connect() (*s3.Client, error) {
	ctx := context.Background()
	opts := []func(*config.LoadOptions) error{config.WithRegion(b.cfg.Region)}
	if b.cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(b.cfg.AccessKey, b.cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = b.cfg.UsePathStyle
		if b.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(b.cfg.Endpoint)
		}
	})
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("bucket %s is not accessible: %w", b.cfg.Bucket, err)
	}
	logging.Debug("connected to S3 bucket", zap.String("bucket", b.cfg.Bucket), zap.String("region", b.cfg.Region))
	return client, nil
}

// Connected tells whether the client was created and the bucket checked
func (b *S3FS) Connected() bool {
	return b.session.isConnected()
}

func (b *S3FS) RealPath(p string) string {
	return "s3://" + b.cfg.Bucket + "/" + b.keys.file(p)
}

func (b *S3FS) List(dirPath string) ([]Entry, error) {
	client, err := b.session.get()
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	dirKey := b.keys.dir(dirPath)
	listing := newObjectListing(dirKey)
	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(b.cfg.Bucket),
		Prefix:    aws.String(dirKey),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translateS3("list", dirPath, err)
		}
		for _, cp := range page.CommonPrefixes {
			listing.addPrefix(aws.ToString(cp.Prefix))
		}
		for _, obj := range page.Contents {
			listing.addObject(aws.ToString(obj.Key), aws.ToInt64(obj.Size), aws.ToTime(obj.LastModified))
		}
	}
	if !listing.exists(clean(dirPath) == "/") {
		return nil, pathError("list", dirPath, os.ErrNotExist)
	}
	return sortEntries(listing.entries), nil
}

func (b *S3FS) OpenRead(filePath string) (io.ReadCloser, error) {
	client, err := b.session.get()
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(b.keys.file(filePath)),
	})
	if err != nil {
		return nil, translateS3("get", filePath, err)
	}
	return out.Body, nil
}

func (b *S3FS) put(key string, data []byte) error {
	client, err := b.session.get()
	if err != nil {
		return err
	}
	_, err = client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:        aws.String(b.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}

func (b *S3FS) OpenWrite(filePath string) (io.WriteCloser, error) {
	if _, err := b.session.get(); err != nil {
		return nil, err
	}
	key := b.keys.file(filePath)
	return newUploadWriter(func(data []byte) error {
		return translateS3("put", filePath, b.put(key, data))
	}), nil
}

func (b *S3FS) Mkdir(dirPath string) error {
	if clean(dirPath) == "/" {
		return nil
	}
	return translateS3("mkdir", dirPath, b.put(b.keys.dir(dirPath), nil))
}

func (b *S3FS) remove(op, p, key string) error {
	client, err := b.session.get()
	if err != nil {
		return err
	}
	_, err = client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(key),
	})
	return translateS3(op, p, err)
}

func (b *S3FS) RemoveFile(filePath string) error {
	return b.remove("delete", filePath, b.keys.file(filePath))
}

func (b *S3FS) RemoveDir(dirPath string) error {
	if clean(dirPath) == "/" {
		return nil
	}
	return b.remove("rmdir", dirPath, b.keys.dir(dirPath))
}

// Copy is a server-side CopyObject
func (b *S3FS) Copy(srcPath, dstPath string) error {
	client, err := b.session.get()
	if err != nil {
		return err
	}
	_, err = client.CopyObject(context.Background(), &s3.CopyObjectInput{
		Bucket:     aws.String(b.cfg.Bucket),
		Key:        aws.String(b.keys.file(dstPath)),
		CopySource: aws.String(copySource(b.cfg.Bucket, b.keys.file(srcPath))),
	})
	return translateS3("copy", srcPath, err)
}

// copySource builds the URL-encoded "bucket/key" that CopyObject expects
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		// S3 decodes "+" in the copy source as a space
		segments[i] = strings.ReplaceAll(url.PathEscape(segment), "+", "%2B")
	}
	return bucket + "/" + strings.Join(segments, "/")
}

// Rename is a server-side copy followed by a delete of the source
func (b *S3FS) Rename(oldPath, newPath string) error {
	if err := b.Copy(oldPath, newPath); err != nil {
		return err
	}
	return b.RemoveFile(oldPath)
}

func (b *S3FS) Close() error {
	return b.session.close()
}

func translateS3(op, p string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return pathError(op, p, os.ErrNotExist)
		case "AccessDenied":
			return pathError(op, p, os.ErrPermission)
		}
	}
	return pathError(op, p, fmt.Errorf("s3: %w", err))
}
