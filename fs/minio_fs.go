package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/m-manu/virtualpath/logging"
)

// MinioConfig holds settings of a MinIO (or other S3-compatible) bucket
type MinioConfig struct {
	Endpoint     string // host:port
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	Bucket       string
	Prefix       string
	CreateBucket bool // make the bucket on first use if it is missing

	// Client, if set, is used instead of building one from the fields above
	Client *minio.Client
}

func (c MinioConfig) validate() error {
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if c.Client == nil && c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	return nil
}

// MinioFS implements Backend over a bucket through minio-go
type MinioFS struct {
	cfg     MinioConfig
	keys    objectKeys
	session *session[*minio.Client]
}

// NewMinioFS returns a MinioFS. The bucket is checked on first use.
func NewMinioFS(cfg MinioConfig) (*MinioFS, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	m := &MinioFS{cfg: cfg, keys: newObjectKeys(cfg.Prefix)}
	m.session = newSession(m.connect, nil)
	return m, nil
}

func (m *MinioFS) connect() (*minio.Client, error) {
	ctx := context.Background()
	client := m.cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(m.cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(m.cfg.AccessKey, m.cfg.SecretKey, ""),
			Secure: m.cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
	}
	exists, err := client.BucketExists(ctx, m.cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket %s check failed: %w", m.cfg.Bucket, err)
	}
	if !exists {
		if !m.cfg.CreateBucket {
			return nil, fmt.Errorf("bucket %s does not exist", m.cfg.Bucket)
		}
		if err := client.MakeBucket(ctx, m.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("bucket %s does not exist and cannot create: %w", m.cfg.Bucket, err)
		}
		logging.Info("created bucket", zap.String("bucket", m.cfg.Bucket))
	}
	return client, nil
}

// Connected tells whether the client was created and the bucket checked
func (m *MinioFS) Connected() bool {
	return m.session.isConnected()
}

func (m *MinioFS) RealPath(p string) string {
	return "minio://" + m.cfg.Bucket + "/" + m.keys.file(p)
}

func (m *MinioFS) List(dirPath string) ([]Entry, error) {
	client, err := m.session.get()
	if err != nil {
		return nil, err
	}
	dirKey := m.keys.dir(dirPath)
	listing := newObjectListing(dirKey)
	for object := range client.ListObjects(context.Background(), m.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    dirKey,
		Recursive: false,
	}) {
		if object.Err != nil {
			return nil, translateMinio("list", dirPath, object.Err)
		}
		listing.addObject(object.Key, object.Size, object.LastModified)
	}
	if !listing.exists(clean(dirPath) == "/") {
		return nil, pathError("list", dirPath, os.ErrNotExist)
	}
	return sortEntries(listing.entries), nil
}

func (m *MinioFS) OpenRead(filePath string) (io.ReadCloser, error) {
	client, err := m.session.get()
	if err != nil {
		return nil, err
	}
	obj, err := client.GetObject(context.Background(), m.cfg.Bucket, m.keys.file(filePath), minio.GetObjectOptions{})
	if err != nil {
		return nil, translateMinio("get", filePath, err)
	}
	// GetObject is lazy; Stat surfaces a missing key now rather than on first Read
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, translateMinio("get", filePath, err)
	}
	return obj, nil
}

func (m *MinioFS) put(key string, data []byte) error {
	client, err := m.session.get()
	if err != nil {
		return err
	}
	_, err = client.PutObject(context.Background(), m.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	return err
}

func (m *MinioFS) OpenWrite(filePath string) (io.WriteCloser, error) {
	if _, err := m.session.get(); err != nil {
		return nil, err
	}
	key := m.keys.file(filePath)
	return newUploadWriter(func(data []byte) error {
		return translateMinio("put", filePath, m.put(key, data))
	}), nil
}

func (m *MinioFS) Mkdir(dirPath string) error {
	if clean(dirPath) == "/" {
		return nil
	}
	return translateMinio("mkdir", dirPath, m.put(m.keys.dir(dirPath), nil))
}

func (m *MinioFS) remove(op, p, key string) error {
	client, err := m.session.get()
	if err != nil {
		return err
	}
	return translateMinio(op, p, client.RemoveObject(context.Background(), m.cfg.Bucket, key, minio.RemoveObjectOptions{}))
}

func (m *MinioFS) RemoveFile(filePath string) error {
	return m.remove("delete", filePath, m.keys.file(filePath))
}

func (m *MinioFS) RemoveDir(dirPath string) error {
	if clean(dirPath) == "/" {
		return nil
	}
	return m.remove("rmdir", dirPath, m.keys.dir(dirPath))
}

// Copy is a server-side CopyObject
func (m *MinioFS) Copy(srcPath, dstPath string) error {
	client, err := m.session.get()
	if err != nil {
		return err
	}
	src := minio.CopySrcOptions{Bucket: m.cfg.Bucket, Object: m.keys.file(srcPath)}
	dst := minio.CopyDestOptions{Bucket: m.cfg.Bucket, Object: m.keys.file(dstPath)}
	_, err = client.CopyObject(context.Background(), dst, src)
	return translateMinio("copy", srcPath, err)
}

func (m *MinioFS) Rename(oldPath, newPath string) error {
	if err := m.Copy(oldPath, newPath); err != nil {
		return err
	}
	return m.RemoveFile(oldPath)
}

func (m *MinioFS) Close() error {
	return m.session.close()
}

// translateMinio converts MinIO error codes to io/fs errors
func translateMinio(op, p string, err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return pathError(op, p, os.ErrNotExist)
	case "AccessDenied":
		return pathError(op, p, os.ErrPermission)
	}
	return pathError(op, p, fmt.Errorf("minio: %w", err))
}
