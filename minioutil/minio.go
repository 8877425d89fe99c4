// Package minioutil stores backups of the employee data file in
// S3-compatible storage (S3, R2, minio, ...).
package minioutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kjk/employees/atomicfile"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Access   string `yaml:"access"`
	Secret   string `yaml:"secret"`
	Bucket   string `yaml:"bucket"`
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	// use http instead of https, for local minio servers
	Insecure bool `yaml:"insecure"`
	// optional prefix for all remote paths e.g. "backups/"
	Prefix string `yaml:"prefix"`

	RequestTrace io.Writer `yaml:"-"`
}

// Validate checks that all required fields are set
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("must provide config")
	}
	var missing []string
	if c.Access == "" {
		missing = append(missing, "access")
	}
	if c.Secret == "" {
		missing = append(missing, "secret")
	}
	if c.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if c.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing s3 config: %s", strings.Join(missing, ", "))
	}
	return nil
}

type Client struct {
	Client *minio.Client
	config *Config
	Bucket string
}

func New(ctx context.Context, config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := config
	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
	if err != nil {
		return nil, err
	}
	if c.RequestTrace != nil {
		mc.TraceOn(c.RequestTrace)
	}
	found, err := mc.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &Client{
		Client: mc,
		config: c,
		Bucket: c.Bucket,
	}, nil
}

// RemotePath returns full remote path, including Config.Prefix
func (c *Client) RemotePath(name string) string {
	return JoinPrefix(c.config.Prefix, name)
}

func JoinPrefix(prefix string, name string) string {
	name = strings.TrimPrefix(name, "/")
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}

func (c *Client) Exists(ctx context.Context, name string) bool {
	_, err := c.Client.StatObject(ctx, c.Bucket, c.RemotePath(name), minio.StatObjectOptions{})
	return err == nil
}

func (c *Client) UploadFile(ctx context.Context, name string, path string) (minio.UploadInfo, error) {
	opts := minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	}
	return c.Client.FPutObject(ctx, c.Bucket, c.RemotePath(name), path, opts)
}

func (c *Client) DownloadFileAtomically(ctx context.Context, dstPath string, name string) error {
	obj, err := c.Client.GetObject(ctx, c.Bucket, c.RemotePath(name), minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer obj.Close()

	if err = os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return err
	}
	_, err = atomicfile.Copy(dstPath, obj)
	return err
}

// List returns names (without Config.Prefix) of all objects, sorted
func (c *Client) List(ctx context.Context) ([]string, error) {
	prefix := c.config.Prefix
	if prefix != "" {
		prefix = strings.TrimSuffix(prefix, "/") + "/"
	}
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}
	var res []string
	for oi := range c.Client.ListObjects(ctx, c.Bucket, opts) {
		if oi.Err != nil {
			return nil, oi.Err
		}
		res = append(res, strings.TrimPrefix(oi.Key, prefix))
	}
	sort.Strings(res)
	return res, nil
}
