package s3

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"

	"github.com/paperflow-ai/paperflow/pkg/loader"
)

func getBase64Prefix(filePath string) string {
	nameSplit := strings.Split(filePath, ".")
	if len(nameSplit) < 2 {
		return "data:application/octet-stream;base64,"
	}
	ext := nameSplit[len(nameSplit)-1]
	mimeType := mime.TypeByExtension("." + ext)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,", mimeType)
}

// S3FileLoader is a FileLoader implementation that loads file contents from
// an Amazon S3 bucket. It uses the AWS SDK v2 for Go.
//
// This loader is used when uploaded papers are stored in S3 instead of the
// local filesystem.
type S3FileLoader struct {
	bucket string
	client *s3.Client

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewS3FileLoaderWithClient creates a new S3FileLoader using an existing
// s3.Client. This is useful if you want to reuse a preconfigured AWS client
// (e.g., with custom middleware or credentials).
func NewS3FileLoaderWithClient(bucket string, client *s3.Client) *S3FileLoader {
	return &S3FileLoader{
		bucket: bucket,
		client: client,
		cache:  make(map[string][]byte),
	}
}

// NewS3FileLoaderParams defines the configuration parameters for creating a
// new S3FileLoader.
//
// Bucket specifies the S3 bucket name.
// Endpoint allows overriding the S3 endpoint (useful for S3-compatible
// storage like MinIO).
// Region specifies the AWS region.
// AccessKey and SecretKey provide static credentials.
type NewS3FileLoaderParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3FileLoader creates a new S3FileLoader using the provided parameters.
// It initializes an AWS S3 client with static credentials and the given
// endpoint/region.
func NewS3FileLoader(ctx context.Context, params NewS3FileLoaderParams) (*S3FileLoader, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg)

	return &S3FileLoader{
		bucket: params.Bucket,
		client: client,
		cache:  make(map[string][]byte),
	}, nil
}

// GetFileText retrieves the contents of the given DocumentFile from the
// configured S3 bucket. It implements the FileLoader interface.
func (l *S3FileLoader) GetFileText(ctx context.Context, file loader.DocumentFile) ([]byte, error) {
	cacheKey := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[cacheKey]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(cacheKey, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[cacheKey]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(file.FilePath),
		})
		if err != nil {
			return nil, err
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, err
		}

		byts := buf.Bytes()

		l.cacheMu.Lock()
		l.cache[cacheKey] = byts
		l.cacheMu.Unlock()

		return byts, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// GetBase64 retrieves the object and returns it encoded as base64 with the
// MIME type derived from the file extension.
func (l *S3FileLoader) GetBase64(ctx context.Context, file loader.DocumentFile) (loader.Base64File, error) {
	b, err := l.GetFileText(ctx, file)
	if err != nil {
		return loader.Base64File{}, err
	}

	result := base64.StdEncoding.EncodeToString(b)
	fileTypePrefix := getBase64Prefix(file.FilePath)
	return loader.Base64File{
		Base64:   result,
		FileType: fileTypePrefix,
	}, nil
}
