package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/vidfriends/mediahub/internal/config"
	"github.com/vidfriends/mediahub/internal/logging"
)

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// DurationProber reports the playback length of a local media file in seconds.
type DurationProber interface {
	Duration(ctx context.Context, localPath string) (float64, error)
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".mkv": {}, ".webm": {}, ".avi": {}, ".m4v": {},
}

// S3Service implements Service backed by an S3-compatible bucket.
type S3Service struct {
	uploader objectUploader
	deleter  objectDeleter
	prober   DurationProber
	bucket   string
	prefix   string
	baseURL  string
}

// NewS3Service configures a client targeting the provided object store. prober may be
// nil, in which case uploaded videos report a zero duration.
func NewS3Service(ctx context.Context, cfg config.ObjectStoreConfig, prober DurationProber) (*S3Service, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("s3 media: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return newS3Service(uploader, client, prober, cfg), nil
}

func newS3Service(uploader objectUploader, deleter objectDeleter, prober DurationProber, cfg config.ObjectStoreConfig) *S3Service {
	return &S3Service{
		uploader: uploader,
		deleter:  deleter,
		prober:   prober,
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.KeyPrefix, "/"),
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}
}

// Upload publishes the local file under a fresh key and removes the local copy.
func (s *S3Service) Upload(ctx context.Context, localPath string) (Asset, error) {
	if strings.TrimSpace(localPath) == "" {
		return Asset{}, fmt.Errorf("s3 media: empty path")
	}
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			logging.FromContext(ctx).Warn("failed to remove local upload", slog.String("path", localPath), slog.Any("error", err))
		}
	}()

	ext := strings.ToLower(filepath.Ext(localPath))

	var duration float64
	if _, isVideo := videoExtensions[ext]; isVideo && s.prober != nil {
		probed, err := s.prober.Duration(ctx, localPath)
		if err != nil {
			logging.FromContext(ctx).Warn("failed to probe duration", slog.String("path", localPath), slog.Any("error", err))
		} else {
			duration = probed
		}
	}

	file, err := os.Open(localPath)
	if err != nil {
		return Asset{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	key := path.Join(s.prefix, uuid.NewString()+ext)
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
		ACL:    s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("s3 media upload %s: %w", key, err)
	}

	return Asset{URL: s.urlFor(key), PublicID: key, Duration: duration}, nil
}

// Delete removes the object stored under publicID.
func (s *S3Service) Delete(ctx context.Context, publicID string) error {
	key := strings.TrimLeft(publicID, "/")
	if key == "" {
		return fmt.Errorf("s3 media: empty key")
	}

	if _, err := s.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("s3 media delete %s: %w", key, err)
	}
	return nil
}

// PublicID recovers the object key from a URL built by Upload.
func (s *S3Service) PublicID(url string) (string, bool) {
	if url == "" {
		return "", false
	}
	if s.baseURL == "" {
		return url, true
	}
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func (s *S3Service) urlFor(key string) string {
	if s.baseURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}
