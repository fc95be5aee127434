package hosting

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/services"
)

// s3API is the slice of the S3 client the hoster uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Hoster uploads episodes to an S3 or S3-compatible bucket.
type S3Hoster struct {
	client        s3API
	bucket        string
	prefix        string
	region        string
	publicURLBase string
}

// NewS3Hoster builds the client from configuration. The SDK's default
// credential chain applies unless explicit keys are configured.
func NewS3Hoster(ctx context.Context, cfg config.Hosting) (*S3Hoster, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "host_audio", "s3",
			"could not load AWS configuration", err)
	}

	s3Opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.S3ForcePath {
				o.UsePathStyle = true
			}
		},
	}
	if cfg.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		})
	}

	return &S3Hoster{
		client:        s3.NewFromConfig(awsCfg, s3Opts...),
		bucket:        cfg.S3Bucket,
		prefix:        strings.Trim(cfg.S3Prefix, "/"),
		region:        awsCfg.Region,
		publicURLBase: cfg.S3PublicURLBase,
	}, nil
}

// Host uploads the file and returns its public URL.
func (h *S3Hoster) Host(ctx context.Context, localPath, remoteName string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer file.Close()

	key := remoteName
	if h.prefix != "" {
		key = path.Join(h.prefix, remoteName)
	}
	_, err = h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType(remoteName)),
	})
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "host_audio", "s3",
			fmt.Sprintf("put s3://%s/%s", h.bucket, key), err)
	}
	return h.publicURL(key), nil
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".xml":
		return "application/rss+xml"
	case ".json":
		return "application/json"
	default:
		return "audio/mpeg"
	}
}

func (h *S3Hoster) publicURL(key string) string {
	if h.publicURLBase != "" {
		return joinURL(h.publicURLBase, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", h.bucket, h.region, key)
}
