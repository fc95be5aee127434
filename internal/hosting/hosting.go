// Package hosting publishes the episode MP3 to its public location via S3,
// scp, or a local directory.
package hosting

import (
	"context"
	"fmt"
	"strings"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/services"
)

// Hoster publishes one file and returns its public URL.
type Hoster interface {
	Host(ctx context.Context, localPath, remoteName string) (string, error)
}

// New selects a hosting backend from configuration.
func New(ctx context.Context, cfg config.Hosting) (Hoster, error) {
	switch strings.TrimSpace(cfg.Method) {
	case "s3":
		return NewS3Hoster(ctx, cfg)
	case "scp":
		return NewSCPHoster(cfg), nil
	case "local":
		return NewLocalHoster(cfg), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "host_audio", "init",
			fmt.Sprintf("unknown hosting method %q", cfg.Method), nil)
	}
}

func joinURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name
}
