package hosting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/fileutil"
)

// LocalHoster copies episodes into a served directory, for self-hosted or
// development setups.
type LocalHoster struct {
	dir           string
	publicURLBase string
}

// NewLocalHoster constructs the local backend.
func NewLocalHoster(cfg config.Hosting) *LocalHoster {
	return &LocalHoster{dir: cfg.LocalDir, publicURLBase: cfg.LocalPublicURLBase}
}

// Host copies the file, verifying the copy, and returns the public URL.
func (h *LocalHoster) Host(_ context.Context, localPath, remoteName string) (string, error) {
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return "", fmt.Errorf("create hosting directory %s: %w", h.dir, err)
	}
	dst := filepath.Join(h.dir, remoteName)
	if err := fileutil.CopyFileVerified(localPath, dst); err != nil {
		return "", fmt.Errorf("copy to hosting directory: %w", err)
	}
	return joinURL(h.publicURLBase, remoteName), nil
}
