package hosting

import (
	"context"
	"fmt"
	"os/exec"
	"path"
	"strings"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/services"
)

// SCPHoster copies episodes to a remote host over ssh.
type SCPHoster struct {
	host          string
	user          string
	remotePath    string
	publicURLBase string
	scpBin        string
}

// NewSCPHoster constructs the scp backend.
func NewSCPHoster(cfg config.Hosting) *SCPHoster {
	return &SCPHoster{
		host:          cfg.SCPHost,
		user:          cfg.SCPUser,
		remotePath:    strings.TrimRight(cfg.SCPRemotePath, "/"),
		publicURLBase: cfg.SCPPublicURLBase,
		scpBin:        "scp",
	}
}

// Host runs scp and returns the public URL.
func (h *SCPHoster) Host(ctx context.Context, localPath, remoteName string) (string, error) {
	target := fmt.Sprintf("%s@%s:%s", h.user, h.host, path.Join(h.remotePath, remoteName))
	cmd := exec.CommandContext(ctx, h.scpBin, "-q", localPath, target)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", services.Wrap(services.ErrTransient, "host_audio", "scp",
			fmt.Sprintf("scp to %s failed: %s", target, strings.TrimSpace(string(out))), err)
	}
	return joinURL(h.publicURLBase, remoteName), nil
}
