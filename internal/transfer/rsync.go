package transfer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// rsyncStrategy copies files with rsync over ssh. Archive mode plus
// compression; partial transfers are rsync's problem to resume, not ours.
type rsyncStrategy struct{}

func (s *rsyncStrategy) Name() string { return "rsync" }

func (s *rsyncStrategy) Validate(dest Destination) error {
	return validateSSH(dest)
}

func (s *rsyncStrategy) Send(ctx context.Context, localPath string, dest Destination) error {
	args := []string{"-az"}
	if dest.Port > 0 {
		args = append(args, "-e", fmt.Sprintf("ssh -o BatchMode=yes -p %d", dest.Port))
	} else {
		args = append(args, "-e", "ssh -o BatchMode=yes")
	}
	args = append(args, localPath, remoteTarget(dest, localPath))

	cmd := exec.CommandContext(ctx, "rsync", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("rsync failed: %w (%s)", err, strings.TrimSpace(string(output)))
	}
	return nil
}
