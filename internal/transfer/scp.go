package transfer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// scpStrategy copies files with the scp binary over ssh.
type scpStrategy struct{}

func (s *scpStrategy) Name() string { return "scp" }

func (s *scpStrategy) Validate(dest Destination) error {
	return validateSSH(dest)
}

func (s *scpStrategy) Send(ctx context.Context, localPath string, dest Destination) error {
	args := []string{"-o", "BatchMode=yes"}
	if dest.Port > 0 {
		args = append(args, "-P", fmt.Sprintf("%d", dest.Port))
	}
	args = append(args, localPath, remoteTarget(dest, localPath))

	cmd := exec.CommandContext(ctx, "scp", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("scp failed: %w (%s)", err, strings.TrimSpace(string(output)))
	}
	return nil
}
