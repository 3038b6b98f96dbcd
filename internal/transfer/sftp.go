package transfer

import (
	"context"
	"errors"
)

// sftpStrategy is declared but not implemented; selecting it fails every file
// with an explicit reason instead of blocking the other protocols.
type sftpStrategy struct{}

func (s *sftpStrategy) Name() string { return "sftp" }

func (s *sftpStrategy) Validate(dest Destination) error {
	return validateSSH(dest)
}

func (s *sftpStrategy) Send(ctx context.Context, localPath string, dest Destination) error {
	return errors.New("sftp transfer not implemented, use scp or rsync")
}
