package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// httpStrategy uploads each file as a multipart POST to the destination.
// Any 2xx status is a success; anything else fails with the body as reason.
type httpStrategy struct {
	// Client overrides the default HTTP client in tests.
	Client *http.Client
}

func (s *httpStrategy) Name() string { return "http" }

func (s *httpStrategy) Validate(dest Destination) error {
	switch {
	case dest.Host == "":
		return fmt.Errorf("%w: host is required", ErrConfigIncomplete)
	case dest.RemotePath == "":
		return fmt.Errorf("%w: remote path is required", ErrConfigIncomplete)
	}
	return nil
}

func (s *httpStrategy) uploadURL(dest Destination) string {
	host := dest.Host
	if dest.Port > 0 && !strings.Contains(host, ":") {
		host = fmt.Sprintf("%s:%d", host, dest.Port)
	}
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host + dest.RemotePath
	}
	return "http://" + host + dest.RemotePath
}

func (s *httpStrategy) Send(ctx context.Context, localPath string, dest Destination) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("could not open file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return fmt.Errorf("could not build upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("could not read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("could not finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL(dest), &body)
	if err != nil {
		return fmt.Errorf("could not build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("upload rejected with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
