package job

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type engineFunc func(ctx context.Context, req FetchRequest, sink ProgressSink) (string, error)

func (f engineFunc) Fetch(ctx context.Context, req FetchRequest, sink ProgressSink) (string, error) {
	return f(ctx, req, sink)
}

type stubValidator struct{}

func (stubValidator) ValidateURL(rawURL string) error {
	if !strings.HasPrefix(rawURL, "https://www.youtube.com/") {
		return NewValidationError("URL not supported")
	}
	return nil
}

func (stubValidator) ValidateQuality(quality string) error {
	switch quality {
	case "best", "1080p", "720p", "480p", "audio":
		return nil
	}
	return NewValidationError("invalid quality: " + quality)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeArtifact creates the file the engine would produce for a template
func writeArtifact(t *testing.T, template, ext, content string) string {
	t.Helper()
	path := strings.Replace(template, "%(ext)s", ext, 1)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func tempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	return path
}
