package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// fetchCheckpoint resolves a checkpoint reference to a local file path. Plain
// paths pass through untouched; http(s) URLs are downloaded once into the user
// cache directory and reused on later runs.
func fetchCheckpoint(ref string) (string, error) {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		if _, err := os.Stat(ref); err != nil {
			return "", fmt.Errorf("checkpoint file not found: %w", err)
		}
		return ref, nil
	}

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	cacheDir = filepath.Join(cacheDir, "mobilevit-go")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	local := filepath.Join(cacheDir, filepath.Base(ref))
	if _, err := os.Stat(local); err == nil {
		slog.Debug("using cached checkpoint", "path", local)
		return local, nil
	}

	slog.Info("downloading checkpoint", "url", ref)
	resp, err := http.Get(ref)
	if err != nil {
		return "", fmt.Errorf("failed to download checkpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download checkpoint: server returned %s", resp.Status)
	}

	tmp, err := os.CreateTemp(cacheDir, "download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tmp.Name(), local); err != nil {
		return "", fmt.Errorf("failed to move checkpoint into cache: %w", err)
	}
	slog.Debug("checkpoint cached", "path", local)
	return local, nil
}
