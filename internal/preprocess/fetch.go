package preprocess

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/actuallystonmai/order-recommender/internal/logging"
	"github.com/actuallystonmai/order-recommender/internal/storage"
)

// EnsureFile downloads url to path unless path already exists. Presence
// alone suppresses the download; contents are not checked.
func EnsureFile(ctx context.Context, client *http.Client, url, path string) (bool, error) {
	exists, err := storage.Exists(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if exists {
		return false, nil
	}
	if url == "" {
		return false, fmt.Errorf("%s does not exist and no download url is configured", path)
	}

	logging.Info().Str("url", url).Str("path", path).Msg("downloading raw export")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("download %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".part-*")
	if err != nil {
		return false, fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("rename into %s: %w", path, err)
	}

	logging.Info().Str("path", path).Int64("bytes", n).Msg("download complete")
	return true, nil
}
