package client

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Downloader fetches remotely referenced print artifacts to local disk
// before they enter the slice/upload pipeline. References come from the
// cloud channel and are untrusted: the target name is always flattened to
// a basename inside the configured directory.
type Downloader struct {
	httpClient *http.Client
	dir        string
}

func NewDownloader(dir string) *Downloader {
	if dir == "" {
		dir = "."
	}
	return &Downloader{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		dir:        dir,
	}
}

// Fetch downloads url into the working directory under filename and
// returns the local path.
func (d *Downloader) Fetch(ctx context.Context, url, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	log.Printf("[Download] → GET %s", url)
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: status %d", url, resp.StatusCode)
	}

	local := filepath.Join(d.dir, filepath.Base(filename))
	out, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", local, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", local, err)
	}
	log.Printf("[Download] ← saved %s", local)
	return local, nil
}
