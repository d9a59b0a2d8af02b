package network

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// countingWriter forwards written byte counts to a progress callback.
type countingWriter struct {
	w        io.Writer
	progress func(total uint64)
	total    uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.total += uint64(n)
	if c.progress != nil {
		c.progress(c.total)
	}
	return n, err
}

// Download fetches url into dst, reporting cumulative byte counts through
// progress. When wantSHA256 is non-empty the downloaded bytes are verified
// against it before the function returns.
func Download(mirrorURL, path, dst, wantSHA256 string, progress func(total uint64)) error {
	url := strings.TrimSuffix(mirrorURL, "/") + "/" + strings.TrimPrefix(path, "/")

	resp, err := newClient().Get(url)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("failed to download %s: HTTP %d", url, resp.StatusCode)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer f.Close()

	hasher := sha256.New()
	counter := &countingWriter{w: io.MultiWriter(f, hasher), progress: progress}
	if _, err := io.Copy(counter, resp.Body); err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}

	if wantSHA256 != "" {
		got := hex.EncodeToString(hasher.Sum(nil))
		if got != wantSHA256 {
			return fmt.Errorf("checksum mismatch for %s: got %s, want %s", url, got, wantSHA256)
		}
	}
	return nil
}
