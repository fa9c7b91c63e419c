// Package utils provides download caching and the on-disk fact store shared
// by the intel engine's data sources.
package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("file not found on server")

type progressWriter struct {
	io.Writer
	total uint64
	last  uint64
	label string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.total += uint64(n)
	if pw.total-pw.last > 5*1024*1024 { // Log every 5MB
		log.Printf("%s: Downloaded %d MB", pw.label, pw.total/1024/1024)
		pw.last = pw.total
	}
	return n, err
}

// DownloadFile downloads a file from a URL to a local path safely.
func DownloadFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	// Create a temp file in the same directory to ensure atomic move
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	defer func() {
		if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
			log.Printf("Error removing temp file %s: %v", tmpName, err)
		}
	}() // Clean up if we fail

	pw := &progressWriter{Writer: tmpFile, label: filepath.Base(path)}
	if _, err := io.Copy(pw, resp.Body); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	// Atomic rename to final path
	return os.Rename(tmpName, path)
}

// CacheFileName returns the expected local filename for a given URL and label.
func CacheFileName(url, label string) string {
	urlParts := strings.Split(url, "/")
	fileName := urlParts[len(urlParts)-1]

	// Include the sanitized label in the filename to prevent collisions
	// between datasets that share a basename
	sanitized := strings.Trim(label, "[]")
	sanitized = strings.ReplaceAll(sanitized, " ", "_")
	if sanitized != "" {
		fileName = sanitized + "_" + fileName
	}
	return fileName
}

// GetCachedReader returns a reader for the given URL, downloading into
// cacheDir on a miss. An empty cacheDir streams straight from the network.
func GetCachedReader(ctx context.Context, url, cacheDir, label string) (io.ReadCloser, error) {
	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir: %w", err)
		}
		localPath := filepath.Join(cacheDir, CacheFileName(url, label))

		if _, err := os.Stat(localPath); os.IsNotExist(err) {
			log.Printf("%s Downloading %s", label, url)
			if err := DownloadFile(ctx, url, localPath); err != nil {
				return nil, err // Return the error directly so caller can see ErrNotFound
			}
		} else {
			log.Printf("%s Using cached file: %s", label, localPath)
		}
		f, err := os.Open(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		return f, nil
	}

	log.Printf("%s Streaming from %s", label, url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return resp.Body, nil
}
