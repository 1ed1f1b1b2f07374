package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher downloads media files into a library directory
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher creates a new media fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// extensions maps response content types to the extensions the scanner
// dispatches on.
var extensions = map[string]string{
	"image/jpeg":        ".jpg",
	"image/png":         ".png",
	"image/gif":         ".gif",
	"image/bmp":         ".bmp",
	"text/plain":        ".txt",
	"model/gltf-binary": ".glb",
}

// Fetch downloads rawURL into dir, naming the file after the URL path
// with an extension derived from the response content type. It returns
// the written path.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media URL returned status %d", resp.StatusCode)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to parse content type: %w", err)
	}
	ext, ok := extensions[mediaType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", mediaType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read media data: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	outputPath := filepath.Join(dir, baseName(rawURL)+ext)
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	return outputPath, nil
}

// baseName derives a safe filename stem from the URL path.
func baseName(rawURL string) string {
	name := "download"
	if u, err := url.Parse(rawURL); err == nil {
		base := path.Base(u.Path)
		if base != "/" && base != "." && base != "" {
			name = strings.TrimSuffix(base, path.Ext(base))
		}
	}

	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, name)

	if sanitized == "" {
		return "download"
	}
	return sanitized
}
