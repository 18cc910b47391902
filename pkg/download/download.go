// Package download fetches remote media to temporary files so URL inputs can
// enter the transcription pipeline the same way local files do.
package download

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options configures the download behavior
type Options struct {
	TempDir       string        // Directory for temporary files
	MaxSize       int64         // Maximum file size in bytes (0 = no limit)
	Timeout       time.Duration // Download timeout
	ProgressFunc  ProgressFunc  // Optional progress callback
	UserAgent     string        // User agent string
	ValidateMedia bool          // Validate content-type is audio or video
}

// ProgressFunc is called during download to report progress
type ProgressFunc func(downloaded, total int64)

// DefaultOptions returns default download options
func DefaultOptions() Options {
	return Options{
		TempDir:       "/tmp",
		MaxSize:       2 * 1024 * 1024 * 1024, // 2GB default max
		Timeout:       10 * time.Minute,
		UserAgent:     "TranscriberAPI/1.0",
		ValidateMedia: true,
	}
}

// Result contains information about a successful download
type Result struct {
	FilePath      string // Path to downloaded file
	ContentType   string // Content-Type from response
	ContentLength int64  // Size in bytes
}

// Downloader handles downloading media files to temporary storage
type Downloader struct {
	client  *http.Client
	options Options
}

// NewDownloader creates a new downloader with the given options
func NewDownloader(options Options) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: options.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true, // Don't compress media
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		options: options,
	}
}

// DownloadToTemp downloads a URL to a temporary file
func (d *Downloader) DownloadToTemp(ctx context.Context, url string) (*Result, error) {
	log.Printf("[DEBUG] Starting download from %s", url)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", d.options.UserAgent)
	req.Header.Set("Accept", "audio/*,video/*,*/*")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if d.options.ValidateMedia && !isMediaContentType(contentType) {
		return nil, fmt.Errorf("invalid content type: %s", contentType)
	}

	contentLength := resp.ContentLength
	if d.options.MaxSize > 0 && contentLength > d.options.MaxSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", contentLength, d.options.MaxSize)
	}

	tempFile, err := d.createTempFile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := d.downloadToFile(resp.Body, tempFile, contentLength)
	tempPath := tempFile.Name()
	tempFile.Close()

	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to download: %w", err)
	}

	log.Printf("[DEBUG] Downloaded %d bytes to %s", written, tempPath)

	return &Result{
		FilePath:      tempPath,
		ContentType:   contentType,
		ContentLength: written,
	}, nil
}

// DownloadWithRetry downloads with a small fixed retry budget. Transient
// network failures are common on large media files, so one failure should
// not abort a whole transcription request.
func (d *Downloader) DownloadWithRetry(ctx context.Context, url string, maxRetries int) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * 5 * time.Second
			log.Printf("[WARN] Download attempt %d failed, retrying in %v: %v", attempt, delay, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := d.DownloadToTemp(ctx, url)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("download failed after %d attempts: %w", maxRetries+1, lastErr)
}

// createTempFile creates a temporary file for the download
func (d *Downloader) createTempFile(url string) (*os.File, error) {
	ext := ".mp3" // default
	if parts := strings.Split(url, "."); len(parts) > 1 {
		lastPart := parts[len(parts)-1]
		if idx := strings.Index(lastPart, "?"); idx > 0 {
			lastPart = lastPart[:idx]
		}
		if isValidMediaExtension(lastPart) {
			ext = "." + lastPart
		}
	}

	pattern := fmt.Sprintf("media_*%s", ext)
	return os.CreateTemp(d.options.TempDir, pattern)
}

// downloadToFile downloads response body to file with optional progress tracking
func (d *Downloader) downloadToFile(src io.Reader, dst *os.File, totalSize int64) (int64, error) {
	reader := src
	if d.options.ProgressFunc != nil && totalSize > 0 {
		reader = &progressReader{
			reader:   src,
			total:    totalSize,
			callback: d.options.ProgressFunc,
		}
	}

	if d.options.MaxSize > 0 {
		reader = &io.LimitedReader{
			R: reader,
			N: d.options.MaxSize,
		}
	}

	return io.Copy(dst, reader)
}

// CleanupTempFile removes a temporary file
func CleanupTempFile(path string) error {
	if path == "" {
		return nil
	}

	log.Printf("[DEBUG] Cleaning up temp file: %s", path)
	return os.Remove(path)
}

// CleanupOldTempFiles removes temp files older than the specified duration
func CleanupOldTempFiles(tempDir string, maxAge time.Duration) error {
	pattern := filepath.Join(tempDir, "media_*")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	var removed int

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		log.Printf("[DEBUG] Cleaned up %d old temp files", removed)
	}

	return nil
}

// isMediaContentType checks if content type is audio or video
func isMediaContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.HasPrefix(contentType, "audio/") ||
		strings.HasPrefix(contentType, "video/") ||
		contentType == "application/octet-stream" // Some servers use this for media
}

// isValidMediaExtension checks if extension is valid for media files
func isValidMediaExtension(ext string) bool {
	ext = strings.ToLower(ext)
	validExts := []string{"mp3", "m4a", "aac", "ogg", "wav", "flac", "opus", "webm", "mp4", "mkv", "mov"}
	for _, valid := range validExts {
		if ext == valid {
			return true
		}
	}
	return false
}

// progressReader wraps a reader to report progress
type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	callback   ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.downloaded += int64(n)
		if pr.callback != nil {
			pr.callback(pr.downloaded, pr.total)
		}
	}
	return n, err
}
