package cleanup

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// tempPrefixes are the file name prefixes this service owns. Downloaded
// media uses media_*, extracted slices use segment_*, transcodes use
// normalized_*.
var tempPrefixes = []string{"media_", "segment_", "normalized_"}

// Service removes stale working files from the temp directory
type Service struct {
	tempDir         string
	maxAge          time.Duration
	cleanupInterval time.Duration
	cancel          context.CancelFunc
}

// NewService creates a new cleanup service
func NewService(tempDir string, maxAge, cleanupInterval time.Duration) *Service {
	return &Service{
		tempDir:         tempDir,
		maxAge:          maxAge,
		cleanupInterval: cleanupInterval,
	}
}

// Start begins the cleanup service
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	ticker := time.NewTicker(s.cleanupInterval)

	// Run initial cleanup
	s.cleanup()

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.cleanup()
			case <-ctx.Done():
				log.Println("[INFO] Cleanup service stopped")
				return
			}
		}
	}()

	log.Printf("[INFO] Cleanup service started (interval: %v, max age: %v)", s.cleanupInterval, s.maxAge)
}

// Stop stops the cleanup service
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// cleanup removes working files older than maxAge
func (s *Service) cleanup() {
	if _, err := os.Stat(s.tempDir); os.IsNotExist(err) {
		return
	}

	var removed int
	err := filepath.Walk(s.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files with errors
		}
		if info.IsDir() {
			return nil
		}

		if !isWorkingFile(info.Name()) {
			return nil
		}

		if time.Since(info.ModTime()) > s.maxAge {
			log.Printf("[DEBUG] Removing old temp file: %s", path)
			if err := os.Remove(path); err != nil {
				log.Printf("[WARN] Failed to remove temp file %s: %v", path, err)
			} else {
				removed++
			}
		}
		return nil
	})

	if err != nil {
		log.Printf("[ERROR] Cleanup walk error: %v", err)
	}
	if removed > 0 {
		log.Printf("[INFO] Cleanup removed %d stale file(s)", removed)
	}
}

// isWorkingFile reports whether a file name matches one of the pipeline's
// temp file patterns
func isWorkingFile(name string) bool {
	for _, prefix := range tempPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
