// Package cleanup evicts stale working files from the temp directory.
package cleanup

import (
	"os"
	"path/filepath"
	"time"

	"github.com/voxsub/voxsub/internal/logging"
)

// Scheduler periodically removes old temporary files.
type Scheduler struct {
	tempDir         string
	intervalMinutes int
	maxAgeHours     int
	stopChan        chan struct{}
}

// NewScheduler creates a new cleanup scheduler.
func NewScheduler(tempDir string, intervalMinutes, maxAgeHours int) *Scheduler {
	return &Scheduler{
		tempDir:         tempDir,
		intervalMinutes: intervalMinutes,
		maxAgeHours:     maxAgeHours,
		stopChan:        make(chan struct{}),
	}
}

// Start begins the cleanup scheduler. An initial sweep runs immediately.
func (s *Scheduler) Start() {
	log := logging.WithComponent("cleanup")
	s.cleanOldFiles()

	ticker := time.NewTicker(time.Duration(s.intervalMinutes) * time.Minute)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.cleanOldFiles()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Info().
		Int("intervalMinutes", s.intervalMinutes).
		Int("maxAgeHours", s.maxAgeHours).
		Msg("cleanup scheduler started")
}

// Stop stops the cleanup scheduler.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	log := logging.WithComponent("cleanup")
	log.Info().Msg("cleanup scheduler stopped")
}

// cleanOldFiles removes files older than maxAgeHours from the temp directory.
func (s *Scheduler) cleanOldFiles() {
	log := logging.WithComponent("cleanup")
	now := time.Now()
	maxAge := time.Duration(s.maxAgeHours) * time.Hour

	var deletedCount int
	var deletedSize int64

	err := filepath.Walk(s.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip files we can't access
		}
		if info.IsDir() {
			return nil
		}

		age := now.Sub(info.ModTime())
		if age > maxAge {
			size := info.Size()
			if err := os.Remove(path); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("failed to delete old file")
			} else {
				deletedCount++
				deletedSize += size
				log.Debug().
					Str("file", filepath.Base(path)).
					Dur("age", age.Round(time.Hour)).
					Int64("sizeKB", size/1024).
					Msg("deleted old temp file")
			}
		}

		return nil
	})

	if err != nil {
		log.Warn().Err(err).Msg("error during cleanup")
	}

	if deletedCount > 0 {
		log.Info().
			Int("files", deletedCount).
			Float64("freedMB", float64(deletedSize)/(1024*1024)).
			Msg("cleanup complete")
	}
}

// EnsureTempDirExists creates the temp directory if it doesn't exist.
func EnsureTempDirExists(tempDir string) error {
	return os.MkdirAll(tempDir, 0755)
}
