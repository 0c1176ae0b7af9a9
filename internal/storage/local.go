package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/voxsub/voxsub/internal/subtitle"
	"github.com/voxsub/voxsub/internal/types"
)

// LocalStorage archives finished subtitle runs on the local filesystem.
type LocalStorage struct {
	outputDir string
}

// NewLocalStorage creates a new local storage handler.
func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{
		outputDir: outputDir,
	}
}

// SaveResult writes the subtitle file and a metadata sidecar into a dated
// directory: outputs/2025/01/23/20250123_143022_podcast_episode.vtt.
// Returns the subtitle path.
func (ls *LocalStorage) SaveResult(requestName string, result *types.SubtitleResult) (string, error) {
	now := time.Now()
	dateDir := filepath.Join(ls.outputDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create date directory: %w", err)
	}

	timestamp := now.Format("20060102_150405")
	baseFilename := fmt.Sprintf("%s_%s", timestamp, sanitizeFilename(requestName))

	vttPath := filepath.Join(dateDir, baseFilename+".vtt")
	metaPath := filepath.Join(dateDir, baseFilename+"_meta.json")

	if err := os.WriteFile(vttPath, []byte(subtitle.RenderVTT(result.Transcript)), 0644); err != nil {
		return "", fmt.Errorf("failed to save subtitles: %w", err)
	}

	metadata := map[string]interface{}{
		"job_id":           result.JobID,
		"request_name":     requestName,
		"duration_seconds": result.Transcript.Duration(),
		"word_count":       result.Transcript.WordCount(),
		"language":         result.Transcript.Language,
		"speakers":         result.Transcript.Speakers(),
		"created_at":       result.ProcessedAt,
		"segments":         result.Transcript.Segments,
		"local_path":       vttPath,
		"gdrive_url":       result.GDriveURL,
	}

	metaJSON, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return "", fmt.Errorf("failed to save metadata: %w", err)
	}

	return vttPath, nil
}

// sanitizeFilename removes path separators and truncates long names.
func sanitizeFilename(name string) string {
	result := filepath.Base(name)
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}
