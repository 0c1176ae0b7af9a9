// Package media prepares audio for the model stages.
package media

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Normalize converts any audio file to 16kHz mono WAV, the input format the
// model stages expect. The converted file is written under tempDir, named
// after baseName (a random name when empty).
func Normalize(ctx context.Context, inputPath, tempDir, baseName string) (string, error) {
	if baseName == "" {
		baseName = fmt.Sprintf("normalized_%s", uuid.New().String())
	}
	outputPath := filepath.Join(tempDir, baseName+".wav")

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return outputPath, nil
}

// ValidFormat reports whether the file extension is a supported audio format.
func ValidFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mp3", ".wav", ".m4a", ".ogg", ".flac", ".webm", ".aac", ".wma", ".opus":
		return true
	}
	return false
}
