// Package subtitle renders transcripts as subtitle files.
package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/voxsub/voxsub/internal/types"
)

// VTTPath returns the deterministic output path for an input audio file:
// <dir>/<input-base-name>.vtt.
func VTTPath(dir, audioPath string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return filepath.Join(dir, base+".vtt")
}

// RenderVTT serializes a transcript as WebVTT. Speaker-labeled segments use
// voice tags; words are written plain, without karaoke highlighting or forced
// line wrapping.
func RenderVTT(tr *types.Transcript) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")

	for _, seg := range tr.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%s --> %s\n", vttTimestamp(seg.Start), vttTimestamp(seg.End))
		if seg.Speaker != "" {
			fmt.Fprintf(&b, "<v %s>%s\n\n", seg.Speaker, text)
		} else {
			fmt.Fprintf(&b, "%s\n\n", text)
		}
	}
	return b.String()
}

// WriteVTT renders the transcript and writes it next to the audio base name
// under dir, returning the written path.
func WriteVTT(dir, audioPath string, tr *types.Transcript) (string, error) {
	path := VTTPath(dir, audioPath)
	if err := os.WriteFile(path, []byte(RenderVTT(tr)), 0o644); err != nil {
		return "", fmt.Errorf("write vtt: %w", err)
	}
	return path, nil
}

// vttTimestamp formats seconds as HH:MM:SS.mmm.
func vttTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int64(sec*1000 + 0.5)
	h := ms / 3600000
	ms %= 3600000
	m := ms / 60000
	ms %= 60000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
