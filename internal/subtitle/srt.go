package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/voxsub/voxsub/internal/types"
)

// SRTPath returns <dir>/<input-base-name>.srt.
func SRTPath(dir, audioPath string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return filepath.Join(dir, base+".srt")
}

// RenderSRT serializes a transcript as SubRip. Speaker labels are written as
// a "SPEAKER: " prefix since SRT has no voice markup.
func RenderSRT(tr *types.Transcript) string {
	var b strings.Builder
	index := 1
	for _, seg := range tr.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if seg.Speaker != "" {
			text = seg.Speaker + ": " + text
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			index, srtTimestamp(seg.Start), srtTimestamp(seg.End), text)
		index++
	}
	return b.String()
}

// WriteSRT renders the transcript and writes it under dir, returning the path.
func WriteSRT(dir, audioPath string, tr *types.Transcript) (string, error) {
	path := SRTPath(dir, audioPath)
	if err := os.WriteFile(path, []byte(RenderSRT(tr)), 0o644); err != nil {
		return "", fmt.Errorf("write srt: %w", err)
	}
	return path, nil
}

// srtTimestamp formats seconds as HH:MM:SS,mmm.
func srtTimestamp(sec float64) string {
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
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
