package types

import (
	"strings"
	"time"
)

// Job status constants
const (
	StatusQueued     = "QUEUED"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Source type constants
const (
	SourceUpload  = "upload"
	SourceGDrive  = "gdrive"
	SourceYouTube = "youtube"
	SourceStream  = "stream"
	SourceCLI     = "cli"
)

// Word is a single word with alignment timestamps. Score is the alignment
// confidence; Speaker is filled in by speaker assignment.
type Word struct {
	Word    string  `json:"word"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Score   float64 `json:"score,omitempty"`
	Speaker string  `json:"speaker,omitempty"`
}

// Segment is a timestamped span of transcribed speech.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Words   []Word  `json:"words,omitempty"`
	Speaker string  `json:"speaker,omitempty"`
}

// SpeakerTurn is one diarized interval attributed to a single speaker.
type SpeakerTurn struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Transcript is the pipeline result as it moves through the stages:
// transcription fills Segments and Language, alignment fills Words,
// speaker assignment fills the Speaker fields.
type Transcript struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Text concatenates the segment texts.
func (t *Transcript) Text() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Duration returns the end time of the last segment in seconds.
func (t *Transcript) Duration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// WordCount counts aligned words, falling back to whitespace splitting
// when a segment has no word-level alignment.
func (t *Transcript) WordCount() int {
	n := 0
	for _, seg := range t.Segments {
		if len(seg.Words) > 0 {
			n += len(seg.Words)
		} else {
			n += len(strings.Fields(seg.Text))
		}
	}
	return n
}

// Speakers returns the distinct speaker labels in segment order.
func (t *Transcript) Speakers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, seg := range t.Segments {
		if seg.Speaker != "" && !seen[seg.Speaker] {
			seen[seg.Speaker] = true
			out = append(out, seg.Speaker)
		}
	}
	return out
}

// SubtitleResult describes a finished pipeline run.
type SubtitleResult struct {
	JobID       string
	Transcript  *Transcript
	VTTPath     string
	LocalPath   string
	GDriveURL   string
	ProcessedAt time.Time
}
