package types

import (
	"reflect"
	"testing"
)

func sampleTranscript() *Transcript {
	return &Transcript{
		Language: "en",
		Segments: []Segment{
			{Start: 0, End: 2, Text: "hello world", Speaker: "SPEAKER_00",
				Words: []Word{{Word: "hello"}, {Word: "world"}}},
			{Start: 2, End: 4, Text: "  how are you  ", Speaker: "SPEAKER_01"},
			{Start: 4, End: 6.5, Text: "fine", Speaker: "SPEAKER_00"},
		},
	}
}

func TestTranscriptText(t *testing.T) {
	tr := sampleTranscript()
	want := "hello world how are you fine"
	if got := tr.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}

	empty := &Transcript{Segments: []Segment{{Text: "   "}}}
	if got := empty.Text(); got != "" {
		t.Errorf("Text() on blank segments = %q, want empty", got)
	}
}

func TestTranscriptDuration(t *testing.T) {
	tr := sampleTranscript()
	if got := tr.Duration(); got != 6.5 {
		t.Errorf("Duration() = %v, want 6.5", got)
	}
	if got := (&Transcript{}).Duration(); got != 0 {
		t.Errorf("Duration() on empty = %v, want 0", got)
	}
}

func TestTranscriptWordCount(t *testing.T) {
	tr := sampleTranscript()
	// 2 aligned words + 3 from whitespace split + 1 from whitespace split.
	if got := tr.WordCount(); got != 6 {
		t.Errorf("WordCount() = %d, want 6", got)
	}
}

func TestTranscriptSpeakers(t *testing.T) {
	tr := sampleTranscript()
	want := []string{"SPEAKER_00", "SPEAKER_01"}
	if got := tr.Speakers(); !reflect.DeepEqual(got, want) {
		t.Errorf("Speakers() = %v, want %v", got, want)
	}

	if got := (&Transcript{Segments: []Segment{{Text: "x"}}}).Speakers(); len(got) != 0 {
		t.Errorf("Speakers() without labels = %v, want none", got)
	}
}
