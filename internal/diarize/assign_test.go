package diarize

import (
	"testing"

	"github.com/voxsub/voxsub/internal/types"
)

func TestAssignSpeakers(t *testing.T) {
	turns := []types.SpeakerTurn{
		{Speaker: "SPEAKER_00", Start: 0, End: 5},
		{Speaker: "SPEAKER_01", Start: 5, End: 10},
	}
	tr := &types.Transcript{Segments: []types.Segment{
		{Start: 1, End: 4, Text: "first", Words: []types.Word{
			{Word: "first", Start: 1, End: 4},
		}},
		{Start: 6, End: 9, Text: "second", Words: []types.Word{
			{Word: "second", Start: 6, End: 9},
		}},
	}}

	AssignSpeakers(turns, tr)

	if tr.Segments[0].Speaker != "SPEAKER_00" {
		t.Errorf("segment 0 speaker = %q, want SPEAKER_00", tr.Segments[0].Speaker)
	}
	if tr.Segments[1].Speaker != "SPEAKER_01" {
		t.Errorf("segment 1 speaker = %q, want SPEAKER_01", tr.Segments[1].Speaker)
	}
	if tr.Segments[0].Words[0].Speaker != "SPEAKER_00" {
		t.Errorf("word speaker = %q, want SPEAKER_00", tr.Segments[0].Words[0].Speaker)
	}
}

func TestAssignSpeakersMaxOverlapWins(t *testing.T) {
	// Segment spans both turns but mostly the second speaker.
	turns := []types.SpeakerTurn{
		{Speaker: "SPEAKER_00", Start: 0, End: 2},
		{Speaker: "SPEAKER_01", Start: 2, End: 10},
	}
	tr := &types.Transcript{Segments: []types.Segment{
		{Start: 1, End: 8, Text: "crossing"},
	}}

	AssignSpeakers(turns, tr)

	if tr.Segments[0].Speaker != "SPEAKER_01" {
		t.Errorf("speaker = %q, want SPEAKER_01 (larger overlap)", tr.Segments[0].Speaker)
	}
}

func TestAssignSpeakersSplitTurnsAccumulate(t *testing.T) {
	// SPEAKER_00 appears in two short turns that together outweigh
	// SPEAKER_01's single longer turn.
	turns := []types.SpeakerTurn{
		{Speaker: "SPEAKER_00", Start: 0, End: 2},
		{Speaker: "SPEAKER_01", Start: 2, End: 5},
		{Speaker: "SPEAKER_00", Start: 5, End: 8},
	}
	tr := &types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 8, Text: "long"},
	}}

	AssignSpeakers(turns, tr)

	if tr.Segments[0].Speaker != "SPEAKER_00" {
		t.Errorf("speaker = %q, want SPEAKER_00 (accumulated overlap)", tr.Segments[0].Speaker)
	}
}

func TestAssignSpeakersNoTurns(t *testing.T) {
	tr := &types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 1, Text: "hi"},
	}}

	AssignSpeakers(nil, tr)

	if tr.Segments[0].Speaker != "" {
		t.Errorf("expected empty speaker without turns, got %q", tr.Segments[0].Speaker)
	}
}

func TestAssignSpeakersNoOverlapLeavesSegmentEmpty(t *testing.T) {
	turns := []types.SpeakerTurn{
		{Speaker: "SPEAKER_00", Start: 100, End: 110},
	}
	tr := &types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 5, Text: "silence region"},
	}}

	AssignSpeakers(turns, tr)

	if tr.Segments[0].Speaker != "" {
		t.Errorf("expected empty speaker, got %q", tr.Segments[0].Speaker)
	}
}

func TestAssignSpeakersWordInheritsSegmentSpeaker(t *testing.T) {
	turns := []types.SpeakerTurn{
		{Speaker: "SPEAKER_00", Start: 0, End: 4},
	}
	tr := &types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 4, Text: "uh huh", Words: []types.Word{
			{Word: "uh", Start: 1, End: 2},
			// Zero-length word outside any turn.
			{Word: "huh", Start: 6, End: 6},
		}},
	}}

	AssignSpeakers(turns, tr)

	if tr.Segments[0].Words[1].Speaker != "SPEAKER_00" {
		t.Errorf("expected word to inherit segment speaker, got %q", tr.Segments[0].Words[1].Speaker)
	}
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		aStart, aEnd, bStart, bEnd float64
		want                       float64
	}{
		{0, 5, 2, 8, 3},
		{2, 8, 0, 5, 3},
		{0, 1, 2, 3, -1},
		{0, 10, 3, 4, 1},
	}
	for _, tt := range tests {
		if got := overlap(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
			t.Errorf("overlap(%v,%v,%v,%v) = %v, want %v",
				tt.aStart, tt.aEnd, tt.bStart, tt.bEnd, got, tt.want)
		}
	}
}
