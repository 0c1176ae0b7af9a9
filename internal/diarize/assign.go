// Package diarize assigns diarized speaker labels to transcript words and
// segments by temporal overlap.
package diarize

import (
	"github.com/voxsub/voxsub/internal/types"
)

// AssignSpeakers labels every segment and aligned word with the speaker whose
// diarized turns overlap it the most. Spans with no overlapping turn keep an
// empty speaker. The transcript is modified in place.
func AssignSpeakers(turns []types.SpeakerTurn, tr *types.Transcript) {
	if len(turns) == 0 || tr == nil {
		return
	}
	for i := range tr.Segments {
		seg := &tr.Segments[i]
		seg.Speaker = dominantSpeaker(turns, seg.Start, seg.End)
		for j := range seg.Words {
			w := &seg.Words[j]
			if speaker := dominantSpeaker(turns, w.Start, w.End); speaker != "" {
				w.Speaker = speaker
			} else {
				// Zero-length or unvoiced words inherit the segment speaker.
				w.Speaker = seg.Speaker
			}
		}
	}
}

// dominantSpeaker returns the speaker with the greatest total overlap with
// [start, end). Ties resolve to the speaker whose overlapping turn appears
// first.
func dominantSpeaker(turns []types.SpeakerTurn, start, end float64) string {
	overlaps := make(map[string]float64)
	var order []string
	for _, turn := range turns {
		o := overlap(start, end, turn.Start, turn.End)
		if o <= 0 {
			continue
		}
		if _, seen := overlaps[turn.Speaker]; !seen {
			order = append(order, turn.Speaker)
		}
		overlaps[turn.Speaker] += o
	}

	best := ""
	bestOverlap := 0.0
	for _, speaker := range order {
		if overlaps[speaker] > bestOverlap {
			best = speaker
			bestOverlap = overlaps[speaker]
		}
	}
	return best
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	return end - start
}
