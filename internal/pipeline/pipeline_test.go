package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxsub/voxsub/internal/config"
	"github.com/voxsub/voxsub/internal/types"
)

// stubStages records the order of stage invocations.
type stubStages struct {
	calls []string
}

func (s *stubStages) Transcribe(ctx context.Context, audioPath string) (*types.Transcript, error) {
	s.calls = append(s.calls, "transcribe")
	return &types.Transcript{
		Language: "en",
		Segments: []types.Segment{
			{Start: 0, End: 2, Text: "hello world"},
			{Start: 3, End: 5, Text: "goodbye"},
		},
	}, nil
}

func (s *stubStages) Align(ctx context.Context, audioPath string, tr *types.Transcript) (*types.Transcript, error) {
	s.calls = append(s.calls, "align")
	for i := range tr.Segments {
		tr.Segments[i].Words = []types.Word{
			{Word: tr.Segments[i].Text, Start: tr.Segments[i].Start, End: tr.Segments[i].End},
		}
	}
	return tr, nil
}

func (s *stubStages) Diarize(ctx context.Context, audioPath string) ([]types.SpeakerTurn, error) {
	s.calls = append(s.calls, "diarize")
	return []types.SpeakerTurn{
		{Speaker: "SPEAKER_00", Start: 0, End: 2.5},
		{Speaker: "SPEAKER_01", Start: 2.5, End: 6},
	}, nil
}

func testConfig(t *testing.T) (config.Pipeline, string) {
	t.Helper()
	base := t.TempDir()
	cfg := config.Pipeline{
		Device:      "cpu",
		ModelSize:   "large-v2",
		ComputeType: "int8",
		Language:    "en",
		BatchSize:   16,
		ModelDir:    filepath.Join(base, "models"),
		OutputDir:   filepath.Join(base, "output"),
		HFToken:     "hf_test",
	}
	audioPath := filepath.Join(base, "speech.mp3")
	if err := os.WriteFile(audioPath, []byte("fake audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfg, audioPath
}

func TestRunStageOrder(t *testing.T) {
	cfg, audioPath := testConfig(t)
	stages := &stubStages{}
	runner := New(cfg, stages, stages, stages)

	result, err := runner.Run(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"transcribe", "align", "diarize"}
	if len(stages.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", stages.calls, want)
	}
	for i := range want {
		if stages.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", stages.calls, want)
		}
	}

	// Speaker assignment happened after diarization.
	if result.Transcript.Segments[0].Speaker != "SPEAKER_00" {
		t.Errorf("segment 0 speaker = %q, want SPEAKER_00", result.Transcript.Segments[0].Speaker)
	}
	if result.Transcript.Segments[1].Speaker != "SPEAKER_01" {
		t.Errorf("segment 1 speaker = %q, want SPEAKER_01", result.Transcript.Segments[1].Speaker)
	}
}

func TestRunDeterministicOutputPath(t *testing.T) {
	cfg, audioPath := testConfig(t)
	stages := &stubStages{}
	runner := New(cfg, stages, stages, stages)

	result, err := runner.Run(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := filepath.Join(cfg.OutputDir, "speech.vtt")
	if result.VTTPath != want {
		t.Errorf("VTTPath = %q, want %q", result.VTTPath, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestRunMissingTokenSkipsStages(t *testing.T) {
	cfg, audioPath := testConfig(t)
	cfg.HFToken = ""
	stages := &stubStages{}
	runner := New(cfg, stages, stages, stages)

	_, err := runner.Run(context.Background(), audioPath)
	if err == nil {
		t.Fatal("expected error for missing token")
	}
	if len(stages.calls) != 0 {
		t.Errorf("expected no stage calls, got %v", stages.calls)
	}
}

func TestRunMissingAudioSkipsStages(t *testing.T) {
	cfg, _ := testConfig(t)
	stages := &stubStages{}
	runner := New(cfg, stages, stages, stages)

	_, err := runner.Run(context.Background(), filepath.Join(cfg.OutputDir, "does-not-exist.mp3"))
	if err == nil {
		t.Fatal("expected error for missing audio file")
	}
	if len(stages.calls) != 0 {
		t.Errorf("expected no stage calls, got %v", stages.calls)
	}
}

func TestRunCreatesDirectories(t *testing.T) {
	cfg, audioPath := testConfig(t)
	stages := &stubStages{}
	runner := New(cfg, stages, stages, stages)

	if _, err := runner.Run(context.Background(), audioPath); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, dir := range []string{cfg.ModelDir, cfg.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("directory %q not created", dir)
		}
	}

	// Second run with existing directories must not fail.
	if _, err := runner.Run(context.Background(), audioPath); err != nil {
		t.Fatalf("Run with existing directories: %v", err)
	}
}

func TestRunReportsStageDurations(t *testing.T) {
	cfg, audioPath := testConfig(t)
	stages := &stubStages{}

	var observed []string
	runner := New(cfg, stages, stages, stages).
		WithObserver(func(stage string, _ time.Duration) {
			observed = append(observed, stage)
		})

	if _, err := runner.Run(context.Background(), audioPath); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"transcribe", "align", "diarize"}
	if len(observed) != len(want) {
		t.Fatalf("observed = %v, want %v", observed, want)
	}
	for i := range want {
		if observed[i] != want[i] {
			t.Fatalf("observed = %v, want %v", observed, want)
		}
	}
}
