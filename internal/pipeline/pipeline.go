// Package pipeline sequences the transcription stages: transcribe, align,
// diarize, assign speakers, write subtitles. The order is fixed regardless of
// input; every stage is a blocking call with no retries.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/voxsub/voxsub/internal/config"
	"github.com/voxsub/voxsub/internal/diarize"
	"github.com/voxsub/voxsub/internal/logging"
	"github.com/voxsub/voxsub/internal/subtitle"
	"github.com/voxsub/voxsub/internal/types"
	"github.com/voxsub/voxsub/internal/whisperx"
)

// Transcriber produces raw timestamped segments from audio.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*types.Transcript, error)
}

// Aligner adds word-level timestamps to a transcript.
type Aligner interface {
	Align(ctx context.Context, audioPath string, tr *types.Transcript) (*types.Transcript, error)
}

// Diarizer partitions audio into speaker turns.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]types.SpeakerTurn, error)
}

// StageObserver is called after each stage completes, for metrics.
type StageObserver func(stage string, elapsed time.Duration)

// Runner executes the subtitle pipeline.
type Runner struct {
	cfg         config.Pipeline
	transcriber Transcriber
	aligner     Aligner
	diarizer    Diarizer
	observer    StageObserver
}

// New creates a runner over explicit stage implementations.
func New(cfg config.Pipeline, t Transcriber, a Aligner, d Diarizer) *Runner {
	return &Runner{cfg: cfg, transcriber: t, aligner: a, diarizer: d}
}

// NewWithEngine creates a runner backed by the WhisperX engine for all
// model stages.
func NewWithEngine(cfg config.Pipeline) *Runner {
	engine := whisperx.NewEngine(cfg)
	return New(cfg, engine, engine, engine)
}

// WithObserver registers a per-stage completion callback.
func (r *Runner) WithObserver(obs StageObserver) *Runner {
	r.observer = obs
	return r
}

// Run transcribes, aligns, diarizes and labels audioPath, then writes the
// subtitle file to <output_dir>/<base>.vtt. Preconditions are checked before
// any model is invoked: the HF token must be set and the input must exist.
func (r *Runner) Run(ctx context.Context, audioPath string) (*types.SubtitleResult, error) {
	log := logging.WithComponent("pipeline")

	if r.cfg.HFToken == "" {
		return nil, fmt.Errorf("HF_TOKEN not set in environment")
	}
	if info, err := os.Stat(audioPath); err != nil || info.IsDir() {
		return nil, fmt.Errorf("audio file %q not found", audioPath)
	}
	if err := os.MkdirAll(r.cfg.ModelDir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	log.Info().
		Str("audio", audioPath).
		Str("model", r.cfg.ModelSize).
		Str("device", r.cfg.Device).
		Str("computeType", r.cfg.ComputeType).
		Msg("transcribing")
	start := time.Now()
	tr, err := r.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	r.observe("transcribe", start)
	log.Info().Int("segments", len(tr.Segments)).Str("language", tr.Language).Msg("transcription done")

	log.Info().Msg("aligning segments")
	start = time.Now()
	tr, err = r.aligner.Align(ctx, audioPath, tr)
	if err != nil {
		return nil, err
	}
	r.observe("align", start)

	log.Info().Msg("diarizing speakers")
	start = time.Now()
	turns, err := r.diarizer.Diarize(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	r.observe("diarize", start)
	log.Info().Int("turns", len(turns)).Msg("diarization done")

	diarize.AssignSpeakers(turns, tr)

	vttPath, err := subtitle.WriteVTT(r.cfg.OutputDir, audioPath, tr)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", vttPath).Msg("subtitles written")

	return &types.SubtitleResult{
		Transcript:  tr,
		VTTPath:     vttPath,
		ProcessedAt: time.Now(),
	}, nil
}

func (r *Runner) observe(stage string, start time.Time) {
	if r.observer != nil {
		r.observer(stage, time.Since(start))
	}
}
