package whisperx

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/voxsub/voxsub/internal/config"
	"github.com/voxsub/voxsub/internal/types"
)

//go:embed assets/*.py
var helperScripts embed.FS

// CommandRunner executes an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Engine drives the WhisperX model stages out of process. Each stage runs a
// bundled python helper that prints JSON on stdout.
type Engine struct {
	cfg    config.Pipeline
	python string
	runner CommandRunner
}

// NewEngine creates an engine for the given pipeline configuration.
// The python interpreter can be overridden with VOXSUB_PYTHON.
func NewEngine(cfg config.Pipeline) *Engine {
	python := os.Getenv("VOXSUB_PYTHON")
	if python == "" {
		python = "python3"
	}
	return &Engine{cfg: cfg, python: python}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Engine) WithCommandRunner(runner CommandRunner) *Engine {
	e.runner = runner
	return e
}

// Transcribe runs whisper inference over the audio file and returns raw
// segments with the detected language.
func (e *Engine) Transcribe(ctx context.Context, audioPath string) (*types.Transcript, error) {
	out, err := e.runHelper(ctx, "transcribe.py",
		"--audio", audioPath,
		"--model", e.cfg.ModelSize,
		"--device", e.cfg.Device,
		"--compute-type", e.cfg.ComputeType,
		"--batch-size", strconv.Itoa(e.cfg.BatchSize),
		"--language", e.cfg.Language,
		"--model-dir", e.cfg.ModelDir,
	)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	var tr types.Transcript
	if err := json.Unmarshal(out, &tr); err != nil {
		return nil, fmt.Errorf("transcribe: parse helper output: %w", err)
	}
	for i := range tr.Segments {
		tr.Segments[i].Text = strings.TrimSpace(tr.Segments[i].Text)
	}
	return &tr, nil
}

// Align force-aligns the transcript against the audio, producing word-level
// timestamps. The returned transcript replaces the input segments.
func (e *Engine) Align(ctx context.Context, audioPath string, tr *types.Transcript) (*types.Transcript, error) {
	segPath, err := e.writeSegments(tr.Segments)
	if err != nil {
		return nil, fmt.Errorf("align: %w", err)
	}
	defer os.Remove(segPath)

	out, err := e.runHelper(ctx, "align.py",
		"--audio", audioPath,
		"--segments", segPath,
		"--language", tr.Language,
		"--device", e.cfg.Device,
	)
	if err != nil {
		return nil, fmt.Errorf("align: %w", err)
	}

	var aligned types.Transcript
	if err := json.Unmarshal(out, &aligned); err != nil {
		return nil, fmt.Errorf("align: parse helper output: %w", err)
	}
	if aligned.Language == "" {
		aligned.Language = tr.Language
	}
	for i := range aligned.Segments {
		aligned.Segments[i].Text = strings.TrimSpace(aligned.Segments[i].Text)
	}
	return &aligned, nil
}

// Diarize partitions the audio into speaker turns. Requires a Hugging Face
// token for the pyannote model download.
func (e *Engine) Diarize(ctx context.Context, audioPath string) ([]types.SpeakerTurn, error) {
	if e.cfg.HFToken == "" {
		return nil, fmt.Errorf("diarize: HF token required")
	}
	out, err := e.runHelper(ctx, "diarize.py",
		"--audio", audioPath,
		"--device", e.cfg.Device,
		"--hf-token", e.cfg.HFToken,
	)
	if err != nil {
		return nil, fmt.Errorf("diarize: %w", err)
	}

	var payload struct {
		Turns []types.SpeakerTurn `json:"turns"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("diarize: parse helper output: %w", err)
	}
	return payload.Turns, nil
}

// runHelper materializes an embedded helper script and executes it. Each
// invocation writes its own copy so concurrent stages never share a path.
func (e *Engine) runHelper(ctx context.Context, script string, args ...string) ([]byte, error) {
	data, err := helperScripts.ReadFile("assets/" + script)
	if err != nil {
		return nil, fmt.Errorf("load helper %s: %w", script, err)
	}
	f, err := os.CreateTemp("", "voxsub_*_"+script)
	if err != nil {
		return nil, fmt.Errorf("write helper %s: %w", script, err)
	}
	scriptPath := f.Name()
	defer os.Remove(scriptPath)
	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("write helper %s: %w", script, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write helper %s: %w", script, err)
	}

	cmdArgs := append([]string{scriptPath}, args...)
	if e.runner != nil {
		return e.runner(ctx, e.python, cmdArgs...)
	}

	cmd := exec.CommandContext(ctx, e.python, cmdArgs...)
	cmd.Env = os.Environ()
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%s: %s", script, strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("run %s: %w", script, err)
	}
	return out, nil
}

// writeSegments dumps segments to a temp JSON file for the align helper.
func (e *Engine) writeSegments(segments []types.Segment) (string, error) {
	f, err := os.CreateTemp("", "voxsub_segments_*.json")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(segments); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
