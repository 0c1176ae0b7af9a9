package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/voxsub/voxsub/internal/config"
	"github.com/voxsub/voxsub/internal/types"
)

func testEngine(out string, err error) (*Engine, *[][]string) {
	cfg := config.Pipeline{
		Device:      "cpu",
		ModelSize:   "large-v2",
		ComputeType: "int8",
		Language:    "en",
		BatchSize:   16,
		ModelDir:    "./models",
		HFToken:     "hf_test",
	}
	var calls [][]string
	engine := NewEngine(cfg).WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		return []byte(out), err
	})
	return engine, &calls
}

func argValue(t *testing.T, args []string, flag string) string {
	t.Helper()
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatalf("flag %s not passed, args: %v", flag, args)
	return ""
}

func TestTranscribe(t *testing.T) {
	engine, calls := testEngine(`{"language":"en","segments":[{"start":0,"end":2,"text":"  hello world  "}]}`, nil)

	tr, err := engine.Transcribe(context.Background(), "/tmp/in.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Language != "en" {
		t.Errorf("language = %q, want en", tr.Language)
	}
	if len(tr.Segments) != 1 || tr.Segments[0].Text != "hello world" {
		t.Errorf("segments = %+v, want one trimmed segment", tr.Segments)
	}

	args := (*calls)[0]
	if base := filepath.Base(args[1]); !strings.HasPrefix(base, "voxsub_") || !strings.HasSuffix(base, "transcribe.py") {
		t.Errorf("script path = %q", args[1])
	}
	if got := argValue(t, args, "--model"); got != "large-v2" {
		t.Errorf("--model = %q", got)
	}
	if got := argValue(t, args, "--compute-type"); got != "int8" {
		t.Errorf("--compute-type = %q", got)
	}
	if got := argValue(t, args, "--batch-size"); got != "16" {
		t.Errorf("--batch-size = %q", got)
	}
	if got := argValue(t, args, "--audio"); got != "/tmp/in.wav" {
		t.Errorf("--audio = %q", got)
	}
}

func TestTranscribeBadJSON(t *testing.T) {
	engine, _ := testEngine("not json", nil)
	if _, err := engine.Transcribe(context.Background(), "/tmp/in.wav"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTranscribeCommandError(t *testing.T) {
	engine, _ := testEngine("", errors.New("model not found"))
	_, err := engine.Transcribe(context.Background(), "/tmp/in.wav")
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("err = %v, want wrapped command error", err)
	}
}

func TestAlign(t *testing.T) {
	engine, calls := testEngine(`{"segments":[{"start":0,"end":2,"text":"hello","words":[{"word":"hello","start":0.1,"end":0.4,"score":0.98}]}]}`, nil)

	in := &types.Transcript{
		Language: "en",
		Segments: []types.Segment{{Start: 0, End: 2, Text: "hello"}},
	}
	aligned, err := engine.Align(context.Background(), "/tmp/in.wav", in)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if aligned.Language != "en" {
		t.Errorf("language not inherited, got %q", aligned.Language)
	}
	if len(aligned.Segments[0].Words) != 1 || aligned.Segments[0].Words[0].Word != "hello" {
		t.Errorf("words = %+v", aligned.Segments[0].Words)
	}

	// The helper receives the input segments through a temp JSON file.
	args := (*calls)[0]
	segPath := argValue(t, args, "--segments")
	if _, err := os.Stat(segPath); err == nil {
		t.Errorf("segments temp file %q not cleaned up", segPath)
	}
	if got := argValue(t, args, "--language"); got != "en" {
		t.Errorf("--language = %q", got)
	}
}

func TestAlignSegmentsFileContents(t *testing.T) {
	var segJSON []byte
	cfg := config.Pipeline{Device: "cpu", Language: "en"}
	engine := NewEngine(cfg).WithCommandRunner(func(_ context.Context, _ string, args ...string) ([]byte, error) {
		for i, a := range args {
			if a == "--segments" {
				segJSON, _ = os.ReadFile(args[i+1])
			}
		}
		return []byte(`{"segments":[]}`), nil
	})

	in := &types.Transcript{
		Language: "en",
		Segments: []types.Segment{{Start: 1.5, End: 3, Text: "hi"}},
	}
	if _, err := engine.Align(context.Background(), "/tmp/in.wav", in); err != nil {
		t.Fatalf("Align: %v", err)
	}

	var got []types.Segment
	if err := json.Unmarshal(segJSON, &got); err != nil {
		t.Fatalf("segments file not valid JSON: %v", err)
	}
	if len(got) != 1 || got[0].Text != "hi" || got[0].Start != 1.5 {
		t.Errorf("segments file = %+v", got)
	}
}

func TestDiarize(t *testing.T) {
	engine, calls := testEngine(`{"turns":[{"speaker":"SPEAKER_00","start":0,"end":4.2}]}`, nil)

	turns, err := engine.Diarize(context.Background(), "/tmp/in.wav")
	if err != nil {
		t.Fatalf("Diarize: %v", err)
	}
	if len(turns) != 1 || turns[0].Speaker != "SPEAKER_00" || turns[0].End != 4.2 {
		t.Errorf("turns = %+v", turns)
	}
	if got := argValue(t, (*calls)[0], "--hf-token"); got != "hf_test" {
		t.Errorf("--hf-token = %q", got)
	}
}

func TestDiarizeRequiresToken(t *testing.T) {
	engine, calls := testEngine(`{"turns":[]}`, nil)
	engine.cfg.HFToken = ""

	if _, err := engine.Diarize(context.Background(), "/tmp/in.wav"); err == nil {
		t.Fatal("expected error without token")
	}
	if len(*calls) != 0 {
		t.Errorf("helper invoked without token: %v", *calls)
	}
}

func TestConcurrentHelperScripts(t *testing.T) {
	cfg := config.Pipeline{Device: "cpu", ModelSize: "large-v2", ComputeType: "int8", BatchSize: 16, Language: "en"}

	var mu sync.Mutex
	var missing []string
	engine := NewEngine(cfg).WithCommandRunner(func(_ context.Context, _ string, args ...string) ([]byte, error) {
		// The materialized script must still exist while the command runs.
		if _, err := os.Stat(args[0]); err != nil {
			mu.Lock()
			missing = append(missing, err.Error())
			mu.Unlock()
		}
		return []byte(`{"language":"en","segments":[]}`), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.Transcribe(context.Background(), "/tmp/in.wav"); err != nil {
				t.Errorf("Transcribe: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(missing) > 0 {
		t.Errorf("helper script removed while in use: %v", missing)
	}
}

func TestNewEnginePythonOverride(t *testing.T) {
	t.Setenv("VOXSUB_PYTHON", "/opt/venv/bin/python")
	engine := NewEngine(config.Pipeline{})
	if engine.python != "/opt/venv/bin/python" {
		t.Errorf("python = %q", engine.python)
	}
}
