package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Defaults for the pipeline configuration.
const (
	DefaultModelSize   = "large-v2"
	DefaultDevice      = "cuda"
	DefaultComputeType = "float16"
	DefaultLanguage    = "en"
	DefaultBatchSize   = 16
	DefaultModelDir    = "./models"
	DefaultOutputDir   = "./output"
)

// Pipeline holds the settings for a transcription run. HFToken authenticates
// the diarization model download; everything else selects model and hardware.
type Pipeline struct {
	Device      string `yaml:"device"`
	ModelSize   string `yaml:"model"`
	ComputeType string `yaml:"compute_type"`
	Language    string `yaml:"language"`
	BatchSize   int    `yaml:"batch_size"`
	ModelDir    string `yaml:"model_dir"`
	OutputDir   string `yaml:"output_dir"`
	HFToken     string `yaml:"-"`
}

// LoadPipeline builds a pipeline configuration from the environment.
// A .env file in the working directory is loaded first when present.
// Recognized variables: HF_TOKEN, OUTPUT_DIR.
func LoadPipeline() Pipeline {
	// Missing .env is fine; the variables may already be exported.
	_ = godotenv.Load()

	return Pipeline{
		Device:      DefaultDevice,
		ModelSize:   DefaultModelSize,
		ComputeType: DefaultComputeType,
		Language:    DefaultLanguage,
		BatchSize:   DefaultBatchSize,
		ModelDir:    DefaultModelDir,
		OutputDir:   envOrDefault("OUTPUT_DIR", DefaultOutputDir),
		HFToken:     os.Getenv("HF_TOKEN"),
	}
}

// Validate checks the enum-valued fields and fills empty ones with defaults.
func (p *Pipeline) Validate() error {
	if p.ModelSize == "" {
		p.ModelSize = DefaultModelSize
	}
	if p.Language == "" {
		p.Language = DefaultLanguage
	}
	if p.BatchSize <= 0 {
		p.BatchSize = DefaultBatchSize
	}
	if p.ModelDir == "" {
		p.ModelDir = DefaultModelDir
	}
	if p.OutputDir == "" {
		p.OutputDir = DefaultOutputDir
	}
	switch p.Device {
	case "":
		p.Device = DefaultDevice
	case "cpu", "cuda":
	default:
		return fmt.Errorf("invalid device %q (expected cpu or cuda)", p.Device)
	}
	switch p.ComputeType {
	case "":
		p.ComputeType = DefaultComputeType
	case "float16", "int8":
	default:
		return fmt.Errorf("invalid compute type %q (expected float16 or int8)", p.ComputeType)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
