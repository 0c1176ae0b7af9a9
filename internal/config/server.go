package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Server represents the service configuration loaded from YAML.
type Server struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Pipeline Pipeline `yaml:"pipeline"`

	Workers struct {
		Count int `yaml:"count"`
	} `yaml:"workers"`

	Storage struct {
		TempDir   string `yaml:"temp_dir"`
		OutputDir string `yaml:"output_dir"`
		Database  string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	Events struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"events"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Limits struct {
		MaxFileSizeMB      int `yaml:"max_file_size_mb"`
		MaxDurationMinutes int `yaml:"max_duration_minutes"`
	} `yaml:"limits"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// LoadServer loads the service configuration from a YAML file. HF_TOKEN is
// always taken from the environment, never from the file.
func LoadServer(path string) (*Server, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Server
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	_ = godotenv.Load()
	cfg.Pipeline.HFToken = os.Getenv("HF_TOKEN")
	if cfg.Pipeline.OutputDir == "" {
		cfg.Pipeline.OutputDir = cfg.Storage.OutputDir
	}
	if err := cfg.Pipeline.Validate(); err != nil {
		return nil, err
	}
	applyServerDefaults(&cfg)
	return &cfg, nil
}

func applyServerDefaults(cfg *Server) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Workers.Count <= 0 {
		cfg.Workers.Count = 2
	}
	if cfg.Storage.TempDir == "" {
		cfg.Storage.TempDir = "temp"
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = DefaultOutputDir
	}
	if cfg.Storage.Database == "" {
		cfg.Storage.Database = "voxsub.db"
	}
	if cfg.Cleanup.IntervalMinutes <= 0 {
		cfg.Cleanup.IntervalMinutes = 30
	}
	if cfg.Cleanup.MaxAgeHours <= 0 {
		cfg.Cleanup.MaxAgeHours = 24
	}
	if cfg.Limits.MaxFileSizeMB <= 0 {
		cfg.Limits.MaxFileSizeMB = 200
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}
