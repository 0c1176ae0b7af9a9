package main

import (
	"context"
	"fmt"

	"github.com/voxsub/voxsub/internal/config"
	"github.com/voxsub/voxsub/internal/pipeline"
	"github.com/voxsub/voxsub/internal/subtitle"
)

// runPipeline executes the subtitle pipeline for one audio file and prints
// the resulting path.
func runPipeline(ctx context.Context, cfg config.Pipeline, audioPath string, writeSRT bool) error {
	runner := pipeline.NewWithEngine(cfg)

	result, err := runner.Run(ctx, audioPath)
	if err != nil {
		return err
	}

	if writeSRT {
		srtPath, err := subtitle.WriteSRT(cfg.OutputDir, audioPath, result.Transcript)
		if err != nil {
			return err
		}
		fmt.Printf("Saved .srt subtitles to '%s'\n", srtPath)
	}

	fmt.Printf("Saved .vtt subtitles to '%s'\n", result.VTTPath)
	return nil
}
