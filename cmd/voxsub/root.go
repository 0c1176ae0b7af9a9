package main

import (
	"github.com/spf13/cobra"

	"github.com/voxsub/voxsub/internal/config"
	"github.com/voxsub/voxsub/internal/logging"
)

func newRootCommand() *cobra.Command {
	var (
		deviceFlag    string
		modelFlag     string
		computeFlag   string
		outputDirFlag string
		languageFlag  string
		srtFlag       bool
		verboseFlag   bool
	)

	rootCmd := &cobra.Command{
		Use:   "voxsub <audio-file>",
		Short: "Generate speaker-labeled subtitles from an audio file",
		Long: `voxsub transcribes an audio file, force-aligns the transcript to word-level
timestamps, diarizes speakers, and writes a WebVTT subtitle file named after
the input into the output directory.

HF_TOKEN must be set (directly or via a .env file) to authenticate the
diarization model download. OUTPUT_DIR overrides the default output folder.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if verboseFlag {
				level = "debug"
			}
			logging.Init(level, "console")

			cfg := config.LoadPipeline()
			if deviceFlag != "" {
				cfg.Device = deviceFlag
			}
			if modelFlag != "" {
				cfg.ModelSize = modelFlag
			}
			if computeFlag != "" {
				cfg.ComputeType = computeFlag
			}
			if outputDirFlag != "" {
				cfg.OutputDir = outputDirFlag
			}
			if languageFlag != "" {
				cfg.Language = languageFlag
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runPipeline(cmd.Context(), cfg, args[0], srtFlag)
		},
	}

	rootCmd.Flags().StringVar(&deviceFlag, "device", "", "Device to run inference on: cuda or cpu (default cuda)")
	rootCmd.Flags().StringVar(&modelFlag, "model", "", "Whisper model size to load (default large-v2)")
	rootCmd.Flags().StringVar(&computeFlag, "compute-type", "", "Model precision: float16 or int8 (default float16)")
	rootCmd.Flags().StringVarP(&outputDirFlag, "output-dir", "o", "", "Directory for the subtitle file (default $OUTPUT_DIR or ./output)")
	rootCmd.Flags().StringVar(&languageFlag, "language", "", "Transcription language code (default en)")
	rootCmd.Flags().BoolVar(&srtFlag, "srt", false, "Also write an SRT file next to the VTT")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	return rootCmd
}
