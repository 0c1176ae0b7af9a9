package handlers

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/voxsub/voxsub/internal/logging"
	"github.com/voxsub/voxsub/internal/queue"
	"github.com/voxsub/voxsub/internal/types"
)

// YouTubeHandler captures audio from YouTube videos for subtitling.
type YouTubeHandler struct {
	workerPool *queue.WorkerPool
	tempDir    string
}

// NewYouTubeHandler creates a new YouTube handler.
func NewYouTubeHandler(workerPool *queue.WorkerPool, tempDir string) *YouTubeHandler {
	return &YouTubeHandler{
		workerPool: workerPool,
		tempDir:    tempDir,
	}
}

// YouTubeRequest represents the request body.
type YouTubeRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Handle starts an asynchronous audio capture and enqueues the job when the
// download completes.
func (h *YouTubeHandler) Handle(c *fiber.Ctx) error {
	var req YouTubeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	if req.URL == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "URL is required",
			"code":  "ERR_NO_URL",
		})
	}

	jobID := uuid.New().String()
	tempPath := filepath.Join(h.tempDir, fmt.Sprintf("%s.opus", jobID))

	// Capture in background; long videos take minutes.
	go func() {
		log := logging.WithJob(jobID, types.SourceYouTube)

		name := req.Name
		if name == "" {
			// Probe the page title with headless Chrome so the archive gets
			// a human-readable name instead of the raw URL.
			if title, err := h.probeVideoTitle(req.URL); err == nil && title != "" {
				name = title
			} else {
				name = "youtube_video"
			}
		}

		if err := h.captureWithYtDlp(req.URL, tempPath); err != nil {
			log.Error().Err(err).Msg("youtube audio capture failed")
			return
		}

		job := queue.NewJob(jobID, name, types.SourceYouTube, tempPath)
		h.workerPool.EnqueueJob(job)
	}()

	return c.JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "capturing",
		"message": "YouTube audio capture started (this may take a few minutes for long videos)",
	})
}

// probeVideoTitle loads the video page in headless Chrome and reads its title.
func (h *YouTubeHandler) probeVideoTitle(url string) (string, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var title string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second), // wait for the player metadata
		chromedp.Evaluate(`document.title`, &title, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to probe video page: %w", err)
	}

	title = strings.TrimSuffix(strings.TrimSpace(title), " - YouTube")
	return title, nil
}

// captureWithYtDlp uses yt-dlp to download the audio track.
func (h *YouTubeHandler) captureWithYtDlp(url, outputPath string) error {
	log := logging.WithComponent("handlers")
	log.Info().Str("url", url).Msg("downloading audio with yt-dlp")

	cmd := exec.Command("yt-dlp",
		"-x",
		"--audio-format", "opus",
		"-o", outputPath,
		url,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("yt-dlp failed: %w\nOutput: %s", err, string(output))
	}

	log.Info().Str("path", outputPath).Msg("youtube audio downloaded")
	return nil
}
