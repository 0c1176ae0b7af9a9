package queue

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/voxsub/voxsub/internal/events"
	"github.com/voxsub/voxsub/internal/logging"
	"github.com/voxsub/voxsub/internal/media"
	"github.com/voxsub/voxsub/internal/metrics"
	"github.com/voxsub/voxsub/internal/pipeline"
	"github.com/voxsub/voxsub/internal/storage"
	"github.com/voxsub/voxsub/internal/types"
)

// NormalizeFunc converts an input file to the audio format the pipeline
// expects. Matches media.Normalize.
type NormalizeFunc func(ctx context.Context, inputPath, tempDir, baseName string) (string, error)

// WorkerPool manages a pool of workers running the subtitle pipeline.
type WorkerPool struct {
	jobQueue     chan *Job
	workerCount  int
	runner       *pipeline.Runner
	tempDir      string
	localStorage *storage.LocalStorage
	driveClient  *storage.DriveClient
	db           *storage.MetadataDB
	publisher    *events.Publisher
	metrics      *metrics.Metrics
	normalize    NormalizeFunc
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(
	workerCount int,
	runner *pipeline.Runner,
	tempDir string,
	localStorage *storage.LocalStorage,
	driveClient *storage.DriveClient,
	db *storage.MetadataDB,
	publisher *events.Publisher,
) *WorkerPool {
	return &WorkerPool{
		jobQueue:     make(chan *Job, 100),
		workerCount:  workerCount,
		runner:       runner,
		tempDir:      tempDir,
		localStorage: localStorage,
		driveClient:  driveClient,
		db:           db,
		publisher:    publisher,
		metrics:      metrics.Default,
		normalize:    media.Normalize,
	}
}

// Start launches all workers.
func (wp *WorkerPool) Start() {
	log := logging.WithComponent("queue")
	log.Info().Int("workers", wp.workerCount).Msg("starting worker pool")
	for i := 0; i < wp.workerCount; i++ {
		go wp.worker(i)
	}
}

// EnqueueJob adds a job to the queue.
func (wp *WorkerPool) EnqueueJob(job *Job) {
	job.Status = types.StatusQueued
	job.CreatedAt = time.Now()
	wp.jobQueue <- job
	wp.metrics.QueueDepth.Set(float64(len(wp.jobQueue)))
	log := logging.WithJob(job.ID, job.SourceType)
	log.Info().Str("name", job.RequestName).Msg("job enqueued")
}

// worker processes jobs from the queue.
func (wp *WorkerPool) worker(id int) {
	log := logging.WithComponent("queue")
	log.Debug().Int("worker", id).Msg("worker started")

	for job := range wp.jobQueue {
		wp.metrics.QueueDepth.Set(float64(len(wp.jobQueue)))
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Int("worker", id).
						Str("jobId", job.ID).
						Interface("panic", r).
						Str("stack", string(debug.Stack())).
						Msg("panic while processing job")
					job.Status = types.StatusFailed
					job.Error = fmt.Errorf("worker panic: %v", r)
					wp.cleanupTempFile(job.FilePath)
				}
			}()

			wp.processJob(id, job)
		}()
	}
}

// processJob runs the full pipeline for one job.
func (wp *WorkerPool) processJob(workerID int, job *Job) {
	log := logging.WithJob(job.ID, job.SourceType)
	log.Info().Int("worker", workerID).Msg("processing job")
	job.Status = types.StatusProcessing
	wp.metrics.JobsActive.Inc()
	defer wp.metrics.JobsActive.Dec()
	started := time.Now()

	ctx := context.Background()

	fail := func(stage string, err error) {
		log.Error().Err(err).Msg(stage + " failed")
		job.Status = types.StatusFailed
		job.Error = fmt.Errorf("%s failed: %w", stage, err)
		wp.cleanupTempFile(job.FilePath)
		wp.metrics.RecordJob(job.SourceType, types.StatusFailed, time.Since(started))
		wp.publishEvent(ctx, job)
	}

	// Step 1: normalize audio to 16kHz mono WAV, named after the job so the
	// working subtitle file inherits the job ID.
	normalizedPath, err := wp.normalize(ctx, job.FilePath, wp.tempDir, job.ID)
	if err != nil {
		fail("audio normalization", err)
		return
	}
	defer wp.cleanupTempFile(normalizedPath)

	// Step 2: transcribe, align, diarize, assign speakers, write subtitles
	result, err := wp.runner.Run(ctx, normalizedPath)
	if err != nil {
		fail("pipeline", err)
		return
	}
	result.JobID = job.ID
	job.Result = result

	// Step 3: archive locally
	localPath, err := wp.localStorage.SaveResult(job.RequestName, result)
	if err != nil {
		fail("local save", err)
		return
	}
	result.LocalPath = localPath

	// Step 4: upload to Google Drive (with retry)
	if wp.driveClient != nil {
		var driveURL string
		for attempt := 1; attempt <= 3; attempt++ {
			driveURL, err = wp.driveClient.Upload(job.RequestName, result)
			if err == nil {
				result.GDriveURL = driveURL
				break
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("google drive upload failed")
			if attempt < 3 {
				time.Sleep(time.Duration(attempt*attempt) * time.Second)
			}
		}
		if err != nil {
			log.Warn().Msg("google drive upload abandoned, keeping local copy only")
		}
	}

	// Step 5: persist metadata
	if wp.db != nil {
		err = wp.db.SaveTranscript(storage.TranscriptRecord{
			JobID:       job.ID,
			RequestName: job.RequestName,
			SourceType:  job.SourceType,
			Language:    result.Transcript.Language,
			Speakers:    result.Transcript.Speakers(),
			GDriveURL:   result.GDriveURL,
			LocalPath:   localPath,
			CreatedAt:   result.ProcessedAt,
			Duration:    result.Transcript.Duration(),
			WordCount:   result.Transcript.WordCount(),
		})
		if err != nil {
			log.Error().Err(err).Msg("database save failed")
		}
	}

	// Step 6: cleanup and notify
	wp.cleanupTempFile(job.FilePath)
	job.Status = types.StatusCompleted
	wp.metrics.RecordJob(job.SourceType, types.StatusCompleted, time.Since(started))
	wp.publishEvent(ctx, job)

	log.Info().
		Int("worker", workerID).
		Str("local", localPath).
		Str("gdrive", result.GDriveURL).
		Msg("job completed")
}

// publishEvent emits a completion or failure event when a publisher is wired.
func (wp *WorkerPool) publishEvent(ctx context.Context, job *Job) {
	if wp.publisher == nil {
		return
	}
	event := events.JobEvent{
		JobID:       job.ID,
		RequestName: job.RequestName,
		SourceType:  job.SourceType,
	}
	if job.Status == types.StatusCompleted && job.Result != nil {
		event.EventType = events.EventJobCompleted
		event.Language = job.Result.Transcript.Language
		event.Speakers = job.Result.Transcript.Speakers()
		event.DurationSecs = job.Result.Transcript.Duration()
		event.VTTPath = job.Result.LocalPath
	} else {
		event.EventType = events.EventJobFailed
		if job.Error != nil {
			event.Error = job.Error.Error()
		}
	}
	if err := wp.publisher.Publish(ctx, event); err != nil {
		log := logging.WithJob(job.ID, job.SourceType)
		log.Warn().Err(err).Msg("event publish failed")
	}
}

// cleanupTempFile removes a temporary file.
func (wp *WorkerPool) cleanupTempFile(filePath string) {
	if filePath == "" {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log := logging.WithComponent("queue")
		log.Warn().Err(err).Str("path", filePath).Msg("failed to cleanup temp file")
	}
}
