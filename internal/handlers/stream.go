package handlers

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/voxsub/voxsub/internal/logging"
	"github.com/voxsub/voxsub/internal/queue"
	"github.com/voxsub/voxsub/internal/types"
)

// StreamHandler handles WebSocket audio streaming.
type StreamHandler struct {
	workerPool *queue.WorkerPool
	tempDir    string
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(workerPool *queue.WorkerPool, tempDir string) *StreamHandler {
	return &StreamHandler{
		workerPool: workerPool,
		tempDir:    tempDir,
	}
}

// Handle buffers streamed audio until an END control message, then enqueues
// the captured recording.
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	var (
		buffer      bytes.Buffer
		requestName string
		jobID       = uuid.New().String()
	)

	log := logging.WithJob(jobID, types.SourceStream)
	log.Info().Msg("websocket connection established")

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Msg("websocket read ended")
			break
		}

		// Text messages carry control signals and the stream name.
		if messageType == websocket.TextMessage {
			msgStr := string(message)

			if msgStr == "END" {
				log.Info().Msg("received END signal, processing stream")
				break
			}

			if len(msgStr) > 0 && len(msgStr) < 200 {
				requestName = msgStr
				log.Info().Str("name", requestName).Msg("stream name set")
			}
			continue
		}

		if messageType == websocket.BinaryMessage {
			buffer.Write(message)
		}
	}

	if buffer.Len() == 0 {
		log.Warn().Msg("no audio data received in stream")
		return
	}

	if requestName == "" {
		requestName = "stream_recording"
	}

	tempPath := filepath.Join(h.tempDir, fmt.Sprintf("%s.webm", jobID))

	if err := os.WriteFile(tempPath, buffer.Bytes(), 0644); err != nil {
		log.Error().Err(err).Msg("failed to save stream buffer")
		return
	}

	log.Info().Str("path", tempPath).Int("bytes", buffer.Len()).Msg("stream saved")

	job := queue.NewJob(jobID, requestName, types.SourceStream, tempPath)
	h.workerPool.EnqueueJob(job)

	c.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf(`{"job_id":"%s","status":"queued"}`, jobID)))
}
