package services

import (
	"context"

	"github.com/google/uuid"
	"sora-studio-backend/internal/models"
	"sora-studio-backend/internal/openai"
)

// VideoAPI is the slice of the OpenAI client the services depend on.
type VideoAPI interface {
	CreateVideo(req openai.CreateVideoRequest) (*openai.Video, error)
	GetVideo(videoID string) (*openai.Video, error)
	DownloadContent(videoID string) ([]byte, error)
	EnhancePrompt(ec openai.EnhanceContext) (string, error)
	RetryWithBackoff(fn func() error, maxRetries int) error
}

// VideoStore is the persistence surface for job rows and usage logs,
// implemented by supabase.DatabaseClient.
type VideoStore interface {
	CreateVideo(video *models.Video) (*models.Video, error)
	GetVideo(videoID, userID uuid.UUID) (*models.Video, error)
	GetVideoByID(videoID uuid.UUID) (*models.Video, error)
	ListOutstandingVideos() ([]models.Video, error)
	MarkVideoSubmitted(videoID uuid.UUID, openaiTaskID string) error
	MarkVideoCompleted(videoID uuid.UUID, storagePath, thumbnailPath string) error
	MarkVideoFailed(videoID uuid.UUID, errorMsg string) error
	DeleteVideo(videoID, userID uuid.UUID) error
	CreateUsageLog(entry *models.UsageLog) error
}

// ObjectStore is the owned storage for materialized assets, implemented by
// supabase.StorageClient.
type ObjectStore interface {
	UploadVideo(userID uuid.UUID, openaiTaskID string, data []byte) (string, error)
	DeleteFile(storagePath string) error
}

// EventPublisher pushes lifecycle events to subscribed clients, implemented
// by supabase.RealtimeClient.
type EventPublisher interface {
	PublishVideoEvent(videoID uuid.UUID, event string, payload map[string]interface{}) error
}

// Waker restarts a drained polling loop after a new submission and offers
// a bounded per-job wait for the submit-and-wait mode.
type Waker interface {
	Wake()
	WaitForCompletion(ctx context.Context, videoID uuid.UUID, maxAttempts int) error
}
