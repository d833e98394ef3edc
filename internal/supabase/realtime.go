package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// The Supabase Go client has no direct Realtime publish; row updates on
	// the videos table trigger Realtime notifications to subscribed clients.
	// Kept as the single seam for explicit event publishing if the REST
	// Realtime API is wired up later.
	return nil
}

func (r *RealtimeClient) PublishVideoEvent(videoID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("video:%s", videoID.String())
	return r.PublishEvent(channel, event, payload)
}

func (r *RealtimeClient) PublishUserEvent(userID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("user:%s", userID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func GenerationStartedPayload(videoID uuid.UUID, openaiTaskID string) map[string]interface{} {
	return map[string]interface{}{
		"video_id":       videoID.String(),
		"status":         "processing",
		"openai_task_id": openaiTaskID,
	}
}

func GenerationProgressPayload(videoID uuid.UUID, progress int) map[string]interface{} {
	return map[string]interface{}{
		"video_id": videoID.String(),
		"status":   "processing",
		"progress": progress,
	}
}

func GenerationCompletedPayload(videoID uuid.UUID, storagePath string) map[string]interface{} {
	return map[string]interface{}{
		"video_id":     videoID.String(),
		"status":       "completed",
		"progress":     100,
		"storage_path": storagePath,
	}
}

func GenerationFailedPayload(videoID uuid.UUID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"video_id": videoID.String(),
		"status":   "failed",
		"error":    errorMsg,
	}
}
