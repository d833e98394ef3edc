package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"sora-studio-backend/internal/models"
	"sora-studio-backend/internal/openai"
	"sora-studio-backend/internal/pricing"
	"sora-studio-backend/internal/supabase"
)

const submitRetries = 3

// VideoService owns the write side of the job lifecycle: creating job
// rows, submitting them to the generation API, retries, upgrades, deletes,
// and the usage log.
type VideoService struct {
	api     VideoAPI
	store   VideoStore
	objects ObjectStore
	events  EventPublisher
	waker   Waker
}

func NewVideoService(api VideoAPI, store VideoStore, objects ObjectStore, events EventPublisher, waker Waker) *VideoService {
	return &VideoService{
		api:     api,
		store:   store,
		objects: objects,
		events:  events,
		waker:   waker,
	}
}

// Generate creates a pending job row priced from the request, then submits
// it to the generation API. On submission failure the row survives in
// pending with no external id, which is the retry-eligible state; the row
// and the error are both returned so the handler can report the failure
// without losing the record. With req.Wait set the call additionally blocks
// on the bounded completion wait and returns the row's final state, or its
// last known state together with ErrWaitTimeout.
func (s *VideoService) Generate(ctx context.Context, userID uuid.UUID, req models.GenerateVideoRequest) (*models.Video, error) {
	enhanced := sql.NullString{}
	if req.EnhancePrompt {
		result, err := s.api.EnhancePrompt(openai.EnhanceContext{
			Prompt:     req.Prompt,
			Duration:   req.Duration,
			Resolution: req.Size,
			Category:   req.Category,
			Style:      req.Style,
			Model:      req.Model,
		})
		switch {
		case errors.Is(err, openai.ErrQuotaExceeded):
			// Out of credits aborts the whole flow; silently burning the
			// user's remaining budget on an unenhanced render is worse.
			return nil, err
		case err != nil:
			log.Printf("prompt enhancement failed, using original prompt: %v", err)
		default:
			enhanced = sql.NullString{String: result, Valid: true}
		}
	}

	metadata, _ := json.Marshal(map[string]interface{}{"request": req})

	video := &models.Video{
		ID:             uuid.New(),
		UserID:         userID,
		Prompt:         req.Prompt,
		EnhancedPrompt: enhanced,
		Model:          req.Model,
		Duration:       req.Duration,
		Size:           req.Size,
		Category:       req.Category,
		Style:          nullString(req.Style),
		Status:         models.StatusPending,
		Cost:           pricing.VideoCost(req.Model, req.Size, req.Duration),
		Metadata:       metadata,
	}

	created, err := s.store.CreateVideo(video)
	if err != nil {
		return nil, fmt.Errorf("failed to create video record: %w", err)
	}

	if err := s.submit(created); err != nil {
		return created, err
	}

	s.logUsage(created, models.ActionGenerate, metadata)

	if req.Wait {
		if err := s.waker.WaitForCompletion(ctx, created.ID, 0); err != nil {
			return s.freshCopy(created), err
		}
		return s.freshCopy(created), nil
	}
	return created, nil
}

// Retry resubmits a job that never obtained an external id, or re-runs a
// failed one. A new external id moves the row back into processing.
func (s *VideoService) Retry(videoID, userID uuid.UUID) (*models.Video, error) {
	video, err := s.store.GetVideo(videoID, userID)
	if err != nil {
		return nil, err
	}

	if video.Status == models.StatusCompleted {
		return nil, fmt.Errorf("video %s is already completed", video.ID)
	}

	if err := s.submit(video); err != nil {
		return video, err
	}
	return video, nil
}

// Upgrade clones an existing video onto the pro model at the pro price and
// submits the clone as a fresh job.
func (s *VideoService) Upgrade(videoID, userID uuid.UUID) (*models.Video, error) {
	source, err := s.store.GetVideo(videoID, userID)
	if err != nil {
		return nil, err
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"original_video_id": source.ID.String(),
		"action":            models.ActionUpgrade,
	})

	upgrade := &models.Video{
		ID:             uuid.New(),
		UserID:         userID,
		Prompt:         source.Prompt,
		EnhancedPrompt: source.EnhancedPrompt,
		Model:          pricing.ModelSoraPro,
		Duration:       source.Duration,
		Size:           source.Size,
		Category:       source.Category,
		Style:          source.Style,
		Status:         models.StatusPending,
		Cost:           pricing.UpgradeCost(source.Size, source.Duration),
		Metadata:       metadata,
	}

	created, err := s.store.CreateVideo(upgrade)
	if err != nil {
		return nil, fmt.Errorf("failed to create upgrade record: %w", err)
	}

	if err := s.submit(created); err != nil {
		return created, err
	}

	s.logUsage(created, models.ActionUpgrade, metadata)
	return created, nil
}

// Delete removes the job row and, when materialized, its stored asset.
func (s *VideoService) Delete(videoID, userID uuid.UUID) error {
	video, err := s.store.GetVideo(videoID, userID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteVideo(videoID, userID); err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	if video.StoragePath.Valid {
		// Best effort; an orphaned object costs storage, not correctness.
		if err := s.objects.DeleteFile(video.StoragePath.String); err != nil {
			log.Printf("failed to delete stored asset %s: %v", video.StoragePath.String, err)
		}
	}

	return nil
}

// submit sends the job to the generation API with retry, records the
// assigned external id, and wakes the poller. The prompt sent upstream is
// the enhanced one when present.
func (s *VideoService) submit(video *models.Video) error {
	prompt := video.Prompt
	if video.EnhancedPrompt.Valid {
		prompt = video.EnhancedPrompt.String
	}

	var remote *openai.Video
	err := s.api.RetryWithBackoff(func() error {
		var err error
		remote, err = s.api.CreateVideo(openai.CreateVideoRequest{
			Model:   video.Model,
			Prompt:  prompt,
			Seconds: video.Duration,
			Size:    video.Size,
		})
		return err
	}, submitRetries)
	if err != nil {
		return fmt.Errorf("failed to submit generation job: %w", err)
	}

	if err := s.store.MarkVideoSubmitted(video.ID, remote.ID); err != nil {
		// The job runs remotely but the row still has no external id, so it
		// stays in the retry-eligible state until the user resubmits.
		log.Printf("failed to record task id %s on video %s: %v", remote.ID, video.ID, err)
	} else {
		video.Status = models.StatusProcessing
		video.OpenAITaskID = sql.NullString{String: remote.ID, Valid: true}
	}

	s.events.PublishVideoEvent(video.ID, "generation_started",
		supabase.GenerationStartedPayload(video.ID, remote.ID))
	s.waker.Wake()
	return nil
}

func (s *VideoService) logUsage(video *models.Video, action string, metadata json.RawMessage) {
	entry := &models.UsageLog{
		ID:       uuid.New(),
		UserID:   video.UserID,
		VideoID:  video.ID,
		Action:   action,
		Cost:     video.Cost,
		Duration: video.Duration,
		Metadata: metadata,
	}
	if err := s.store.CreateUsageLog(entry); err != nil {
		// The log is advisory; a failed append must not fail the generation.
		log.Printf("failed to record usage for video %s: %v", video.ID, err)
	}
}

// freshCopy reloads the row after a wait so the caller sees the terminal
// state the poller recorded, falling back to the in-memory copy.
func (s *VideoService) freshCopy(video *models.Video) *models.Video {
	current, err := s.store.GetVideoByID(video.ID)
	if err != nil {
		return video
	}
	return current
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
