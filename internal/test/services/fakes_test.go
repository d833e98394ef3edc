package services_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"sora-studio-backend/internal/models"
	"sora-studio-backend/internal/openai"
	"sora-studio-backend/internal/supabase"
)

type fakeAPI struct {
	mu         sync.Mutex
	createFn   func(openai.CreateVideoRequest) (*openai.Video, error)
	getFn      func(string) (*openai.Video, error)
	downloadFn func(string) ([]byte, error)
	enhanceFn  func(openai.EnhanceContext) (string, error)

	created   []openai.CreateVideoRequest
	downloads int
}

func (f *fakeAPI) CreateVideo(req openai.CreateVideoRequest) (*openai.Video, error) {
	f.mu.Lock()
	f.created = append(f.created, req)
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(req)
	}
	return &openai.Video{ID: "video_ext_1", Status: openai.StatusQueued}, nil
}

func (f *fakeAPI) GetVideo(videoID string) (*openai.Video, error) {
	if f.getFn != nil {
		return f.getFn(videoID)
	}
	return &openai.Video{ID: videoID, Status: openai.StatusInProgress}, nil
}

func (f *fakeAPI) DownloadContent(videoID string) ([]byte, error) {
	f.mu.Lock()
	f.downloads++
	f.mu.Unlock()
	if f.downloadFn != nil {
		return f.downloadFn(videoID)
	}
	return []byte("mp4-bytes"), nil
}

func (f *fakeAPI) EnhancePrompt(ec openai.EnhanceContext) (string, error) {
	if f.enhanceFn != nil {
		return f.enhanceFn(ec)
	}
	return "enhanced: " + ec.Prompt, nil
}

func (f *fakeAPI) RetryWithBackoff(fn func() error, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

func (f *fakeAPI) downloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloads
}

type fakeStore struct {
	mu     sync.Mutex
	videos map[uuid.UUID]*models.Video
	usage  []models.UsageLog

	markCompletedErr error
	markSubmittedErr error

	completedCalls int
	failedCalls    int
	submittedCalls int
}

func newFakeStore(videos ...*models.Video) *fakeStore {
	s := &fakeStore{videos: make(map[uuid.UUID]*models.Video)}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *fakeStore) CreateVideo(video *models.Video) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *video
	s.videos[video.ID] = &copied
	return &copied, nil
}

func (s *fakeStore) GetVideo(videoID, userID uuid.UUID) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[videoID]
	if !ok || video.UserID != userID {
		return nil, fmt.Errorf("video not found")
	}
	copied := *video
	return &copied, nil
}

func (s *fakeStore) GetVideoByID(videoID uuid.UUID) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[videoID]
	if !ok {
		return nil, fmt.Errorf("video not found")
	}
	copied := *video
	return &copied, nil
}

func (s *fakeStore) ListOutstandingVideos() ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var outstanding []models.Video
	for _, v := range s.videos {
		if v.Outstanding() {
			outstanding = append(outstanding, *v)
		}
	}
	return outstanding, nil
}

func (s *fakeStore) MarkVideoSubmitted(videoID uuid.UUID, openaiTaskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submittedCalls++
	if s.markSubmittedErr != nil {
		return s.markSubmittedErr
	}
	if v, ok := s.videos[videoID]; ok {
		v.OpenAITaskID = sql.NullString{String: openaiTaskID, Valid: true}
		v.Status = models.StatusProcessing
	}
	return nil
}

func (s *fakeStore) MarkVideoCompleted(videoID uuid.UUID, storagePath, thumbnailPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completedCalls++
	if s.markCompletedErr != nil {
		return s.markCompletedErr
	}
	if v, ok := s.videos[videoID]; ok {
		v.Status = models.StatusCompleted
		v.StoragePath = sql.NullString{String: storagePath, Valid: true}
		v.ThumbnailPath = sql.NullString{String: thumbnailPath, Valid: thumbnailPath != ""}
	}
	return nil
}

func (s *fakeStore) MarkVideoFailed(videoID uuid.UUID, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedCalls++
	if v, ok := s.videos[videoID]; ok {
		v.Status = models.StatusFailed
		v.ErrorMessage = sql.NullString{String: errorMsg, Valid: errorMsg != ""}
	}
	return nil
}

func (s *fakeStore) DeleteVideo(videoID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.videos, videoID)
	return nil
}

func (s *fakeStore) CreateUsageLog(entry *models.UsageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = append(s.usage, *entry)
	return nil
}

func (s *fakeStore) video(videoID uuid.UUID) models.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.videos[videoID]
}

func (s *fakeStore) mutationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedCalls + s.failedCalls + s.submittedCalls
}

type fakeObjects struct {
	mu        sync.Mutex
	uploadErr error
	uploads   int
	deleted   []string
}

func (o *fakeObjects) UploadVideo(userID uuid.UUID, openaiTaskID string, data []byte) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.uploadErr != nil {
		return "", o.uploadErr
	}
	o.uploads++
	return supabase.VideoObjectPath(userID, openaiTaskID), nil
}

func (o *fakeObjects) DeleteFile(storagePath string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deleted = append(o.deleted, storagePath)
	return nil
}

func (o *fakeObjects) uploadCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.uploads
}

type fakeEvents struct {
	mu     sync.Mutex
	events []string
}

func (e *fakeEvents) PublishVideoEvent(videoID uuid.UUID, event string, payload map[string]interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *fakeEvents) has(event string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, name := range e.events {
		if name == event {
			return true
		}
	}
	return false
}

type fakeWaker struct {
	mu     sync.Mutex
	wakes  int
	waitFn func(ctx context.Context, videoID uuid.UUID) error
	waited []uuid.UUID
}

func (w *fakeWaker) Wake() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.wakes++
}

func (w *fakeWaker) WaitForCompletion(ctx context.Context, videoID uuid.UUID, maxAttempts int) error {
	w.mu.Lock()
	w.waited = append(w.waited, videoID)
	fn := w.waitFn
	w.mu.Unlock()
	if fn != nil {
		return fn(ctx, videoID)
	}
	return nil
}

func (w *fakeWaker) wakeCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wakes
}
