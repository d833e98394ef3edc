package services_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sora-studio-backend/internal/models"
	"sora-studio-backend/internal/openai"
	"sora-studio-backend/internal/services"
)

func processingVideo(taskID string) *models.Video {
	video := &models.Video{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Prompt:   "a cat surfing a wave",
		Model:    "sora-2",
		Duration: 4,
		Size:     "1280x720",
		Category: "nature",
		Status:   models.StatusProcessing,
	}
	if taskID != "" {
		video.OpenAITaskID = sql.NullString{String: taskID, Valid: true}
	}
	return video
}

func newTestPoller(api *fakeAPI, store *fakeStore, objects *fakeObjects, events *fakeEvents) *services.Poller {
	return services.NewPoller(api, store, objects, events, 5*time.Millisecond, 60)
}

func TestCheckStatus_NoTaskID_NoOp(t *testing.T) {
	video := processingVideo("")
	video.Status = models.StatusPending
	store := newFakeStore(video)
	api := &fakeAPI{}
	poller := newTestPoller(api, store, &fakeObjects{}, &fakeEvents{})

	poller.CheckStatus(context.Background(), video)

	assert.Equal(t, 0, store.mutationCount())
	assert.Equal(t, models.StatusPending, store.video(video.ID).Status)
}

func TestCheckStatus_Completed_Materializes(t *testing.T) {
	video := processingVideo("video_ext_1")
	store := newFakeStore(video)
	api := &fakeAPI{
		getFn: func(string) (*openai.Video, error) {
			return &openai.Video{ID: "video_ext_1", Status: openai.StatusCompleted}, nil
		},
	}
	objects := &fakeObjects{}
	events := &fakeEvents{}
	poller := newTestPoller(api, store, objects, events)

	poller.CheckStatus(context.Background(), video)

	got := store.video(video.ID)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.True(t, got.StoragePath.Valid)
	assert.Contains(t, got.StoragePath.String, "video_ext_1.mp4")
	assert.Equal(t, 1, objects.uploadCount())
	assert.True(t, events.has("generation_completed"))
}

func TestCheckStatus_AlreadyCompleted_DoesNotReupload(t *testing.T) {
	video := processingVideo("video_ext_1")
	video.Status = models.StatusCompleted
	video.StoragePath = sql.NullString{String: "users/x/video_ext_1.mp4", Valid: true}
	store := newFakeStore(video)
	api := &fakeAPI{
		getFn: func(string) (*openai.Video, error) {
			return &openai.Video{ID: "video_ext_1", Status: openai.StatusCompleted}, nil
		},
	}
	objects := &fakeObjects{}
	poller := newTestPoller(api, store, objects, &fakeEvents{})

	poller.CheckStatus(context.Background(), video)
	poller.CheckStatus(context.Background(), video)

	assert.Equal(t, 0, api.downloadCount())
	assert.Equal(t, 0, objects.uploadCount())
	assert.Equal(t, "users/x/video_ext_1.mp4", store.video(video.ID).StoragePath.String)
}

func TestCheckStatus_Failed_MarksFailed(t *testing.T) {
	video := processingVideo("video_ext_1")
	store := newFakeStore(video)
	api := &fakeAPI{
		getFn: func(string) (*openai.Video, error) {
			return &openai.Video{
				ID:     "video_ext_1",
				Status: openai.StatusFailed,
				Error: &struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}{Code: "moderation", Message: "prompt rejected"},
			}, nil
		},
	}
	events := &fakeEvents{}
	poller := newTestPoller(api, store, &fakeObjects{}, events)

	poller.CheckStatus(context.Background(), video)

	got := store.video(video.ID)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.False(t, got.StoragePath.Valid)
	assert.Equal(t, "prompt rejected", got.ErrorMessage.String)
	assert.True(t, events.has("generation_failed"))
}

func TestCheckStatus_NetworkError_LeavesStatusUntouched(t *testing.T) {
	video := processingVideo("video_ext_1")
	store := newFakeStore(video)
	api := &fakeAPI{
		getFn: func(string) (*openai.Video, error) {
			return nil, assert.AnError
		},
	}
	events := &fakeEvents{}
	poller := newTestPoller(api, store, &fakeObjects{}, events)

	poller.CheckStatus(context.Background(), video)

	assert.Equal(t, 0, store.mutationCount())
	assert.Equal(t, models.StatusProcessing, store.video(video.ID).Status)
	assert.Empty(t, events.events)
}

func TestCheckStatus_PersistFailure_NoCompletionAnnounced(t *testing.T) {
	video := processingVideo("video_ext_1")
	store := newFakeStore(video)
	store.markCompletedErr = assert.AnError
	api := &fakeAPI{
		getFn: func(string) (*openai.Video, error) {
			return &openai.Video{ID: "video_ext_1", Status: openai.StatusCompleted}, nil
		},
	}
	events := &fakeEvents{}
	poller := newTestPoller(api, store, &fakeObjects{}, events)

	poller.CheckStatus(context.Background(), video)

	// The row keeps its last durable status and no ready state is shown.
	assert.Equal(t, models.StatusProcessing, store.video(video.ID).Status)
	assert.False(t, events.has("generation_completed"))
}

func TestPoller_StopsWhenDrained(t *testing.T) {
	video := processingVideo("video_ext_1")
	store := newFakeStore(video)
	api := &fakeAPI{
		getFn: func(string) (*openai.Video, error) {
			return &openai.Video{ID: "video_ext_1", Status: openai.StatusCompleted}, nil
		},
	}
	poller := newTestPoller(api, store, &fakeObjects{}, &fakeEvents{})

	poller.Wake()
	assert.True(t, poller.Running())

	assert.Eventually(t, func() bool {
		return store.video(video.ID).Status == models.StatusCompleted && !poller.Running()
	}, 2*time.Second, 10*time.Millisecond, "poller should stop once no job is outstanding")
}

func TestPoller_StopCancelsLoop(t *testing.T) {
	video := processingVideo("video_ext_1")
	store := newFakeStore(video)
	poller := newTestPoller(&fakeAPI{}, store, &fakeObjects{}, &fakeEvents{})

	poller.Wake()
	assert.True(t, poller.Running())

	poller.Stop()
	assert.False(t, poller.Running())

	// Stop on a stopped poller is a no-op.
	poller.Stop()
}

func TestWaitForCompletion_ReturnsOnTerminal(t *testing.T) {
	video := processingVideo("video_ext_1")
	store := newFakeStore(video)
	api := &fakeAPI{
		getFn: func(string) (*openai.Video, error) {
			return &openai.Video{ID: "video_ext_1", Status: openai.StatusCompleted}, nil
		},
	}
	poller := newTestPoller(api, store, &fakeObjects{}, &fakeEvents{})

	err := poller.WaitForCompletion(context.Background(), video.ID, 10)

	assert.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, store.video(video.ID).Status)
}

func TestWaitForCompletion_TimesOutAfterCeiling(t *testing.T) {
	video := processingVideo("video_ext_1")
	store := newFakeStore(video)
	api := &fakeAPI{
		getFn: func(string) (*openai.Video, error) {
			return &openai.Video{ID: "video_ext_1", Status: openai.StatusInProgress}, nil
		},
	}
	events := &fakeEvents{}
	poller := newTestPoller(api, store, &fakeObjects{}, events)

	err := poller.WaitForCompletion(context.Background(), video.ID, 60)

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrWaitTimeout)
	assert.Contains(t, err.Error(), "60 attempts")
	// The row keeps its last known status.
	assert.Equal(t, models.StatusProcessing, store.video(video.ID).Status)
	assert.True(t, events.has("generation_progress"))
}

func TestWaitForCompletion_CancelledContext(t *testing.T) {
	video := processingVideo("video_ext_1")
	store := newFakeStore(video)
	poller := newTestPoller(&fakeAPI{}, store, &fakeObjects{}, &fakeEvents{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := poller.WaitForCompletion(ctx, video.ID, 10)
	assert.ErrorIs(t, err, context.Canceled)
}
