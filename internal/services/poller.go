package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"sora-studio-backend/internal/models"
	"sora-studio-backend/internal/openai"
	"sora-studio-backend/internal/supabase"
)

// syntheticProgressStep is how far the masking progress estimate advances
// per poll tick. It is capped below 100 so a job never looks finished
// before the API confirms it; real progress from the API always wins.
const (
	syntheticProgressStep = 2
	syntheticProgressCap  = 95
)

// Poller reconciles outstanding generation jobs against the OpenAI video
// API: it polls job status on a fixed interval, materializes completed
// assets into owned storage, and records terminal states on the job rows.
//
// The loop owns its cancellation and stops itself once no job is
// outstanding; Wake restarts it after the next submission. A per-job
// in-flight guard keeps slow checks from overlapping across ticks, so a
// completed asset is never uploaded twice.
type Poller struct {
	api     VideoAPI
	store   VideoStore
	objects ObjectStore
	events  EventPublisher

	interval    time.Duration
	maxAttempts int

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	wakeCh   chan struct{}
	inFlight map[uuid.UUID]bool
}

func NewPoller(api VideoAPI, store VideoStore, objects ObjectStore, events EventPublisher, interval time.Duration, maxAttempts int) *Poller {
	return &Poller{
		api:         api,
		store:       store,
		objects:     objects,
		events:      events,
		interval:    interval,
		maxAttempts: maxAttempts,
		wakeCh:      make(chan struct{}, 1),
		inFlight:    make(map[uuid.UUID]bool),
	}
}

// Wake starts the polling loop if it is not running. When the loop is
// already up, a wake token is left so a loop about to drain re-checks
// instead of exiting past a job submitted during its last tick.
func (p *Poller) Wake() {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case p.wakeCh <- struct{}{}:
	default:
	}

	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	go p.run(ctx, done)
}

// Stop cancels the polling loop and waits for it to exit. Safe to call
// when the loop is not running.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the polling loop is currently scheduled.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		p.mu.Lock()
		p.cancel = nil
		p.done = nil
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		videos, err := p.store.ListOutstandingVideos()
		if err != nil {
			log.Printf("poller: failed to list outstanding videos: %v", err)
			continue
		}

		if len(videos) == 0 {
			// A submission may have raced the listing; its wake token keeps
			// the loop alive for one more tick.
			select {
			case <-p.wakeCh:
				continue
			default:
				log.Println("poller: no outstanding videos, stopping")
				return
			}
		}

		for i := range videos {
			video := videos[i]
			if !p.tryAcquire(video.ID) {
				continue
			}
			go func() {
				defer p.release(video.ID)
				p.CheckStatus(ctx, &video)
			}()
		}
	}
}

func (p *Poller) tryAcquire(videoID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[videoID] {
		return false
	}
	p.inFlight[videoID] = true
	return true
}

func (p *Poller) release(videoID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, videoID)
}

// CheckStatus reconciles one job row against the external API and returns
// the job's reported progress, zero when the API supplies none. It never
// panics or returns an error: it runs inside the timer loop, where a failed
// check is retried on the next tick and must not stop the loop.
func (p *Poller) CheckStatus(ctx context.Context, video *models.Video) int {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("poller: check for video %s panicked: %v", video.ID, r)
		}
	}()

	if !video.OpenAITaskID.Valid {
		log.Printf("poller: video %s has no openai task id, skipping status check", video.ID)
		return 0
	}
	taskID := video.OpenAITaskID.String

	remote, err := p.api.GetVideo(taskID)
	if err != nil {
		// Transient; the next tick retries. Only a terminal failed status
		// reported by the API is ever surfaced.
		log.Printf("poller: status check for video %s failed: %v", video.ID, err)
		return 0
	}

	// The loop may have been torn down while the request was in flight.
	if ctx.Err() != nil {
		return 0
	}

	switch remote.Status {
	case openai.StatusCompleted:
		p.materialize(video, taskID)
		return 100
	case openai.StatusFailed:
		msg := "video generation failed"
		if remote.Error != nil && remote.Error.Message != "" {
			msg = remote.Error.Message
		}
		if err := p.store.MarkVideoFailed(video.ID, msg); err != nil {
			log.Printf("poller: failed to mark video %s failed: %v", video.ID, err)
			return 0
		}
		p.events.PublishVideoEvent(video.ID, "generation_failed",
			supabase.GenerationFailedPayload(video.ID, msg))
		return 0
	default:
		if remote.Progress > 0 {
			p.events.PublishVideoEvent(video.ID, "generation_progress",
				supabase.GenerationProgressPayload(video.ID, remote.Progress))
		}
		return remote.Progress
	}
}

// materialize downloads the rendered asset, uploads it into owned storage
// under a key derived from the external job id, and records completion.
// The download-upload-update sequence is not atomic; each step bails out on
// failure and leaves the row in its last durable status so a later check
// (or a manual retry) can pick it up.
func (p *Poller) materialize(video *models.Video, taskID string) {
	if video.Status == models.StatusCompleted || video.StoragePath.Valid {
		// Already materialized; a second completed poll must not re-upload.
		return
	}

	data, err := p.api.DownloadContent(taskID)
	if err != nil {
		log.Printf("poller: failed to download content for video %s: %v", video.ID, err)
		return
	}

	storagePath, err := p.objects.UploadVideo(video.UserID, taskID, data)
	if err != nil {
		log.Printf("poller: failed to upload video %s to storage: %v", video.ID, err)
		return
	}

	if err := p.store.MarkVideoCompleted(video.ID, storagePath, ""); err != nil {
		// The asset exists in storage but the row still says processing.
		// Never announce completion that persistence did not record.
		log.Printf("poller: failed to mark video %s completed: %v", video.ID, err)
		return
	}

	p.events.PublishVideoEvent(video.ID, "generation_completed",
		supabase.GenerationCompletedPayload(video.ID, storagePath))
	log.Printf("poller: video %s materialized at %s", video.ID, storagePath)
}

// ErrWaitTimeout reports that a bounded completion wait hit its polling
// ceiling while the job was still outstanding. The job itself keeps running
// and the background loop picks it up.
var ErrWaitTimeout = errors.New("timed out waiting for video completion")

// WaitForCompletion polls a single freshly submitted job until it reaches a
// terminal status, up to maxAttempts ticks (zero means the configured
// default). It backs the submit-and-wait mode of the generate endpoint.
// Checks share the per-job in-flight guard with the background loop, so a
// wait never races a loop tick on the same job. Between real progress
// reports it publishes a coarse synthetic percentage so clients see movement
// while the job queues.
func (p *Poller) WaitForCompletion(ctx context.Context, videoID uuid.UUID, maxAttempts int) error {
	if maxAttempts <= 0 {
		maxAttempts = p.maxAttempts
	}

	synthetic := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.interval):
		}

		video, err := p.store.GetVideoByID(videoID)
		if err != nil {
			log.Printf("poller: failed to reload video %s: %v", videoID, err)
			continue
		}
		if !video.Outstanding() {
			return nil
		}

		real := 0
		if p.tryAcquire(videoID) {
			real = p.CheckStatus(ctx, video)
			p.release(videoID)
		}

		video, err = p.store.GetVideoByID(videoID)
		if err == nil && !video.Outstanding() {
			return nil
		}

		synthetic += syntheticProgressStep
		if synthetic > syntheticProgressCap {
			synthetic = syntheticProgressCap
		}
		progress := synthetic
		if real > 0 {
			progress = real
		}
		p.events.PublishVideoEvent(videoID, "generation_progress",
			supabase.GenerationProgressPayload(videoID, progress))
	}

	return fmt.Errorf("%w: video %s still outstanding after %d attempts", ErrWaitTimeout, videoID, maxAttempts)
}
