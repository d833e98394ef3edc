package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"sora-studio-backend/internal/models"
	"sora-studio-backend/internal/openai"
	"sora-studio-backend/internal/services"
	"sora-studio-backend/internal/supabase"
)

type VideosHandler struct {
	videoService  *services.VideoService
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
}

func NewVideosHandler(videoService *services.VideoService, dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient) *VideosHandler {
	return &VideosHandler{
		videoService:  videoService,
		dbClient:      dbClient,
		storageClient: storageClient,
	}
}

// Generate godoc
// @Summary     Submit a video generation job
// @Description Creates a job record, prices it, and submits it to the generation API. When submission fails the record survives in pending without an external id and can be retried. With wait set the request blocks until the job finishes or the bounded poll times out, reported in wait_error.
// @Tags        videos
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.GenerateVideoRequest true "Generation parameters"
// @Success     201 {object} models.GenerateVideoResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     402 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /videos [post]
func (h *VideosHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.GenerateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	video, err := h.videoService.Generate(c.Request.Context(), userID, req)
	if video == nil {
		status := http.StatusInternalServerError
		if errors.Is(err, openai.ErrQuotaExceeded) {
			status = http.StatusPaymentRequired
		}
		c.JSON(status, models.ErrorResponse{
			Error:   "failed to generate video",
			Message: err.Error(),
		})
		return
	}

	resp := models.GenerateVideoResponse{
		Video: toVideoResponse(video),
	}
	switch {
	case err == nil:
		resp.Submitted = true
	case errors.Is(err, services.ErrWaitTimeout), video.OpenAITaskID.Valid:
		// Submission went through; only the bounded wait fell short.
		resp.Submitted = true
		resp.WaitError = err.Error()
	default:
		resp.SubmitError = err.Error()
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary     List the caller's videos
// @Description Gallery query: owner-scoped, optionally filtered by category and status, newest first, paginated.
// @Tags        videos
// @Produce     json
// @Security    Bearer
// @Param       category query string false "Category filter"
// @Param       status query string false "Status filter" Enums(pending, processing, completed, failed)
// @Param       limit query int false "Page size (default 20)"
// @Param       offset query int false "Page offset"
// @Success     200 {object} models.VideoListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /videos [get]
func (h *VideosHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	videos, total, err := h.dbClient.ListVideos(userID, supabase.ListVideosOptions{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list videos",
			Message: err.Error(),
		})
		return
	}

	resp := models.VideoListResponse{
		Videos: make([]models.VideoResponse, 0, len(videos)),
		Total:  total,
	}
	for i := range videos {
		resp.Videos = append(resp.Videos, toVideoResponse(&videos[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary     Get one video
// @Tags        videos
// @Produce     json
// @Security    Bearer
// @Param       video_id path string true "Video ID (UUID)"
// @Success     200 {object} models.VideoResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /videos/{video_id} [get]
func (h *VideosHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	video, err := h.dbClient.GetVideo(videoID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "video not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, toVideoResponse(video))
}

// Delete godoc
// @Summary     Delete a video
// @Description Hard delete of the job record and, when materialized, its stored asset.
// @Tags        videos
// @Produce     json
// @Security    Bearer
// @Param       video_id path string true "Video ID (UUID)"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /videos/{video_id} [delete]
func (h *VideosHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	if err := h.videoService.Delete(videoID, userID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "failed to delete video",
			Message: err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// Retry godoc
// @Summary     Retry a video that failed or was never submitted
// @Tags        videos
// @Produce     json
// @Security    Bearer
// @Param       video_id path string true "Video ID (UUID)"
// @Success     200 {object} models.GenerateVideoResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /videos/{video_id}/retry [post]
func (h *VideosHandler) Retry(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	video, err := h.videoService.Retry(videoID, userID)
	if video == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "failed to retry video",
			Message: err.Error(),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "failed to resubmit video",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.GenerateVideoResponse{
		Video:     toVideoResponse(video),
		Submitted: true,
	})
}

// Upgrade godoc
// @Summary     Re-render a video on the pro model
// @Description Clones the video onto sora-2-pro at the pro price and submits the clone as a new job.
// @Tags        videos
// @Produce     json
// @Security    Bearer
// @Param       video_id path string true "Video ID (UUID)"
// @Success     201 {object} models.GenerateVideoResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /videos/{video_id}/upgrade [post]
func (h *VideosHandler) Upgrade(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	video, err := h.videoService.Upgrade(videoID, userID)
	if video == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "failed to upgrade video",
			Message: err.Error(),
		})
		return
	}

	resp := models.GenerateVideoResponse{
		Video:     toVideoResponse(video),
		Submitted: err == nil,
	}
	if err != nil {
		resp.SubmitError = err.Error()
	}
	c.JSON(http.StatusCreated, resp)
}

// SignedURL godoc
// @Summary     Issue a time-boxed link for a materialized video
// @Description Assets are private; access flows through signed URLs with a one hour expiry, never permanent public links.
// @Tags        videos
// @Produce     json
// @Security    Bearer
// @Param       video_id path string true "Video ID (UUID)"
// @Success     200 {object} models.SignedURLResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /videos/{video_id}/url [get]
func (h *VideosHandler) SignedURL(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	videoID, ok := videoIDParam(c)
	if !ok {
		return
	}

	video, err := h.dbClient.GetVideo(videoID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "video not found",
			Message: err.Error(),
		})
		return
	}

	if !video.StoragePath.Valid {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: "video is not ready",
		})
		return
	}

	url, err := h.storageClient.CreateSignedURL(video.StoragePath.String, supabase.SignedURLTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create signed url",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SignedURLResponse{
		URL:       url,
		ExpiresIn: supabase.SignedURLTTL,
	})
}
