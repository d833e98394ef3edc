package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"sora-studio-backend/internal/models"
	"sora-studio-backend/internal/openai"
	"sora-studio-backend/internal/supabase"
)

type ContentHandler struct {
	openaiClient  *openai.Client
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
}

func NewContentHandler(openaiClient *openai.Client, dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient) *ContentHandler {
	return &ContentHandler{
		openaiClient:  openaiClient,
		dbClient:      dbClient,
		storageClient: storageClient,
	}
}

// Content godoc
// @Summary     Relay a video's rendered content
// @Description Returns 202 with status JSON while the job is still processing (keep polling), 200 with video/mp4 bytes once ready, and a JSON error otherwise. Materialized videos are served from owned storage; otherwise the bytes are relayed from the generation API.
// @Tags        videos
// @Produce     json
// @Produce     video/mp4
// @Security    Bearer
// @Param       video_id path string true "Video ID (UUID)"
// @Success     200 {file} binary
// @Success     202 {object} models.VideoStatusResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /videos/{video_id}/content [get]
func (h *ContentHandler) Content(c *gin.Context) {
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

	// Already materialized: serve from owned storage.
	if video.StoragePath.Valid {
		data, err := h.storageClient.DownloadFile(video.StoragePath.String)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to read stored video",
				Message: err.Error(),
			})
			return
		}
		c.Data(http.StatusOK, "video/mp4", data)
		return
	}

	if !video.OpenAITaskID.Valid {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: "video was never submitted",
		})
		return
	}

	remote, err := h.openaiClient.GetVideo(video.OpenAITaskID.String)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "failed to check video status",
			Message: err.Error(),
		})
		return
	}

	switch remote.Status {
	case openai.StatusCompleted:
		data, err := h.openaiClient.DownloadContent(video.OpenAITaskID.String)
		if err != nil {
			c.JSON(http.StatusBadGateway, models.ErrorResponse{
				Error:   "failed to download video",
				Message: err.Error(),
			})
			return
		}
		c.Data(http.StatusOK, "video/mp4", data)
	case openai.StatusFailed:
		msg := "video generation failed"
		if remote.Error != nil && remote.Error.Message != "" {
			msg = remote.Error.Message
		}
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: msg})
	default:
		// Still processing; the client should keep polling.
		c.JSON(http.StatusAccepted, models.VideoStatusResponse{
			ID:       video.ID.String(),
			Status:   models.StatusProcessing,
			Progress: remote.Progress,
		})
	}
}
