package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"sora-studio-backend/internal/middleware"
	"sora-studio-backend/internal/models"
)

// currentUserID pulls the authenticated user id set by the auth middleware.
// It writes the error response itself; callers return on !ok.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return uuid.Nil, false
	}

	return userID, true
}

func videoIDParam(c *gin.Context) (uuid.UUID, bool) {
	videoID, err := uuid.Parse(c.Param("video_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid video id"})
		return uuid.Nil, false
	}
	return videoID, true
}

func toVideoResponse(v *models.Video) models.VideoResponse {
	resp := models.VideoResponse{
		ID:        v.ID.String(),
		Prompt:    v.Prompt,
		Model:     v.Model,
		Duration:  v.Duration,
		Size:      v.Size,
		Category:  v.Category,
		Status:    v.Status,
		Cost:      v.Cost,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
	if v.EnhancedPrompt.Valid {
		resp.EnhancedPrompt = v.EnhancedPrompt.String
	}
	if v.Style.Valid {
		resp.Style = v.Style.String
	}
	if v.OpenAITaskID.Valid {
		resp.OpenAITaskID = v.OpenAITaskID.String
	}
	if v.StoragePath.Valid {
		resp.StoragePath = v.StoragePath.String
	}
	if v.ThumbnailPath.Valid {
		resp.ThumbnailPath = v.ThumbnailPath.String
	}
	if v.ErrorMessage.Valid {
		resp.ErrorMessage = v.ErrorMessage.String
	}
	if len(v.Metadata) > 0 {
		var metadata map[string]interface{}
		if err := json.Unmarshal(v.Metadata, &metadata); err == nil {
			resp.Metadata = metadata
		}
	}
	return resp
}
