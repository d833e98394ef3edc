package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"sora-studio-backend/internal/models"
	"sora-studio-backend/internal/supabase"
)

type UsageHandler struct {
	dbClient *supabase.DatabaseClient
}

func NewUsageHandler(dbClient *supabase.DatabaseClient) *UsageHandler {
	return &UsageHandler{
		dbClient: dbClient,
	}
}

// Stats godoc
// @Summary     Per-user spend and generation counts
// @Tags        usage
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.UsageStatsResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /usage/stats [get]
func (h *UsageHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.dbClient.GetUserStats(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get usage stats",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.UsageStatsResponse{
		TotalVideos:      stats.TotalVideos,
		CompletedVideos:  stats.CompletedVideos,
		ProcessingVideos: stats.ProcessingVideos,
		TotalCost:        stats.TotalCost,
		CategoryCounts:   stats.CategoryCounts,
	})
}

// Logs godoc
// @Summary     List the caller's usage log entries
// @Tags        usage
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.UsageLogListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /usage/logs [get]
func (h *UsageHandler) Logs(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	logs, err := h.dbClient.ListUsageLogs(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list usage logs",
			Message: err.Error(),
		})
		return
	}

	resp := models.UsageLogListResponse{Logs: make([]models.UsageLogResponse, 0, len(logs))}
	for i := range logs {
		entry := logs[i]
		logResp := models.UsageLogResponse{
			ID:        entry.ID.String(),
			VideoID:   entry.VideoID.String(),
			Action:    entry.Action,
			Cost:      entry.Cost,
			Duration:  entry.Duration,
			CreatedAt: entry.CreatedAt,
		}
		if len(entry.Metadata) > 0 {
			var metadata map[string]interface{}
			if err := json.Unmarshal(entry.Metadata, &metadata); err == nil {
				logResp.Metadata = metadata
			}
		}
		resp.Logs = append(resp.Logs, logResp)
	}

	c.JSON(http.StatusOK, resp)
}
