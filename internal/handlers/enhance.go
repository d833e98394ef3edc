package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"sora-studio-backend/internal/models"
	"sora-studio-backend/internal/openai"
)

type EnhanceHandler struct {
	openaiClient *openai.Client
}

func NewEnhanceHandler(openaiClient *openai.Client) *EnhanceHandler {
	return &EnhanceHandler{
		openaiClient: openaiClient,
	}
}

// Enhance godoc
// @Summary     Enhance a prompt with cinematographic detail
// @Description Rewrites the prompt via the enhancement model using the video context as aesthetic constraints. Quota errors are reported as 402.
// @Tags        enhance
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.EnhancePromptRequest true "Prompt and video context"
// @Success     200 {object} models.EnhancePromptResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     402 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /enhance [post]
func (h *EnhanceHandler) Enhance(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req models.EnhancePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	enhanced, err := h.openaiClient.EnhancePrompt(openai.EnhanceContext{
		Prompt:     req.Prompt,
		Duration:   req.Duration,
		Resolution: req.Resolution,
		Category:   req.Category,
		Style:      req.Style,
		Model:      req.Model,
	})
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, openai.ErrQuotaExceeded) {
			status = http.StatusPaymentRequired
		}
		c.JSON(status, models.ErrorResponse{
			Error:   "failed to enhance prompt",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.EnhancePromptResponse{
		Original: req.Prompt,
		Enhanced: enhanced,
	})
}
