package delivery

import (
	"net/http"

	"mailflow-backend/internal/mail/dto"
	"mailflow-backend/pkg/ai"

	"github.com/gin-gonic/gin"
)

// AIHandler exposes the AI composer endpoints.
type AIHandler struct {
	composer ai.ComposerService
}

func NewAIHandler(composer ai.ComposerService) *AIHandler {
	return &AIHandler{composer: composer}
}

func (h *AIHandler) Compose(c *gin.Context) {
	var req dto.ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.composer.GenerateDraft(c.Request.Context(), req.Context, req.Prompt)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

func (h *AIHandler) Complete(c *gin.Context) {
	var req dto.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	completion, err := h.composer.CompleteText(c.Request.Context(), req.Input, req.Context)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"completion": completion})
}
