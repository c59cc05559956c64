package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nkotelnikov/calbooking/internal/domain"
	"github.com/nkotelnikov/calbooking/internal/llm"
)

type SummaryHandler struct {
	summarizer llm.Summarizer
}

type summaryRequest struct {
	Messages     []summaryMessage `json:"messages" binding:"required,min=1"`
	MaxSentences int              `json:"max_sentences"`
}

type summaryMessage struct {
	Sender    string `json:"sender"`
	Message   string `json:"message" binding:"required"`
	CreatedAt string `json:"created_at"`
}

func NewSummaryHandler(summarizer llm.Summarizer) *SummaryHandler {
	return &SummaryHandler{summarizer: summarizer}
}

func (h *SummaryHandler) Register(router *gin.RouterGroup) {
	router.POST("/summaries", h.summarize)
}

func (h *SummaryHandler) summarize(c *gin.Context) {
	if h.summarizer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "summarization is not configured"})
		return
	}

	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages := make([]domain.ConversationMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		createdAt, err := time.Parse(time.RFC3339, m.CreatedAt)
		if err != nil {
			createdAt = time.Time{}
		}
		messages = append(messages, domain.ConversationMessage{
			Sender:    m.Sender,
			Message:   m.Message,
			CreatedAt: createdAt,
		})
	}

	summary, err := h.summarizer.Summarize(c.Request.Context(), messages, req.MaxSentences)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
