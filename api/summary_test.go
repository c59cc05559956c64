package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nkotelnikov/calbooking/internal/domain"
)

type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, messages []domain.ConversationMessage, maxSentences int) (*domain.Summary, error) {
	args := m.Called(ctx, messages, maxSentences)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Summary), args.Error(1)
}

func TestSummaryHandler_summarize(t *testing.T) {
	mockSummarizer := &MockSummarizer{}
	handler := NewSummaryHandler(mockSummarizer)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(summaryRequest{
		Messages: []summaryMessage{
			{Sender: "customer", Message: "Can I book a facial?", CreatedAt: "2026-03-09T10:00:00Z"},
		},
		MaxSentences: 2,
	})
	c.Request = httptest.NewRequest("POST", "/v1/summaries", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	summary := &domain.Summary{
		Sentences:    []string{"Customer asked about booking a facial."},
		Sentiment:    "neutral",
		MessageCount: 1,
	}
	mockSummarizer.On("Summarize", c.Request.Context(), mock.Anything, 2).Return(summary, nil)

	handler.summarize(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response domain.Summary
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Len(t, response.Sentences, 1)

	mockSummarizer.AssertExpectations(t)
}

func TestSummaryHandler_summarize_emptyMessages(t *testing.T) {
	handler := NewSummaryHandler(&MockSummarizer{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(summaryRequest{Messages: []summaryMessage{}})
	c.Request = httptest.NewRequest("POST", "/v1/summaries", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.summarize(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummaryHandler_summarize_modelFailureIsBadGateway(t *testing.T) {
	mockSummarizer := &MockSummarizer{}
	handler := NewSummaryHandler(mockSummarizer)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(summaryRequest{
		Messages: []summaryMessage{{Sender: "customer", Message: "hello"}},
	})
	c.Request = httptest.NewRequest("POST", "/v1/summaries", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockSummarizer.On("Summarize", c.Request.Context(), mock.Anything, 0).
		Return(nil, errors.New("model unavailable"))

	handler.summarize(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	mockSummarizer.AssertExpectations(t)
}

func TestSummaryHandler_summarize_notConfigured(t *testing.T) {
	handler := NewSummaryHandler(nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest("POST", "/v1/summaries", bytes.NewReader([]byte(`{}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.summarize(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
