package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nkotelnikov/calbooking/internal/domain"
)

type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

type memoryCache struct {
	summaries map[string]*domain.Summary
}

func newMemoryCache() *memoryCache {
	return &memoryCache{summaries: make(map[string]*domain.Summary)}
}

func (m *memoryCache) GetSummary(ctx context.Context, hash string) (*domain.Summary, error) {
	return m.summaries[hash], nil
}

func (m *memoryCache) SetSummary(ctx context.Context, hash string, summary *domain.Summary) error {
	m.summaries[hash] = summary
	return nil
}

func testMessages() []domain.ConversationMessage {
	return []domain.ConversationMessage{
		{Sender: "customer", Message: "Can I book a facial for Tuesday?", CreatedAt: time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)},
		{Sender: "agent", Message: "Yes, 9am is free.", CreatedAt: time.Date(2026, 3, 9, 10, 1, 0, 0, time.UTC)},
	}
}

func TestSummarize_ParsesModelJSON(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n" +
		`{"sentences": ["Customer booked a facial for Tuesday 9am."], "topics": ["facial", "booking"], "sentiment": "positive"}` +
		"\n```"}
	svc := NewService(gen, nil, zap.NewNop())

	summary, err := svc.Summarize(context.Background(), testMessages(), 3)

	require.NoError(t, err)
	assert.Equal(t, []string{"Customer booked a facial for Tuesday 9am."}, summary.Sentences)
	assert.Equal(t, []string{"facial", "booking"}, summary.Topics)
	assert.Equal(t, "positive", summary.Sentiment)
	assert.Equal(t, 2, summary.MessageCount)
	assert.False(t, summary.GeneratedAt.IsZero())
}

func TestSummarize_FallsBackOnUnparseableResponse(t *testing.T) {
	gen := &fakeGenerator{response: "The customer wants a facial.\nThe agent offered 9am."}
	svc := NewService(gen, nil, zap.NewNop())

	summary, err := svc.Summarize(context.Background(), testMessages(), 3)

	require.NoError(t, err)
	assert.Equal(t, []string{"The customer wants a facial.", "The agent offered 9am."}, summary.Sentences)
	assert.Equal(t, "neutral", summary.Sentiment)
}

func TestSummarize_GeneratorErrorPropagates(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	svc := NewService(gen, nil, zap.NewNop())

	summary, err := svc.Summarize(context.Background(), testMessages(), 3)

	assert.Nil(t, summary)
	assert.Error(t, err)
}

func TestSummarize_SecondCallHitsCache(t *testing.T) {
	gen := &fakeGenerator{response: `{"sentences": ["One."], "topics": [], "sentiment": "neutral"}`}
	svc := NewService(gen, newMemoryCache(), zap.NewNop())
	ctx := context.Background()

	first, err := svc.Summarize(ctx, testMessages(), 3)
	require.NoError(t, err)

	second, err := svc.Summarize(ctx, testMessages(), 3)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, first, second)
}

func TestSummarize_SentenceBudgetChangesCacheKey(t *testing.T) {
	msgs := testMessages()
	assert.NotEqual(t, sourceHash(msgs, 2), sourceHash(msgs, 3))
	assert.Equal(t, sourceHash(msgs, 3), sourceHash(msgs, 3))
}

func TestSummarize_TruncatesToSentenceBudget(t *testing.T) {
	gen := &fakeGenerator{response: `{"sentences": ["a", "b", "c", "d"], "topics": [], "sentiment": "neutral"}`}
	svc := NewService(gen, nil, zap.NewNop())

	summary, err := svc.Summarize(context.Background(), testMessages(), 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, summary.Sentences)
}
