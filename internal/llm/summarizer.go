// Package llm turns conversation transcripts into short structured summaries
// via a text-generation model, with cache-aside storage keyed by a hash of
// the transcript so identical conversations are summarized once.
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nkotelnikov/calbooking/internal/domain"
)

type Summarizer interface {
	Summarize(ctx context.Context, messages []domain.ConversationMessage, maxSentences int) (*domain.Summary, error)
}

// Cache is the summary slice of the Redis cache.
type Cache interface {
	GetSummary(ctx context.Context, sourceHash string) (*domain.Summary, error)
	SetSummary(ctx context.Context, sourceHash string, summary *domain.Summary) error
}

type Service struct {
	generator Generator
	cache     Cache
	log       *zap.Logger
}

func NewService(generator Generator, cache Cache, log *zap.Logger) *Service {
	return &Service{generator: generator, cache: cache, log: log}
}

var _ Summarizer = (*Service)(nil)

const defaultMaxSentences = 3

func (s *Service) Summarize(ctx context.Context, messages []domain.ConversationMessage, maxSentences int) (*domain.Summary, error) {
	if maxSentences <= 0 {
		maxSentences = defaultMaxSentences
	}

	hash := sourceHash(messages, maxSentences)
	if s.cache != nil {
		if cached, err := s.cache.GetSummary(ctx, hash); err != nil {
			s.log.Warn("summary cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	raw, err := s.generator.Generate(ctx, buildPrompt(messages, maxSentences))
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	summary := parseSummary(raw, maxSentences)
	summary.MessageCount = len(messages)
	summary.GeneratedAt = time.Now().UTC()

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, hash, summary); err != nil {
			s.log.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

func sourceHash(messages []domain.ConversationMessage, maxSentences int) string {
	h := sha256.New()
	fmt.Fprintf(h, "sentences:%d\n", maxSentences)
	for _, m := range messages {
		fmt.Fprintf(h, "%s|%s|%s\n", m.CreatedAt.UTC().Format(time.RFC3339), m.Sender, m.Message)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func buildPrompt(messages []domain.ConversationMessage, maxSentences int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Summarize the following customer conversation in at most %d sentences.\n", maxSentences)
	sb.WriteString("Respond with JSON only, shaped as ")
	sb.WriteString(`{"sentences": [...], "topics": [...], "sentiment": "positive|neutral|negative"}.`)
	sb.WriteString("\n\nConversation:\n")
	for _, m := range messages {
		fmt.Fprintf(&sb, "[%s] %s: %s\n", m.CreatedAt.UTC().Format("15:04"), m.Sender, m.Message)
	}
	return sb.String()
}

// parseSummary extracts the JSON object from a model response that may be
// wrapped in markdown fences or prose. An unparseable response degrades to
// line-per-sentence output instead of failing the request.
func parseSummary(raw string, maxSentences int) *domain.Summary {
	var parsed struct {
		Sentences []string `json:"sentences"`
		Topics    []string `json:"topics"`
		Sentiment string   `json:"sentiment"`
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err == nil && len(parsed.Sentences) > 0 {
			if len(parsed.Sentences) > maxSentences {
				parsed.Sentences = parsed.Sentences[:maxSentences]
			}
			return &domain.Summary{
				Sentences: parsed.Sentences,
				Topics:    parsed.Topics,
				Sentiment: parsed.Sentiment,
			}
		}
	}

	var sentences []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(sentences) == maxSentences {
			continue
		}
		sentences = append(sentences, line)
	}
	return &domain.Summary{Sentences: sentences, Sentiment: "neutral"}
}
