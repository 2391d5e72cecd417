package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/calder-labs/filekb/internal/core/domain"
	"github.com/calder-labs/filekb/internal/core/ports/driven"
	"github.com/calder-labs/filekb/internal/core/ports/driving"
	"github.com/calder-labs/filekb/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Answer generation parameters.
const (
	// answerTopK retrieves enough context to answer from without
	// flooding the prompt.
	answerTopK = 5

	// answerMaxTokens bounds the completion length.
	answerMaxTokens = 500

	// answerTemperature keeps answers close to the retrieved text.
	answerTemperature = 0.3
)

const answerSystemPrompt = `You are a helpful assistant answering questions from a private document collection.
Answer using ONLY the provided context. If the context does not contain the answer, say so plainly.
Cite the source file name when it helps the reader find the original.`

// AnswerService retrieves context for a question and asks the
// completion model to answer from it.
type AnswerService struct {
	search driving.SearchService
	llm    driven.LLMService
}

// NewAnswerService creates a new answer service.
func NewAnswerService(search driving.SearchService, llm driven.LLMService) *AnswerService {
	return &AnswerService{
		search: search,
		llm:    llm,
	}
}

// Ask runs retrieval for the query and synthesises an answer from the
// results. Model may be empty to use the service default.
func (s *AnswerService) Ask(ctx context.Context, query, model string) (*domain.Answer, error) {
	logger.Section("Ask")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("question must not be empty: %w", domain.ErrValidation)
	}

	results, err := s.search.Search(ctx, query, domain.SearchOptions{
		TopK:   answerTopK,
		Rerank: true,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(results) == 0 {
		logger.Info("No context found for question")
		return &domain.Answer{
			Query: query,
			Text:  "I could not find anything in the knowledge base relevant to that question.",
			Model: s.modelName(model),
		}, nil
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: buildPrompt(query, results)},
	}

	reply, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		Model:       model,
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Query:   query,
		Text:    strings.TrimSpace(reply),
		Model:   s.modelName(model),
		Context: results,
	}, nil
}

func (s *AnswerService) modelName(override string) string {
	if override != "" {
		return override
	}
	return s.llm.ModelName()
}

// buildPrompt assembles retrieved chunks into a numbered context block
// followed by the question.
func buildPrompt(query string, results []domain.QueryResult) string {
	var b strings.Builder
	b.WriteString("Context:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "Document %d (from %s):\n%s\n\n", i+1, r.Source, r.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}
