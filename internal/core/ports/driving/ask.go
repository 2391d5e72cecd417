package driving

import (
	"context"

	"github.com/calder-labs/filekb/internal/core/domain"
)

// AnswerService synthesises answers from retrieved context via an LLM.
type AnswerService interface {
	// Ask retrieves context for the query and asks the completion
	// model to answer from it. Model may be empty for the default.
	Ask(ctx context.Context, query, model string) (*domain.Answer, error)
}
