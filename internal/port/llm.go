package port

import (
	"context"

	"ragbench/internal/domain"
)

// AnswerGenerator produces an answer to a question from retrieved
// context.
type AnswerGenerator interface {
	// GenerateAnswer answers the question using only the supplied
	// context string.
	GenerateAnswer(ctx context.Context, question, contextText string) (string, domain.Usage, error)

	// ModelName returns the name of the generation model.
	ModelName() string
}

// Judge compares a generated answer to a reference answer.
type Judge interface {
	// JudgeAnswer grades the actual answer against the expected one.
	JudgeAnswer(ctx context.Context, question, expected, actual string) (domain.Judgment, domain.Usage, error)

	// ModelName returns the name of the judge model.
	ModelName() string
}
