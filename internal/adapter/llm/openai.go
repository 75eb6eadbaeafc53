package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"ragbench/internal/domain"
)

const answerSystemPrompt = `You are a helpful assistant that answers questions based on the provided context.
If the context doesn't contain enough information to answer confidently, say "I don't know" or "I'm not sure".
Be concise and factual. Only use information from the provided context.`

const judgeSystemPrompt = `You are evaluating if an answer is correct compared to a reference answer.
Return a JSON object with:
- "verdict": "CORRECT" if the answer matches the expected meaning, "INCORRECT" if wrong, "NOT_ATTEMPTED" if the answer is "I don't know" or similar
- "confidence": a float 0-1 indicating your confidence
- "explanation": brief reason for verdict`

func newClient(apiKeyEnv string) (*openai.Client, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return openai.NewClient(apiKey), nil
}

// Generator produces context-grounded answers over the OpenAI chat API.
type Generator struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewGenerator creates an answer generator reading its API key from the
// given environment variable.
func NewGenerator(apiKeyEnv, model string, maxTokens int) (*Generator, error) {
	client, err := newClient(apiKeyEnv)
	if err != nil {
		return nil, err
	}
	if maxTokens <= 0 {
		maxTokens = 200
	}
	return &Generator{client: client, model: model, maxTokens: maxTokens}, nil
}

// GenerateAnswer answers the question using only the supplied context.
func (g *Generator) GenerateAnswer(ctx context.Context, question, contextText string) (string, domain.Usage, error) {
	userPrompt := fmt.Sprintf(`Context:
%s

Question: %s

Answer the question based only on the context above. If the answer isn't in the context, say "I don't know".`, contextText, question)

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: answerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxCompletionTokens: g.maxTokens,
		Temperature:         0,
	})
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		return "", domain.Usage{LatencyMs: latency}, fmt.Errorf("answer generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.Usage{LatencyMs: latency}, fmt.Errorf("answer generation returned no choices")
	}

	usage := domain.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		LatencyMs:        latency,
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), usage, nil
}

// ModelName returns the name of the generation model.
func (g *Generator) ModelName() string {
	return g.model
}

// Judge grades generated answers against reference answers.
type Judge struct {
	client *openai.Client
	model  string
}

// NewJudge creates a judge reading its API key from the given
// environment variable.
func NewJudge(apiKeyEnv, model string) (*Judge, error) {
	client, err := newClient(apiKeyEnv)
	if err != nil {
		return nil, err
	}
	return &Judge{client: client, model: model}, nil
}

// JudgeAnswer grades the actual answer against the expected one using
// JSON output for reliable parsing.
func (j *Judge) JudgeAnswer(ctx context.Context, question, expected, actual string) (domain.Judgment, domain.Usage, error) {
	userPrompt := fmt.Sprintf(`Question: %s

Expected Answer: %s

Actual Answer: %s

Evaluate if the actual answer is correct. Return JSON only.`, question, expected, actual)

	start := time.Now()
	resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: j.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: judgeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens:   200,
		Temperature: 0,
	})
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		return domain.Judgment{}, domain.Usage{LatencyMs: latency}, fmt.Errorf("judge call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Judgment{}, domain.Usage{LatencyMs: latency}, fmt.Errorf("judge returned no choices")
	}

	usage := domain.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		LatencyMs:        latency,
	}

	judgment, err := ParseJudgment(resp.Choices[0].Message.Content)
	if err != nil {
		return domain.Judgment{}, usage, err
	}
	return judgment, usage, nil
}

// ModelName returns the name of the judge model.
func (j *Judge) ModelName() string {
	return j.model
}

// ParseJudgment decodes a judge response, normalizing the verdict to
// uppercase. Unknown verdicts are kept as-is for the caller to count as
// incorrect.
func ParseJudgment(raw string) (domain.Judgment, error) {
	var judgment domain.Judgment
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &judgment); err != nil {
		return domain.Judgment{}, fmt.Errorf("failed to parse judge response %q: %w", raw, err)
	}
	judgment.Verdict = strings.ToUpper(strings.TrimSpace(judgment.Verdict))
	if judgment.Verdict == "" {
		return domain.Judgment{}, fmt.Errorf("judge response %q has no verdict", raw)
	}
	return judgment, nil
}
