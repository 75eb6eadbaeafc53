package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ragbench/internal/adapter/audit"
	"ragbench/internal/domain"
	"ragbench/internal/port"
)

// BenchUseCase runs the full evaluation: retrieve context, generate an
// answer, judge it, and aggregate quality metrics across the run.
type BenchUseCase struct {
	search       *TwoStageSearch
	generator    port.AnswerGenerator
	judge        port.Judge
	logger       *audit.Logger
	penaltyRatio float64
	concurrency  int
}

// NewBenchUseCase creates a benchmark runner.
func NewBenchUseCase(
	search *TwoStageSearch,
	generator port.AnswerGenerator,
	judge port.Judge,
	logger *audit.Logger,
	penaltyRatio float64,
	concurrency int,
) *BenchUseCase {
	if penaltyRatio <= 0 {
		penaltyRatio = 4.0
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BenchUseCase{
		search:       search,
		generator:    generator,
		judge:        judge,
		logger:       logger,
		penaltyRatio: penaltyRatio,
		concurrency:  concurrency,
	}
}

// QuestionResult records one question's outcome.
type QuestionResult struct {
	Index        int      `json:"index"`
	Question     string   `json:"question"`
	Expected     string   `json:"expected_answer"`
	Actual       string   `json:"actual_answer"`
	Verdict      string   `json:"verdict"`
	Confidence   float64  `json:"confidence"`
	Explanation  string   `json:"explanation,omitempty"`
	TopDocuments []string `json:"top_documents,omitempty"`
	ContextChars int      `json:"context_chars"`
	LatencyMs    float64  `json:"latency_ms"`
	Tokens       int      `json:"tokens"`
	Error        string   `json:"error,omitempty"`
}

// Metrics aggregates a run's quality scores.
type Metrics struct {
	QualityScore           float64 `json:"quality_score"`
	VolumeScore            float64 `json:"volume_score"`
	AttemptedRate          float64 `json:"attempted_rate"`
	AccuracyGivenAttempted float64 `json:"accuracy_given_attempted"`
	NCorrect               int     `json:"n_correct"`
	NIncorrect             int     `json:"n_incorrect"`
	NNotAttempted          int     `json:"n_not_attempted"`
	PenaltyRatio           float64 `json:"penalty_ratio"`
	AvgLatencyMs           float64 `json:"avg_latency_ms"`
	AvgTokens              float64 `json:"avg_tokens"`
	TotalTimeS             float64 `json:"total_time_s"`
}

// RunSummary is the persisted run report.
type RunSummary struct {
	RunID       string  `json:"run_id"`
	Timestamp   string  `json:"timestamp"`
	AnswerModel string  `json:"model"`
	Questions   int     `json:"questions"`
	Metrics     Metrics `json:"metrics"`
	// Results feed detailed_results.jsonl, not the summary file.
	Results []QuestionResult `json:"-"`
}

// Run evaluates every question with a bounded worker pool. The shared
// index is read-only, so questions run fully in parallel up to the
// concurrency limit; only external API rate limits bound throughput.
// progress, if non-nil, is called as questions complete.
func (u *BenchUseCase) Run(ctx context.Context, questions []domain.Question, progress func(done, total int)) (*RunSummary, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions to evaluate")
	}

	start := time.Now()
	results := make([]QuestionResult, len(questions))

	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0
	sem := make(chan struct{}, u.concurrency)

	for i, q := range questions {
		wg.Add(1)
		sem <- struct{}{}
		go func(pos int, q domain.Question) {
			defer wg.Done()
			defer func() { <-sem }()

			results[pos] = u.evaluate(ctx, q)

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			if progress != nil {
				progress(n, len(questions))
			}
		}(i, q)
	}
	wg.Wait()

	// Append in question order so the detailed stream is deterministic.
	for _, r := range results {
		if err := u.logger.AppendResult(r); err != nil {
			return nil, fmt.Errorf("failed to persist result %d: %w", r.Index, err)
		}
	}

	metrics := ComputeMetrics(results, u.penaltyRatio)
	metrics.TotalTimeS = time.Since(start).Seconds()

	summary := &RunSummary{
		RunID:       u.logger.RunID(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		AnswerModel: u.generator.ModelName(),
		Questions:   len(questions),
		Metrics:     metrics,
		Results:     results,
	}

	if err := u.logger.WriteResults(summary); err != nil {
		return nil, fmt.Errorf("failed to write run summary: %w", err)
	}
	err := u.logger.Finalize(map[string]any{
		"quality_score":   metrics.QualityScore,
		"volume_score":    metrics.VolumeScore,
		"n_correct":       metrics.NCorrect,
		"n_incorrect":     metrics.NIncorrect,
		"n_not_attempted": metrics.NNotAttempted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to finalize audit trail: %w", err)
	}

	return summary, nil
}

// evaluate runs one question through search, generation, and judging.
// Any failure degrades that question to NOT_ATTEMPTED; the run goes on.
func (u *BenchUseCase) evaluate(ctx context.Context, q domain.Question) QuestionResult {
	result := QuestionResult{
		Index:    q.Index,
		Question: q.Text,
		Expected: q.Expected,
	}
	questionID := fmt.Sprintf("q%04d", q.Index)

	searchResult, err := u.search.Search(ctx, q.Text)
	if err != nil {
		return u.failed(result, questionID, err)
	}
	u.logSearch(questionID, q.Text, searchResult)

	result.ContextChars = searchResult.ContextChars
	for _, rank := range searchResult.Ranking {
		result.TopDocuments = append(result.TopDocuments, rank.DocID)
	}

	answer, genUsage, err := u.generator.GenerateAnswer(ctx, q.Text, searchResult.Context)
	if err != nil {
		return u.failed(result, questionID, err)
	}
	result.Actual = answer
	result.LatencyMs = genUsage.LatencyMs
	result.Tokens = genUsage.TotalTokens
	_ = u.logger.LogProviderRequest(audit.ProviderRequest{
		QuestionID:   questionID,
		CallType:     "answer_generation",
		Model:        u.generator.ModelName(),
		PromptChars:  len(searchResult.Context) + len(q.Text),
		ResponseText: answer,
		LatencyMs:    genUsage.LatencyMs,
		InputTokens:  genUsage.PromptTokens,
		OutputTokens: genUsage.CompletionTokens,
	})

	judgment, judgeUsage, err := u.judge.JudgeAnswer(ctx, q.Text, q.Expected, answer)
	if err != nil {
		return u.failed(result, questionID, err)
	}

	verdict := judgment.Verdict
	if verdict != domain.VerdictCorrect && verdict != domain.VerdictNotAttempted {
		verdict = domain.VerdictIncorrect
	}
	result.Verdict = verdict
	result.Confidence = judgment.Confidence
	result.Explanation = judgment.Explanation

	_ = u.logger.LogJudge(audit.JudgeEvaluation{
		QuestionID:  questionID,
		Question:    q.Text,
		Expected:    q.Expected,
		Actual:      answer,
		Verdict:     verdict,
		Confidence:  judgment.Confidence,
		Explanation: judgment.Explanation,
	})
	_ = u.logger.LogProviderRequest(audit.ProviderRequest{
		QuestionID:   questionID,
		CallType:     "judge",
		Model:        u.judge.ModelName(),
		PromptChars:  len(q.Text) + len(q.Expected) + len(answer),
		ResponseText: verdict,
		LatencyMs:    judgeUsage.LatencyMs,
		InputTokens:  judgeUsage.PromptTokens,
		OutputTokens: judgeUsage.CompletionTokens,
	})

	return result
}

func (u *BenchUseCase) failed(result QuestionResult, questionID string, err error) QuestionResult {
	result.Verdict = domain.VerdictNotAttempted
	result.Error = err.Error()
	if result.Actual == "" {
		result.Actual = fmt.Sprintf("ERROR: %v", err)
	}
	u.logger.RecordError(questionID, err.Error())
	return result
}

func (u *BenchUseCase) logSearch(questionID, query string, sr domain.SearchResult) {
	trace := audit.SearchTrace{
		QuestionID:   questionID,
		Query:        query,
		ContextChars: sr.ContextChars,
	}
	for _, rank := range sr.Ranking {
		dt := audit.DocumentTrace{
			DocID: rank.DocID,
			Score: rank.Score,
		}
		for _, member := range rank.Fragments {
			dt.FragmentIDs = append(dt.FragmentIDs, member.Fragment.ID)
			dt.FragmentScores = append(dt.FragmentScores, member.Score)
		}
		trace.Ranking = append(trace.Ranking, dt)
	}
	_ = u.logger.LogSearch(trace)
}

// ComputeMetrics reduces per-question results to run-level scores.
// QualityScore penalizes wrong answers harder than abstentions:
// (correct - penalty*incorrect) / total.
func ComputeMetrics(results []QuestionResult, penaltyRatio float64) Metrics {
	m := Metrics{PenaltyRatio: penaltyRatio}

	var totalLatency, totalTokens float64
	for _, r := range results {
		switch r.Verdict {
		case domain.VerdictCorrect:
			m.NCorrect++
		case domain.VerdictNotAttempted:
			m.NNotAttempted++
		default:
			m.NIncorrect++
		}
		totalLatency += r.LatencyMs
		totalTokens += float64(r.Tokens)
	}

	n := float64(len(results))
	if n == 0 {
		return m
	}

	m.QualityScore = (float64(m.NCorrect) - penaltyRatio*float64(m.NIncorrect)) / n
	m.VolumeScore = float64(m.NCorrect) / n
	attempted := m.NCorrect + m.NIncorrect
	m.AttemptedRate = float64(attempted) / n
	if attempted > 0 {
		m.AccuracyGivenAttempted = float64(m.NCorrect) / float64(attempted)
	}
	m.AvgLatencyMs = totalLatency / n
	m.AvgTokens = totalTokens / n

	return m
}
