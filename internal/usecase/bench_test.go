package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"ragbench/internal/adapter/audit"
	"ragbench/internal/domain"
)

type stubGenerator struct {
	answer string
	err    error
}

func (g *stubGenerator) GenerateAnswer(context.Context, string, string) (string, domain.Usage, error) {
	if g.err != nil {
		return "", domain.Usage{}, g.err
	}
	return g.answer, domain.Usage{TotalTokens: 10, LatencyMs: 5}, nil
}

func (g *stubGenerator) ModelName() string { return "stub-answer" }

type stubJudge struct {
	verdict string
	err     error
}

func (j *stubJudge) JudgeAnswer(_ context.Context, _, expected, actual string) (domain.Judgment, domain.Usage, error) {
	if j.err != nil {
		return domain.Judgment{}, domain.Usage{}, j.err
	}
	verdict := j.verdict
	if verdict == "" {
		if strings.EqualFold(expected, actual) {
			verdict = domain.VerdictCorrect
		} else {
			verdict = domain.VerdictIncorrect
		}
	}
	return domain.Judgment{Verdict: verdict, Confidence: 1.0}, domain.Usage{TotalTokens: 5}, nil
}

func (j *stubJudge) ModelName() string { return "stub-judge" }

func benchQuestions(n int) []domain.Question {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			Index:    i,
			Text:     fmt.Sprintf("question %d", i),
			Expected: "the answer",
		}
	}
	return questions
}

func newBenchForTest(t *testing.T, gen *stubGenerator, judge *stubJudge, concurrency int) *BenchUseCase {
	t.Helper()
	logger, err := audit.NewLogger("bench_test", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	pipeline := NewTwoStageSearch(
		&fixedEmbedder{vector: []float32{1, 0, 0}},
		buildTestIndex(t),
		DefaultSearchOptions(),
	)
	return NewBenchUseCase(pipeline, gen, judge, logger, 4.0, concurrency)
}

func TestBenchRun_AllCorrect(t *testing.T) {
	bench := newBenchForTest(t, &stubGenerator{answer: "the answer"}, &stubJudge{}, 2)

	summary, err := bench.Run(context.Background(), benchQuestions(6), nil)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Metrics.NCorrect != 6 {
		t.Errorf("expected 6 correct, got %d", summary.Metrics.NCorrect)
	}
	if summary.Metrics.QualityScore != 1.0 {
		t.Errorf("expected quality 1.0, got %f", summary.Metrics.QualityScore)
	}
	if len(summary.Results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(summary.Results))
	}
	// Concurrent workers must not scramble the persisted order.
	for i, r := range summary.Results {
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
	}
}

func TestBenchRun_GeneratorFailure(t *testing.T) {
	bench := newBenchForTest(t, &stubGenerator{err: fmt.Errorf("rate limited")}, &stubJudge{}, 1)

	summary, err := bench.Run(context.Background(), benchQuestions(3), nil)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Metrics.NNotAttempted != 3 {
		t.Errorf("expected 3 not attempted, got %d", summary.Metrics.NNotAttempted)
	}
	for _, r := range summary.Results {
		if r.Verdict != domain.VerdictNotAttempted {
			t.Errorf("expected NOT_ATTEMPTED, got %s", r.Verdict)
		}
		if r.Error == "" {
			t.Error("expected error recorded on failed question")
		}
	}
}

func TestBenchRun_Empty(t *testing.T) {
	bench := newBenchForTest(t, &stubGenerator{answer: "x"}, &stubJudge{}, 1)
	if _, err := bench.Run(context.Background(), nil, nil); err == nil {
		t.Error("expected error for empty question set")
	}
}

func TestBenchRun_UnknownVerdictCountsIncorrect(t *testing.T) {
	bench := newBenchForTest(t, &stubGenerator{answer: "something"}, &stubJudge{verdict: "MAYBE"}, 1)

	summary, err := bench.Run(context.Background(), benchQuestions(2), nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Metrics.NIncorrect != 2 {
		t.Errorf("expected unknown verdicts counted incorrect, got %+v", summary.Metrics)
	}
}

func TestComputeMetrics(t *testing.T) {
	results := []QuestionResult{
		{Verdict: domain.VerdictCorrect, LatencyMs: 100, Tokens: 50},
		{Verdict: domain.VerdictCorrect, LatencyMs: 200, Tokens: 150},
		{Verdict: domain.VerdictIncorrect},
		{Verdict: domain.VerdictNotAttempted},
	}

	m := ComputeMetrics(results, 4.0)

	if m.NCorrect != 2 || m.NIncorrect != 1 || m.NNotAttempted != 1 {
		t.Errorf("unexpected counts: %+v", m)
	}
	// (2 - 4*1) / 4 = -0.5
	if math.Abs(m.QualityScore-(-0.5)) > 1e-9 {
		t.Errorf("expected quality -0.5, got %f", m.QualityScore)
	}
	if math.Abs(m.VolumeScore-0.5) > 1e-9 {
		t.Errorf("expected volume 0.5, got %f", m.VolumeScore)
	}
	if math.Abs(m.AttemptedRate-0.75) > 1e-9 {
		t.Errorf("expected attempted rate 0.75, got %f", m.AttemptedRate)
	}
	if math.Abs(m.AccuracyGivenAttempted-2.0/3.0) > 1e-9 {
		t.Errorf("expected accuracy 2/3, got %f", m.AccuracyGivenAttempted)
	}
	if math.Abs(m.AvgLatencyMs-75) > 1e-9 {
		t.Errorf("expected avg latency 75, got %f", m.AvgLatencyMs)
	}
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := ComputeMetrics(nil, 4.0)
	if m.QualityScore != 0 || m.AttemptedRate != 0 {
		t.Errorf("expected zero metrics for empty results, got %+v", m)
	}
}
