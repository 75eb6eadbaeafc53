package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes a per-run audit trail: JSONL streams for provider
// calls, judge evaluations, and searches, plus a run metadata record.
// Safe for concurrent appenders.
type Logger struct {
	runID  string
	runDir string

	mu       sync.Mutex
	metadata runMetadata
}

type runMetadata struct {
	RunID              string         `json:"run_id"`
	StartTime          string         `json:"start_time"`
	EndTime            string         `json:"end_time,omitempty"`
	Config             any            `json:"config,omitempty"`
	TotalQuestions     int            `json:"total_questions"`
	CompletedQuestions int            `json:"completed_questions"`
	Errors             []string       `json:"errors"`
	Metrics            map[string]any `json:"metrics"`
}

// ProviderRequest records one LLM API call with its full context.
type ProviderRequest struct {
	Timestamp    string  `json:"timestamp"`
	RunID        string  `json:"run_id"`
	QuestionID   string  `json:"question_id"`
	CallType     string  `json:"call_type"` // "answer_generation", "judge", "embedding"
	Model        string  `json:"model"`
	PromptChars  int     `json:"prompt_chars"`
	ResponseText string  `json:"response"`
	LatencyMs    float64 `json:"latency_ms"`
	InputTokens  int     `json:"input_tokens,omitempty"`
	OutputTokens int     `json:"output_tokens,omitempty"`
}

// JudgeEvaluation records one grading decision.
type JudgeEvaluation struct {
	Timestamp   string  `json:"timestamp"`
	RunID       string  `json:"run_id"`
	QuestionID  string  `json:"question_id"`
	Question    string  `json:"question"`
	Expected    string  `json:"expected_answer"`
	Actual      string  `json:"actual_answer"`
	Verdict     string  `json:"verdict"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation,omitempty"`
}

// SearchTrace records one retrieval with its document ranking.
type SearchTrace struct {
	Timestamp    string          `json:"timestamp"`
	RunID        string          `json:"run_id"`
	QuestionID   string          `json:"question_id"`
	Query        string          `json:"query"`
	Ranking      []DocumentTrace `json:"ranking"`
	ContextChars int             `json:"context_chars"`
}

// DocumentTrace is one ranked document with its member fragments.
type DocumentTrace struct {
	DocID          string    `json:"doc_id"`
	Score          float64   `json:"score"`
	FragmentIDs    []int     `json:"fragment_ids"`
	FragmentScores []float64 `json:"fragment_scores"`
}

// NewLogger creates the run directory and its metadata record. An empty
// runID gets a timestamp id.
func NewLogger(runID, outputDir string) (*Logger, error) {
	if runID == "" {
		runID = time.Now().Format("20060102_150405")
	}

	runDir := filepath.Join(outputDir, "run_"+runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	l := &Logger{
		runID:  runID,
		runDir: runDir,
		metadata: runMetadata{
			RunID:     runID,
			StartTime: time.Now().UTC().Format(time.RFC3339),
			Errors:    []string{},
			Metrics:   map[string]any{},
		},
	}
	if err := l.saveMetadata(); err != nil {
		return nil, err
	}
	return l, nil
}

// RunID returns the run identifier.
func (l *Logger) RunID() string { return l.runID }

// RunDir returns the run's output directory.
func (l *Logger) RunDir() string { return l.runDir }

// SetConfig stores the run configuration in the metadata record.
func (l *Logger) SetConfig(config any, totalQuestions int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.metadata.Config = config
	l.metadata.TotalQuestions = totalQuestions
	return l.saveMetadata()
}

// LogProviderRequest appends one LLM call record.
func (l *Logger) LogProviderRequest(entry ProviderRequest) error {
	entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	entry.RunID = l.runID
	return l.appendJSONL("provider_requests.jsonl", entry)
}

// LogJudge appends one grading record.
func (l *Logger) LogJudge(entry JudgeEvaluation) error {
	entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	entry.RunID = l.runID
	return l.appendJSONL("judge_evaluations.jsonl", entry)
}

// LogSearch appends one retrieval trace.
func (l *Logger) LogSearch(entry SearchTrace) error {
	entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	entry.RunID = l.runID
	return l.appendJSONL("searches.jsonl", entry)
}

// AppendResult appends one per-question result to the detailed stream.
func (l *Logger) AppendResult(result any) error {
	err := l.appendJSONL("detailed_results.jsonl", result)
	if err == nil {
		l.mu.Lock()
		l.metadata.CompletedQuestions++
		l.mu.Unlock()
	}
	return err
}

// RecordError notes a per-question failure in the metadata record.
func (l *Logger) RecordError(questionID, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.metadata.Errors = append(l.metadata.Errors, fmt.Sprintf("%s: %s", questionID, message))
}

// WriteResults writes the run summary as results.json.
func (l *Logger) WriteResults(summary any) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(l.runDir, "results.json"), data, 0644)
}

// Finalize records metrics and the end time.
func (l *Logger) Finalize(metrics map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.metadata.Metrics = metrics
	l.metadata.EndTime = time.Now().UTC().Format(time.RFC3339)
	return l.saveMetadata()
}

func (l *Logger) appendJSONL(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(l.runDir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

// saveMetadata writes run_metadata.json. Concurrent callers must hold
// l.mu; construction is single-threaded.
func (l *Logger) saveMetadata() error {
	data, err := json.MarshalIndent(l.metadata, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(l.runDir, "run_metadata.json"), data, 0644)
}
