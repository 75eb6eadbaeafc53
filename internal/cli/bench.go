package cli

import (
	"fmt"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"ragbench/internal/adapter/audit"
	"ragbench/internal/adapter/llm"
	"ragbench/internal/adapter/questions"
	"ragbench/internal/usecase"
)

var (
	benchQuestionsFile string
	benchLimit         int
	benchRunID         string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the full retrieval benchmark",
	Long: `Evaluate benchmark questions end to end: two-stage retrieval, answer
generation, and judging. Results and a full audit trail are written to
a per-run directory.

Examples:
  ragbench bench
  ragbench bench --limit 10 --questions ./data/questions.csv`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().StringVar(&benchQuestionsFile, "questions", "", "questions CSV (default from config)")
	benchCmd.Flags().IntVar(&benchLimit, "limit", 0, "number of questions to run (default from config)")
	benchCmd.Flags().StringVar(&benchRunID, "run-id", "", "run identifier (default is a timestamp)")
}

func runBench(cmd *cobra.Command, args []string) error {
	questionsFile := cfg.Benchmark.QuestionsFile
	if benchQuestionsFile != "" {
		questionsFile = benchQuestionsFile
	}
	limit := cfg.Benchmark.Limit
	if benchLimit > 0 {
		limit = benchLimit
	}

	qs, err := questions.LoadCSV(questionsFile, limit)
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	if len(qs) == 0 {
		return fmt.Errorf("no questions loaded from %s", questionsFile)
	}

	pipeline, closeStore, err := openPipeline()
	if err != nil {
		return err
	}
	defer closeStore()

	generator, err := llm.NewGenerator(cfg.Embedding.APIKeyEnv, cfg.Benchmark.AnswerModel, cfg.Benchmark.MaxAnswerTokens)
	if err != nil {
		return fmt.Errorf("failed to create answer generator: %w", err)
	}
	judge, err := llm.NewJudge(cfg.Embedding.APIKeyEnv, cfg.Benchmark.JudgeModel)
	if err != nil {
		return fmt.Errorf("failed to create judge: %w", err)
	}

	logger, err := audit.NewLogger(benchRunID, cfg.Benchmark.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to create audit logger: %w", err)
	}
	if err := logger.SetConfig(cfg, len(qs)); err != nil {
		return fmt.Errorf("failed to record run config: %w", err)
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("Fair Multi-Document RAG Benchmark")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Answer Model:  %s\n", cfg.Benchmark.AnswerModel)
	fmt.Printf("Judge Model:   %s\n", cfg.Benchmark.JudgeModel)
	fmt.Printf("Questions:     %d\n", len(qs))
	fmt.Printf("Penalty Ratio: %.1f\n", cfg.Benchmark.PenaltyRatio)
	fmt.Printf("Run ID:        %s\n", logger.RunID())
	fmt.Println(strings.Repeat("=", 70))

	bench := usecase.NewBenchUseCase(
		pipeline,
		generator,
		judge,
		logger,
		cfg.Benchmark.PenaltyRatio,
		cfg.Benchmark.Concurrency,
	)

	bar := progressbar.NewOptions(len(qs),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Evaluating[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	summary, err := bench.Run(cmd.Context(), qs, func(done, total int) {
		bar.Set(done)
	})
	if err != nil {
		return fmt.Errorf("benchmark failed: %w", err)
	}

	m := summary.Metrics
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("BENCHMARK COMPLETE")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Output: %s\n", logger.RunDir())
	fmt.Printf("\nResults:\n")
	fmt.Printf("  Correct:       %d\n", m.NCorrect)
	fmt.Printf("  Incorrect:     %d\n", m.NIncorrect)
	fmt.Printf("  Not Attempted: %d\n", m.NNotAttempted)
	fmt.Printf("\nMetrics:\n")
	fmt.Printf("  Quality Score: %.2f\n", m.QualityScore)
	fmt.Printf("  Volume Score:  %.2f\n", m.VolumeScore)
	fmt.Printf("  Accuracy:      %.2f%%\n", m.AccuracyGivenAttempted*100)
	fmt.Printf("\nTime: %.1fs\n", m.TotalTimeS)
	fmt.Println(strings.Repeat("=", 70))

	return nil
}
