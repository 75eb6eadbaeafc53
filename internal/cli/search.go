package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"ragbench/config"
	"ragbench/internal/adapter/index"
	"ragbench/internal/usecase"
)

var (
	searchQuery string
	searchJSON  bool
	searchFull  bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a two-stage search against the index",
	Long: `Embed the query, retrieve the top fragments, aggregate per-document
scores, and print the ranking with the assembled context.

Examples:
  ragbench search -q "Who was the first person to walk on the moon?"
  ragbench search -q "capital of France" --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.Flags().BoolVar(&searchFull, "full", false, "print the full context instead of a preview")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	pipeline, closeStore, err := openPipeline()
	if err != nil {
		return err
	}
	defer closeStore()

	result, err := pipeline.Search(cmd.Context(), searchQuery)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(result.Ranking) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Ranking for: %s\n\n", searchQuery)
	for i, rank := range result.Ranking {
		fmt.Printf("  %d. %s  score=%.4f  fragments=%d\n", i+1, rank.DocID, rank.Score, len(rank.Fragments))
	}

	fmt.Printf("\nContext length: %d chars\n\n", result.ContextChars)
	text := result.Context
	if !searchFull && len(text) > 500 {
		text = text[:500] + "..."
	}
	fmt.Println(text)

	return nil
}

// openPipeline loads the index artifact and builds the search pipeline.
// The returned func closes the underlying store.
func openPipeline() (*usecase.TwoStageSearch, func(), error) {
	dbPath := config.IndexDBPath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("no index found. Run 'ragbench index' first")
	}

	st, err := index.NewBoltStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open index: %w", err)
	}

	idx, err := st.Load()
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to load index: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	pipeline := usecase.NewTwoStageSearch(embedder, idx, usecase.SearchOptions{
		TopKFragments:   cfg.Retrieve.TopKFragments,
		TopDocs:         cfg.Retrieve.TopDocs,
		FragmentsPerDoc: cfg.Retrieve.FragmentsPerDoc,
		MaxContextChars: cfg.Retrieve.MaxContextChars,
	})

	return pipeline, func() { st.Close() }, nil
}
