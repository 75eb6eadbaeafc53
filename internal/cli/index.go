package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"ragbench/config"
	"ragbench/internal/adapter/chunker"
	"ragbench/internal/adapter/fs"
	"ragbench/internal/adapter/index"
	"ragbench/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Build the vector index from a document corpus",
	Long: `Walk the corpus directory, split documents into fragments, embed
them, and write the index artifact to .ragbench/index.db.

Examples:
  ragbench index ./corpus
  ragbench index .`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := rootDir
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	if err := config.EnsureWorkDir(rootDir); err != nil {
		return fmt.Errorf("failed to create .ragbench directory: %w", err)
	}

	dbPath := config.IndexDBPath(rootDir)
	st, err := index.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open index artifact: %w", err)
	}
	defer st.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	build := usecase.NewBuildUseCase(
		st,
		fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes),
		chunker.NewParagraphChunker(cfg.Index.ChunkChars, cfg.Index.ChunkOverlap),
		embedder,
		cfg.Embedding.BatchSize,
	)

	fmt.Printf("Indexing %s with %s (%s)...\n", path, cfg.Embedding.Model, cfg.Embedding.Provider)

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)
	}

	result, err := build.Build(cmd.Context(), path, progress)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	fmt.Printf("\nIndex build complete:\n")
	fmt.Printf("  Files indexed:     %d\n", result.FilesIndexed)
	fmt.Printf("  Fragments created: %d\n", result.FragmentsCreated)

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", e)
		}
	}

	fmt.Printf("\nIndex stored at: %s\n", dbPath)
	return nil
}
