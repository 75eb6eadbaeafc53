package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"ragbench/config"
	"ragbench/internal/adapter/embedding"
	"ragbench/internal/port"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "ragbench",
	Short: "Fair multi-document RAG benchmark with two-stage retrieval",
	Long: `ragbench indexes a document corpus into a vector artifact, answers
benchmark questions with two-stage retrieval (fragment search, then
per-document score aggregation), and judges the generated answers.

Example usage:
  ragbench index ./corpus              # Build the vector index
  ragbench search -q "capital of France"
  ragbench bench --limit 100           # Run the full benchmark`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ragbench.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

// newEmbedder builds the configured embedding provider.
func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	case "openai", "":
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Embedding.Provider)
	}
}
