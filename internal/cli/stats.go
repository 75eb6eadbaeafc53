package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"ragbench/config"
	"ragbench/internal/adapter/index"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Long: `Print information about the current index artifact: fragment count,
embedding model, and vector dimension.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	dbPath := config.IndexDBPath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no index found. Run 'ragbench index' first")
	}

	st, err := index.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer st.Close()

	info, err := st.GetInfo()
	if err != nil {
		return fmt.Errorf("failed to read index info: %w", err)
	}
	count, err := st.Count()
	if err != nil {
		return fmt.Errorf("failed to count fragments: %w", err)
	}

	fmt.Println("Index Statistics")
	fmt.Println("----------------")
	fmt.Printf("Path:       %s\n", dbPath)
	fmt.Printf("Fragments:  %d\n", count)
	fmt.Printf("Model:      %s\n", info.Model)
	fmt.Printf("Dimension:  %d\n", info.Dimension)

	return nil
}
