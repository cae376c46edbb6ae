package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minjae-dev/quantpipe/pkg/config"
)

// showCmd prints the last written snapshot.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the latest ranking snapshot",
	Long: `Reads the snapshot written by the last pipeline run and prints it.

Example:
  go run ./cmd/quantpipe show`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

type snapshotRow struct {
	Symbol     string `json:"symbol"`
	Date       string `json:"date"`
	SignalType string `json:"signal_type"`
	Score      string `json:"score"`
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := os.ReadFile(cfg.Pipeline.SnapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No snapshot found. Run the pipeline first.")
			return nil
		}
		return fmt.Errorf("read snapshot: %w", err)
	}

	var doc struct {
		Momentum []snapshotRow `json:"rank_momentum_signals"`
		Reversal []snapshotRow `json:"rank_reversal_signals"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}

	printFamily("momentum", doc.Momentum)
	printFamily("reversal", doc.Reversal)
	return nil
}

func printFamily(family string, rows []snapshotRow) {
	if len(rows) == 0 {
		fmt.Printf("No %s signals in snapshot\n", family)
		return
	}

	fmt.Printf("%s signals:\n", family)
	for i, row := range rows {
		fmt.Printf("  %2d. %-10s %-12s %-20s %s\n", i+1, row.Symbol, row.Date, row.SignalType, row.Score)
	}
}
