package main

import (
	"fmt"
	"os"
	"time"

	"github.com/franz/ta2music/internal/ledger"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// recentLimit caps the records shown by the status table
const recentLimit = 20

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the dedup ledger contents",
	Long: `status opens the dedup ledger and prints the most recently processed
videos along with the total count. Useful for checking what the daemon
has done without trawling its logs.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	dbPath := viper.GetString("db")

	led, err := ledger.Open(dbPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer led.Close()

	count, err := led.Count()
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}

	records, err := led.Recent(recentLimit)
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Content Hash", "Processed At"})
	for _, r := range records {
		t.AppendRow(table.Row{r.ContentHash, r.ProcessedAt.Format(time.RFC3339)})
	}
	t.Render()

	fmt.Printf("Total processed: %d (showing up to %d most recent)\n", count, recentLimit)
	return nil
}
