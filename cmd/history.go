package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/phishguard/phishguard/pkg/storage"
	"github.com/phishguard/phishguard/pkg/verdict"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent scan history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		path, err := dbPath()
		if err != nil {
			return err
		}
		db, err := storage.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.ListHistory(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(records)
		}
		for _, r := range records {
			line := fmt.Sprintf("%s  %-10s %3d%%  [%s]  %s",
				r.ScannedAt.Format("2006-01-02 15:04:05"), r.Classification, r.ConfidencePercent, r.Source, r.URL)
			switch verdict.Classification(r.Classification) {
			case verdict.Phishing:
				color.Red(line)
			case verdict.Suspicious:
				color.Yellow(line)
			default:
				fmt.Println(line)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum records to show")
	historyCmd.Flags().Bool("json", false, "Print JSON")
}
