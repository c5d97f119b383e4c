package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phishguard/phishguard/pkg/storage"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show scan counts per classification",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := dbPath()
		if err != nil {
			return err
		}
		db, err := storage.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Println("No scans recorded yet.")
			return nil
		}

		total := 0
		for _, s := range stats {
			fmt.Printf("%-12s %6d\n", s.Classification, s.Count)
			total += s.Count
		}
		fmt.Printf("%-12s %6d\n", "total", total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
