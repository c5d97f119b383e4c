package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/phishguard/phishguard/internal/utils"
	"github.com/phishguard/phishguard/pkg/inspect"
	"github.com/phishguard/phishguard/pkg/scoring"
	"github.com/phishguard/phishguard/pkg/storage"
	"github.com/phishguard/phishguard/pkg/verdict"
)

var scanCmd = &cobra.Command{
	Use:          "scan <url> [url...]",
	Short:        "Manually scan one or more URLs",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		withPage, _ := cmd.Flags().GetBool("page")
		withWhois, _ := cmd.Flags().GetBool("whois")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		timeout := time.Duration(viper.GetInt("api.timeout_seconds")) * time.Second
		client := scoring.New(viper.GetString("api.endpoint"), timeout)

		path, err := dbPath()
		if err != nil {
			return err
		}
		db, err := storage.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()

		type outcome struct {
			url     string
			verdict *verdict.Verdict
			err     error
		}
		results := make([]outcome, len(args))

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(concurrency)
		for idx, rawURL := range args {
			idx, rawURL := idx, rawURL
			g.Go(func() error {
				v, err := client.Scan(ctx, rawURL)
				results[idx] = outcome{url: rawURL, verdict: v, err: err}
				if err == nil {
					rec := storage.ScanRecord{
						URL:               rawURL,
						Classification:    string(v.Classification),
						ConfidencePercent: v.ConfidencePercent,
						RiskLevel:         string(v.RiskLevel),
						Source:            "manual",
					}
					if derr := db.AddScan(ctx, rec); derr != nil {
						utils.Log.Warnf("history write failed: %v", derr)
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		failed := 0
		for _, res := range results {
			if res.err != nil {
				failed++
				// Manual scans surface failures explicitly; retry with the
				// same command once the scoring service is reachable.
				color.Red("✗ %s: scan failed: %v", res.url, res.err)
				continue
			}
			if asJSON {
				data, _ := json.MarshalIndent(res.verdict, "", "  ")
				fmt.Println(string(data))
				continue
			}
			printVerdict(cmd.Context(), res.verdict, withPage, withWhois)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d scans failed", failed, len(args))
		}
		return nil
	},
}

func printVerdict(ctx context.Context, v *verdict.Verdict, withPage, withWhois bool) {
	headline := fmt.Sprintf("%s  %s (%d%%, risk %s)", v.URL, v.Classification, v.ConfidencePercent, v.RiskLevel)
	switch v.Classification {
	case verdict.Phishing:
		color.Red("✗ " + headline)
	case verdict.Suspicious:
		color.Yellow("! " + headline)
	default:
		color.Green("✓ " + headline)
	}

	modules := make([]string, 0, len(v.ModuleScores))
	for m := range v.ModuleScores {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	for _, m := range modules {
		fmt.Printf("    %-10s score %3d%%  contribution %5.1f%%\n", m, v.ModuleScores[m], v.Contributions[m])
	}

	if v.Degraded {
		lex := inspect.Lexical(v.URL)
		fmt.Printf("    scoring response carried no module breakdown; local lexical estimate %d%% %v\n", lex.ScorePercent, lex.Flags)
	}
	if withPage {
		if page, err := inspect.FetchPage(ctx, nil, v.URL); err == nil {
			fmt.Printf("    page: title %q, %d password inputs, %d iframes, %d cross-origin forms\n",
				page.Title, page.PasswordInputs, page.Iframes, page.CrossOriginForms)
		} else {
			utils.Log.Debugf("page fetch failed: %v", err)
		}
	}
	if withWhois {
		if age, err := inspect.DomainAge(v.URL); err == nil {
			fmt.Printf("    domain: %s registered %s (%d days ago)\n", age.Domain, age.CreatedAt.Format("2006-01-02"), age.AgeDays)
		} else {
			utils.Log.Debugf("whois lookup failed: %v", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Bool("json", false, "Print raw verdict JSON")
	scanCmd.Flags().Bool("page", false, "Fetch the page and report behavioral signals")
	scanCmd.Flags().Bool("whois", false, "Look up WHOIS domain age")
	scanCmd.Flags().IntP("concurrency", "c", 5, "Concurrent scans")
}
