package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phishguard/phishguard/internal/server"
	"github.com/phishguard/phishguard/pkg/cache"
	"github.com/phishguard/phishguard/pkg/guard"
	"github.com/phishguard/phishguard/pkg/policy"
	"github.com/phishguard/phishguard/pkg/scoring"
	"github.com/phishguard/phishguard/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local navigation guard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")
		if listen == "" {
			listen = viper.GetString("server.listen")
		}

		path, err := dbPath()
		if err != nil {
			return err
		}
		db, err := storage.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()

		p, err := policy.New(viper.GetStringSlice("guard.allowlist"))
		if err != nil {
			return err
		}

		timeout := time.Duration(viper.GetInt("api.timeout_seconds")) * time.Second
		scorer := scoring.New(viper.GetString("api.endpoint"), timeout)

		g := guard.New(guard.Config{
			Policy:   p,
			Scorer:   scorer,
			Cache:    cache.New(time.Duration(viper.GetInt("cache.ttl_minutes"))*time.Minute, viper.GetInt("cache.capacity")),
			Blocks:   db,
			Cooldown: time.Duration(viper.GetInt("guard.cooldown_seconds")) * time.Second,
		})

		srv := server.New(db, g, scorer, viper.GetString("server.username"), viper.GetString("server.password"))
		if fallback := viper.GetString("server.fallback_url"); fallback != "" {
			srv.FallbackURL = fallback
		}
		return srv.Start(listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "HTTP listen address (overrides config)")
}
