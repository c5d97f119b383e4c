package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/phishguard/phishguard/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `        _     _     _                           _
  _ __ | |__ (_)___| |__   __ _ _   _  __ _ _ __| |
 | '_ \| '_ \| / __| '_ \ / _` + "`" + ` | | | |/ _` + "`" + ` | '__| |
 | |_) | | | | \__ \ | | | (_| | |_| | (_| | |  | |
 | .__/|_| |_|_|___/_| |_|\__, |\__,_|\__,_|_|  |_|
 |_|                      |___/

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "phishguard",
	Short: "A local phishing verdict and navigation guard daemon.",
	Long: LOGO + `phishguard reconciles ensemble phishing scores from a remote scoring service
into a single authoritative verdict, and guards browser navigations against
phishing targets with a local warning surface.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.phishguard.yaml)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".phishguard")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.phishguard.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default values for all keys
	viper.SetDefault("api.endpoint", "http://127.0.0.1:5000/api/scan")
	viper.SetDefault("api.timeout_seconds", 10)
	viper.SetDefault("cache.ttl_minutes", 30)
	viper.SetDefault("cache.capacity", 100)
	viper.SetDefault("guard.allowlist", []string{
		"google.com", "youtube.com", "github.com", "microsoft.com",
		"apple.com", "amazon.com", "wikipedia.org", "paypal.com",
	})
	viper.SetDefault("guard.cooldown_seconds", 10)
	viper.SetDefault("db.path", "")
	viper.SetDefault("server.listen", "127.0.0.1:7979")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
	viper.SetDefault("server.fallback_url", "https://www.google.com")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// dbPath resolves the sqlite database location, defaulting to the home dir.
func dbPath() (string, error) {
	if p := viper.GetString("db.path"); p != "" {
		return p, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return home + "/.phishguard.db", nil
}
