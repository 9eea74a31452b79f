package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configPath string
	v          = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Browse the storefront catalog from the terminal",
	Long: `catalogctl talks to the storefront API the same way the category page does:
- browse: apply filters, keep the URL in sync and print the current page
- shop: query the shop listing
- token: sign an admin token for the /api/admin endpoints`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./catalogctl.yaml)")
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "storefront API base URL")
	rootCmd.PersistentFlags().Bool("verbose", false, "log requests to stderr")
	_ = v.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(browseCmd, shopCmd, tokenCmd)
}

// loadConfig は フラグ > CATALOG_* 環境変数 > 設定ファイル の順。
func loadConfig() error {
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("catalogctl")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && configPath == "" {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
