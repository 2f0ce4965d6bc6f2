package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "wxadapter",
	Short: "WeChat official account adapter for conversational bots",
	Long: `wxadapter receives WeChat official account webhooks, verifies and decrypts
them, hands the normalized activity to bot logic and delivers the replies
either inline (passive reply) or through the customer service API.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
}
