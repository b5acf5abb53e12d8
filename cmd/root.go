package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the renewly application
var rootCmd = &cobra.Command{
	Use:   "renewly",
	Short: "Detects recurring subscriptions in a Gmail mailbox",
	Long: `renewly scans a Gmail mailbox for recurring-payment signals, persists a
deduplicated set of subscription records per user and reports price changes
against previously stored state.

The scanner only reads message metadata (subject, sender, date, snippet); it
never modifies the mailbox.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "renewly version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVersionCmd())
}
