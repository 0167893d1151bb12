package cmd

import (
	"github.com/spf13/cobra"
)

// consoleCmd groups the interactive operator consoles.
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive operator consoles",
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
