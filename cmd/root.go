package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"GuessFM/server"
)

var rootCmd = &cobra.Command{
	Use:   "guessfm",
	Short: "GuessFM is a guess-the-song game server.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting GuessFM server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
