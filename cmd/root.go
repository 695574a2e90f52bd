package cmd

import (
	"fmt"
	"log"
	"os"

	"EchoFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "echofm_server",
	Short: "EchoFM is a personalized music discovery service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting EchoFM server...")
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
