// Command cli talks to a running botscope API.
//
//	cli add --name svc1 --url https://example.com
//	cli list
//	cli status
//	cli remove svc1
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var apiBase string

var rootCmd = &cobra.Command{
	Use:          "cli",
	Short:        "Manage the URLs botscope monitors",
	SilenceUsage: true,
}

func init() {
	def := os.Getenv("API_BASE")
	if def == "" {
		def = "http://127.0.0.1:3000"
	}
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", def, "API base URL (env API_BASE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
