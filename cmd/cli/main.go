package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zfogg/reelgraph/internal/client"
)

var (
	authToken string
	apiURL    = "http://localhost:8787"
	output    = "text" // "text" or "json"

	api *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "reelgraph",
	Short: "reelgraph CLI - manage your account, follows and feeds",
	Long: `reelgraph CLI provides command-line access to your reelgraph account.
Switch your account between public and private, handle follow requests
and page through your feeds.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if authToken == "" {
			authToken = os.Getenv("REELGRAPH_TOKEN")
		}
		if authToken == "" {
			return fmt.Errorf("REELGRAPH_TOKEN is not set; pass --token or export REELGRAPH_TOKEN=<your-token>")
		}
		if output != "text" && output != "json" {
			return fmt.Errorf("--output must be text or json")
		}
		api = client.New(apiURL, authToken)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Authentication token (defaults to REELGRAPH_TOKEN env var)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", apiURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(followCmd)
	rootCmd.AddCommand(unfollowCmd)
	rootCmd.AddCommand(followRequestsCmd)
	rootCmd.AddCommand(feedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
