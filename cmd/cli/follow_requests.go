package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	requestsOutgoing bool
	requestsOffset   int
	requestsLimit    int
)

var followRequestsCmd = &cobra.Command{
	Use:   "follow-requests",
	Short: "Manage follow requests",
	Long:  "Commands for managing pending follow requests sent to or by your account",
}

var listFollowRequestsCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending follow requests, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listFollowRequests()
	},
}

var acceptFollowRequestCmd = &cobra.Command{
	Use:   "accept <sender-id>",
	Short: "Accept a follow request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRelationship(api.Accept(args[0]))
	},
}

var rejectFollowRequestCmd = &cobra.Command{
	Use:   "reject <sender-id>",
	Short: "Reject a follow request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRelationship(api.Reject(args[0]))
	},
}

var cancelFollowRequestCmd = &cobra.Command{
	Use:   "cancel <receiver-id>",
	Short: "Withdraw a follow request you sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRelationship(api.Cancel(args[0]))
	},
}

func init() {
	listFollowRequestsCmd.Flags().BoolVar(&requestsOutgoing, "outgoing", false, "List requests you sent instead of requests you received")
	listFollowRequestsCmd.Flags().IntVar(&requestsOffset, "offset", 0, "Number of requests to skip")
	listFollowRequestsCmd.Flags().IntVar(&requestsLimit, "limit", 50, "Maximum number of requests to show")

	followRequestsCmd.AddCommand(listFollowRequestsCmd)
	followRequestsCmd.AddCommand(acceptFollowRequestCmd)
	followRequestsCmd.AddCommand(rejectFollowRequestCmd)
	followRequestsCmd.AddCommand(cancelFollowRequestCmd)
}

func listFollowRequests() error {
	direction := "incoming"
	if requestsOutgoing {
		direction = "outgoing"
	}

	resp, err := api.FollowRequests(direction, requestsOffset, requestsLimit)
	if err != nil {
		return err
	}
	if output == "json" {
		return printJSON(resp)
	}

	if resp.Count == 0 {
		info.Printf("No %s follow requests\n", direction)
		return nil
	}

	rows := make([][]string, 0, len(resp.Requests))
	for _, r := range resp.Requests {
		rows = append(rows, []string{r.AccountID, "@" + r.Handle, r.CreatedAt.Format("2006-01-02 15:04")})
	}
	printTable([]string{"ACCOUNT", "HANDLE", "REQUESTED"}, rows)
	fmt.Printf("\n%d %s request(s)\n", resp.Count, direction)
	return nil
}
