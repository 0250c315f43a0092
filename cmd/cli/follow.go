package main

import (
	"github.com/spf13/cobra"
	"github.com/zfogg/reelgraph/internal/client"
)

var followCmd = &cobra.Command{
	Use:   "follow <account-id>",
	Short: "Follow an account, or request to follow a private one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRelationship(api.Follow(args[0]))
	},
}

var unfollowCmd = &cobra.Command{
	Use:   "unfollow <account-id>",
	Short: "Stop following an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRelationship(api.Unfollow(args[0]))
	},
}

func showRelationship(rel *client.Relationship, err error) error {
	if err != nil {
		return err
	}
	if output == "json" {
		return printJSON(rel)
	}

	switch rel.State {
	case "following":
		success.Printf("Following %s\n", rel.AccountID)
	case "pending":
		info.Printf("Follow request to %s is pending\n", rel.AccountID)
	default:
		success.Printf("No longer connected to %s\n", rel.AccountID)
	}
	return nil
}
