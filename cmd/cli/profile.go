package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile settings",
	Long:  "Commands for managing your profile, including privacy settings",
}

var setPrivateCmd = &cobra.Command{
	Use:   "set-private",
	Short: "Make your account private",
	Long: `Make your account private. This will:
- Require approval for new followers
- Hide your content from non-followers
- Keep existing followers`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setVisibility("private")
	},
}

var setPublicCmd = &cobra.Command{
	Use:   "set-public",
	Short: "Make your account public",
	Long: `Make your account public. This will:
- Allow anyone to follow you
- Show your content to everyone
- Leave already pending requests pending`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setVisibility("public")
	},
}

var getProfileCmd = &cobra.Command{
	Use:   "get [account-id]",
	Short: "Show your profile, or another account as you see it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := "me"
		if len(args) == 1 {
			id = args[0]
		}
		return getProfile(id)
	},
}

func init() {
	profileCmd.AddCommand(setPrivateCmd)
	profileCmd.AddCommand(setPublicCmd)
	profileCmd.AddCommand(getProfileCmd)
}

func setVisibility(visibility string) error {
	account, err := api.SetVisibility(visibility)
	if err != nil {
		return err
	}
	if output == "json" {
		return printJSON(account)
	}
	success.Printf("Account @%s is now %s\n", account.Handle, account.Visibility)
	return nil
}

func getProfile(id string) error {
	profile, err := api.Profile(id)
	if err != nil {
		return err
	}
	if output == "json" {
		return printJSON(profile)
	}

	bold.Printf("@%s", profile.Account.Handle)
	if profile.Account.DisplayName != "" {
		fmt.Printf(" (%s)", profile.Account.DisplayName)
	}
	fmt.Println()
	fmt.Printf("  id:           %s\n", profile.Account.ID)
	fmt.Printf("  visibility:   %s\n", profile.Account.Visibility)
	fmt.Printf("  followers:    %d\n", profile.FollowerCount)
	fmt.Printf("  following:    %d\n", profile.FollowingCount)
	if id != "me" {
		fmt.Printf("  relationship: %s\n", profile.Relationship)
		fmt.Printf("  can view:     %t\n", profile.CanViewContent)
	}
	return nil
}
