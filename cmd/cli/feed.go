package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/zfogg/reelgraph/internal/client"
)

var feedQuery client.FeedQuery

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Page through feeds",
	Long: `Seeded feeds (visible, explore) return a stable order for a given --seed:
walk --offset with the same seed to see every item once. The fresh feed is
a new random sample of recent content on every call.`,
}

func seededFeedCmd(mode, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   mode,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if feedQuery.Seed == "" {
				feedQuery.Seed = strconv.FormatInt(time.Now().Unix(), 36)
			}
			return showFeed(mode)
		},
	}
	cmd.Flags().StringVar(&feedQuery.Seed, "seed", "", "Ordering seed (random if empty; printed so you can reuse it)")
	cmd.Flags().IntVar(&feedQuery.Offset, "offset", 0, "Items to skip")
	cmd.Flags().IntVar(&feedQuery.Limit, "limit", 20, "Page size")
	return cmd
}

var freshFeedCmd = &cobra.Command{
	Use:   "fresh",
	Short: "Random sample of recent content from other accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showFeed("fresh")
	},
}

func init() {
	freshFeedCmd.Flags().IntVar(&feedQuery.Offset, "offset", 0, "Recent items to skip before the window")
	freshFeedCmd.Flags().IntVar(&feedQuery.Limit, "limit", 20, "Maximum items to return")
	freshFeedCmd.Flags().IntVar(&feedQuery.Window, "window", 0, "How many recent items to sample from (server default if 0)")
	freshFeedCmd.Flags().IntVar(&feedQuery.Sample, "sample", 0, "How many items to draw (server default if 0)")

	feedCmd.AddCommand(seededFeedCmd("visible", "Everything you can see, your own content included"))
	feedCmd.AddCommand(seededFeedCmd("explore", "Content from other accounts you can see"))
	feedCmd.AddCommand(freshFeedCmd)
}

func showFeed(mode string) error {
	page, err := api.Feed(mode, feedQuery)
	if err != nil {
		return err
	}
	if output == "json" {
		return printJSON(page)
	}

	if len(page.Items) == 0 {
		info.Println("Nothing here yet")
		return nil
	}

	rows := make([][]string, 0, len(page.Items))
	for _, item := range page.Items {
		kind := item.Type
		if item.Type == "reel" {
			kind = fmt.Sprintf("reel %.1fs", float64(item.DurationMs)/1000)
		}
		liked := ""
		if item.LikedByViewer {
			liked = "♥"
		}
		rows = append(rows, []string{
			item.ID,
			"@" + item.OwnerHandle,
			kind,
			strconv.FormatInt(item.LikeCount, 10) + liked,
			strconv.FormatInt(item.CommentCount, 10),
			item.Caption,
		})
	}
	printTable([]string{"ID", "OWNER", "TYPE", "LIKES", "COMMENTS", "CAPTION"}, rows)

	if mode != "fresh" {
		fmt.Printf("\nseed %s, next page: --seed %s --offset %d\n", feedQuery.Seed, feedQuery.Seed, feedQuery.Offset+len(page.Items))
	}
	return nil
}
