package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/twium/twium/internal/app"
	"github.com/twium/twium/internal/store"
	"github.com/twium/twium/internal/types"
)

func newSearchCmd(e *env) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search tweets and store the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.Request{Kind: types.ActionSearch, Query: strings.Join(args, " "), Count: count}
			return e.perform(cmd, req, printTweets)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Maximum number of tweets (default from config)")

	return cmd
}

func printTweets(w io.Writer, account string, res app.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range res.Tweets {
		fmt.Fprintf(tw, "%s\t%s\t@%s\t%s\n", account, t.ID, t.AuthorHandle, oneLine(t.Content))
	}
	tw.Flush()
}

func newShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <tweet-id>",
		Short: "Show a tweet stored by an earlier search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.App()
			if err != nil {
				return err
			}
			t, err := a.SavedTweet(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("tweet %s has not been seen by a search", args[0])
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (@%s)\n%s\n", t.AuthorName, t.AuthorHandle, t.Content)
			if t.OriginalURL != "" {
				fmt.Fprintln(w, t.OriginalURL)
			}
			fmt.Fprintf(w, "found by %q at %s\n", t.Query, t.FetchedAt.Local().Format(time.DateTime))
			return nil
		},
	}
}

func newHistoryCmd(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently performed actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.App()
			if err != nil {
				return err
			}

			account := ""
			if len(e.accounts) == 1 {
				account = e.accounts[0]
			}
			actions, err := a.History(cmd.Context(), account, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tACCOUNT\tACTION\tTARGET\tRESULT")
			for _, act := range actions {
				result := act.Result
				if act.Failed() {
					result = "error: " + act.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					act.CreatedAt.Local().Format(time.DateTime), act.Account, act.Kind, oneLine(act.Target), oneLine(result))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of actions to show")

	return cmd
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 80 {
		return string(r[:79]) + "…"
	}
	return s
}
