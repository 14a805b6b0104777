package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/twium/twium/internal/app"
	"github.com/twium/twium/internal/auth"
	"github.com/twium/twium/internal/config"
	"github.com/twium/twium/internal/session"
	"github.com/twium/twium/internal/types"
)

// perform runs req as every target account and prints one line per
// account as results come in.
func (e *env) perform(cmd *cobra.Command, req app.Request, print func(w io.Writer, account string, res app.Result)) error {
	a, err := e.App()
	if err != nil {
		return err
	}
	names, err := e.targetAccounts()
	if err != nil {
		return err
	}

	var mu sync.Mutex
	out := cmd.OutOrStdout()
	return a.ForAccounts(cmd.Context(), names, func(ctx context.Context, acct config.AccountConfig, s *session.Session) error {
		res, err := a.Perform(ctx, acct.Name, s, req)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		print(out, acct.Name, res)
		return nil
	})
}

func printDone(w io.Writer, account string, res app.Result) {
	fmt.Fprintf(w, "%s\t%s %s\n", account, res.Action.Kind, res.Action.Target)
}

func printTweetID(w io.Writer, account string, res app.Result) {
	fmt.Fprintf(w, "%s\t%d\n", account, res.TweetID)
}

func parseTweetID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid tweet id %q", arg)
	}
	return id, nil
}

func newLoginCmd(e *env) *cobra.Command {
	var fresh, manual bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save session cookies",
		Long:  "Log in as the target accounts. Saved cookies are tried first; otherwise the password is read from the account's password_env and the new cookies are saved.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if manual {
				// A person has to see the window.
				e.cfg.Browser.Headless = false
			}
			a, err := e.App()
			if err != nil {
				return err
			}
			names, err := e.targetAccounts()
			if err != nil {
				return err
			}
			if manual {
				if len(names) != 1 {
					return fmt.Errorf("--manual logs in one account at a time")
				}
				if err := a.LoginManually(cmd.Context(), names[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", names[0], session.Authenticated)
				return nil
			}
			if fresh {
				if err := e.clearCookies(names); err != nil {
					return err
				}
			}

			var mu sync.Mutex
			out := cmd.OutOrStdout()
			return a.ForAccounts(cmd.Context(), names, func(_ context.Context, acct config.AccountConfig, s *session.Session) error {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintf(out, "%s\t%s\n", acct.Name, s.State())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "Ignore saved cookies and log in with credentials")
	cmd.Flags().BoolVar(&manual, "manual", false, "Open a browser window and wait for you to log in by hand")

	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget saved session cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := e.targetAccounts()
			if err != nil {
				return err
			}
			return e.clearCookies(names)
		},
	}
}

func (e *env) clearCookies(names []string) error {
	if names == nil {
		for _, acct := range e.cfg.Accounts {
			names = append(names, acct.Name)
		}
	}
	for _, name := range names {
		acct, err := e.cfg.Account(name)
		if err != nil {
			return err
		}
		path, err := config.CookiePath(acct)
		if err != nil {
			return err
		}
		if err := auth.Clear(path); err != nil {
			return fmt.Errorf("account %s: %w", name, err)
		}
	}
	return nil
}

func newTweetCmd(e *env) *cobra.Command {
	var replyTo int64

	cmd := &cobra.Command{
		Use:   "tweet <text>...",
		Short: "Post a tweet and print its id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.Request{Kind: types.ActionTweet, Text: strings.Join(args, " ")}
			if replyTo != 0 {
				req.Kind = types.ActionReply
				req.InReplyTo = replyTo
			}
			return e.perform(cmd, req, printTweetID)
		},
	}

	cmd.Flags().Int64Var(&replyTo, "reply-to", 0, "Tweet id to reply to")

	return cmd
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tweet-id>",
		Short: "Delete one of your tweets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTweetID(args[0])
			if err != nil {
				return err
			}
			return e.perform(cmd, app.Request{Kind: types.ActionDelete, TweetID: id}, printDone)
		},
	}
}

func newTweetIntentCmd(e *env, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <tweet-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTweetID(args[0])
			if err != nil {
				return err
			}
			return e.perform(cmd, app.Request{Kind: types.ActionKind(action), TweetID: id}, printDone)
		},
	}
}

func newFollowCmd(e *env, follow bool) *cobra.Command {
	var userID string

	kind, short := types.ActionFollow, "Follow a user"
	if !follow {
		kind, short = types.ActionUnfollow, "Unfollow a user"
	}

	cmd := &cobra.Command{
		Use:   string(kind) + " [@screen_name]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := session.UserRef{ID: userID}
			if len(args) == 1 {
				user.ScreenName = strings.TrimPrefix(args[0], "@")
			}
			if user.IsZero() {
				return fmt.Errorf("%s needs a screen name or --user-id", kind)
			}
			return e.perform(cmd, app.Request{Kind: kind, User: user}, printDone)
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "Numeric user id (takes precedence over the screen name)")

	return cmd
}
