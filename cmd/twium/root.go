package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/twium/twium/internal/app"
	"github.com/twium/twium/internal/config"
	"github.com/twium/twium/internal/logging"
	"github.com/twium/twium/internal/store"
)

// env is shared by every command. The config and logger are ready before
// any RunE; the app and its store are opened on first use.
type env struct {
	configPath  string
	accounts    []string
	allAccounts bool
	debug       bool

	logger *slog.Logger
	cfg    *config.Config
	store  *store.Store
	app    *app.App
}

// execute runs the command line args. Resources opened by the command are
// released whether or not it succeeds.
func execute(ctx context.Context, e *env, args []string) error {
	defer e.close()

	rootCmd := newRootCmd(e)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "twium",
		Short:         "Automate a social-media account through a real browser",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&e.configPath, "config", "", "Config file (default is the user config dir)")
	flags.StringSliceVarP(&e.accounts, "account", "a", nil, "Account to act as, repeatable (default is the first configured)")
	flags.BoolVar(&e.allAccounts, "all-accounts", false, "Act as every configured account")
	flags.BoolVar(&e.debug, "debug", false, "Verbose logging and a visible browser window")

	rootCmd.AddCommand(
		newLoginCmd(e),
		newLogoutCmd(e),
		newTweetCmd(e),
		newDeleteCmd(e),
		newFollowCmd(e, true),
		newFollowCmd(e, false),
		newTweetIntentCmd(e, "favorite", "Like a tweet"),
		newTweetIntentCmd(e, "retweet", "Retweet a tweet"),
		newSearchCmd(e),
		newShowCmd(e),
		newHistoryCmd(e),
		newRunCmd(e),
		newOpenCmd(e),
		newBotTestCmd(e),
	)

	return rootCmd
}

func (e *env) setup() error {
	e.logger = logging.New(os.Stderr, e.debug)
	slog.SetDefault(e.logger)

	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if e.debug {
		cfg.Browser.Debug = true
	}
	e.cfg = cfg
	return nil
}

func (e *env) loadConfig() (*config.Config, error) {
	load, save := config.Load, (*config.Config).Save
	if e.configPath != "" {
		load = func() (*config.Config, error) { return config.LoadFile(e.configPath) }
		save = func(c *config.Config) error { return c.SaveFile(e.configPath) }
	}

	cfg, err := load()
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	// First run: write the defaults so there is something to edit.
	cfg = config.Default()
	if err := save(cfg); err != nil {
		e.logger.Warn("could not save default config", "error", err)
	} else {
		e.logger.Info("created default config")
	}
	return cfg, nil
}

// App returns the application, opening the history store on first use.
func (e *env) App() (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}

	dbPath, err := config.HistoryDBPath()
	if err != nil {
		return nil, err
	}
	st, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not open history: %w", err)
	}

	e.store = st
	e.app = app.New(e.cfg, app.WithStore(st), app.WithLogger(e.logger))
	return e.app, nil
}

// targetAccounts resolves the --account and --all-accounts flags. A nil
// result means every account.
func (e *env) targetAccounts() ([]string, error) {
	if e.allAccounts {
		return nil, nil
	}
	if len(e.accounts) > 0 {
		for _, name := range e.accounts {
			if _, err := e.cfg.Account(name); err != nil {
				return nil, err
			}
		}
		return e.accounts, nil
	}
	acct, err := e.cfg.Account("")
	if err != nil {
		return nil, err
	}
	return []string{acct.Name}, nil
}

func (e *env) close() {
	if e.store == nil {
		return
	}
	if err := e.store.Close(); err != nil && e.logger != nil {
		e.logger.Warn("failed to close history", "error", err)
	}
	e.store = nil
	e.app = nil
}
