package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/twium/twium/internal/browser"
)

const botTestURL = "https://bot.sannysoft.com"

// newBotTestCmd opens a fingerprint audit page with the same launch
// options sessions use, so the stealth flags can be checked by eye.
func newBotTestCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "bot-test",
		Short: "Open bot.sannysoft.com to audit the browser fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e.logger.Info("opening fingerprint audit", "url", botTestURL)

			chrome, err := browser.Launch(cmd.Context(), browser.LaunchOptions{
				Headless:  false, // non-headless so you can see it
				Debug:     e.cfg.Browser.Debug,
				UserAgent: e.cfg.Browser.UserAgent,
				ExecPath:  e.cfg.Browser.ExecPath,
			}, e.logger)
			if err != nil {
				return err
			}
			defer chrome.Close()

			return auditFingerprint(cmd.Context(), chrome, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// auditFingerprint shows the audit page on r and blocks until a line is
// read from in.
func auditFingerprint(ctx context.Context, r browser.Remote, in io.Reader, out io.Writer) error {
	if err := r.Navigate(ctx, botTestURL); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	if err := r.WaitVisible(ctx, "body"); err != nil {
		return fmt.Errorf("audit page did not render: %w", err)
	}

	fmt.Fprintln(out, "Press Enter to close the browser...")
	if _, err := bufio.NewReader(in).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
