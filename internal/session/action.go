package session

import (
	"context"
	"fmt"

	"github.com/twium/twium/internal/browser"
)

// perform waits for sel to be visible, then runs verb on its first match.
// value is only used by set-value and type.
func (s *Session) perform(ctx context.Context, sel Selector, verb browser.Verb, value string) error {
	if err := s.wait(ctx, Visible(sel)); err != nil {
		return err
	}

	cmd := browser.Command{Selector: string(sel), Verb: verb, Value: value}
	if err := s.remote.Perform(ctx, cmd); err != nil {
		return fmt.Errorf("failed to %s %s: %w", verb, sel, err)
	}
	return nil
}

func (s *Session) click(ctx context.Context, sel Selector) error {
	return s.perform(ctx, sel, browser.VerbClick, "")
}

func (s *Session) submit(ctx context.Context, sel Selector) error {
	return s.perform(ctx, sel, browser.VerbSubmit, "")
}
