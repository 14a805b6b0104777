package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twium/twium/internal/auth"
	"github.com/twium/twium/internal/browser"
)

const (
	MethodCredentials = "credentials"
	MethodCookies     = "cookies"
	MethodManual      = "manual"
)

// Authenticate logs in through the mobile login form and verifies the
// result. Any failure, including a timed out wait, is returned as an
// *AuthenticationError and leaves the Session Failed.
func (s *Session) Authenticate(ctx context.Context, username, password string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.state = Authenticating
	s.logger.Info("authenticating", "method", MethodCredentials, "username", username)

	if err := s.submitCredentials(ctx, username, password); err != nil {
		return s.fail(MethodCredentials, err)
	}
	if err := s.verify(ctx); err != nil {
		return s.fail(MethodCredentials, err)
	}

	s.logger.Info("authenticated", "method", MethodCredentials)
	return nil
}

func (s *Session) submitCredentials(ctx context.Context, username, password string) error {
	if err := s.get(ctx, "/login", true); err != nil {
		return err
	}
	if err := s.wait(ctx, Visible(LoginUsername)); err != nil {
		return err
	}
	if err := s.perform(ctx, LoginUsername, browser.VerbType, username); err != nil {
		return err
	}
	if err := s.perform(ctx, LoginPassword, browser.VerbType, password); err != nil {
		return err
	}
	return s.click(ctx, LoginButton)
}

// AuthenticateFromCookies replays a cookie file written by SaveCookies and
// verifies the result. Cookies the browser rejects are logged and skipped;
// verification always runs once the file has been read, even when it holds
// no cookies.
func (s *Session) AuthenticateFromCookies(ctx context.Context, path string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.state = Authenticating
	s.logger.Info("authenticating", "method", MethodCookies, "path", path)

	// Cookies are only accepted in the context of a page on the site.
	if err := s.get(ctx, "/", true); err != nil {
		return s.fail(MethodCookies, err)
	}

	cookies, err := auth.LoadCookieFile(path)
	switch {
	case errors.Is(err, auth.ErrNoCookies):
		// Nothing to replay; the browser may still be logged in.
		s.logger.Warn("cookie file is empty", "path", path)
	case err != nil:
		return s.fail(MethodCookies, err)
	}

	injected := 0
	for _, c := range cookies {
		if err := s.remote.SetCookie(ctx, c); err != nil {
			s.logger.Warn("cookie rejected", "name", c.Name, "domain", c.Domain, "error", err)
			continue
		}
		injected++
	}
	s.logger.Debug("cookies injected", "injected", injected, "total", len(cookies))

	if err := s.verify(ctx); err != nil {
		return s.fail(MethodCookies, err)
	}

	s.logger.Info("authenticated", "method", MethodCookies)
	return nil
}

// AuthenticateManually opens the login page and waits up to timeout for
// someone to log in by hand in a visible browser, then verifies the
// result. It is the way through challenges the login form cannot pass.
func (s *Session) AuthenticateManually(ctx context.Context, timeout time.Duration) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.state = Authenticating
	s.logger.Info("waiting for manual login", "timeout", timeout)

	if err := s.get(ctx, "/login", true); err != nil {
		return s.fail(MethodManual, err)
	}
	homes := []string{s.urlFor("/home", false), s.urlFor("/home", true)}
	if _, err := auth.WaitForManualLogin(ctx, s.remote, homes, timeout); err != nil {
		return s.fail(MethodManual, err)
	}
	if err := s.verify(ctx); err != nil {
		return s.fail(MethodManual, err)
	}

	s.logger.Info("authenticated", "method", MethodManual)
	return nil
}

// Verify reports whether the browser is logged in, updating the Session's
// state. It is the only way a Session becomes Authenticated.
func (s *Session) Verify(ctx context.Context) bool {
	if s.checkOpen() != nil {
		return false
	}
	return s.verify(ctx) == nil
}

// verify loads the mobile root, which redirects to the home timeline only
// for a logged-in browser.
func (s *Session) verify(ctx context.Context) error {
	home := s.urlFor("/home", true)

	err := s.get(ctx, "/", true)
	if err == nil {
		err = s.wait(ctx, URLEquals(home))
	}
	if err != nil {
		s.state = Failed
		return err
	}

	s.state = Authenticated
	return nil
}

func (s *Session) fail(method string, err error) error {
	s.state = Failed
	s.logger.Warn("authentication failed", "method", method, "error", err)
	return &AuthenticationError{Method: method, Err: err}
}

// SaveCookies writes the browser's current cookies to path.
func (s *Session) SaveCookies(ctx context.Context, path string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	cookies, err := s.remote.Cookies(ctx)
	if err != nil {
		return err
	}
	if err := auth.SaveCookieFile(path, cookies); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}

	s.logger.Info("cookies saved", "path", path, "count", len(cookies))
	return nil
}
