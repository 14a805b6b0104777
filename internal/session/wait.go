package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twium/twium/internal/browser"
)

// Condition is a state of the page the Wait Engine can wait for: either a
// selector to become visible or a predicate over the browser.
type Condition struct {
	desc     string
	selector Selector
	check    func(ctx context.Context, r browser.Remote) (bool, error)
}

func (c Condition) String() string { return c.desc }

// Visible holds once the first node matching sel is visible.
func Visible(sel Selector) Condition {
	return Condition{desc: fmt.Sprintf("%s to be visible", sel), selector: sel}
}

// Predicate holds once check reports true.
func Predicate(desc string, check func(ctx context.Context, r browser.Remote) (bool, error)) Condition {
	return Condition{desc: desc, check: check}
}

// URLEquals holds once the current URL is exactly target.
func URLEquals(target string) Condition {
	return Predicate(fmt.Sprintf("url to equal %s", target), func(ctx context.Context, r browser.Remote) (bool, error) {
		loc, err := r.Location(ctx)
		if err != nil {
			return false, err
		}
		return loc == target, nil
	})
}

// URLChangedFrom holds once the current URL differs from prev.
func URLChangedFrom(prev string) Condition {
	return Predicate(fmt.Sprintf("url to leave %s", prev), func(ctx context.Context, r browser.Remote) (bool, error) {
		loc, err := r.Location(ctx)
		if err != nil {
			return false, err
		}
		return loc != prev, nil
	})
}

// ErrEmptyCondition is returned by Wait for a zero Condition.
var ErrEmptyCondition = errors.New("empty wait condition")

// Wait blocks until cond holds on r or timeout elapses, in which case it
// returns a *TimeoutError. Polling is left to r. Errors other than the
// timeout are returned as they are.
func Wait(ctx context.Context, r browser.Remote, cond Condition, timeout time.Duration) error {
	if cond.selector == "" && cond.check == nil {
		return ErrEmptyCondition
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var err error
	if cond.selector != "" {
		err = r.WaitVisible(wctx, string(cond.selector))
	} else {
		err = r.Poll(wctx, func(ctx context.Context) (bool, error) {
			return cond.check(ctx, r)
		})
	}
	if err == nil {
		return nil
	}

	if ctx.Err() == nil && errors.Is(wctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Condition: cond.desc, Timeout: timeout}
	}
	return err
}

func (s *Session) wait(ctx context.Context, cond Condition) error {
	s.logger.Debug("wait", "condition", cond.desc, "timeout", s.timeout)
	return Wait(ctx, s.remote, cond, s.timeout)
}
