package app

import (
	"context"
	"fmt"

	"github.com/twium/twium/internal/config"
	"github.com/twium/twium/internal/scheduler"
	"github.com/twium/twium/internal/session"
	"github.com/twium/twium/internal/types"
)

// RequestForJob converts a configured job into a Request.
func RequestForJob(j config.JobConfig) (Request, error) {
	req := Request{
		Kind:    types.ActionKind(j.Action),
		Text:    j.Text,
		TweetID: j.TweetID,
		User:    session.UserRef{ID: j.UserID, ScreenName: j.ScreenName},
		Query:   j.Query,
		Count:   j.Count,
	}

	switch req.Kind {
	case types.ActionTweet:
		if req.Text == "" {
			return req, fmt.Errorf("job %s: tweet needs text", j.Name)
		}
	case types.ActionFavorite, types.ActionRetweet:
		if req.TweetID == 0 {
			return req, fmt.Errorf("job %s: %s needs tweet_id", j.Name, j.Action)
		}
	case types.ActionFollow, types.ActionUnfollow:
		// A job without a user is allowed and does nothing.
	case types.ActionSearch:
		if req.Query == "" {
			return req, fmt.Errorf("job %s: search needs query", j.Name)
		}
	default:
		return req, fmt.Errorf("job %s: unsupported action %q", j.Name, j.Action)
	}
	return req, nil
}

// Job returns a scheduler job that performs j on each of its accounts
// concurrently.
func (a *App) Job(j config.JobConfig) (scheduler.Job, error) {
	req, err := RequestForJob(j)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		return a.ForAccounts(ctx, j.Accounts, func(ctx context.Context, acct config.AccountConfig, s *session.Session) error {
			_, err := a.Perform(ctx, acct.Name, s, req)
			return err
		})
	}, nil
}

// Schedule registers every configured job with sched.
func (a *App) Schedule(sched *scheduler.Scheduler) error {
	for _, j := range a.config.Jobs {
		job, err := a.Job(j)
		if err != nil {
			return err
		}
		if err := sched.AddJob(j.Name, scheduler.Spec(j.Schedule, j.Timezone), job); err != nil {
			return err
		}
	}
	return nil
}

// RunScheduler runs the configured jobs until ctx is done, then waits for
// running jobs to finish.
func (a *App) RunScheduler(ctx context.Context) error {
	if len(a.config.Jobs) == 0 {
		return fmt.Errorf("no jobs configured")
	}

	sched, err := scheduler.New("Local", a.logger)
	if err != nil {
		return err
	}
	if err := a.Schedule(sched); err != nil {
		return err
	}

	sched.Start()
	for _, info := range sched.ListJobs() {
		a.logger.Info("job scheduled", "job", info.Name, "next_run", info.NextRun)
	}
	<-ctx.Done()
	<-sched.Stop().Done()
	return nil
}

// RunJob runs the configured job called name once, right away.
func (a *App) RunJob(ctx context.Context, name string) error {
	for _, j := range a.config.Jobs {
		if j.Name != name {
			continue
		}
		job, err := a.Job(j)
		if err != nil {
			return err
		}
		sched, err := scheduler.New("Local", a.logger)
		if err != nil {
			return err
		}
		return sched.RunNow(ctx, j.Name, job)
	}
	return fmt.Errorf("unknown job %q", name)
}
