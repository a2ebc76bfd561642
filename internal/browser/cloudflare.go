package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ChallengeTitle is the page title Cloudflare shows while its JavaScript
// challenge runs.
const ChallengeTitle = "Just a moment..."

// ErrChallengeTimeout means the challenge page was still showing when the
// wait gave up.
var ErrChallengeTimeout = errors.New("timed out waiting for cloudflare challenge")

// WaitOptions tunes WaitForCloudflare.
type WaitOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Settle       time.Duration
}

// DefaultWaitOptions polls every 250ms, gives up after 50s and settles for 2s.
func DefaultWaitOptions() WaitOptions {
	return WaitOptions{
		Timeout:      50 * time.Second,
		PollInterval: 250 * time.Millisecond,
		Settle:       2 * time.Second,
	}
}

// TitleReader is the part of a Driver the wait loop needs.
type TitleReader interface {
	Title() (string, error)
}

// WaitForCloudflare polls the page title while it reads ChallengeTitle.
// Once the title changes, or if it never was the challenge, it sleeps for
// opts.Settle so late scripts can finish. A page without the challenge
// therefore costs only the settle delay.
//
// A failed title read counts as still waiting, since the challenge reloads
// the page when it passes. If reads are still failing at the timeout, that
// error is returned instead of ErrChallengeTimeout.
func WaitForCloudflare(ctx context.Context, page TitleReader, opts WaitOptions) error {
	start := time.Now()
	for {
		title, err := page.Title()
		if err == nil && title != ChallengeTitle {
			return sleep(ctx, opts.Settle)
		}
		if time.Since(start) >= opts.Timeout {
			if err != nil {
				return fmt.Errorf("reading page title: %w", err)
			}
			return ErrChallengeTimeout
		}
		if err := sleep(ctx, opts.PollInterval); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
