package engage

import (
	"context"
	"errors"
	"fmt"

	"tweetpilot/pkg/account"
	"tweetpilot/pkg/logger"
	"tweetpilot/pkg/results"
	"tweetpilot/pkg/twitter"
)

// engageTargets walks the configured target accounts in randomized order.
// Failures on one target are isolated: screenshot, log, move on. Only a
// terminal account status ends the loop early.
func (r *Runner) engageTargets(ctx context.Context, page twitter.Page, cred account.Credential, log logger.Logger) error {
	for _, target := range r.shuffledFollowings() {
		if err := ctx.Err(); err != nil {
			return err
		}

		log.WithField("target", target).Debug("engaging target timeline")
		err := r.engageTarget(ctx, page, cred, target)
		if err == nil {
			continue
		}

		var se *StatusError
		if errors.As(err, &se) {
			r.recordStatus(ctx, page, cred, se.Status)
			if se.Status.Fatal() {
				return err
			}
			// Soft stop: rate limit, suspension or lock discovered
			// mid-run ends the account, not the run.
			log.WithField("status", string(se.Status)).Warn("account stopped")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.WithError(err).WithField("target", target).Warn("target failed, moving on")
		r.diagnose(ctx, page, cred.Username)
	}
	return nil
}

// engageTarget processes every discoverable post on one target timeline.
func (r *Runner) engageTarget(ctx context.Context, page twitter.Page, cred account.Credential, target string) error {
	if err := page.Navigate(ctx, target); err != nil {
		return fmt.Errorf("failed to open target timeline: %w", err)
	}

	likes, err := r.scanForLikes(ctx, page)
	if err != nil {
		return err
	}

	// Posts whose action failed are skipped on re-scan instead of being
	// retried forever; a processed post's like affordance disappears, so
	// the visible count naturally shrinks.
	skipped := 0
	for likes > skipped {
		res, err := r.replyAndLike(ctx, page, cred, skipped+1)
		if err != nil {
			return err
		}
		if res.posted {
			if err := r.pacer.Wait(ctx); err != nil {
				return err
			}
		}
		if !res.liked {
			skipped++
		}

		likes, err = r.rescanForLikes(ctx, page, skipped)
		if err != nil {
			return err
		}
	}
	return nil
}

// scanForLikes waits for like affordances to appear, scrolling up to the
// configured bound. Zero after the bound means the timeline has nothing
// to engage with.
func (r *Runner) scanForLikes(ctx context.Context, page twitter.Page) (int, error) {
	return r.scrollUntilLikes(ctx, page, 0)
}

// rescanForLikes re-counts after a processed batch, scrolling for newly
// revealed posts when everything visible has been handled.
func (r *Runner) rescanForLikes(ctx context.Context, page twitter.Page, skipped int) (int, error) {
	return r.scrollUntilLikes(ctx, page, skipped)
}

func (r *Runner) scrollUntilLikes(ctx context.Context, page twitter.Page, floor int) (int, error) {
	count, err := page.Count(ctx, twitter.LikeSelector)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}

	for scrolls := 0; count <= floor && scrolls < r.cfg.Engage.ScrollLimit; scrolls++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := page.Press(ctx, "PageDown"); err != nil {
			return 0, err
		}
		count, err = page.Count(ctx, twitter.LikeSelector)
		if err != nil {
			return 0, fmt.Errorf("failed to count posts: %w", err)
		}
	}
	return count, nil
}

// diagnose drops a screenshot of an unclassified failure into the
// unexpected category.
func (r *Runner) diagnose(ctx context.Context, page twitter.Page, username string) {
	shot, err := page.Screenshot(ctx)
	if err != nil {
		r.log.WithError(err).WithField("username", username).Debug("failed to capture diagnostic screenshot")
		return
	}
	if err := r.store.Screenshot(results.CategoryUnexpected, username, shot); err != nil {
		r.log.WithError(err).WithField("username", username).Debug("failed to store diagnostic screenshot")
	}
}
