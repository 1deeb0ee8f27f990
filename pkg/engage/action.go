package engage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tweetpilot/pkg/account"
	"tweetpilot/pkg/content"
	"tweetpilot/pkg/logger"
	"tweetpilot/pkg/retry"
	"tweetpilot/pkg/twitter"
)

// videoUploadTimeout bounds the wait for video encoding. Encoding time
// varies wildly, so this is deliberately generous rather than the usual
// seconds-scale UI wait.
const videoUploadTimeout = 30 * time.Minute

// actionResult reports what the reply-and-like action achieved for one
// post.
type actionResult struct {
	posted bool
	liked  bool
}

// replyAndLike opens the reply composer on the nth visible post, attaches
// a random media file, fills a random reply text and submits, then likes
// the post. Unrecoverable per-post problems abort just this post; a
// terminal account status comes back as *StatusError.
func (r *Runner) replyAndLike(ctx context.Context, page twitter.Page, cred account.Credential, n int) (actionResult, error) {
	log := r.log.WithFields(map[string]interface{}{"username": cred.Username, "post": n})

	replySel := twitter.NthReply(n)
	if err := page.Click(ctx, replySel, r.cfg.Engage.ActionTimeout); err != nil {
		// Overlapping or animating UI can swallow the direct click; a raw
		// click at the element center still lands.
		log.WithError(err).Debug("reply click timed out, using raw coordinate click")
		if err := page.ClickCenter(ctx, replySel); err != nil {
			return actionResult{}, fmt.Errorf("failed to open reply composer: %w", err)
		}
	}

	if !page.Visible(ctx, twitter.SelComposerText) {
		log.Warn("reply composer did not appear")
		r.diagnose(ctx, page, cred.Username+"-not-reply")
		return actionResult{}, nil
	}

	pool := content.NewPool(r.texts)

	// Duplicate-text rejections shrink the working pool and rerun the
	// whole action body. The loop is bounded by the pool emptying.
	for {
		if pool.Len() == 0 {
			r.dismissComposer(ctx, page)
			return actionResult{}, nil
		}
		text := r.pickText(pool)

		if !r.attachMedia(ctx, page, cred.Username) {
			r.dismissComposer(ctx, page)
			return actionResult{}, nil
		}

		if !r.fillReply(ctx, page, text) {
			log.Warn("reply text never took hold")
			r.diagnose(ctx, page, cred.Username+"-cant-fill-comment")
			r.dismissComposer(ctx, page)
			return actionResult{}, nil
		}

		body, err := r.submitReply(ctx, page)
		switch {
		case err == nil:
			return r.finishPost(ctx, page, cred, n, body, log)
		case errors.Is(err, errDuplicateText):
			log.Debug("duplicate text rejected, retrying with reduced pool")
			pool.Remove(text)
			_ = page.Clear(ctx, twitter.SelComposerText)
			continue
		case errors.Is(err, errSuspendedOrLocked):
			return actionResult{}, r.confirmSuspendedOrLocked(ctx, page, cred)
		case errors.Is(err, errRateLimited):
			log.Warn("daily posting limit reached")
			return actionResult{}, &StatusError{Username: cred.Username, Status: twitter.StatusRateLimited}
		case errors.Is(err, errSubmitUnavailable):
			r.dismissComposer(ctx, page)
			return actionResult{}, nil
		default:
			return actionResult{}, err
		}
	}
}

// errSubmitUnavailable signals a submit control that never became
// clickable.
var errSubmitUnavailable = errors.New("submit control not available")

// attachMedia uploads one random catalog file into the composer, retrying
// with a fresh random pick on upload failure, up to the configured total
// attempt budget. Exhaustion leaves a diagnostic screenshot and reports
// false.
func (r *Runner) attachMedia(ctx context.Context, page twitter.Page, username string) bool {
	err := retry.Do(func() error {
		return r.attachOnce(ctx, page)
	}, &retry.Config{
		MaxAttempts: r.cfg.Engage.MediaAttempts,
		Backoff:     &retry.ConstantBackoff{},
		Context:     ctx,
		Logger:      r.log.WithField("username", username),
		OnRetry: func(attempt int, err error) {
			// Refocus the composer so the next attempt starts clean.
			_ = page.Click(ctx, twitter.SelComposerText, 3*time.Second)
		},
	})
	if err != nil {
		r.diagnose(ctx, page, username+"-cant-upload-media")
		return false
	}
	return true
}

func (r *Runner) attachOnce(ctx context.Context, page twitter.Page) error {
	file := r.pickMedia()

	if err := page.Upload(ctx, twitter.SelMediaInput, r.catalog.Path(file), 10*time.Second); err != nil {
		return fmt.Errorf("failed to submit %s: %w", file, err)
	}

	if content.IsVideo(file) {
		if err := page.WaitText(ctx, twitter.TextUploading, r.cfg.Engage.MediaWaitTimeout); err != nil {
			return fmt.Errorf("video %s never started uploading: %w", file, err)
		}
		if err := page.WaitText(ctx, twitter.TextUploaded, videoUploadTimeout); err != nil {
			return fmt.Errorf("video %s never finished uploading: %w", file, err)
		}
	} else {
		if err := page.WaitText(ctx, twitter.TextAddDescription, r.cfg.Engage.MediaWaitTimeout); err != nil {
			return fmt.Errorf("media %s did not attach: %w", file, err)
		}
		if err := page.WaitText(ctx, twitter.TextTagPeople, r.cfg.Engage.MediaWaitTimeout); err != nil {
			return fmt.Errorf("media %s did not attach: %w", file, err)
		}
	}

	if page.TextVisible(ctx, twitter.TextMediaFailed) || page.TextVisible(ctx, twitter.TextGenericError) {
		_ = page.Click(ctx, twitter.SelRemoveMedia, 5*time.Second)
		return fmt.Errorf("%s: %w", file, errUploadFailed)
	}
	return nil
}

// fillReply types text into the composer until the reply placeholder goes
// away, up to the configured attempt budget. The stray keystroke and
// backspace defeat the autosuggest overlay that otherwise eats the fill.
func (r *Runner) fillReply(ctx context.Context, page twitter.Page, text string) bool {
	for attempt := 0; attempt < r.cfg.Engage.FillAttempts; attempt++ {
		if !r.replyPromptShowing(ctx, page) {
			return true
		}
		_ = page.Clear(ctx, twitter.SelComposerText)
		_ = page.Click(ctx, twitter.SelComposerText, 5*time.Second)
		_ = page.Press(ctx, "a")
		_ = page.Press(ctx, "Backspace")
		_ = page.Fill(ctx, twitter.SelComposerText, text)
		_ = page.Press(ctx, "ArrowRight")
		_ = page.Press(ctx, "Enter")
	}
	return !r.replyPromptShowing(ctx, page)
}

func (r *Runner) replyPromptShowing(ctx context.Context, page twitter.Page) bool {
	return page.Visible(ctx, twitter.SelComposerLabel) && page.TextVisible(ctx, twitter.TextReplyPrompt)
}

// submitReply clicks the submit control and captures the create-tweet
// response body. Post-submit banners are checked right after the click
// and surface as the sentinel branch errors.
func (r *Runner) submitReply(ctx context.Context, page twitter.Page) ([]byte, error) {
	if !page.Visible(ctx, twitter.SelTweetButton) || !page.Enabled(ctx, twitter.SelTweetButton) {
		return nil, errSubmitUnavailable
	}

	return page.CaptureResponse(ctx, twitter.CreateTweetMarker, 30*time.Second, func(c context.Context) error {
		if err := page.Click(c, twitter.SelTweetButton, r.cfg.Engage.ActionTimeout); err != nil {
			return fmt.Errorf("failed to click submit: %w", err)
		}
		if page.TextVisible(c, twitter.TextMediaFailed) || page.TextVisible(c, twitter.TextGenericError) {
			return errSuspendedOrLocked
		}
		if page.TextVisible(c, twitter.TextDailyLimit) {
			return errRateLimited
		}
		if page.TextVisible(c, twitter.TextDuplicate) {
			return errDuplicateText
		}
		return nil
	})
}

// finishPost records the posted reply, waits out the sent toast, checks
// the post-attempt account gates and likes the original post.
func (r *Runner) finishPost(ctx context.Context, page twitter.Page, cred account.Credential, n int, body []byte, log logger.Logger) (actionResult, error) {
	postID, err := twitter.ParsePostID(body)
	if err != nil {
		return actionResult{}, err
	}

	url := twitter.StatusURL(cred.Username, postID)
	if err := r.store.AppendResult(url); err != nil {
		return actionResult{}, fmt.Errorf("failed to record result: %w", err)
	}
	r.log.WithField("url", url).Info("reply posted")

	// Let the sent toast clear before touching the timeline again.
	for page.TextVisible(ctx, twitter.TextPostSent) {
		if err := retry.Wait(ctx, time.Second); err != nil {
			return actionResult{}, err
		}
	}

	if status := r.classifier.ClassifyAfterPost(ctx, page); status != twitter.StatusOK {
		return actionResult{posted: true}, &StatusError{Username: cred.Username, Status: status}
	}

	res := actionResult{posted: true, liked: true}
	if err := page.Click(ctx, twitter.NthLike(n), r.cfg.Engage.ActionTimeout); err != nil {
		log.Warn("failed to like post")
		r.diagnose(ctx, page, cred.Username+"-not-like")
		res.liked = false
	}
	return res, nil
}

// confirmSuspendedOrLocked resolves the ambiguous post-submit failure
// banner: from the home timeline, a suspension or lock banner confirms a
// terminal status; otherwise the post is just abandoned.
func (r *Runner) confirmSuspendedOrLocked(ctx context.Context, page twitter.Page, cred account.Credential) error {
	if err := page.Navigate(ctx, twitter.HomeURL); err != nil {
		return fmt.Errorf("failed to return home: %w", err)
	}
	if r.classifier.Suspended(ctx, page) {
		return &StatusError{Username: cred.Username, Status: twitter.StatusSuspended}
	}
	if r.classifier.Locked(ctx, page) {
		return &StatusError{Username: cred.Username, Status: twitter.StatusLocked}
	}
	return nil
}

// dismissComposer closes an abandoned reply composer, confirming the
// discard prompt when it appears.
func (r *Runner) dismissComposer(ctx context.Context, page twitter.Page) {
	_ = page.Click(ctx, twitter.SelCloseComposer, 5*time.Second)
	if page.Visible(ctx, twitter.SelConfirmDiscard) {
		_ = page.Click(ctx, twitter.SelConfirmDiscard, 5*time.Second)
	} else if page.Visible(ctx, twitter.SelCancelDiscard) {
		_ = page.Click(ctx, twitter.SelCancelDiscard, 5*time.Second)
	}
}
