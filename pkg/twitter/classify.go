package twitter

import (
	"context"
	"strings"
	"time"
)

// Classifier infers account health from the rendered page.
type Classifier interface {
	// ClassifyLogin checks the page right after login/restore. Order:
	// URL redirect, suspended, locked.
	ClassifyLogin(ctx context.Context, p Page) AccountStatus
	// Suspended reports whether the suspension banner is visible.
	Suspended(ctx context.Context, p Page) bool
	// Locked reloads the page and reports whether the account is locked.
	// The lock banner is not always present on first paint, so a reload
	// is required before checking.
	Locked(ctx context.Context, p Page) bool
	// ClassifyAfterPost checks for the states only detectable after a
	// post attempt. Order: hard-locked, flagged-automated.
	ClassifyAfterPost(ctx context.Context, p Page) AccountStatus
}

// TextClassifier classifies account state by matching visible UI strings.
// Checks run from most to least severe so a single pass cannot
// misclassify a suspended account as merely rate-limited.
type TextClassifier struct{}

// NewTextClassifier returns the string-matching classifier.
func NewTextClassifier() *TextClassifier {
	return &TextClassifier{}
}

// ClassifyLogin checks the landing page of a fresh session.
func (c *TextClassifier) ClassifyLogin(ctx context.Context, p Page) AccountStatus {
	loc, err := p.Location(ctx)
	if err != nil {
		return StatusLoginFailed
	}
	if !landedURL(loc) {
		return StatusLoginFailed
	}
	if c.Suspended(ctx, p) {
		return StatusSuspended
	}
	if c.Locked(ctx, p) {
		return StatusLocked
	}
	return StatusOK
}

// Suspended reports whether the suspension banner is visible.
func (c *TextClassifier) Suspended(ctx context.Context, p Page) bool {
	return p.TextVisible(ctx, TextSuspended)
}

// Locked reloads and reports whether the account is locked: the page must
// redirect to the access-recovery URL and show the lock banner.
func (c *TextClassifier) Locked(ctx context.Context, p Page) bool {
	if err := p.Reload(ctx); err != nil {
		return false
	}
	loc, err := p.Location(ctx)
	if err != nil {
		return false
	}
	if !strings.HasPrefix(loc, AccessURL) {
		return false
	}
	// Second reload lets the recovery page finish rendering its banner.
	_ = p.Reload(ctx)
	return p.TextVisible(ctx, TextLocked)
}

// ClassifyAfterPost checks for post-attempt-only states.
func (c *TextClassifier) ClassifyAfterPost(ctx context.Context, p Page) AccountStatus {
	if p.TextVisible(ctx, TextHardLocked) {
		return StatusHardLocked
	}
	if p.TextVisible(ctx, TextAutomated) {
		return StatusFlaggedAutomated
	}
	return StatusOK
}

// landedURL reports whether a post-login URL is an acceptable landing
// page: the home timeline or the account-access recovery page.
func landedURL(loc string) bool {
	return loc == HomeURL || strings.HasPrefix(loc, AccessURL)
}

// WaitHome waits briefly for the home redirect after login; a timeout is
// not an error, the final URL decides.
func WaitHome(ctx context.Context, p Page, timeout time.Duration) {
	_ = p.WaitLocation(ctx, HomeURL, timeout)
}
