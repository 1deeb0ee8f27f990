package twitter

import (
	"context"
	"time"
)

// Page is the rendered-page surface the bot drives. The chromedp session
// in pkg/browser implements it; tests use in-memory fakes. All state
// inference happens through this interface, so the string-matching
// classifier stays a replaceable adapter.
type Page interface {
	// Navigation
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	Reload(ctx context.Context) error
	WaitLocation(ctx context.Context, url string, timeout time.Duration) error

	// Text probes
	TextVisible(ctx context.Context, text string) bool
	WaitText(ctx context.Context, text string, timeout time.Duration) error

	// Element interaction
	WaitVisible(ctx context.Context, sel string, timeout time.Duration) error
	Click(ctx context.Context, sel string, timeout time.Duration) error
	ClickCenter(ctx context.Context, sel string) error
	ClickText(ctx context.Context, text string, timeout time.Duration) error
	Fill(ctx context.Context, sel, value string) error
	Clear(ctx context.Context, sel string) error
	Press(ctx context.Context, key string) error
	Visible(ctx context.Context, sel string) bool
	Enabled(ctx context.Context, sel string) bool
	Count(ctx context.Context, sel string) (int, error)

	// Media and diagnostics
	Upload(ctx context.Context, sel, file string, timeout time.Duration) error
	Screenshot(ctx context.Context) ([]byte, error)

	// CaptureResponse runs submit and returns the body of the first
	// network response whose URL contains urlMarker with HTTP status 200.
	CaptureResponse(ctx context.Context, urlMarker string, timeout time.Duration, submit func(context.Context) error) ([]byte, error)
}
