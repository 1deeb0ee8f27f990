// Package browser drives one Chrome instance per account through
// chromedp. It implements the twitter.Page interface; nothing outside
// this package touches the browser directly.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"tweetpilot/pkg/account"
	"tweetpilot/pkg/config"
)

// Session is one account's browser: its own Chrome process, context and
// page. Fully isolated from sibling sessions.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	slowMo  time.Duration
}

// NewSession launches a browser for one account. The session dies with
// the parent context, so a run-wide cancellation also closes every
// browser.
func NewSession(parent context.Context, cfg *config.BrowserConfig) (*Session, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocatorOptions(cfg)...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:     ctx,
		cancels: []context.CancelFunc{cancelCtx, cancelAlloc},
		slowMo:  cfg.SlowMotion,
	}

	// Starts the browser process and enables network events for the
	// response capture and cookie APIs.
	if err := chromedp.Run(ctx, network.Enable()); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return s, nil
}

// Close shuts the browser down.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// run executes chromedp actions with an optional per-call timeout, then
// applies the slow-motion delay.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx := s.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(s.ctx, timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := chromedp.Run(runCtx, actions...)
	if err == nil && s.slowMo > 0 {
		select {
		case <-time.After(s.slowMo):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Navigate loads a URL and waits for the document to load.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, 0, chromedp.Navigate(url))
}

// Location returns the current page URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, 5*time.Second, chromedp.Location(&loc))
	return loc, err
}

// Reload reloads the current page.
func (s *Session) Reload(ctx context.Context) error {
	return s.run(ctx, 0, chromedp.Reload())
}

// WaitLocation polls until the page URL equals url or the timeout passes.
func (s *Session) WaitLocation(ctx context.Context, url string, timeout time.Duration) error {
	return s.poll(ctx, timeout, func(pc context.Context) (bool, error) {
		var loc string
		if err := chromedp.Run(pc, chromedp.Location(&loc)); err != nil {
			return false, err
		}
		return loc == url, nil
	})
}

// TextVisible reports whether the given text is present in the rendered
// page body.
func (s *Session) TextVisible(ctx context.Context, text string) bool {
	var found bool
	js := fmt.Sprintf(`document.body ? document.body.innerText.includes(%q) : false`, text)
	if err := s.run(ctx, 3*time.Second, chromedp.Evaluate(js, &found)); err != nil {
		return false
	}
	return found
}

// WaitText polls until the text is visible or the timeout passes.
func (s *Session) WaitText(ctx context.Context, text string, timeout time.Duration) error {
	js := fmt.Sprintf(`document.body ? document.body.innerText.includes(%q) : false`, text)
	return s.poll(ctx, timeout, func(pc context.Context) (bool, error) {
		var found bool
		if err := chromedp.Run(pc, chromedp.Evaluate(js, &found)); err != nil {
			return false, err
		}
		return found, nil
	})
}

// WaitVisible waits until the selector matches a visible element.
func (s *Session) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.WaitVisible(sel))
}

// Click clicks the first element matching the selector.
func (s *Session) Click(ctx context.Context, sel string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.Click(sel))
}

// ClickCenter dispatches a raw mouse click at the center of the element's
// bounding box. Fallback for elements a direct click cannot reach because
// of overlapping or animating UI.
func (s *Session) ClickCenter(ctx context.Context, sel string) error {
	js := fmt.Sprintf(`(function() {
		const el = document.evaluate(%q, document, null,
			XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) { return null; }
		const r = el.getBoundingClientRect();
		return [r.x + r.width / 2, r.y + r.height / 2];
	})()`, sel)

	var center []float64
	if err := s.run(ctx, 5*time.Second, chromedp.Evaluate(js, &center)); err != nil {
		return fmt.Errorf("failed to locate element for raw click: %w", err)
	}
	if len(center) != 2 {
		return fmt.Errorf("element not found for raw click: %s", sel)
	}
	return s.run(ctx, 5*time.Second, chromedp.MouseClickXY(center[0], center[1]))
}

// ClickText clicks the first element containing the given visible text.
func (s *Session) ClickText(ctx context.Context, text string, timeout time.Duration) error {
	sel := fmt.Sprintf(`//*[contains(text(), %q)]`, text)
	return s.run(ctx, timeout, chromedp.Click(sel))
}

// Fill types value into the element matching the selector.
func (s *Session) Fill(ctx context.Context, sel, value string) error {
	return s.run(ctx, 10*time.Second, chromedp.SendKeys(sel, value))
}

// Clear empties the element matching the selector. Handles both form
// fields and the contenteditable composer.
func (s *Session) Clear(ctx context.Context, sel string) error {
	js := fmt.Sprintf(`(function() {
		const el = document.evaluate(%q, document, null,
			XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) { return false; }
		if ('value' in el) { el.value = ''; } else { el.textContent = ''; }
		return true;
	})()`, sel)

	var ok bool
	if err := s.run(ctx, 5*time.Second, chromedp.Evaluate(js, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("element not found: %s", sel)
	}
	return nil
}

// Press sends a keyboard key to the focused element.
func (s *Session) Press(ctx context.Context, key string) error {
	return s.run(ctx, 5*time.Second, chromedp.KeyEvent(key))
}

// Visible reports whether the selector matches a rendered element.
func (s *Session) Visible(ctx context.Context, sel string) bool {
	js := fmt.Sprintf(`(function() {
		const el = document.evaluate(%q, document, null,
			XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		return !!(el && el.getClientRects().length > 0);
	})()`, sel)

	var visible bool
	if err := s.run(ctx, 3*time.Second, chromedp.Evaluate(js, &visible)); err != nil {
		return false
	}
	return visible
}

// Enabled reports whether the matching element accepts interaction.
func (s *Session) Enabled(ctx context.Context, sel string) bool {
	js := fmt.Sprintf(`(function() {
		const el = document.evaluate(%q, document, null,
			XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) { return false; }
		return !el.disabled && el.getAttribute('aria-disabled') !== 'true';
	})()`, sel)

	var enabled bool
	if err := s.run(ctx, 3*time.Second, chromedp.Evaluate(js, &enabled)); err != nil {
		return false
	}
	return enabled
}

// Count returns how many elements match the selector.
func (s *Session) Count(ctx context.Context, sel string) (int, error) {
	js := fmt.Sprintf(`document.evaluate("count(" + %q + ")", document, null,
		XPathResult.NUMBER_TYPE, null).numberValue`, sel)

	var count float64
	if err := s.run(ctx, 5*time.Second, chromedp.Evaluate(js, &count)); err != nil {
		return 0, err
	}
	return int(count), nil
}

// Upload submits a file through the native file input.
func (s *Session) Upload(ctx context.Context, sel, file string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.SetUploadFiles(sel, []string{file}))
}

// Screenshot captures the visible viewport.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, 10*time.Second, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// CaptureResponse runs submit and returns the body of the first network
// response whose URL contains urlMarker with HTTP status 200.
func (s *Session) CaptureResponse(ctx context.Context, urlMarker string, timeout time.Duration, submit func(context.Context) error) ([]byte, error) {
	listenCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	type capture struct {
		body []byte
		err  error
	}
	done := make(chan capture, 1)
	var requestID network.RequestID

	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			if requestID == "" &&
				strings.Contains(e.Response.URL, urlMarker) &&
				e.Response.Status == 200 {
				requestID = e.RequestID
			}
		case *network.EventLoadingFinished:
			if requestID != "" && e.RequestID == requestID {
				id := requestID
				go func() {
					c := chromedp.FromContext(s.ctx)
					execCtx := cdp.WithExecutor(s.ctx, c.Target)
					body, err := network.GetResponseBody(id).Do(execCtx)
					select {
					case done <- capture{body: body, err: err}:
					default:
					}
				}()
			}
		}
	})

	if err := submit(ctx); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c := <-done:
		if c.err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", c.err)
		}
		return c.body, nil
	case <-timer.C:
		return nil, fmt.Errorf("timed out waiting for %s response", urlMarker)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ExportCookies snapshots the browser's cookies for session persistence.
func (s *Session) ExportCookies(ctx context.Context) ([]account.Cookie, error) {
	var cookies []*network.Cookie
	err := s.run(ctx, 10*time.Second, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(c)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to export cookies: %w", err)
	}

	out := make([]account.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, account.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return out, nil
}

// ImportCookies restores a persisted session snapshot into the browser.
func (s *Session) ImportCookies(ctx context.Context, cookies []account.Cookie) error {
	return s.run(ctx, 10*time.Second, chromedp.ActionFunc(func(c context.Context) error {
		for _, cookie := range cookies {
			params := network.SetCookie(cookie.Name, cookie.Value).
				WithDomain(cookie.Domain).
				WithPath(cookie.Path).
				WithHTTPOnly(cookie.HTTPOnly).
				WithSecure(cookie.Secure)
			if cookie.Expires > 0 {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(cookie.Expires), 0))
				params = params.WithExpires(&expires)
			}
			if cookie.SameSite != "" {
				params = params.WithSameSite(network.CookieSameSite(cookie.SameSite))
			}
			if err := params.Do(c); err != nil {
				return fmt.Errorf("failed to set cookie %s: %w", cookie.Name, err)
			}
		}
		return nil
	}))
}

// poll runs probe every 100ms until it returns true or timeout elapses.
func (s *Session) poll(ctx context.Context, timeout time.Duration, probe func(context.Context) (bool, error)) error {
	pollCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		ok, err := probe(pollCtx)
		if err == nil && ok {
			return nil
		}
		select {
		case <-ticker.C:
		case <-pollCtx.Done():
			return pollCtx.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
