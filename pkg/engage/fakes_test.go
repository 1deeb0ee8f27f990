package engage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tweetpilot/pkg/account"
	"tweetpilot/pkg/config"
	"tweetpilot/pkg/content"
	"tweetpilot/pkg/pace"
	"tweetpilot/pkg/results"
	"tweetpilot/pkg/twitter"
)

// fakePage is an in-memory SessionPage. Visibility and banner state are
// plain maps the test mutates; interactions are recorded for assertions.
type fakePage struct {
	texts   map[string]bool
	visible map[string]bool
	enabled map[string]bool

	// counts is a queue of successive Count results; the queue empty means
	// zero, the last entry is sticky once reached.
	counts []int

	// redirectTo, when set, becomes the location after every Navigate,
	// standing in for the service's post-login redirect.
	redirectTo string

	// fillClearsPrompt wires Fill/Clear to the composer placeholder the
	// way the real page behaves: typing hides it, clearing restores it.
	fillClearsPrompt bool

	uploadErr    error
	waitTextErr  map[string]error
	clickErr     map[string]error
	responseBody []byte

	// onSubmit runs at the start of the nth CaptureResponse call, before
	// the submit closure, so tests can raise post-submit banners.
	onSubmit func(call int)

	loc           string
	navigations   []string
	presses       []string
	clicks        []string
	fills         []string
	clears        int
	uploads       int
	captures      int
	screenshots   int
	reloads       int
	imported      [][]account.Cookie
	exportCookies []account.Cookie
}

func newFakePage() *fakePage {
	return &fakePage{
		texts:       map[string]bool{},
		visible:     map[string]bool{},
		enabled:     map[string]bool{},
		waitTextErr: map[string]error{},
		clickErr:    map[string]error{},
	}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.navigations = append(p.navigations, url)
	p.loc = url
	if p.redirectTo != "" {
		p.loc = p.redirectTo
	}
	return nil
}

func (p *fakePage) Location(ctx context.Context) (string, error) { return p.loc, nil }

func (p *fakePage) Reload(ctx context.Context) error {
	p.reloads++
	return nil
}

func (p *fakePage) WaitLocation(ctx context.Context, url string, timeout time.Duration) error {
	return nil
}

func (p *fakePage) TextVisible(ctx context.Context, text string) bool { return p.texts[text] }

func (p *fakePage) WaitText(ctx context.Context, text string, timeout time.Duration) error {
	return p.waitTextErr[text]
}

func (p *fakePage) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	return nil
}

func (p *fakePage) Click(ctx context.Context, sel string, timeout time.Duration) error {
	p.clicks = append(p.clicks, sel)
	return p.clickErr[sel]
}

func (p *fakePage) ClickCenter(ctx context.Context, sel string) error {
	p.clicks = append(p.clicks, sel)
	return nil
}

func (p *fakePage) ClickText(ctx context.Context, text string, timeout time.Duration) error {
	return nil
}

func (p *fakePage) Fill(ctx context.Context, sel, value string) error {
	p.fills = append(p.fills, value)
	if p.fillClearsPrompt && sel == twitter.SelComposerText {
		p.visible[twitter.SelComposerLabel] = false
	}
	return nil
}

func (p *fakePage) Clear(ctx context.Context, sel string) error {
	p.clears++
	if p.fillClearsPrompt && sel == twitter.SelComposerText {
		p.visible[twitter.SelComposerLabel] = true
	}
	return nil
}

func (p *fakePage) Press(ctx context.Context, key string) error {
	p.presses = append(p.presses, key)
	return nil
}

func (p *fakePage) Visible(ctx context.Context, sel string) bool { return p.visible[sel] }
func (p *fakePage) Enabled(ctx context.Context, sel string) bool { return p.enabled[sel] }

func (p *fakePage) Count(ctx context.Context, sel string) (int, error) {
	if len(p.counts) == 0 {
		return 0, nil
	}
	count := p.counts[0]
	if len(p.counts) > 1 {
		p.counts = p.counts[1:]
	}
	return count, nil
}

func (p *fakePage) Upload(ctx context.Context, sel, file string, timeout time.Duration) error {
	p.uploads++
	return p.uploadErr
}

func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	p.screenshots++
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func (p *fakePage) CaptureResponse(ctx context.Context, urlMarker string, timeout time.Duration, submit func(context.Context) error) ([]byte, error) {
	p.captures++
	if p.onSubmit != nil {
		p.onSubmit(p.captures)
	}
	if err := submit(ctx); err != nil {
		return nil, err
	}
	return p.responseBody, nil
}

func (p *fakePage) ExportCookies(ctx context.Context) ([]account.Cookie, error) {
	return p.exportCookies, nil
}

func (p *fakePage) ImportCookies(ctx context.Context, cookies []account.Cookie) error {
	p.imported = append(p.imported, cookies)
	return nil
}

// composerReady makes the reply composer and submit control usable, the
// state right after a successful reply click.
func (p *fakePage) composerReady() {
	p.visible[twitter.SelComposerText] = true
	p.visible[twitter.SelTweetButton] = true
	p.enabled[twitter.SelTweetButton] = true
}

const createTweetBody = `{"data":{"create_tweet":{"tweet_results":{"result":{"rest_id":"1800000000000000001"}}}}}`

type testEnv struct {
	runner   *Runner
	store    *results.Store
	sessions *account.SessionStore
}

func newTestEnv(t *testing.T, page SessionPage, texts, followings []string) *testEnv {
	t.Helper()

	mediaDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(mediaDir, "pic.jpg"), []byte{0xFF, 0xD8}, 0644); err != nil {
		t.Fatalf("Failed to seed media dir: %v", err)
	}
	catalog, err := content.NewCatalog(mediaDir)
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}

	store, err := results.NewStore(t.TempDir(), time.Now())
	if err != nil {
		t.Fatalf("Failed to build result store: %v", err)
	}

	sessions := account.NewSessionStore(t.TempDir())

	cfg := config.DefaultConfig()
	newPage := func(ctx context.Context) (SessionPage, func(), error) {
		return page, func() {}, nil
	}

	runner := NewRunner(cfg, texts, catalog, followings, sessions, store,
		twitter.NewTextClassifier(), newPage, pace.NopPacer{}, nil)

	return &testEnv{runner: runner, store: store, sessions: sessions}
}
