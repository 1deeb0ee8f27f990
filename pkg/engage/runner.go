// Package engage drives one logged-in account through the timelines of
// the configured target accounts, replying to and liking their posts.
// Everything here operates on the twitter.Page seam; the browser never
// leaks in.
package engage

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"tweetpilot/pkg/account"
	"tweetpilot/pkg/config"
	"tweetpilot/pkg/content"
	"tweetpilot/pkg/logger"
	"tweetpilot/pkg/pace"
	"tweetpilot/pkg/results"
	"tweetpilot/pkg/twitter"
)

// SessionPage is a page that can also persist and restore its cookies.
type SessionPage interface {
	twitter.Page
	ExportCookies(ctx context.Context) ([]account.Cookie, error)
	ImportCookies(ctx context.Context, cookies []account.Cookie) error
}

// PageFactory opens a fresh, isolated browser session. The returned
// cleanup function closes it.
type PageFactory func(ctx context.Context) (SessionPage, func(), error)

// Runner runs the engagement flow for accounts. Shared fields are
// read-only after construction except the result store and the rng, which
// have their own locking.
type Runner struct {
	cfg        *config.Config
	texts      []string
	catalog    *content.Catalog
	followings []string
	sessions   *account.SessionStore
	store      *results.Store
	classifier twitter.Classifier
	newPage    PageFactory
	pacer      pace.Pacer
	log        logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRunner wires the engagement runner.
func NewRunner(
	cfg *config.Config,
	texts []string,
	catalog *content.Catalog,
	followings []string,
	sessions *account.SessionStore,
	store *results.Store,
	classifier twitter.Classifier,
	newPage PageFactory,
	pacer pace.Pacer,
	log logger.Logger,
) *Runner {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Runner{
		cfg:        cfg,
		texts:      texts,
		catalog:    catalog,
		followings: followings,
		sessions:   sessions,
		store:      store,
		classifier: classifier,
		newPage:    newPage,
		pacer:      pacer,
		log:        log,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RunAccount drives one credential through login, status gates and the
// engagement loop. A returned error is fatal for the whole run only when
// IsFatal reports so; everything else ends just this account.
func (r *Runner) RunAccount(ctx context.Context, cred account.Credential) error {
	log := r.log.WithField("username", cred.Username)

	page, closePage, err := r.newPage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	defer closePage()

	if err := r.openSession(ctx, page, cred, log); err != nil {
		return err
	}

	// Cookie consent shows up on fresh contexts only; dismissing it is
	// best effort.
	_ = page.ClickText(ctx, twitter.TextAcceptCookies, 3*time.Second)

	twitter.WaitHome(ctx, page, 5*time.Second)

	switch status := r.classifier.ClassifyLogin(ctx, page); status {
	case twitter.StatusLoginFailed:
		log.Error("login failed")
		r.recordStatus(ctx, page, cred, twitter.StatusLoginFailed)
		return nil
	case twitter.StatusSuspended:
		log.Warn("account is suspended")
		r.recordStatus(ctx, page, cred, twitter.StatusSuspended)
		return nil
	case twitter.StatusLocked:
		log.Warn("account has been locked")
		r.recordStatus(ctx, page, cred, twitter.StatusLocked)
		return nil
	}

	runErr := r.engageTargets(ctx, page, cred, log)

	// Persist the session even after a soft stop; a fatal status means
	// the account is beyond reuse anyway.
	if runErr == nil || !IsFatal(runErr) {
		if err := r.saveSession(ctx, page, cred.Username); err != nil {
			log.WithError(err).Warn("failed to persist session")
		}
	}

	return runErr
}

// openSession restores a persisted session when it is still fresh and
// performs an interactive login otherwise.
func (r *Runner) openSession(ctx context.Context, page SessionPage, cred account.Credential, log logger.Logger) error {
	if r.sessions.Valid(cred.Username) {
		record, err := r.sessions.Load(cred.Username)
		if err == nil {
			log.Debug("restoring saved session")
			if err := page.ImportCookies(ctx, record.Cookies); err != nil {
				return fmt.Errorf("failed to restore session: %w", err)
			}
			if err := page.Navigate(ctx, twitter.BaseURL); err != nil {
				return fmt.Errorf("failed to open timeline: %w", err)
			}
			return nil
		}
		log.WithError(err).Warn("saved session unreadable, logging in")
	}

	log.Debug("performing interactive login")
	return r.login(ctx, page, cred)
}

// login submits the credential through the interactive login form.
func (r *Runner) login(ctx context.Context, page twitter.Page, cred account.Credential) error {
	if err := page.Navigate(ctx, twitter.LoginURL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if err := page.WaitVisible(ctx, twitter.SelUsernameInput, r.cfg.Browser.NavigationTimeout); err != nil {
		return fmt.Errorf("login form did not appear: %w", err)
	}
	if err := page.Fill(ctx, twitter.SelUsernameInput, cred.Username); err != nil {
		return fmt.Errorf("failed to enter username: %w", err)
	}
	if err := page.Press(ctx, "Enter"); err != nil {
		return err
	}
	if err := page.WaitVisible(ctx, twitter.SelPasswordInput, 10*time.Second); err != nil {
		return fmt.Errorf("password field did not appear: %w", err)
	}
	if err := page.Fill(ctx, twitter.SelPasswordInput, cred.Password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}
	return page.Press(ctx, "Enter")
}

// saveSession snapshots the browser cookies for the next run.
func (r *Runner) saveSession(ctx context.Context, page SessionPage, username string) error {
	cookies, err := page.ExportCookies(ctx)
	if err != nil {
		return err
	}
	return r.sessions.Save(username, &account.SessionRecord{Cookies: cookies})
}

// recordStatus captures a screenshot and appends the account line under
// the status's result category.
func (r *Runner) recordStatus(ctx context.Context, page twitter.Page, cred account.Credential, status twitter.AccountStatus) {
	shot, err := page.Screenshot(ctx)
	if err != nil {
		r.log.WithError(err).WithField("username", cred.Username).Warn("failed to capture screenshot")
	}
	if err := r.store.RecordAccount(categoryFor(status), cred.Username, cred.Password, shot); err != nil {
		r.log.WithError(err).WithField("username", cred.Username).Error("failed to record account status")
	}
}

func categoryFor(status twitter.AccountStatus) results.Category {
	switch status {
	case twitter.StatusSuspended:
		return results.CategorySuspended
	case twitter.StatusLocked:
		return results.CategoryLocked
	case twitter.StatusHardLocked:
		return results.CategoryHardLocked
	case twitter.StatusRateLimited:
		return results.CategoryLimit
	case twitter.StatusFlaggedAutomated:
		return results.CategoryAutoDetected
	case twitter.StatusLoginFailed:
		return results.CategoryLoginIssue
	default:
		return results.CategoryUnexpected
	}
}

// pick returns a random element choice using the runner's rng.
func (r *Runner) pickText(pool *content.Pool) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pool.Pick(r.rng)
}

func (r *Runner) pickMedia() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.catalog.Pick(r.rng)
}

func (r *Runner) shuffledFollowings() []string {
	targets := make([]string, len(r.followings))
	copy(targets, r.followings)
	r.mu.Lock()
	r.rng.Shuffle(len(targets), func(i, j int) {
		targets[i], targets[j] = targets[j], targets[i]
	})
	r.mu.Unlock()
	return targets
}
