package engage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetpilot/pkg/account"
	"tweetpilot/pkg/twitter"
)

func futureCookies() []account.Cookie {
	return []account.Cookie{{
		Name:    "guest_id",
		Value:   "v1%3A171",
		Domain:  ".twitter.com",
		Path:    "/",
		Expires: float64(time.Now().Add(24 * time.Hour).Unix()),
	}}
}

func expiredCookies() []account.Cookie {
	return []account.Cookie{{
		Name:    "guest_id",
		Value:   "v1%3A170",
		Domain:  ".twitter.com",
		Expires: float64(time.Now().Add(-time.Hour).Unix()),
	}}
}

func TestRunAccountRestoresFreshSession(t *testing.T) {
	page := newFakePage()
	page.redirectTo = twitter.HomeURL
	page.exportCookies = futureCookies()

	env := newTestEnv(t, page, []string{"Great post!"}, nil)
	require.NoError(t, env.sessions.Save(testCred.Username,
		&account.SessionRecord{Cookies: futureCookies()}))

	require.NoError(t, env.runner.RunAccount(context.Background(), testCred))

	require.Len(t, page.imported, 1, "fresh session restores cookies instead of logging in")
	assert.NotContains(t, page.navigations, twitter.LoginURL)
	assert.Contains(t, page.navigations, twitter.BaseURL)
}

func TestRunAccountLogsInWhenSessionExpired(t *testing.T) {
	page := newFakePage()
	page.redirectTo = twitter.HomeURL

	env := newTestEnv(t, page, []string{"Great post!"}, nil)
	require.NoError(t, env.sessions.Save(testCred.Username,
		&account.SessionRecord{Cookies: expiredCookies()}))

	require.NoError(t, env.runner.RunAccount(context.Background(), testCred))

	assert.Empty(t, page.imported)
	require.NotEmpty(t, page.navigations)
	assert.Equal(t, twitter.LoginURL, page.navigations[0])
	assert.Equal(t, []string{testCred.Username, testCred.Password}, page.fills)
}

func TestRunAccountPersistsSessionAfterRun(t *testing.T) {
	page := newFakePage()
	page.redirectTo = twitter.HomeURL
	page.exportCookies = futureCookies()

	env := newTestEnv(t, page, []string{"Great post!"}, nil)
	require.NoError(t, env.runner.RunAccount(context.Background(), testCred))

	record, err := env.sessions.Load(testCred.Username)
	require.NoError(t, err)
	require.Len(t, record.Cookies, 1)
	assert.Equal(t, "guest_id", record.Cookies[0].Name)
}

func TestRunAccountRecordsLoginFailure(t *testing.T) {
	page := newFakePage()
	page.redirectTo = twitter.LoginURL // never leaves the login page

	env := newTestEnv(t, page, []string{"Great post!"}, []string{targetURL})

	require.NoError(t, env.runner.RunAccount(context.Background(), testCred),
		"a failed login ends the account without failing the run")

	assert.FileExists(t, filepath.Join(env.store.Dir(), "login-issue", "accounts.txt"))
	assert.Equal(t, 1, page.screenshots)
	assert.NotContains(t, page.navigations, targetURL, "no engagement without a login")
}

func TestRunAccountRecordsSuspension(t *testing.T) {
	page := newFakePage()
	page.redirectTo = twitter.HomeURL
	page.texts[twitter.TextSuspended] = true

	env := newTestEnv(t, page, []string{"Great post!"}, []string{targetURL})

	require.NoError(t, env.runner.RunAccount(context.Background(), testCred))
	assert.FileExists(t, filepath.Join(env.store.Dir(), "suspended", "accounts.txt"))
	assert.NotContains(t, page.navigations, targetURL)
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, "suspended", string(categoryFor(twitter.StatusSuspended)))
	assert.Equal(t, "locked", string(categoryFor(twitter.StatusLocked)))
	assert.Equal(t, "hard-locked", string(categoryFor(twitter.StatusHardLocked)))
	assert.Equal(t, "limit", string(categoryFor(twitter.StatusRateLimited)))
	assert.Equal(t, "auto-detected", string(categoryFor(twitter.StatusFlaggedAutomated)))
	assert.Equal(t, "login-issue", string(categoryFor(twitter.StatusLoginFailed)))
	assert.Equal(t, "unexpected", string(categoryFor(twitter.StatusOK)))
}

func TestShuffledFollowingsPreservesElements(t *testing.T) {
	page := newFakePage()
	followings := []string{"a", "b", "c", "d", "e"}
	env := newTestEnv(t, page, nil, followings)

	shuffled := env.runner.shuffledFollowings()
	assert.ElementsMatch(t, followings, shuffled)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, followings,
		"the source order is never mutated")
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Username: "alice", Status: twitter.StatusHardLocked}
	assert.Equal(t, "account alice is hard_locked", err.Error())
	assert.True(t, IsFatal(err))
	assert.False(t, IsFatal(context.Canceled))
	assert.False(t, IsFatal(nil))
}
