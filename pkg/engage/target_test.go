package engage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetpilot/pkg/twitter"
)

const targetURL = "https://twitter.com/some_target"

func TestEngageTargetEmptyTimeline(t *testing.T) {
	page := newFakePage()
	env := newTestEnv(t, page, []string{"Great post!"}, nil)

	err := env.runner.engageTarget(context.Background(), page, testCred, targetURL)
	require.NoError(t, err)

	var pageDowns int
	for _, key := range page.presses {
		if key == "PageDown" {
			pageDowns++
		}
	}
	assert.Equal(t, env.runner.cfg.Engage.ScrollLimit, pageDowns,
		"scrolling stops at the bound when nothing appears")
	assert.Zero(t, page.captures, "nothing to engage with")
}

func TestEngageTargetProcessesVisiblePost(t *testing.T) {
	page := newFakePage()
	page.composerReady()
	page.responseBody = []byte(createTweetBody)
	page.counts = []int{1, 0}

	env := newTestEnv(t, page, []string{"Great post!"}, nil)

	err := env.runner.engageTarget(context.Background(), page, testCred, targetURL)
	require.NoError(t, err)

	assert.Contains(t, page.navigations, targetURL)
	assert.Contains(t, page.clicks, twitter.NthReply(1))

	data, err := os.ReadFile(env.store.ResultPath())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
}

func TestEngageTargetSkipsUnlikedPost(t *testing.T) {
	page := newFakePage()
	page.composerReady()
	// composer never appears, so every visible post is abandoned unliked
	page.visible[twitter.SelComposerText] = false
	page.counts = []int{2}

	env := newTestEnv(t, page, []string{"Great post!"}, nil)

	err := env.runner.engageTarget(context.Background(), page, testCred, targetURL)
	require.NoError(t, err)

	// both posts attempted once, neither retried
	assert.Contains(t, page.clicks, twitter.NthReply(1))
	assert.Contains(t, page.clicks, twitter.NthReply(2))
	assert.NotContains(t, page.clicks, twitter.NthReply(3))
}

func TestEngageTargetsSoftStopOnRateLimit(t *testing.T) {
	page := newFakePage()
	page.composerReady()
	page.counts = []int{1}
	page.onSubmit = func(call int) {
		page.texts[twitter.TextDailyLimit] = true
	}

	env := newTestEnv(t, page, []string{"Great post!"}, []string{targetURL})

	log := env.runner.log.WithField("username", testCred.Username)
	err := env.runner.engageTargets(context.Background(), page, testCred, log)
	require.NoError(t, err, "a rate limit ends the account, not the run")

	data, err := os.ReadFile(filepath.Join(env.store.Dir(), "limit", "accounts.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alice:secret1\n", string(data))
}

func TestEngageTargetsFatalStatusPropagates(t *testing.T) {
	page := newFakePage()
	page.composerReady()
	page.responseBody = []byte(createTweetBody)
	page.counts = []int{1}
	page.onSubmit = func(call int) {
		page.texts[twitter.TextAutomated] = true
	}

	env := newTestEnv(t, page, []string{"Great post!"},
		[]string{targetURL, "https://twitter.com/another_target"})

	log := env.runner.log.WithField("username", testCred.Username)
	err := env.runner.engageTargets(context.Background(), page, testCred, log)
	require.Error(t, err)
	assert.True(t, IsFatal(err))

	assert.Len(t, page.navigations, 1, "remaining targets are abandoned")
	assert.FileExists(t, filepath.Join(env.store.Dir(), "auto-detected", "accounts.txt"))
}

func TestEngageTargetsCancelledContext(t *testing.T) {
	page := newFakePage()
	env := newTestEnv(t, page, []string{"Great post!"}, []string{targetURL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log := env.runner.log
	err := env.runner.engageTargets(ctx, page, testCred, log)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, page.navigations)
}
