package twitter

import (
	"encoding/json"
	"fmt"
)

// AccountStatus is the classified health of an account, inferred from the
// rendered page.
type AccountStatus string

const (
	StatusOK               AccountStatus = "ok"
	StatusLoginFailed      AccountStatus = "login_failed"
	StatusSuspended        AccountStatus = "suspended"
	StatusLocked           AccountStatus = "locked"
	StatusHardLocked       AccountStatus = "hard_locked"
	StatusRateLimited      AccountStatus = "rate_limited"
	StatusFlaggedAutomated AccountStatus = "flagged_automated"
)

// Fatal reports whether the status implies imminent account-wide
// enforcement; a fatal status stops the whole run, not just one worker.
func (s AccountStatus) Fatal() bool {
	return s == StatusHardLocked || s == StatusFlaggedAutomated
}

// CreateTweetResponse models the slice of the post-submit response body
// the bot needs: the created post id.
type CreateTweetResponse struct {
	Data struct {
		CreateTweet struct {
			TweetResults struct {
				Result struct {
					RestID string `json:"rest_id"`
				} `json:"result"`
			} `json:"tweet_results"`
		} `json:"create_tweet"`
	} `json:"data"`
}

// ParsePostID extracts the created post id from a CreateTweet response body.
func ParsePostID(body []byte) (string, error) {
	var resp CreateTweetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode create-tweet response: %w", err)
	}
	id := resp.Data.CreateTweet.TweetResults.Result.RestID
	if id == "" {
		return "", fmt.Errorf("create-tweet response has no post id")
	}
	return id, nil
}
