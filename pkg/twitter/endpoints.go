package twitter

import "fmt"

const (
	// BaseURL is the base URL for the service
	BaseURL = "https://twitter.com"

	// LoginURL is the interactive login page
	LoginURL = BaseURL + "/login"

	// HomeURL is the URL of a logged-in account's home timeline
	HomeURL = BaseURL + "/home"

	// AccessURL is the account-access recovery page locked accounts are
	// redirected to
	AccessURL = BaseURL + "/account/access"

	// CreateTweetMarker identifies the post-submit network response
	CreateTweetMarker = "/CreateTweet"
)

// StatusURL returns the permanent URL of a posted reply.
func StatusURL(username, postID string) string {
	return fmt.Sprintf("%s/%s/status/%s", BaseURL, username, postID)
}

// Element selectors. The service renders stable data-testid attributes;
// everything else is matched by visible text.
const (
	SelUsernameInput  = `//input[@type="text"]`
	SelPasswordInput  = `//input[@type="password"]`
	SelComposerText   = `//div[@data-testid="tweetTextarea_0"]`
	SelComposerLabel  = `//div[@data-testid="tweetTextarea_0_label"]`
	SelTweetButton    = `//button[@data-testid="tweetButton"]`
	SelMediaButton    = `//button[@data-testid="fileInput"]/.. | //input[@data-testid="fileInput"]`
	SelMediaInput     = `//input[@data-testid="fileInput"]`
	SelRemoveMedia    = `//button[@aria-label="Remove media"]`
	SelCloseComposer  = `//div[@data-testid="app-bar-close"]`
	SelConfirmDiscard = `//div[@data-testid="confirmationSheetConfirm"]`
	SelCancelDiscard  = `//div[@data-testid="confirmationSheetCancel"]`
)

// NthLike returns the selector of the nth visible like affordance (1-based).
func NthLike(n int) string {
	return fmt.Sprintf(`(//button[@data-testid="like"])[%d]`, n)
}

// NthReply returns the selector of the reply affordance belonging to the
// nth post (1-based). Reply and like buttons render in the same action
// group per post, so the indexes line up.
func NthReply(n int) string {
	return fmt.Sprintf(`(//button[@data-testid="reply"])[%d]`, n)
}

// LikeSelector matches every visible like affordance.
const LikeSelector = `//button[@data-testid="like"]`

// Visible banner texts the service uses to signal account state. These are
// externally controlled strings; keeping them in one table makes the
// presentation-layer coupling explicit and replaceable.
const (
	TextSuspended      = "Your account is suspended"
	TextLocked         = "Your account has been locked."
	TextHardLocked     = "Unlock the ability to post"
	TextAutomated      = "This request looks like it might be automated."
	TextDailyLimit     = "You are over the daily limit for sending posts."
	TextDuplicate      = "Whoops! You already said that."
	TextMediaFailed    = "Some of your media failed to upload."
	TextGenericError   = "Error"
	TextPostSent       = "Your post was sent."
	TextAcceptCookies  = "Accept all cookies"
	TextReplyPrompt    = "Post your reply"
	TextAddDescription = "Add description"
	TextTagPeople      = "Tag people"
	TextUploading      = "Uploading"
	TextUploaded       = "Uploaded (100%)"
)
