package engage

import (
	"errors"
	"fmt"

	"tweetpilot/pkg/twitter"
)

// StatusError reports that an account reached a terminal status during its
// run. A fatal status stops the whole run, not just the account.
type StatusError struct {
	Username string
	Status   twitter.AccountStatus
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("account %s is %s", e.Username, e.Status)
}

// IsFatal reports whether err carries a run-fatal account status.
func IsFatal(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status.Fatal()
}

// Post-submit branch signals. These flow from the submit closure back out
// of the response capture.
var (
	errSuspendedOrLocked = errors.New("upload failure banner after submit")
	errRateLimited       = errors.New("daily posting limit reached")
	errDuplicateText     = errors.New("reply rejected as duplicate text")
	errUploadFailed      = errors.New("media failed to upload")
)
