// Package account handles the account inputs of a run: the credential
// file and the per-account persisted browser sessions.
package account

import (
	"fmt"
	"os"
	"strings"
)

// Credential is one account's login pair. Immutable; one is assigned per
// worker.
type Credential struct {
	Username string
	Password string
}

// LoadCredentials parses a credential file. One account per line in
// username:password form; blank lines are ignored and lines starting with
// '#' are comments.
func LoadCredentials(path string) ([]Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var creds []Credential
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		cred := Credential{Username: strings.TrimSpace(parts[0])}
		if len(parts) == 2 {
			cred.Password = strings.TrimSpace(parts[1])
		}
		if cred.Username == "" {
			continue
		}
		creds = append(creds, cred)
	}
	return creds, nil
}
