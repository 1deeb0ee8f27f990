package account

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// guestCookie is the cookie whose expiry decides session freshness.
const guestCookie = "guest_id"

// Cookie is one persisted browser cookie. The shape matches the storage
// state files written by earlier versions of this tool, so existing auth
// directories keep working.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // epoch seconds, -1 for session cookies
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// SessionRecord is one account's persisted session snapshot. Origins is
// carried through load/save untouched so older storage-state files keep
// their local-storage block.
type SessionRecord struct {
	Cookies []Cookie        `json:"cookies"`
	Origins json.RawMessage `json:"origins,omitempty"`
	SavedAt time.Time       `json:"saved_at,omitempty"`
}

// SessionStore persists one session snapshot per account under the auth
// directory.
type SessionStore struct {
	dir string
	now func() time.Time
}

// NewSessionStore creates a session store rooted at dir.
func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{dir: dir, now: time.Now}
}

// WithClock overrides the time source. Used in tests.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

func (s *SessionStore) path(username string) string {
	return filepath.Join(s.dir, username+".json")
}

// Valid reports whether a fresh session snapshot exists for the account.
// Absent, unreadable, or corrupt files are treated the same as an expired
// snapshot: a fresh login is required.
func (s *SessionStore) Valid(username string) bool {
	record, err := s.Load(username)
	if err != nil {
		return false
	}
	for _, cookie := range record.Cookies {
		if cookie.Name == guestCookie {
			return cookie.Expires > float64(s.now().Unix())
		}
	}
	return false
}

// Load reads the session snapshot for an account.
func (s *SessionStore) Load(username string) (*SessionRecord, error) {
	data, err := os.ReadFile(s.path(username))
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var record SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode session file: %w", err)
	}
	return &record, nil
}

// Save writes the session snapshot for an account atomically, superseding
// any stale record.
func (s *SessionStore) Save(username string, record *SessionRecord) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create auth directory: %w", err)
	}

	record.SavedAt = s.now()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tempPath := s.path(username) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tempPath, s.path(username)); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
