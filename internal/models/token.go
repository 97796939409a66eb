package models

import (
	"database/sql/driver"
	"fmt"
)

// AuthorizationToken is the self-chosen secret that gates edits and deletes
// of a post. It is stored and compared in the clear.
type AuthorizationToken string

// Protected reports whether the token gates anything at all.
func (t AuthorizationToken) Protected() bool {
	return t != ""
}

// Matches reports whether candidate unlocks the token. An unprotected token
// accepts any candidate; otherwise comparison is exact and case-sensitive.
func (t AuthorizationToken) Matches(candidate string) bool {
	if !t.Protected() {
		return true
	}
	return string(t) == candidate
}

// Value stores an empty token as NULL.
func (t AuthorizationToken) Value() (driver.Value, error) {
	if !t.Protected() {
		return nil, nil
	}
	return string(t), nil
}

func (t *AuthorizationToken) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = ""
	case string:
		*t = AuthorizationToken(v)
	case []byte:
		*t = AuthorizationToken(v)
	default:
		return fmt.Errorf("models: cannot scan %T into AuthorizationToken", src)
	}
	return nil
}

// String hides the secret from logs and fmt verbs.
func (t AuthorizationToken) String() string {
	if !t.Protected() {
		return "<none>"
	}
	return "<redacted>"
}
