package session

import (
	"github.com/jrsteele09/hotel-session/credential"
)

// Session is the decoded view of the current authenticated identity. A Session
// value is always complete: both credentials decoded, same subject.
type Session struct {
	Access  credential.Credential
	Refresh credential.Credential
}

// Key identifies the session for refresh memoization. A logout/login cycle, or
// a rotated refresh credential, yields a different key.
type Key string

func (s Session) Key() Key {
	return Key(s.Refresh.Subject + "\x00" + s.Refresh.Raw)
}

func (s Session) Subject() string {
	return s.Access.Subject
}

func (s Session) Role() string {
	return s.Access.Role
}
