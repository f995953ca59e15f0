package session

import (
	"context"
	"strings"
)

// Record is the persisted form of a session.
type Record struct {
	Access        string `toml:"access"`
	Refresh       string `toml:"refresh"`
	User          string `toml:"user"`
	Username      string `toml:"username"`
	Authenticated bool   `toml:"authenticated"`
}

// IsZero reports whether the record carries no credentials or profile.
func (r Record) IsZero() bool {
	return r == Record{}
}

// normalize keeps the authenticated flag tied to the presence of an access token.
func (r Record) normalize() Record {
	r.Access = strings.TrimSpace(r.Access)
	r.Refresh = strings.TrimSpace(r.Refresh)
	r.Authenticated = r.Access != ""
	return r
}

// Storage is a durable home for a single session record.
type Storage interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}
