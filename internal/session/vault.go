package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrSessionChanged rejects a token write meant for a session that was
// cleared or replaced after the write was prepared.
var ErrSessionChanged = errors.New("session changed")

// Vault caches the stored session in memory and serializes writes to storage.
type Vault struct {
	mu      sync.RWMutex
	rec     Record
	gen     uint64
	storage Storage
}

// NewVault returns an empty vault backed by storage. Call Load to rehydrate.
func NewVault(storage Storage) *Vault {
	if storage == nil {
		storage = NewMemoryStorage(Record{})
	}
	return &Vault{storage: storage}
}

// Load replaces the in-memory record with what storage holds.
func (v *Vault) Load(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	rec, err := v.storage.Load(ctx)
	if err != nil {
		return err
	}
	v.rec = rec.normalize()
	v.gen++
	return nil
}

// Generation identifies the current session. Load, Establish and Clear move
// it forward; token refreshes do not.
func (v *Vault) Generation() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.gen
}

// Record returns a copy of the current session.
func (v *Vault) Record() Record {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.rec
}

// AccessToken returns the stored access token or "".
func (v *Vault) AccessToken() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.rec.Access
}

// RefreshToken returns the stored refresh token or "".
func (v *Vault) RefreshToken() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.rec.Refresh
}

// Authenticated reports whether an access token is held.
func (v *Vault) Authenticated() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.rec.Access != ""
}

// Establish stores a complete session. Nothing changes in memory if the
// storage write fails.
func (v *Vault) Establish(ctx context.Context, rec Record) error {
	rec = rec.normalize()
	if rec.Access == "" {
		return fmt.Errorf("establish session: access token required")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.commitLocked(ctx, rec); err != nil {
		return err
	}
	v.gen++
	return nil
}

// SetTokens swaps in a new access token for the session identified by gen.
// An empty refresh keeps the current one. It returns ErrSessionChanged when the
// session moved on or no refresh token is held.
func (v *Vault) SetTokens(ctx context.Context, gen uint64, access, refresh string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		return fmt.Errorf("set tokens: %w", ErrSessionChanged)
	}
	if v.rec.Refresh == "" {
		return fmt.Errorf("set tokens: %w: no refresh token", ErrSessionChanged)
	}
	next := v.rec
	next.Access = access
	if strings.TrimSpace(refresh) != "" {
		next.Refresh = refresh
	}
	return v.commitLocked(ctx, next)
}

// SetUser replaces the serialized profile and username.
func (v *Vault) SetUser(ctx context.Context, userJSON, username string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	next := v.rec
	next.User = userJSON
	next.Username = username
	return v.commitLocked(ctx, next)
}

// Clear forgets the session. Memory is emptied even when storage fails.
func (v *Vault) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.rec = Record{}
	v.gen++
	if err := v.storage.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (v *Vault) commitLocked(ctx context.Context, rec Record) error {
	rec = rec.normalize()
	if err := v.storage.Save(ctx, rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	v.rec = rec
	return nil
}
