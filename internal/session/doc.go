// Package session persists and serves the signed-in user's credentials.
//
// # Overview
//
// A session is five values that always travel together: the access token, the
// refresh token, the serialized user profile, the username, and the
// authenticated flag. They are stored as one [Record] so that a reader never
// observes a half-written login.
//
// # Storage Backends
//
//   - FileStorage: TOML file, default ~/.config/ladle/session.toml, written via
//     temp file + rename with 0600 permissions
//   - RedisStorage: one hash per key, replaced inside a MULTI/EXEC transaction
//   - MemoryStorage: process-local, used by tests and by --ephemeral runs
//
// # Vault
//
// [Vault] is the in-memory view of the stored record. Writers hold its lock
// across the storage write and the memory swap, so readers see either the old
// session or the new one. Clear always empties memory even when the backend
// fails to delete; the storage error is still returned.
//
// Every Load, Establish and Clear advances the vault's generation. A token
// refresh records the generation before it goes to the network and hands it
// back to [Vault.SetTokens], so a refresh that lands after sign-out cannot
// bring the old session back.
//
// The HTTP client is the only intended writer. Other packages read through
// [Vault.Record] or the token accessors.
package session
