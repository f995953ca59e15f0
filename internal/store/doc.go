// Package store holds client-side application state for ladle.
//
// # Overview
//
// A [Store] is built explicitly with [New] and handed to whatever needs it;
// there is no package-level instance. It keeps the signed-in user, the
// recipe collections, categories, favorites, and the last error message.
//
// # Mutations
//
// State changes only through [Mutation] values passed to [Store.Commit].
// Mutation types are defined in this package and apply synchronously under
// the store lock, so no reader ever sees a half-applied change. Each has a
// stable name (SET_USER, ADD_RECIPE, ...) that subscribers receive.
//
// # Actions
//
// Actions perform I/O through a [Backend] and commit the results:
//
//	busy(resource)++ → CLEAR_ERROR → call backend → commit | SET_ERROR → busy(resource)--
//
// The busy decrement is deferred so it runs on every path. A failing action
// records a human-readable message and returns the error.
//
// # Concurrency
//
// Busy state is a reference count per [Resource], so overlapping actions do
// not clear each other's loading flag. Fetches are tagged with a
// per-resource epoch and commit only if no newer fetch or local write on the
// same resource was issued meanwhile. ToggleFavorite holds a lock keyed by
// recipe id for its whole read-decide-call-commit sequence.
//
// # Getters
//
// Getters return copies. Mutating a returned slice never affects the store.
package store
