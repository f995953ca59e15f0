// Package app is ladle's composition root and command dispatcher.
//
// # Overview
//
// Run loads configuration, opens the session storage, and wires the HTTP
// client, API service, store, and route table together before executing a
// single command. Every command acts on a page of the recipe site, so the
// navigation guard decides whether it may run at all.
//
// # Architecture
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()         File + LADLE_* environment
//	       ├─────> logging.New()         JSON zap logger
//	       ├─────> session storage       file, redis, or memory
//	       ├─────> httpclient.NewClient  Bearer token + refresh
//	       ├─────> api.New / store.New   Service and state
//	       ├─────> runtime.admit()       Navigation guard
//	       └─────> command.run()         Store actions + output
//
// # Guarded Commands
//
// Each command names the page it acts on (for example "show 7" is
// /recipes/7 and "admin-users" is /admin/users). When the guard redirects to
// the login page, the page is remembered in the preferences file and the
// next successful "ladle login" continues there. A staff-only page opened
// without staff access redirects home; a guest-only page (login, register)
// is refused while signed in.
//
// "open <path>" navigates to an arbitrary page path and follows the same
// redirects instead of failing.
//
// # Polling
//
// "watch" starts a background poller that refreshes recipes, categories,
// and (when signed in) favorites at the configured interval. Consecutive
// failures back off exponentially up to 30 seconds and two in a row mark
// the poller offline.
//
// # Error Handling
//
// Store actions record a display message; commands return it as the error
// text while keeping the cause available to errors.Is. A session that
// expires mid-command clears local state, remembers the page, and asks for a
// new sign-in.
package app
