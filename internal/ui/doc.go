// Package ui renders ladle's live recipe dashboard with Bubble Tea.
//
// "ladle watch -tui" runs it: the poller refreshes the store in the
// background and sends a [Status] after every attempt, which reloads the
// recipe table and updates the header (last refresh, or an offline marker
// after repeated failures). Enter opens the selected recipe in a scrollable
// detail pane; esc returns to the list and q quits.
//
// The model reads through [Source], which *store.Store satisfies, so tests
// drive it with a fake and plain tea messages.
package ui
