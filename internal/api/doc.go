// Package api is the typed surface of the recipe backend.
//
// Every method is one call through [httpclient.Sender] with a fixed method and
// path. The service holds no state of its own; credentials live in the
// session vault behind the HTTP client.
//
// Login writes the whole session (tokens, profile, username, flag) in one
// vault update before returning. Logout tells the server to revoke the refresh
// token, logs any failure, and clears the local session regardless.
//
// RateRecipe and AddComment return nothing to merge: the backend owns rating
// aggregates and comment ordering, so callers fetch the recipe again.
package api
