// Package config loads ladle's configuration.
//
// # Overview
//
// Settings come from three layers, later ones winning:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file, ~/.config/ladle/config.toml unless a path is given
//  3. LADLE_* environment variables
//
// A missing file is not an error. Blank or non-positive values fall back to
// their defaults, and paths beginning with ~ are expanded.
//
// # TOML Format
//
//	api_url = "http://127.0.0.1:8000/api"
//	session_backend = "file"        # or "redis"
//	session_path = "~/.config/ladle/session.toml"
//	redis_url = "redis://localhost:6379/0"
//	redis_key = "ladle:session"
//	request_timeout_seconds = 10
//	rate_limit = 0                  # requests per second, 0 disables
//	log_level = "info"
//	log_file = "~/.local/share/ladle/logs/ladle.log"   # "-" logs to stderr
//	poll_seconds = 5
//
// Every key has a matching environment variable: api_url is LADLE_API_URL,
// poll_seconds is LADLE_POLL_SECONDS, and so on.
//
// # Errors
//
// Load fails on unreadable files, TOML syntax errors, malformed environment
// values, and combinations [Config.Validate] rejects (an unknown session
// backend, redis without redis_url, an unknown log level).
package config
