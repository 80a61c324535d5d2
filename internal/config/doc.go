// Package config loads backoffice's settings.
//
// # Overview
//
// Settings come from an optional TOML file, an optional .env file in the
// working directory, and BACKOFFICE_* environment variables. Later sources
// win. Every field has a default, so backoffice runs without any of them.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/backoffice/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. Load ./.env if present; it never overrides variables already set
//  5. Apply BACKOFFICE_* variables on top of the file values
//
// # Default Values
//
//   - API base URL: http://127.0.0.1:5000/api
//   - Request timeout: 30s
//   - Retry delay: 1s
//   - Poll interval: 2s
//   - Categories: Premium, Luxe
//   - Upload images longer than 2000px are downscaled
//   - Log file: ~/.local/state/backoffice/backoffice.log (json, info)
//   - Session file: ~/.config/backoffice/session.toml
//   - Theme: Dracula
//
// # TOML Format
//
//	api_base_url = "https://drapes.example/api"
//	request_timeout = "30s"
//	retry_delay = "1s"
//	poll_interval = "2s"
//	categories = ["Premium", "Luxe"]
//	max_upload_dimension = 2000
//	log_file = "~/.local/state/backoffice/backoffice.log"
//	log_level = "info"      # debug, info, warn, error
//	log_format = "json"     # json, console
//	session_path = "~/.config/backoffice/session.toml"
//	theme = "Dracula"       # Dracula, Slate
//
// Every field is optional. Blank values mean "use the default". Tilde
// expansion is performed for every path.
//
// # Environment
//
// Each TOML key has an upper-case BACKOFFICE_ counterpart, for example
// BACKOFFICE_API_BASE_URL or BACKOFFICE_MAX_UPLOAD_DIMENSION. BACKOFFICE_CATEGORIES is
// a comma separated list. Numeric and duration values are parsed with
// spf13/cast.
//
// # Error Handling
//
// Load returns errors for unreadable or malformed files, unparsable
// durations or numbers, and unknown log levels or formats. A missing config
// file or .env file is not an error.
package config
