// Package config loads the gigon TOML configuration.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/gigon/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. Empty fields keep their defaults
//  5. GIGON_API_BASE, GIGON_TOKEN and GIGON_USERNAME override the file
//
// # TOML Format
//
//	api_base = "https://gig-onapi.sarath-s2022cse.workers.dev"
//	token = "1234"
//	username = "ann"
//	log_dir = "~/.local/share/gigon/logs"
//	log_level = "info"
//	timeout_seconds = 10
//
// Missing config files are not an error. Validate must pass before any
// command talks to the collaborator, since username and token have no
// defaults.
package config
