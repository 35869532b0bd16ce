// Package app is the composition root for gigon.
//
// # Overview
//
// Bootstrap wires configuration, logging, the collaborator client and the
// connection manager. The TUI (Run) and the one-shot CLI commands share it,
// so every entry point talks to the API the same way.
//
// # Startup Sequence
//
//  1. Load ~/.config/gigon/config.toml (or the --config path)
//  2. Apply --as and --log-level overrides
//  3. Validate that a username and token are present
//  4. Load preferences (theme, recent profiles)
//  5. Open <log_dir>/gigon.log
//  6. Build gigon.Client and connection.Manager
//
// Run then starts the Bubble Tea program with a fresh state.Store and blocks
// until the user quits or the context is cancelled. There is no background
// polling: the UI resolves a profile once when it is opened and again only
// on request or after a conflicting write.
//
// # Logging
//
// Logging failures are reported on stderr and otherwise ignored; a nil
// logger is passed down instead.
package app
