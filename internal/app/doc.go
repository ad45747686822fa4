// Package app is the composition root of the waypoint editor.
//
// # Overview
//
// Run wires configuration, logging, the record client and the UI together:
//
//  1. Load ~/.config/waypoint/config.toml (missing file means defaults)
//  2. Apply command line overrides for the API address and page size
//  3. Open the log file; the TUI owns the terminal so nothing logs to it
//  4. Build the HTTP record client
//  5. Start the TUI and block until the user exits or the context cancels
//
// There is no background polling. Pages are fetched when the operator
// navigates, reloads or saves.
//
// # Error Handling
//
// Config, logging and client setup failures are returned from Run. Remote
// failures after startup are shown in the UI and never end the program.
package app
