// Package ui provides the terminal front end of the waypoint feature editor.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds presentation state only
// (focus, cursors, theme, modals); everything about which page is shown,
// what is selected and what is being saved lives in an editor.Engine. The
// engine renders into a screen value, the package's editor.View
// implementation, and Model draws the screen on every View call.
//
// # Layout
//
//   - Header: API address, page number, sync state and last status message
//   - List panel: the current page as two-line cards, with the search prompt
//   - Map panel: the page's geometries rasterized onto a character canvas
//   - Form panel: name, description and GeoJSON geometry of the draft
//   - Footer: key hints for the focused panel
//
// # Event Flow
//
//  1. Init issues the first page load as a tea.Cmd
//  2. The command runs Engine.Fetch off the event loop and returns a
//     pageLoadedMsg
//  3. Update hands the result to Engine.ApplyPage, which re-renders the
//     screen; stale results are ignored
//  4. Saves and deletes follow the same pattern through Engine.Execute and
//     a mutationDoneMsg, followed by a reload of the current page
//
// Failed saves and deletes surface as a notice modal named after the
// operation. The draft stays in the form so the operator can fix it and
// press ctrl+s again.
//
// # Key Files
//
//   - app.go: Model, Update routing, messages and commands
//   - render.go: header, panels and footer
//   - mapview.go: the map canvas
//   - screen.go: the editor.View implementation and the form inputs
//   - modal.go: notice and activity log dialogs
//   - theme.go, keys.go, help.go: presentation and key bindings
package ui
