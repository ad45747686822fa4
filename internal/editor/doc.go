// Package editor implements the state machine behind the waypoint editor: it
// keeps the list panel, the map overlay and the edit form consistent with one
// remote record set across pagination, selection, search and saves.
//
// # Overview
//
// The Engine owns a single State value (current page, rendered records,
// selection, draft, search query) and mutates it only through named
// operations. Rendering is delegated to a View implementation; the Engine
// never draws anything itself.
//
//	LoadPage(n) ──► Fetch (RecordClient.List) ──► ApplyPage ──► View.RenderList
//	                                                          └► View.RenderOverlay
//	ListItem.OnClick / OverlayFeature.OnClick ──► Select ──► View.SetDraft
//	Submit / Delete ──► Execute (Create/Update/Delete) ──► ApplyMutation
//	                                                      └► ReloadCurrent, Clear
//
// # Event Loop Contract
//
// Every method except Fetch and Execute must run on the single event loop
// (the Bubble Tea Update function in internal/ui). Fetch and Execute only
// call the RecordClient and are meant to run inside tea.Cmd goroutines;
// their results come back as messages and are applied on the loop.
//
// # Ordering
//
// Each LoadPage call bumps a sequence number. ApplyPage discards any result
// whose sequence is not the latest with ErrStaleResponse, so the rendered
// page always matches the most recently requested page even when responses
// arrive out of order.
//
// # Failure Handling
//
//   - Page load failure: View.RenderListError; the last good list and the
//     overlay stay as they were.
//   - Save or delete failure: View.Notify; selection and draft are kept so
//     the operator can retry.
//   - Unparsable geometry: *ValidationError from Submit; nothing is sent.
//   - Delete with nothing selected: no mutation, no remote call.
//
// # Search
//
// Filter matches the query against each item's name and description
// ("No description" when blank), ignoring case. Only the list is filtered;
// the overlay keeps showing the whole page. A successful page load resets
// the filter.
package editor
