// Package logtail reads the tail of the editor's log file and renders its
// zerolog JSON lines for the activity log modal.
//
// # Reading Log Files
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays
// bounded no matter how large the file has grown. Lines longer than 1 MiB
// abort the read with an error. A missing file is not an error: the editor
// may not have logged anything yet.
//
// # Formatting
//
// Format turns one JSON line into
//
//	2026-01-02 15:04:05 WARN [editor] – page load failed page=1 error=boom
//
// with extra fields sorted by key and the error last. Lines that are not JSON
// are shown as they are.
package logtail
