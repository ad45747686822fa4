package editor

import (
	"github.com/five82/waypoint/internal/features"
)

// Selection is either unselected or holds one record of the rendered page.
type Selection struct {
	record   features.Record
	selected bool
}

// Unselected returns the empty selection.
func Unselected() Selection {
	return Selection{}
}

// Selected returns a selection holding rec.
func Selected(rec features.Record) Selection {
	return Selection{record: rec, selected: true}
}

// IsSelected reports whether a record is selected.
func (s Selection) IsSelected() bool {
	return s.selected
}

// Record returns the selected record.
func (s Selection) Record() (features.Record, bool) {
	return s.record, s.selected
}

// ID returns the selected id, or zero when unselected.
func (s Selection) ID() features.ID {
	if !s.selected {
		return 0
	}
	return s.record.ID
}

// State is a snapshot of everything the engine tracks.
type State struct {
	CurrentPage int
	PageSize    int

	// Page is the most recently rendered page in server order.
	Page      []features.Record
	Selection Selection
	Draft     Draft
	Query     string
	Hovered   features.ID

	Loading   bool
	Mutating  bool
	LastError error
}

// Offset is the record offset of the current page.
func (s State) Offset() int {
	return s.CurrentPage * s.PageSize
}

// PageRequest identifies one issued page load.
type PageRequest struct {
	Seq    uint64
	Page   int
	Offset int
	Limit  int
}

// PageResult is the outcome of fetching a PageRequest.
type PageResult struct {
	Request PageRequest
	Records []features.Record
	Err     error
}

// MutationKind names the remote call a Mutation performs.
type MutationKind int

const (
	MutationCreate MutationKind = iota + 1
	MutationUpdate
	MutationDelete
)

func (k MutationKind) String() string {
	switch k {
	case MutationCreate:
		return "create"
	case MutationUpdate:
		return "update"
	case MutationDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Mutation is a validated create, update or delete waiting to be executed.
type Mutation struct {
	Kind    MutationKind
	ID      features.ID
	Payload features.Payload
}

// MutationResult is the outcome of executing a Mutation.
type MutationResult struct {
	Mutation Mutation
	Record   features.Record
	Err      error
}

func clonePage(page []features.Record) []features.Record {
	if len(page) == 0 {
		return nil
	}
	dup := make([]features.Record, len(page))
	copy(dup, page)
	return dup
}
