package editor

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/five82/waypoint/internal/features"
	"github.com/five82/waypoint/internal/geo"
)

// DefaultPageSize is the number of records per page when none is configured.
const DefaultPageSize = 50

// Options configures an Engine.
type Options struct {
	Client   features.RecordClient
	View     View
	PageSize int
	Logger   *zerolog.Logger
}

// Engine keeps the list panel, map overlay and edit form consistent with the
// remote record set. It is not safe for concurrent use: every method except
// Fetch and Execute must be called from the single event loop.
type Engine struct {
	client   features.RecordClient
	view     View
	pageSize int
	log      zerolog.Logger

	state State
	seq   uint64
	items []ListItem
	index map[features.ID]int
}

// New builds an Engine. Client and View are required.
func New(opts Options) (*Engine, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("record client is nil")
	}
	if opts.View == nil {
		return nil, fmt.Errorf("view is nil")
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "editor").Logger()
	}
	return &Engine{
		client:   opts.Client,
		view:     opts.View,
		pageSize: pageSize,
		log:      logger,
		state:    State{PageSize: pageSize},
		index:    make(map[features.ID]int),
	}, nil
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	snap := e.state
	snap.Page = clonePage(e.state.Page)
	return snap
}

// LoadPage makes n the current page and issues a request for it. Negative
// pages are clamped to zero. The request must be passed to Fetch and its
// result to ApplyPage.
func (e *Engine) LoadPage(n int) PageRequest {
	if n < 0 {
		n = 0
	}
	e.seq++
	e.state.CurrentPage = n
	e.state.Loading = true
	req := PageRequest{
		Seq:    e.seq,
		Page:   n,
		Offset: e.state.Offset(),
		Limit:  e.pageSize,
	}
	e.log.Debug().Uint64("seq", req.Seq).Int("page", n).Int("offset", req.Offset).Msg("page requested")
	return req
}

// ReloadCurrent reissues the current page.
func (e *Engine) ReloadCurrent() PageRequest {
	return e.LoadPage(e.state.CurrentPage)
}

// Fetch performs the list call for req. It touches no engine state and may
// run off the event loop.
func (e *Engine) Fetch(ctx context.Context, req PageRequest) PageResult {
	records, err := e.client.List(ctx, req.Offset, req.Limit)
	return PageResult{Request: req, Records: records, Err: err}
}

// ApplyPage renders a fetched page. Results of superseded requests are
// dropped with ErrStaleResponse. A failed load keeps the last rendered list
// and overlay and shows the error inline.
func (e *Engine) ApplyPage(res PageResult) error {
	if res.Request.Seq != e.seq {
		e.log.Debug().
			Uint64("seq", res.Request.Seq).
			Uint64("latest", e.seq).
			Msg("dropping stale page")
		return ErrStaleResponse
	}
	e.state.Loading = false

	if res.Err != nil {
		e.state.LastError = res.Err
		e.log.Warn().Err(res.Err).Int("page", res.Request.Page).Msg("page load failed")
		e.view.RenderListError(res.Err)
		return fmt.Errorf("load page %d: %w", res.Request.Page, res.Err)
	}
	e.state.LastError = nil
	e.render(res.Records)
	e.log.Debug().
		Uint64("seq", res.Request.Seq).
		Int("page", res.Request.Page).
		Int("records", len(res.Records)).
		Msg("page rendered")
	return nil
}

// Sync loads page n and renders it without an event loop.
func (e *Engine) Sync(ctx context.Context, n int) error {
	return e.ApplyPage(e.Fetch(ctx, e.LoadPage(n)))
}

func (e *Engine) render(records []features.Record) {
	page := clonePage(records)
	items := make([]ListItem, 0, len(page))
	overlay := make([]OverlayFeature, 0, len(page))
	shapes := make([]orb.Geometry, 0, len(page))
	index := make(map[features.ID]int, len(page))

	for i, rec := range page {
		rec := rec
		id := rec.ID
		index[id] = i
		items = append(items, ListItem{
			ID:      id,
			Record:  rec,
			OnClick: func() error { return e.Select(rec) },
		})
		shape := rec.Shape()
		overlay = append(overlay, OverlayFeature{
			ID:          id,
			Name:        rec.Name,
			Description: rec.DisplayDescription(),
			Geometry:    shape,
			OnHoverIn:   func() { e.HoverIn(id) },
			OnHoverOut:  func() { e.HoverOut(id) },
			OnClick:     func() error { return e.Select(rec) },
		})
		shapes = append(shapes, shape)
	}

	e.state.Page = page
	e.state.Query = ""
	e.state.Hovered = 0
	e.items = items
	e.index = index

	e.view.RenderList(items)
	e.view.RenderOverlay(overlay)
	if len(page) > 0 {
		if b, ok := geo.Bound(shapes...); ok {
			e.view.FitBounds(b)
		}
	}

	if !e.state.Selection.IsSelected() {
		return
	}
	if i, ok := index[e.state.Selection.ID()]; ok {
		e.state.Selection = Selected(page[i])
		e.restyle()
		return
	}
	e.log.Debug().Stringer("id", e.state.Selection.ID()).Msg("selection left the page")
	e.Clear()
}

// Select makes rec the selection, loads it into the form and highlights it.
func (e *Engine) Select(rec features.Record) error {
	i, ok := e.index[rec.ID]
	if !ok || len(e.state.Page) == 0 {
		return fmt.Errorf("select %s: %w", rec.ID, ErrNotOnPage)
	}
	current := e.state.Page[i]
	e.state.Selection = Selected(current)
	e.state.Draft = Draft{
		Name:         current.Name,
		Description:  current.Description,
		GeometryText: geo.FormatGeometry(current.Geometry),
	}
	e.view.SetDraft(e.state.Draft)
	e.view.SetDeleteVisible(true)
	e.restyle()
	e.log.Debug().Stringer("id", current.ID).Str("name", current.Name).Msg("record selected")
	return nil
}

// Clear drops the selection and empties the form.
func (e *Engine) Clear() {
	e.state.Selection = Unselected()
	e.state.Draft = Draft{}
	e.view.SetDraft(Draft{})
	e.view.SetDeleteVisible(false)
	e.restyle()
}

// HoverIn highlights a feature temporarily.
func (e *Engine) HoverIn(id features.ID) {
	if _, ok := e.index[id]; !ok {
		return
	}
	e.state.Hovered = id
	e.view.SetFeatureStyle(id, StyleHover)
}

// HoverOut restores a feature's resting style.
func (e *Engine) HoverOut(id features.ID) {
	if _, ok := e.index[id]; !ok {
		return
	}
	if e.state.Hovered == id {
		e.state.Hovered = 0
	}
	e.view.SetFeatureStyle(id, e.restingStyle(id))
}

func (e *Engine) restingStyle(id features.ID) Style {
	if e.state.Selection.IsSelected() && e.state.Selection.ID() == id {
		return StyleSelected
	}
	return StyleDefault
}

// restyle resets every feature, not just the previous selection, since any
// feature may still carry a hover style.
func (e *Engine) restyle() {
	for _, rec := range e.state.Page {
		e.view.SetFeatureStyle(rec.ID, e.restingStyle(rec.ID))
	}
}

// Submit validates d and turns it into a create (nothing selected) or an
// update of the selected record. The draft is kept either way so a failed
// save can be retried.
func (e *Engine) Submit(d Draft) (Mutation, error) {
	e.state.Draft = d
	if e.state.Mutating {
		return Mutation{}, ErrMutationInFlight
	}
	g, err := geo.ParseGeometry(d.GeometryText)
	if err != nil {
		return Mutation{}, &ValidationError{Field: "geometry", Err: err}
	}
	m := Mutation{
		Kind: MutationCreate,
		Payload: features.Payload{
			Name:        d.Name,
			Description: d.Description,
			Geometry:    g,
		},
	}
	if sel, ok := e.state.Selection.Record(); ok {
		m.Kind = MutationUpdate
		m.ID = sel.ID
	}
	e.state.Mutating = true
	e.log.Info().Stringer("kind", m.Kind).Stringer("id", m.ID).Str("name", d.Name).Msg("saving record")
	return m, nil
}

// Delete builds a delete of the selected record. It reports false, and no
// remote call must be made, when nothing is selected or a save is pending.
func (e *Engine) Delete() (Mutation, bool) {
	sel, ok := e.state.Selection.Record()
	if !ok {
		return Mutation{}, false
	}
	if e.state.Mutating {
		e.log.Debug().Stringer("id", sel.ID).Msg("delete ignored while saving")
		return Mutation{}, false
	}
	e.state.Mutating = true
	e.log.Info().Stringer("id", sel.ID).Msg("deleting record")
	return Mutation{Kind: MutationDelete, ID: sel.ID}, true
}

// Execute performs the remote call for m. It touches no engine state and may
// run off the event loop.
func (e *Engine) Execute(ctx context.Context, m Mutation) MutationResult {
	res := MutationResult{Mutation: m}
	switch m.Kind {
	case MutationCreate:
		res.Record, res.Err = e.client.Create(ctx, m.Payload)
	case MutationUpdate:
		res.Record, res.Err = e.client.Update(ctx, m.ID, m.Payload)
	case MutationDelete:
		res.Err = e.client.Delete(ctx, m.ID)
	default:
		res.Err = fmt.Errorf("unknown mutation kind %d", m.Kind)
	}
	return res
}

// ApplyMutation finishes a save or delete. On success it reloads the current
// page and then clears the selection, returning the reload request. On
// failure the operator is notified and selection and draft are left intact.
func (e *Engine) ApplyMutation(res MutationResult) (PageRequest, error) {
	e.state.Mutating = false
	if res.Err != nil {
		e.log.Warn().Err(res.Err).Stringer("kind", res.Mutation.Kind).Stringer("id", res.Mutation.ID).Msg("save failed")
		err := &MutationError{Kind: res.Mutation.Kind, ID: res.Mutation.ID, Err: res.Err}
		e.view.Notify(err)
		return PageRequest{}, err
	}
	id := res.Mutation.ID
	if id.IsZero() {
		id = res.Record.ID
	}
	e.log.Info().Stringer("kind", res.Mutation.Kind).Stringer("id", id).Msg("record saved")
	req := e.ReloadCurrent()
	e.Clear()
	return req, nil
}

// Filter shows the list items whose text contains query, ignoring case, and
// hides the rest. The overlay is not filtered. It returns the visible count.
func (e *Engine) Filter(query string) int {
	e.state.Query = query
	visible := 0
	for _, item := range e.items {
		ok := matchesQuery(item, query)
		if ok {
			visible++
		}
		e.view.SetItemVisible(item.ID, ok)
	}
	return visible
}
