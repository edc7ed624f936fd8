// Package entity implements the observable entity core shared by every
// site/panel/device node: a raw attribute map, a typed view derived from
// it, and a per-event listener table.
//
// The entity layer is intentionally not goroutine-safe — the whole device
// graph is modeled as cooperative, single-scheduler state, and callers
// (the realtime ingest pipeline, the WS relay) are responsible for
// funneling all mutations for one graph through a single goroutine.
package entity

import "go.uber.org/zap"

// Listener is called with the delta applied by update_data, or with
// whatever payload Emit was given for a non-update event.
type Listener func(payload map[string]any)

// Unsubscribe removes a previously registered listener.
type Unsubscribe func()

// Revalidate rebuilds the typed view from the raw map. It returns an
// error if the raw map no longer matches the schema; the caller keeps the
// stale typed view in that case, so raw and typed are never ahead of each
// other — the typed view may be one revalidation behind.
type Revalidate func(raw map[string]any) (any, error)

// Entity is the generic observable core embedded by every node in the
// site/panel/device tree.
type Entity struct {
	raw        map[string]any
	model      any
	revalidate Revalidate
	listeners  map[string][]Listener
	logger     *zap.Logger
}

// New creates an entity from an initial raw payload. revalidate may be
// nil for entities with no typed view.
func New(raw map[string]any, revalidate Revalidate, logger *zap.Logger) *Entity {
	e := &Entity{
		raw:        cloneMap(raw),
		revalidate: revalidate,
		listeners:  make(map[string][]Listener),
		logger:     logger,
	}
	if revalidate != nil {
		if m, err := revalidate(e.raw); err == nil {
			e.model = m
		} else if logger != nil {
			logger.Warn("initial model decode failed, entity created with nil typed view")
		}
	}
	return e
}

// Raw returns the authoritative attribute map. Callers must not mutate
// the returned map; it is shared with the entity's internal state.
func (e *Entity) Raw() map[string]any { return e.raw }

// Model returns the current typed view, or nil if none has ever decoded
// successfully.
func (e *Entity) Model() any { return e.model }

// UpdateData applies delta to the raw map (merge by default, full
// replacement when override is true), attempts to revalidate the typed
// view, and emits an "update" event carrying delta. Revalidation failure
// is swallowed and logged; the previous typed view is kept.
func (e *Entity) UpdateData(delta map[string]any, override bool) {
	if override {
		e.raw = cloneMap(delta)
	} else {
		for k, v := range delta {
			e.raw[k] = v
		}
	}
	if e.revalidate != nil {
		if m, err := e.revalidate(e.raw); err == nil {
			e.model = m
		} else if e.logger != nil {
			e.logger.Warn("model revalidation failed, keeping stale typed view")
		}
	}
	e.Emit("update", delta)
}

// HandlePush is the default push handler: a non-overriding merge.
func (e *Entity) HandlePush(message map[string]any) {
	e.UpdateData(message, false)
}

// On registers a listener for event, returning an Unsubscribe handle.
// Listeners are invoked in registration order. Unsubscribing during an
// in-flight Emit call takes effect at once: a listener removed before the
// dispatch reaches it is skipped.
func (e *Entity) On(event string, l Listener) Unsubscribe {
	e.listeners[event] = append(e.listeners[event], l)
	idx := len(e.listeners[event]) - 1
	return func() {
		cur := e.listeners[event]
		if idx < len(cur) {
			cur[idx] = nil
		}
	}
}

// Emit dispatches payload synchronously to every listener registered for
// event. A panicking listener is recovered and logged so it cannot starve
// the remaining listeners.
func (e *Entity) Emit(event string, payload map[string]any) {
	for _, l := range e.listeners[event] {
		if l == nil {
			continue
		}
		e.safeInvoke(l, payload)
	}
}

func (e *Entity) safeInvoke(l Listener, payload map[string]any) {
	defer func() {
		if r := recover(); r != nil && e.logger != nil {
			e.logger.Error("entity listener panicked", zap.Any("recovered", r))
		}
	}()
	l(payload)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
