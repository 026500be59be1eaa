// Package collection keeps a local mirror of a remote collection in sync
// through explicit fetch, create, update and delete calls.
package collection

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"

	"dashboard/internal/api"
	"dashboard/internal/session"
)

// Fetcher sends one API request. api.Client satisfies it.
type Fetcher interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// Source reports the session and notifies on changes. session.Controller satisfies it.
type Source interface {
	State() session.State
	Subscribe(fn func(session.State)) (cancel func())
}

var (
	// ErrUnmounted is returned when a response arrives after Unmount.
	ErrUnmounted = errors.New("mirror unmounted")
	// ErrNotMirrored is returned by Update when the server accepted the change
	// but the item is no longer in the mirror.
	ErrNotMirrored = errors.New("item not in mirror")
)

// Status of a mirror.
type Status int

const (
	Loading Status = iota
	Ready
)

func (s Status) String() string {
	if s == Ready {
		return "ready"
	}
	return "loading"
}

// Mirror is the view-model behind a list screen. Every remote failure is
// logged and leaves the mirror as it was; the error is also returned so
// callers can tell a rejected request from a local miss. Mutations are
// applied only after the server confirms them.
type Mirror[T any] struct {
	name     string
	endpoint string
	idOf     func(T) string
	client   Fetcher
	logger   *log.Logger

	mu        sync.Mutex
	items     []T
	status    Status
	unmounted bool
	mountOnce sync.Once
	cancel    func()
}

// New creates a mirror of the collection at endpoint. idOf extracts an item's
// identifier. name prefixes log lines.
func New[T any](name, endpoint string, idOf func(T) string, client Fetcher, logger *log.Logger) *Mirror[T] {
	if logger == nil {
		logger = log.Default()
	}
	return &Mirror[T]{
		name:     name,
		endpoint: endpoint,
		idOf:     idOf,
		client:   client,
		logger:   logger,
		status:   Loading,
	}
}

// Mount fetches the collection once, as soon as src carries an identity.
// If it already does, the fetch happens before Mount returns.
func (m *Mirror[T]) Mount(ctx context.Context, src Source) {
	trigger := func(st session.State) {
		if st.User == nil {
			return
		}
		m.mountOnce.Do(func() { _ = m.Load(ctx) })
	}

	m.mu.Lock()
	m.cancel = src.Subscribe(trigger)
	m.mu.Unlock()

	trigger(src.State())
}

// Unmount stops listening and discards the mirror. Responses still in
// flight are dropped when they arrive.
func (m *Mirror[T]) Unmount() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.unmounted = true
	m.items = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Load replaces the mirror with the server's collection. On failure the
// previous mirror is kept. The status is Ready afterwards in every case.
func (m *Mirror[T]) Load(ctx context.Context) error {
	defer m.setReady()

	var fetched []T
	if err := m.client.Do(ctx, http.MethodGet, m.endpoint, nil, &fetched); err != nil {
		m.logger.Printf("[%s] error fetching: %v", m.name, err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unmounted {
		return ErrUnmounted
	}
	m.items = fetched
	return nil
}

// Create posts input and prepends the item the server returns.
func (m *Mirror[T]) Create(ctx context.Context, input any) (T, error) {
	defer m.setReady()

	var created T
	if err := m.client.Do(ctx, http.MethodPost, m.endpoint, input, &created); err != nil {
		m.logger.Printf("[%s] error adding: %v", m.name, err)
		return created, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unmounted {
		return created, ErrUnmounted
	}
	m.items = append([]T{created}, m.items...)
	return created, nil
}

// Update sends the full representation of item and, once confirmed,
// replaces the matching entry in place. When the server accepts the change
// but the entry has left the mirror meanwhile, it returns ErrNotMirrored.
func (m *Mirror[T]) Update(ctx context.Context, item T) error {
	defer m.setReady()

	id := m.idOf(item)
	if err := m.client.Do(ctx, http.MethodPut, api.ItemPath(m.endpoint, id), item, nil); err != nil {
		m.logger.Printf("[%s] error updating %s: %v", m.name, id, err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unmounted {
		return ErrUnmounted
	}
	for i := range m.items {
		if m.idOf(m.items[i]) == id {
			m.items[i] = item
			return nil
		}
	}
	return ErrNotMirrored
}

// Delete removes the item with id once the server confirms. An id that is
// not mirrored is not an error once the server has deleted it.
func (m *Mirror[T]) Delete(ctx context.Context, id string) error {
	defer m.setReady()

	if err := m.client.Do(ctx, http.MethodDelete, api.ItemPath(m.endpoint, id), nil, nil); err != nil {
		m.logger.Printf("[%s] error deleting %s: %v", m.name, id, err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unmounted {
		return ErrUnmounted
	}
	kept := m.items[:0:0]
	for _, it := range m.items {
		if m.idOf(it) != id {
			kept = append(kept, it)
		}
	}
	m.items = kept
	return nil
}

// Items returns a copy of the mirror in display order.
func (m *Mirror[T]) Items() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]T(nil), m.items...)
}

// Find returns the mirrored item with id.
func (m *Mirror[T]) Find(id string) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if m.idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Status reports whether the first load has finished.
func (m *Mirror[T]) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Mirror[T]) setReady() {
	m.mu.Lock()
	m.status = Ready
	m.mu.Unlock()
}
