package FlowModel

import (
	"errors"
	"fmt"
	"sync"
)

var ErrExpiredHandle = errors.New("flow model handle has expired")

// Registry owns flow models on behalf of the utilities that refer back to
// them through a Handle
type Registry struct {
	mu     sync.RWMutex
	models map[uint64]*FlowModel
	next   uint64
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[uint64]*FlowModel)}
}

var DefaultRegistry = NewRegistry()

// Handle refers to a flow model without keeping it alive
type Handle struct {
	registry *Registry
	id       uint64
}

func (r *Registry) Register(fm *FlowModel) (h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.models[r.next] = fm
	h = Handle{registry: r, id: r.next}
	return
}

// Release drops the model, every handle to it expires
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.models, h.id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

func (h Handle) Resolve() (fm *FlowModel, err error) {
	if h.registry == nil {
		return nil, fmt.Errorf("zero handle: %w", ErrExpiredHandle)
	}
	h.registry.mu.RLock()
	defer h.registry.mu.RUnlock()
	var ok bool
	if fm, ok = h.registry.models[h.id]; !ok {
		err = fmt.Errorf("handle %d: %w", h.id, ErrExpiredHandle)
	}
	return
}

// MustResolve panics on an expired handle
func (h Handle) MustResolve() *FlowModel {
	fm, err := h.Resolve()
	if err != nil {
		panic(err)
	}
	return fm
}
