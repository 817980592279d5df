// Package event provides a small typed publish/subscribe primitive.
//
// Stateful game objects (the rules engine, rooms) announce lifecycle
// transitions through an Emitter instead of holding references to their
// observers. Each component declares its own event type, so the outward
// contract of a state machine stays a closed, checkable vocabulary rather
// than a string-keyed bag.
//
// Delivery is synchronous and in subscription order: Emit invokes every
// live handler on the calling goroutine before returning. Handlers must not
// call back into the emitting object while it holds its own lock.
package event

import "sync"

// Emitter fans a single event type out to subscribed handlers.
// The zero value is ready to use.
type Emitter[T any] struct {
	mu      sync.Mutex
	nextID  int
	order   []int
	closed  bool
	handler map[int]func(T)
}

// Subscribe registers fn and returns a cancel function that detaches it.
// Cancel is safe to call more than once.
func (e *Emitter[T]) Subscribe(fn func(T)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handler == nil {
		e.handler = make(map[int]func(T))
	}
	id := e.nextID
	e.nextID++
	e.handler[id] = fn
	e.order = append(e.order, id)

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.handler, id)
	}
}

// Emit delivers ev to every subscribed handler in subscription order.
// Emitting on a closed emitter is a no-op.
func (e *Emitter[T]) Emit(ev T) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	fns := make([]func(T), 0, len(e.handler))
	for _, id := range e.order {
		if fn, ok := e.handler[id]; ok {
			fns = append(fns, fn)
		}
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Close detaches all handlers and drops any further events. Idempotent.
func (e *Emitter[T]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.handler = nil
	e.order = nil
}
