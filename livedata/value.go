// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package livedata

import (
	"sync"

	"github.com/google/uuid"
)

// Observer is called with each value delivered to a subscription.
type Observer[T any] func(T)

// Value is an observable holder of a current value.
//
// Observers are called synchronously from the goroutine that sets the value,
// without any locks held, so they may remove themselves or set other values.
// Observers of one value are never called concurrently. An observer never
// receives the same version of a value twice.
type Value[T any] interface {
	// Get returns the current value and whether a value has ever been set.
	Get() (T, bool)

	// ObserveForever subscribes 'obs' until it is explicitly removed. The
	// current value, if any, is delivered before ObserveForever returns,
	// unless another goroutine is dispatching, in which case it delivers it.
	ObserveForever(obs Observer[T]) *Subscription

	// Observe subscribes 'obs' for as long as the owner's lifecycle lives.
	// Values are delivered only while the owner is at least Started; the
	// latest value is delivered when it becomes so. The subscription is
	// removed when the owner is destroyed. Observing with a destroyed owner
	// is a no-op.
	Observe(owner Owner, obs Observer[T]) *Subscription

	// RemoveObserver removes the subscription. Removing an unknown or
	// already removed subscription does nothing.
	RemoveObserver(sub *Subscription)

	// HasObservers reports whether there are any subscriptions.
	HasObservers() bool

	// HasActiveObservers reports whether there are subscriptions that
	// currently receive values.
	HasActiveObservers() bool
}

// Subscription is the handle returned when subscribing to a Value.
type Subscription struct {
	id uuid.UUID
}

func newSubscription() *Subscription {
	return &Subscription{id: uuid.New()}
}

// ID identifies the subscription in log messages.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

func (s *Subscription) String() string {
	return s.id.String()
}

const noVersion = -1

type binding[T any] struct {
	sub         *Subscription
	observer    Observer[T]
	active      bool
	attached    bool
	lastVersion int

	// removeListener detaches from the owner's lifecycle, nil for
	// subscriptions made with ObserveForever.
	removeListener func()
}

// Mutable is a Value that can be set directly.
type Mutable[T any] struct {
	mu   sync.Mutex
	opts options

	value   T
	version int

	bindings    []*binding[T]
	bySub       map[*Subscription]*binding[T]
	activeCount int

	dispatching bool
	invalidated bool

	// onActive and onInactive are called when the number of active
	// observers changes from zero to one and back.
	onActive   func()
	onInactive func()
}

var _ Value[int] = &Mutable[int]{}

// NewMutable creates a Mutable without a value.
func NewMutable[T any](opts ...Option) *Mutable[T] {
	return &Mutable[T]{
		opts:    newOptions(opts),
		version: noVersion,
		bySub:   make(map[*Subscription]*binding[T]),
	}
}

// NewMutableWith creates a Mutable holding 'init'.
func NewMutableWith[T any](init T, opts ...Option) *Mutable[T] {
	m := NewMutable[T](opts...)
	m.value = init
	m.version = 0
	return m
}

func (m *Mutable[T]) Get() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.version != noVersion
}

// Set sets the value and delivers it to the active observers.
// If called while the value is being dispatched, for example from within an
// observer, the ongoing dispatch restarts with the new value.
func (m *Mutable[T]) Set(v T) {
	m.mu.Lock()
	m.value = v
	m.version++
	m.mu.Unlock()
	m.dispatch(nil)
}

func (m *Mutable[T]) ObserveForever(obs Observer[T]) *Subscription {
	b := m.attach(obs)
	m.opts.debug(logMsgObserverAdded, logAttrSubscription, b.sub.String(), logAttrMode, "forever")
	m.setActive(b, true)
	return b.sub
}

func (m *Mutable[T]) Observe(owner Owner, obs Observer[T]) *Subscription {
	lc := owner.Lifecycle()
	if lc.State() == Destroyed {
		sub := newSubscription()
		m.opts.debug(logMsgObserverIgnored, logAttrSubscription, sub.String())
		return sub
	}

	b := m.attach(obs)
	m.opts.debug(logMsgObserverAdded, logAttrSubscription, b.sub.String(), logAttrMode, "owned")
	remove := lc.addListener(func(state State) {
		if state == Destroyed {
			m.RemoveObserver(b.sub)
			return
		}
		m.setActive(b, state.AtLeast(Started))
	})

	m.mu.Lock()
	attached := b.attached
	if attached {
		b.removeListener = remove
	}
	m.mu.Unlock()
	if !attached {
		remove()
		return b.sub
	}

	// The owner may have been destroyed while we were registering.
	state := lc.State()
	if state == Destroyed {
		m.RemoveObserver(b.sub)
		return b.sub
	}
	m.setActive(b, state.AtLeast(Started))
	return b.sub
}

func (m *Mutable[T]) RemoveObserver(sub *Subscription) {
	m.mu.Lock()
	b, ok := m.bySub[sub]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.bySub, sub)
	for i, other := range m.bindings {
		if other == b {
			m.bindings = append(m.bindings[:i:i], m.bindings[i+1:]...)
			break
		}
	}
	b.attached = false
	remove := b.removeListener
	b.removeListener = nil
	becameInactive := false
	if b.active {
		b.active = false
		m.activeCount--
		becameInactive = m.activeCount == 0
	}
	onInactive := m.onInactive
	m.mu.Unlock()

	m.opts.debug(logMsgObserverRemoved, logAttrSubscription, sub.String())

	if remove != nil {
		remove()
	}
	if becameInactive && onInactive != nil {
		onInactive()
	}
}

func (m *Mutable[T]) HasObservers() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bindings) > 0
}

func (m *Mutable[T]) HasActiveObservers() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeCount > 0
}

func (m *Mutable[T]) attach(obs Observer[T]) *binding[T] {
	b := &binding[T]{
		sub:         newSubscription(),
		observer:    obs,
		attached:    true,
		lastVersion: noVersion,
	}
	m.mu.Lock()
	m.bindings = append(m.bindings, b)
	m.bySub[b.sub] = b
	m.mu.Unlock()
	return b
}

// setActive changes the activity of a binding. A binding that becomes active
// is given the current value if it has not seen it yet.
func (m *Mutable[T]) setActive(b *binding[T], active bool) {
	m.mu.Lock()
	if !b.attached || b.active == active {
		m.mu.Unlock()
		return
	}
	b.active = active
	var hook func()
	if active {
		m.activeCount++
		if m.activeCount == 1 {
			hook = m.onActive
		}
	} else {
		m.activeCount--
		if m.activeCount == 0 {
			hook = m.onInactive
		}
	}
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if active {
		m.dispatch(b)
	}
}

// dispatch delivers the current value to 'only', or to all bindings if
// 'only' is nil. Only one dispatch runs at a time; a dispatch requested while
// one is running invalidates it and the running one restarts over all
// bindings.
func (m *Mutable[T]) dispatch(only *binding[T]) {
	m.mu.Lock()
	if m.dispatching {
		m.invalidated = true
		m.mu.Unlock()
		return
	}
	m.dispatching = true
	defer func() {
		m.dispatching = false
		m.mu.Unlock()
	}()

	var targets []*binding[T]
	for {
		m.invalidated = false
		if only != nil {
			targets = append(targets[:0], only)
			only = nil
		} else {
			targets = append(targets[:0], m.bindings...)
		}

		for _, b := range targets {
			if !b.attached || !b.active || b.lastVersion >= m.version {
				continue
			}
			b.lastVersion = m.version
			m.deliver(b, m.value)
			if m.invalidated {
				break
			}
		}

		if !m.invalidated {
			break
		}
		m.opts.debug(logMsgDispatchRestarted)
	}
}

// deliver calls the observer with the lock released. The lock is held again
// when it returns, also when the observer panics.
func (m *Mutable[T]) deliver(b *binding[T], value T) {
	m.mu.Unlock()
	defer m.mu.Lock()
	b.observer(value)
}
