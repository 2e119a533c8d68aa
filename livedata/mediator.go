// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package livedata

import (
	"errors"
	"sync"
)

// ErrSourceAlreadyAdded is returned by AddSource when the source is
// already feeding the mediator.
var ErrSourceAlreadyAdded = errors.New("livedata: source already added to mediator")

// mediatorSource is a source of a Mediator with its element type erased.
// plug and unplug are only called by the goroutine running reconcile.
type mediatorSource interface {
	plug(o *options)
	unplug(o *options)
}

type source[S any] struct {
	value    Value[S]
	observer Observer[S]
	sub      *Subscription
}

func (s *source[S]) plug(o *options) {
	if s.sub == nil {
		o.debug(logMsgSourcePlugged)
		s.sub = s.value.ObserveForever(s.observer)
	}
}

func (s *source[S]) unplug(o *options) {
	if s.sub != nil {
		o.debug(logMsgSourceUnplugged)
		s.value.RemoveObserver(s.sub)
		s.sub = nil
	}
}

// Mediator is a Mutable whose value is derived from other values. The
// sources are observed only while the mediator has active observers.
type Mediator[T any] struct {
	*Mutable[T]

	srcMu   sync.Mutex
	sources map[any]mediatorSource
	order   []any
	removed []mediatorSource

	// reconciling is set while a goroutine plugs or unplugs sources.
	// Requests arriving meanwhile set pending and are picked up by it.
	reconciling bool
	pending     bool
}

// NewMediator creates a mediator without sources.
func NewMediator[T any](opts ...Option) *Mediator[T] {
	m := &Mediator[T]{
		Mutable: NewMutable[T](opts...),
		sources: make(map[any]mediatorSource),
	}
	m.Mutable.onActive = m.reconcile
	m.Mutable.onInactive = m.reconcile
	return m
}

// AddSource starts feeding 'm' from 'src': 'obs' is called with each value
// of 'src' while 'm' has active observers and typically sets the mediator.
// Adding a source that is already added returns ErrSourceAlreadyAdded,
// whatever the observer.
func AddSource[T, S any](m *Mediator[T], src Value[S], obs Observer[S]) error {
	s := &source[S]{value: src, observer: obs}

	m.srcMu.Lock()
	if _, ok := m.sources[src]; ok {
		m.srcMu.Unlock()
		return ErrSourceAlreadyAdded
	}
	m.sources[src] = s
	m.order = append(m.order, src)
	m.srcMu.Unlock()

	m.reconcile()
	return nil
}

// RemoveSource stops feeding 'm' from 'src'.
func RemoveSource[T, S any](m *Mediator[T], src Value[S]) {
	m.srcMu.Lock()
	s, ok := m.sources[src]
	if ok {
		delete(m.sources, src)
		for i, other := range m.order {
			if other == any(src) {
				m.order = append(m.order[:i:i], m.order[i+1:]...)
				break
			}
		}
		m.removed = append(m.removed, s)
	}
	m.srcMu.Unlock()

	if ok {
		m.reconcile()
	}
}

// reconcile plugs all sources if the mediator has active observers and
// unplugs them otherwise. Only one goroutine reconciles at a time; a request
// made meanwhile, from another goroutine or from an observer called while
// plugging, makes it run again with the then current activity.
func (m *Mediator[T]) reconcile() {
	m.srcMu.Lock()
	if m.reconciling {
		m.pending = true
		m.srcMu.Unlock()
		return
	}
	m.reconciling = true
	m.srcMu.Unlock()

	finished := false
	defer func() {
		// A source observer panicked.
		if !finished {
			m.srcMu.Lock()
			m.reconciling = false
			m.srcMu.Unlock()
		}
	}()

	for {
		m.srcMu.Lock()
		m.pending = false
		sources := make([]mediatorSource, 0, len(m.order))
		for _, key := range m.order {
			sources = append(sources, m.sources[key])
		}
		removed := m.removed
		m.removed = nil
		m.srcMu.Unlock()

		active := m.HasActiveObservers()
		for _, s := range removed {
			s.unplug(&m.opts)
		}
		for _, s := range sources {
			if active {
				s.plug(&m.opts)
			} else {
				s.unplug(&m.opts)
			}
		}

		m.srcMu.Lock()
		if !m.pending {
			m.reconciling = false
			finished = true
			m.srcMu.Unlock()
			return
		}
		m.srcMu.Unlock()
	}
}
