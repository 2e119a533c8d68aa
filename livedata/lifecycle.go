// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package livedata

import (
	"context"
	"fmt"
	"sync"
)

// State of a Lifecycle. States are ordered: an owner is "at least started"
// when its state is Started or Resumed.
type State int

const (
	Destroyed State = iota
	Initialized
	Created
	Started
	Resumed
)

func (s State) String() string {
	switch s {
	case Destroyed:
		return "destroyed"
	case Initialized:
		return "initialized"
	case Created:
		return "created"
	case Started:
		return "started"
	case Resumed:
		return "resumed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// AtLeast reports whether s is the same as or later than other.
func (s State) AtLeast(other State) bool {
	return s >= other
}

// Owner is anything that has a Lifecycle, e.g. a screen or a request scope.
type Owner interface {
	Lifecycle() *Lifecycle
}

// Lifecycle tracks the state of an owning scope. Observers registered
// through Value.Observe are active while the lifecycle is at least Started
// and are removed when it is destroyed. Destroyed is terminal.
type Lifecycle struct {
	mu        sync.Mutex
	opts      options
	state     State
	nextID    uint64
	listeners map[uint64]func(State)
	order     []uint64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewLifecycle creates a lifecycle in the Initialized state.
func NewLifecycle(opts ...Option) *Lifecycle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Lifecycle{
		opts:      newOptions(opts),
		state:     Initialized,
		listeners: make(map[uint64]func(State)),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// LifecycleFromContext creates a Resumed lifecycle that is destroyed
// when 'ctx' is cancelled.
func LifecycleFromContext(ctx context.Context, opts ...Option) *Lifecycle {
	l := NewLifecycle(opts...)
	l.SetState(Resumed)
	go func() {
		select {
		case <-ctx.Done():
			l.Destroy()
		case <-l.ctx.Done():
		}
	}()
	return l
}

// Lifecycle implements Owner.
func (l *Lifecycle) Lifecycle() *Lifecycle {
	return l
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Context returns a context that is cancelled when the lifecycle is destroyed.
func (l *Lifecycle) Context() context.Context {
	return l.ctx
}

// SetState moves the lifecycle to 'state' and notifies the bound observers.
// Transitions out of Destroyed are ignored.
func (l *Lifecycle) SetState(state State) {
	l.mu.Lock()
	from := l.state
	if from == Destroyed || from == state {
		l.mu.Unlock()
		return
	}
	l.state = state
	ids := append([]uint64(nil), l.order...)
	l.mu.Unlock()

	l.opts.debug(logMsgLifecycleMoved, logAttrFrom, from.String(), logAttrTo, state.String())

	for _, id := range ids {
		l.mu.Lock()
		fn, ok := l.listeners[id]
		// Stop early if a listener moved the lifecycle further.
		stale := l.state != state
		l.mu.Unlock()
		if stale {
			break
		}
		if ok {
			fn(state)
		}
	}

	if state == Destroyed {
		l.cancel()
	}
}

// Destroy moves the lifecycle to Destroyed.
func (l *Lifecycle) Destroy() {
	l.SetState(Destroyed)
}

// addListener registers 'fn' to be called on each state change. The returned
// function removes it and may be called from within 'fn'.
func (l *Lifecycle) addListener(fn func(State)) (remove func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.order = append(l.order, id)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.listeners[id]; !ok {
			return
		}
		delete(l.listeners, id)
		for i, other := range l.order {
			if other == id {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
}

func (l *Lifecycle) listenerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.listeners)
}
