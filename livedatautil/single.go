// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package livedatautil

import (
	"sync"

	"github.com/joamaki/livedata/livedata"
)

// SingleCallUnsafe calls 'fn' with the first value delivered by 'src' and
// then unsubscribes. The subscription is not bound to any lifecycle: if 'src'
// never gets a value, the subscription stays until 'src' is dropped.
//
// The subscription is always removed before 'fn' runs. If 'src' already
// holds a value, 'fn' is called with it before SingleCallUnsafe returns.
func SingleCallUnsafe[T any](src livedata.Value[T], fn livedata.Observer[T]) {
	o := &oneShot[T]{src: src, fn: fn}
	o.attach(src.ObserveForever(o.onChanged))
}

// SingleCall calls 'fn' with the first value delivered by 'src' while
// 'owner' is started and then unsubscribes. If the owner is destroyed first,
// the subscription is removed and 'fn' is never called.
func SingleCall[T any](owner livedata.Owner, src livedata.Value[T], fn livedata.Observer[T]) {
	o := &oneShot[T]{src: src, fn: fn}
	o.attach(src.Observe(owner, o.onChanged))
}

// oneShot removes its own subscription on the first delivery, before calling
// 'fn'. A value delivered before the handle is known, e.g. the current value
// delivered while still subscribing, is held until attach, which removes the
// subscription and then calls 'fn'.
type oneShot[T any] struct {
	mu    sync.Mutex
	src   livedata.Value[T]
	fn    livedata.Observer[T]
	sub   *livedata.Subscription
	fired bool

	held    T
	holding bool
}

func (o *oneShot[T]) attach(sub *livedata.Subscription) {
	o.mu.Lock()
	o.sub = sub
	v, holding := o.held, o.holding
	o.holding = false
	o.mu.Unlock()

	if holding {
		o.src.RemoveObserver(sub)
		o.fn(v)
	}
}

func (o *oneShot[T]) onChanged(v T) {
	o.mu.Lock()
	if o.fired {
		o.mu.Unlock()
		return
	}
	o.fired = true
	sub := o.sub
	if sub == nil {
		o.held, o.holding = v, true
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	o.src.RemoveObserver(sub)
	o.fn(v)
}
