// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package livedata

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type Observable[T any] interface {
	// Observe starts observing a stream of T's.
	// 'next' is called on each element sequentially. If it returns an error the stream closes
	// and this error is returned by Observe().
	// When 'ctx' is cancelled the stream closes and ctx.Err() is returned.
	//
	// 'next' is called from the goroutine that called Observe(), not from the
	// goroutine that set the value.
	Observe(ctx context.Context, next func(T) error) error
}

// FuncObservable wraps a function that implements Observe. Convenience when declaring
// a struct to implement Observe() is overkill.
type FuncObservable[T any] func(context.Context, func(T) error) error

func (f FuncObservable[T]) Observe(ctx context.Context, next func(T) error) error {
	return f(ctx, next)
}

// Stream converts a Value into an Observable. Each Observe() subscribes to
// 'src' for as long as it runs and removes the subscription when it returns.
//
// Values set faster than 'next' consumes them are conflated: 'next' always
// sees the latest value, but not necessarily every intermediate one.
func Stream[T any](src Value[T]) Observable[T] {
	return FuncObservable[T](
		func(ctx context.Context, next func(T) error) error {
			var (
				mu      sync.Mutex
				latest  T
				pending bool
			)
			wake := make(chan struct{}, 1)

			sub := src.ObserveForever(func(v T) {
				mu.Lock()
				latest, pending = v, true
				mu.Unlock()
				select {
				case wake <- struct{}{}:
				default:
				}
			})
			defer src.RemoveObserver(sub)

			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-wake:
					mu.Lock()
					item, ok := latest, pending
					pending = false
					mu.Unlock()
					if !ok {
						continue
					}
					if err := next(item); err != nil {
						return err
					}
				}
			}
		})
}

// First returns the first value of 'src', waiting for one to be set if
// needed. The error is non-nil only if 'ctx' is done before a value arrives.
func First[T any](ctx context.Context, src Value[T]) (item T, err error) {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	received := false
	err = Stream(src).Observe(subCtx,
		func(x T) error {
			item = x
			received = true
			cancel()
			return nil
		})
	if received {
		return item, nil
	}
	return item, fmt.Errorf("livedata: waiting for first value: %w", err)
}

// ToSlice collects the values observed from 'src' until 'ctx' is done.
// A cancelled or expired context is not an error.
func ToSlice[T any](ctx context.Context, src Observable[T]) (items []T, err error) {
	items = make([]T, 0)
	err = src.Observe(
		ctx,
		func(item T) error {
			items = append(items, item)
			return nil
		})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return
}
