// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package livedatautil

import (
	"github.com/joamaki/livedata/livedata"
)

// MapChangeSensitiveAfter returns a value that holds f(x) for each value x
// of 'src', and is only set when f(x) differs from the previously set result.
// 'f' is applied to every value of 'src'.
func MapChangeSensitiveAfter[T any, X comparable](src livedata.Value[T], f func(T) X, opts ...livedata.Option) livedata.Value[X] {
	return MapChangeSensitiveAfterFunc(src, f, equal[X], opts...)
}

// MapChangeSensitiveAfterFunc is MapChangeSensitiveAfter with the results
// compared by 'eq'.
func MapChangeSensitiveAfterFunc[T, X any](src livedata.Value[T], f func(T) X, eq func(a, b X) bool, opts ...livedata.Option) livedata.Value[X] {
	result := livedata.NewMediator[X](opts...)
	filter := &changeFilter[X]{eq: eq}
	mustAddSource(result, src, func(x T) {
		candidate := f(x)
		if filter.changed(candidate) {
			result.Set(candidate)
		}
	})
	return result
}

// MapChangeSensitiveBefore returns a value that holds f(x) for each value x
// of 'src' that differs from the previous one. 'f' is only applied to
// changed values.
func MapChangeSensitiveBefore[T comparable, X any](src livedata.Value[T], f func(T) X, opts ...livedata.Option) livedata.Value[X] {
	return MapChangeSensitiveBeforeFunc(src, f, equal[T], opts...)
}

// MapChangeSensitiveBeforeFunc is MapChangeSensitiveBefore with the source
// values compared by 'eq'.
func MapChangeSensitiveBeforeFunc[T, X any](src livedata.Value[T], f func(T) X, eq func(a, b T) bool, opts ...livedata.Option) livedata.Value[X] {
	result := livedata.NewMediator[X](opts...)
	filter := &changeFilter[T]{eq: eq}
	mustAddSource(result, src, func(x T) {
		if filter.changed(x) {
			result.Set(f(x))
		}
	})
	return result
}

// ChangeSensitive returns a value that follows 'src' but skips values equal
// to the previous one.
func ChangeSensitive[T comparable](src livedata.Value[T], opts ...livedata.Option) livedata.Value[T] {
	return ChangeSensitiveFunc(src, equal[T], opts...)
}

// ChangeSensitiveFunc is ChangeSensitive with the values compared by 'eq'.
func ChangeSensitiveFunc[T any](src livedata.Value[T], eq func(a, b T) bool, opts ...livedata.Option) livedata.Value[T] {
	result := livedata.NewMediator[T](opts...)
	filter := &changeFilter[T]{eq: eq}
	mustAddSource(result, src, func(x T) {
		if filter.changed(x) {
			result.Set(x)
		}
	})
	return result
}

// changeFilter remembers the last value it let through. The first value
// always passes, including a zero value.
type changeFilter[V any] struct {
	eq          func(a, b V) bool
	previous    V
	hasPrevious bool
}

func (c *changeFilter[V]) changed(v V) bool {
	if c.hasPrevious && c.eq(c.previous, v) {
		return false
	}
	c.previous = v
	c.hasPrevious = true
	return true
}

func equal[V comparable](a, b V) bool {
	return a == b
}

func mustAddSource[T, S any](m *livedata.Mediator[T], src livedata.Value[S], obs livedata.Observer[S]) {
	// Only fails if the source was already added, impossible on a new mediator.
	if err := livedata.AddSource(m, src, obs); err != nil {
		panic(err)
	}
}
