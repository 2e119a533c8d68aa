// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package livedata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errStop := errors.New("stop")
	src := NewMutableWith(0)

	// Each item sets the next one from the observing goroutine, so nothing
	// is conflated.
	var items []int
	err := Stream[int](src).Observe(ctx, func(x int) error {
		items = append(items, x)
		if x == 3 {
			return errStop
		}
		src.Set(x + 1)
		return nil
	})

	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, []int{0, 1, 2, 3}, items)
	assert.False(t, src.HasObservers())
}

func TestStreamCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewMutable[int]()
	err := Stream[int](src).Observe(ctx, func(int) error { return nil })

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, src.HasObservers())
}

func TestFirst(t *testing.T) {
	// 1. current value
	{
		v, err := First[int](context.Background(), NewMutableWith(42))
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}

	// 2. value set later from another goroutine
	{
		src := NewMutable[string]()
		go func() {
			time.Sleep(10 * time.Millisecond)
			src.Set("later")
		}()
		v, err := First[string](context.Background(), src)
		require.NoError(t, err)
		assert.Equal(t, "later", v)
	}

	// 3. no value before the deadline
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		src := NewMutable[int]()
		_, err := First[int](ctx, src)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, src.HasObservers())
	}
}

func TestToSlice(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	src := NewMutableWith(1)
	obs := FuncObservable[int](func(ctx context.Context, next func(int) error) error {
		return Stream[int](src).Observe(ctx, func(x int) error {
			if err := next(x); err != nil {
				return err
			}
			if x == 2 {
				cancel()
			} else {
				src.Set(x + 1)
			}
			return nil
		})
	})

	items, err := ToSlice[int](ctx, obs)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2}, items)
}
