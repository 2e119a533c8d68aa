// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package livedata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleStates(t *testing.T) {
	lc := NewLifecycle()
	assert.Equal(t, Initialized, lc.State())
	assert.Same(t, lc, lc.Lifecycle())

	var seen []State
	lc.addListener(func(s State) { seen = append(seen, s) })

	lc.SetState(Created)
	lc.SetState(Created)
	lc.SetState(Resumed)
	lc.SetState(Started)
	lc.Destroy()

	// Destroyed is terminal.
	lc.SetState(Resumed)

	assert.Equal(t, []State{Created, Resumed, Started, Destroyed}, seen)
	assert.Equal(t, Destroyed, lc.State())
	assert.ErrorIs(t, lc.Context().Err(), context.Canceled)
}

func TestLifecycleListenerRemovesItself(t *testing.T) {
	lc := NewLifecycle()
	calls := 0
	var remove func()
	remove = lc.addListener(func(State) {
		calls++
		remove()
	})

	lc.SetState(Created)
	lc.SetState(Started)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, lc.listenerCount())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "resumed", Resumed.String())
	assert.Equal(t, "destroyed", Destroyed.String())
	assert.Equal(t, "State(42)", State(42).String())
	assert.True(t, Resumed.AtLeast(Started))
	assert.False(t, Created.AtLeast(Started))
}

func TestLifecycleFromContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lc := LifecycleFromContext(ctx)
	require.Equal(t, Resumed, lc.State())

	m := NewMutable[int]()
	rec := &recorder[int]{}
	m.Observe(lc, rec.observe)
	m.Set(1)
	assert.Equal(t, []int{1}, rec.values)

	cancel()

	select {
	case <-lc.Context().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle was not destroyed after context cancellation")
	}
	assert.Equal(t, Destroyed, lc.State())
	assert.False(t, m.HasObservers())
}
