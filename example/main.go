// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joamaki/livedata/livedata"
	"github.com/joamaki/livedata/livedatautil"
)

func fatal(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}

func bucket(level int) string {
	switch {
	case level < 20:
		return "low"
	case level < 80:
		return "medium"
	}
	return "high"
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The screen lives as long as 'ctx'.
	screen := livedata.LifecycleFromContext(ctx, livedata.WithName("screen"), livedata.WithLogger(logger))

	battery := livedata.NewMutable[int](livedata.WithName("battery"), livedata.WithLogger(logger))

	// Print the level only when it actually changes, and the bucket only
	// when the level moves to another bucket.
	livedatautil.ChangeSensitive[int](battery).Observe(screen, func(level int) {
		fmt.Printf("level:  %d\n", level)
	})
	livedatautil.MapChangeSensitiveAfter(battery, bucket).Observe(screen, func(b string) {
		fmt.Printf("bucket: %s\n", b)
	})
	livedatautil.SingleCall[int](screen, battery, func(level int) {
		fmt.Printf("first reading: %d\n", level)
	})

	go func() {
		for _, level := range []int{90, 90, 85, 85, 50, 15, 15, 10} {
			battery.Set(level)
			time.Sleep(100 * time.Millisecond)
		}
	}()

	// Wait until the level drops below the critical threshold.
	errCritical := errors.New("battery critical")
	critical := livedatautil.MapChangeSensitiveBefore(battery, func(level int) bool {
		return level < 12
	})
	err := livedata.Stream(critical).Observe(ctx, func(low bool) error {
		if low {
			return errCritical
		}
		return nil
	})
	if !errors.Is(err, errCritical) {
		fatal("error: %s", err)
	}

	fmt.Println("battery critical, closing screen")
	screen.Destroy()
}
