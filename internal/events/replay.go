// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package events

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// maxReplayLine bounds one encoded event; catalog items with long
// descriptions fit comfortably.
const maxReplayLine = 1 << 20

// ReplayStats summarizes a Replay call.
type ReplayStats struct {
	Published int
	Skipped   int
}

// Replay publishes newline-delimited events from r in order. Blank lines are
// ignored; malformed lines are logged and skipped. It stops early when ctx is
// canceled or a publish fails.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Replay(ctx context.Context, bus *Bus, r io.Reader, logger zerolog.Logger) (ReplayStats, error) {
	var stats ReplayStats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxReplayLine)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		e, err := Unmarshal(raw)
		if err != nil {
			stats.Skipped++
			logger.Warn().Err(err).Int("line", line).Msg("skipping malformed replay event")
			continue
		}
		if err := bus.Publish(ctx, e); err != nil {
			return stats, fmt.Errorf("replay line %d: %w", line, err)
		}
		stats.Published++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read replay input: %w", err)
	}
	return stats, nil
}

// WaitRunning blocks until a Run call has subscribed or ctx ends.
func (r *Router) WaitRunning(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if running := r.Running(); running != nil {
			select {
			case <-running:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
