// Package board loads the results file once and renders it into a sink.
package board

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suman-15/whisper-asr-multilang/internal/loader"
	"github.com/suman-15/whisper-asr-multilang/internal/render"
)

// FallbackMessage is shown instead of results when none can be loaded.
const FallbackMessage = "No results found. Generate results/results.csv and push to main."

type Loader interface {
	Load(ctx context.Context, path string) loader.Outcome
}

// State is the terminal outcome of a Run.
type State int

const (
	StateRowsRendered State = iota
	StateFallbackRendered
)

func (s State) String() string {
	switch s {
	case StateRowsRendered:
		return "rows-rendered"
	case StateFallbackRendered:
		return "fallback-rendered"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Run loads path and appends one row per result to sink. Any failure is logged and replaced
// by a single fallback row. The returned error is set only when the fallback row could not be
// appended either.
func Run(ctx context.Context, l Loader, sink render.Sink, path string, logger *slog.Logger) (State, error) {
	if logger == nil {
		logger = slog.Default()
	}
	err := renderAll(ctx, l, sink, path)
	if err == nil {
		return StateRowsRendered, nil
	}
	logger.Error("failed to render results", "path", path, "error", err)
	if err := render.AddFallbackRow(sink, FallbackMessage); err != nil {
		return StateFallbackRendered, fmt.Errorf("render fallback row: %w", err)
	}
	return StateFallbackRendered, nil
}

func renderAll(ctx context.Context, l Loader, sink render.Sink, path string) error {
	out := l.Load(ctx, path)
	if !out.OK() {
		return out.Err
	}
	rows := make([][]render.Cell, 0, len(out.Results))
	for _, r := range out.Results {
		rows = append(rows, render.Cells(r))
	}
	for _, row := range rows {
		if err := sink.AppendRow(row); err != nil {
			return err
		}
	}
	return nil
}
