package asic

import (
	"context"
	"fmt"
	"log/slog"
)

// Lifecycle names a point in the writer's phase sequence at which
// processors run.
type Lifecycle uint8

const (
	// LifecycleInitial runs once while the writer is constructed.
	LifecycleInitial Lifecycle = iota

	// LifecycleBeforeSignature runs at the start of Sign.
	LifecycleBeforeSignature

	// LifecycleAfterSignature runs once the signature has been written.
	LifecycleAfterSignature
)

// String returns the human-readable name of the lifecycle point.
func (l Lifecycle) String() string {
	switch l {
	case LifecycleInitial:
		return "initial"
	case LifecycleBeforeSignature:
		return "before-signature"
	case LifecycleAfterSignature:
		return "after-signature"
	default:
		return "unknown"
	}
}

// Processor extends the writer at a lifecycle point, typically by writing
// additional entries through the writer layer. Entries written by a
// processor are subject to the same naming and phase rules as user content.
type Processor interface {
	Lifecycle() Lifecycle
	Perform(ctx context.Context, layer WriterLayer, c *Container, cfg Config) error
}

// PerformFunc is the signature of Processor.Perform.
type PerformFunc func(ctx context.Context, layer WriterLayer, c *Container, cfg Config) error

// NewProcessor returns a Processor that runs fn at the given lifecycle point.
func NewProcessor(at Lifecycle, fn PerformFunc) Processor {
	return processorFunc{at: at, fn: fn}
}

type processorFunc struct {
	at Lifecycle
	fn PerformFunc
}

func (p processorFunc) Lifecycle() Lifecycle { return p.at }

func (p processorFunc) Perform(ctx context.Context, layer WriterLayer, c *Container, cfg Config) error {
	return p.fn(ctx, layer, c, cfg)
}

// performProcessors runs, in configured order, every processor registered
// for the lifecycle point. The first failure stops the remaining processors;
// entries already written are not rolled back.
func performProcessors(ctx context.Context, at Lifecycle, layer WriterLayer, c *Container, cfg Config) error {
	logger := cfg.Log()
	for i, p := range cfg.Processors {
		if p == nil || p.Lifecycle() != at {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debug("running processor", "lifecycle", at.String(), "index", i, "processor", fmt.Sprintf("%T", p))
		if err := p.Perform(ctx, layer, c, cfg); err != nil {
			logger.Error("processor failed", "lifecycle", at.String(), "index", i, slog.Any("error", err))
			return fmt.Errorf("%s processor %d: %w", at, i, err)
		}
	}
	return nil
}
