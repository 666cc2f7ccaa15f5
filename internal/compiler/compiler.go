// Package compiler wires the code-generation pipeline together:
// index -> resolve -> break cycles -> map and emit. Each stage treats
// its predecessors' output as frozen shared state, and the first fatal
// error aborts the whole compilation; partial output is never produced.
package compiler

import (
	"time"

	"go.uber.org/zap"

	"github.com/protoforge/protoforge/internal/compiler/codegen"
	"github.com/protoforge/protoforge/internal/compiler/descriptor"
	"github.com/protoforge/protoforge/internal/compiler/graph"
	"github.com/protoforge/protoforge/internal/compiler/index"
	"github.com/protoforge/protoforge/internal/compiler/options"
	"github.com/protoforge/protoforge/internal/compiler/resolve"
)

// Compile runs the whole pipeline over a lowered descriptor set and
// returns one output unit per schema package. opts is validated before
// any resolution work begins and is read-only throughout.
func Compile(set *descriptor.Set, opts *options.Options) ([]codegen.OutputUnit, error) {
	log := opts.Log()

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	idx, err := index.Build(set)
	if err != nil {
		return nil, err
	}
	log.Debug("indexed descriptor set",
		zap.Int("files", len(set.Files)),
		zap.Int("messages", len(idx.Messages())),
		zap.Duration("elapsed", time.Since(start)))

	start = time.Now()
	res := resolve.New(idx)
	if err := res.ResolveAll(); err != nil {
		return nil, err
	}
	log.Debug("resolved references", zap.Duration("elapsed", time.Since(start)))

	// Cycle breaking must finish before any type mapping starts: the
	// mapper reads NeedsIndirection flags and assumes they are frozen.
	start = time.Now()
	if err := graph.Break(idx, res, opts.BoxedSet()); err != nil {
		return nil, err
	}
	log.Debug("broke containment cycles", zap.Duration("elapsed", time.Since(start)))

	start = time.Now()
	units, err := codegen.Build(idx, res, opts)
	if err != nil {
		return nil, err
	}
	log.Debug("built output units",
		zap.Int("units", len(units)),
		zap.Duration("elapsed", time.Since(start)))
	return units, nil
}
