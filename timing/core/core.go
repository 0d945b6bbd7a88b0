// Package core provides the Tomasulo engine as an akita ticking component.
// It wraps the pipeline so that an akita engine drives its clock.
package core

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/latency"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions fetched.
	Instructions uint64
	// Broadcasts is the number of results put on the common data bus.
	Broadcasts uint64
	// FetchStalls and DispatchStalls count cycles the front end was blocked.
	FetchStalls    uint64
	DispatchStalls uint64
	// IssueStalls and CDBStalls count instruction-cycles lost waiting for a
	// functional unit or for the bus.
	IssueStalls uint64
	CDBStalls   uint64
}

// Core is a ticking component that advances one Tomasulo pipeline by one
// cycle per tick.
type Core struct {
	*sim.TickingComponent

	pipeline *pipeline.Pipeline
}

// NewCore creates a Core for the given trace. The name must be a valid akita
// component name. Pipeline options are applied after the name option, so
// WithName can give the pipeline a different name.
func NewCore(
	name string,
	engine sim.Engine,
	freq sim.Freq,
	trace insts.Trace,
	opts ...pipeline.PipelineOption,
) *Core {
	c := &Core{}
	c.TickingComponent = sim.NewTickingComponent(name, engine, freq, c)

	opts = append([]pipeline.PipelineOption{pipeline.WithName(name)}, opts...)
	c.pipeline = pipeline.NewPipeline(trace, opts...)

	return c
}

// Tick simulates one cycle. It returns false once the pipeline has
// drained, which stops the component from scheduling further ticks.
func (c *Core) Tick() bool {
	return c.pipeline.Tick()
}

// Start schedules the first tick.
func (c *Core) Start() {
	c.TickLater()
}

// Pipeline returns the underlying engine.
func (c *Core) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// Halted returns true once the trace has completed.
func (c *Core) Halted() bool {
	return c.pipeline.Done()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	s := c.pipeline.Stats()
	return Stats{
		Cycles:         s.Cycles,
		Instructions:   s.Instructions,
		Broadcasts:     s.Broadcasts,
		FetchStalls:    s.FetchStalls,
		DispatchStalls: s.DispatchStalls,
		IssueStalls:    s.IssueStalls,
		CDBStalls:      s.CDBStalls,
	}
}

// Reset clears all core state. Call Start again to rerun the trace.
func (c *Core) Reset() {
	c.pipeline.Reset()
}

// RunOnEngine validates the configuration and the trace, runs the trace on
// a core driven by a serial akita engine and returns the total cycle count.
func RunOnEngine(trace insts.Trace, config *latency.Config) (uint64, error) {
	if err := config.Validate(); err != nil {
		return 0, fmt.Errorf("invalid machine config: %w", err)
	}
	if err := insts.ValidateTrace(trace, config.NumRegs); err != nil {
		return 0, fmt.Errorf("invalid trace: %w", err)
	}

	engine := sim.NewSerialEngine()
	c := NewCore("Core", engine, 1*sim.GHz, trace, pipeline.WithConfig(config))
	c.Start()

	if err := engine.Run(); err != nil {
		return 0, fmt.Errorf("engine run failed: %w", err)
	}

	return c.pipeline.Cycle(), nil
}
