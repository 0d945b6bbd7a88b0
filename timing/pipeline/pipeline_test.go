package pipeline_test

import (
	"math"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/latency"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

var _ = Describe("Pipeline", func() {
	var (
		builder *insts.TraceBuilder
		pipe    *pipeline.Pipeline
	)

	BeforeEach(func() {
		builder = insts.NewTraceBuilder()
	})

	run := func(opts ...pipeline.PipelineOption) uint64 {
		pipe = pipeline.NewPipeline(builder.Build(), opts...)
		return pipe.Run()
	}

	Describe("NewPipeline", func() {
		It("should create a pipeline with the default machine", func() {
			pipe = pipeline.NewPipeline(builder.IntOp(1).Build())
			Expect(pipe).NotTo(BeNil())
			Expect(pipe.Name()).To(Equal("Tomasulo"))
			Expect(pipe.Cycle()).To(Equal(uint64(1)))
			Expect(pipe.Done()).To(BeFalse())

			intRS, fpRS := pipe.Stations()
			intFU, fpFU := pipe.Units()
			Expect(intRS.Size()).To(Equal(5))
			Expect(fpRS.Size()).To(Equal(3))
			Expect(intFU.Size()).To(Equal(3))
			Expect(fpFU.Size()).To(Equal(1))
			Expect(pipe.Queue().Cap()).To(Equal(16))
			Expect(pipe.MapTable().NumRegs()).To(Equal(insts.NumRegs))
		})

		It("should apply options", func() {
			config := latency.DefaultConfig()
			config.IntFUCount = 1
			pipe = pipeline.NewPipeline(builder.Build(),
				pipeline.WithConfig(config),
				pipeline.WithName("core0.ooo"))

			intFU, _ := pipe.Units()
			Expect(intFU.Size()).To(Equal(1))
			Expect(pipe.Name()).To(Equal("core0.ooo"))
			Expect(pipe.Config()).To(BeIdenticalTo(config))
		})

		It("should panic on an invalid configuration", func() {
			config := latency.DefaultConfig()
			config.FPRSSize = 0
			Expect(func() {
				pipeline.NewPipeline(builder.Build(), pipeline.WithConfig(config))
			}).To(Panic())
		})

		It("should panic on a trace too long to number", func() {
			Expect(func() {
				pipeline.NewPipeline(oversizedTrace{})
			}).To(PanicWith(ContainSubstring("exceeds the handle range")))
		})
	})

	Context("empty trace", func() {
		It("should finish after the first cycle", func() {
			Expect(run()).To(Equal(uint64(2)))
			Expect(pipe.Done()).To(BeTrue())
			Expect(pipe.Stats().Instructions).To(BeZero())
		})
	})

	Context("single independent integer instruction", func() {
		BeforeEach(func() {
			builder.IntOp(1, 2, 3)
		})

		It("should dispatch, issue, execute and broadcast on the expected cycles", func() {
			Expect(run()).To(Equal(uint64(9)))
			Expect(pipe.Timing(0)).To(Equal(pipeline.Timing{
				Dispatch: 1, Issue: 2, Execute: 3, CDB: 8,
			}))
		})

		It("should occupy its functional unit for exactly the integer latency", func() {
			pipe = pipeline.NewPipeline(builder.Build())
			intFU, _ := pipe.Units()

			Expect(pipe.RunCycles(3)).To(BeTrue())
			Expect(intFU.Used()).To(Equal(1))

			Expect(pipe.RunCycles(4)).To(BeTrue()) // through cycle 7
			Expect(intFU.Used()).To(Equal(1))

			Expect(pipe.RunCycles(1)).To(BeFalse()) // cycle 8 broadcasts
			Expect(intFU.Used()).To(Equal(0))
			Expect(pipe.Stats().Broadcasts).To(Equal(uint64(1)))
		})

		It("should report statistics", func() {
			run()
			stats := pipe.Stats()
			Expect(stats.Cycles).To(Equal(uint64(9)))
			Expect(stats.Instructions).To(Equal(uint64(1)))
			Expect(stats.Dispatched).To(Equal(uint64(1)))
			Expect(stats.Broadcasts).To(Equal(uint64(1)))
			Expect(stats.CPI()).To(Equal(9.0))
			Expect(stats.IPC()).To(BeNumerically("~", 1.0/9.0))
		})
	})

	Context("single floating-point instruction", func() {
		It("should use the floating-point latency", func() {
			builder.FPOp(insts.FPReg(1), insts.FPReg(2))
			Expect(run()).To(Equal(uint64(11)))
			Expect(pipe.Timing(0)).To(Equal(pipeline.Timing{
				Dispatch: 1, Issue: 2, Execute: 3, CDB: 10,
			}))
		})
	})

	Context("read-after-write dependency", func() {
		BeforeEach(func() {
			builder.IntOp(1, 2, 3).IntOp(4, 1)
		})

		It("should start the consumer in the cycle after the producer broadcasts", func() {
			Expect(run()).To(Equal(uint64(15)))

			producer, consumer := pipe.Timing(0), pipe.Timing(1)
			Expect(producer.CDB).To(Equal(uint64(8)))
			Expect(consumer).To(Equal(pipeline.Timing{
				Dispatch: 2, Issue: 3, Execute: 9, CDB: 14,
			}))
			Expect(pipe.Stats().DataHazards).To(Equal(uint64(1)))
		})

		It("should keep the consumer's producer reference until the wake-up", func() {
			pipe = pipeline.NewPipeline(builder.Build())

			pipe.RunCycles(3)
			Expect(pipe.Producers(1)[0]).To(Equal(pipeline.Handle(0)))

			pipe.RunCycles(5) // through cycle 8, the broadcast cycle
			Expect(pipe.CDB().Occupant()).To(Equal(pipeline.Handle(0)))
			Expect(pipe.Producers(1)[0]).To(Equal(pipeline.Handle(0)))
			Expect(pipe.MapTable().Lookup(1)).To(Equal(pipeline.Handle(0)))

			pipe.RunCycles(1) // cycle 9 delivers the broadcast
			Expect(pipe.CDB().Empty()).To(BeTrue())
			Expect(pipe.Producers(1)).To(Equal(
				[3]pipeline.Handle{pipeline.NoHandle, pipeline.NoHandle, pipeline.NoHandle}))
			Expect(pipe.MapTable().Lookup(1)).To(Equal(pipeline.NoHandle))
			Expect(pipe.Timing(1).Execute).To(Equal(uint64(9)))
		})
	})

	Context("consumer dispatched in the producer's broadcast cycle", func() {
		It("should still wait for the wake-up", func() {
			builder.IntOp(1).Nop().Nop().Nop().Nop().Nop().IntOp(2, 1)
			run()

			Expect(pipe.Timing(0).CDB).To(Equal(uint64(8)))
			Expect(pipe.Timing(6).Issue).To(Equal(uint64(8)))
			Expect(pipe.Timing(6).Execute).To(Equal(uint64(9)))
			Expect(pipe.Stats().DataHazards).To(Equal(uint64(1)))
		})

		It("should see no dependency once the broadcast is delivered", func() {
			builder.IntOp(1).Nop().Nop().Nop().Nop().Nop().Nop().IntOp(2, 1)
			run()

			Expect(pipe.Timing(7).Issue).To(Equal(uint64(9)))
			Expect(pipe.Timing(7).Execute).To(Equal(uint64(10)))
			Expect(pipe.Stats().DataHazards).To(BeZero())
		})
	})

	Context("instruction reading and writing the same register", func() {
		It("should depend on the previous writer only", func() {
			builder.IntOp(1, 1).IntOp(1, 1)
			run()

			Expect(pipe.Timing(1).Execute).To(Equal(pipe.Timing(0).CDB + 1))
			Expect(pipe.Stats().DataHazards).To(Equal(uint64(1)))
		})
	})

	Context("two destination registers", func() {
		It("should wake consumers of both registers with one broadcast", func() {
			builder.IntOp2(insts.RegHI, insts.RegLO, 1, 2).
				IntOp(3, insts.RegHI).
				IntOp(4, insts.RegLO)

			Expect(run()).To(Equal(uint64(16)))
			Expect(pipe.Timing(1).Execute).To(Equal(uint64(9)))
			Expect(pipe.Timing(2).Execute).To(Equal(uint64(9)))
			Expect(pipe.Timing(1).CDB).To(Equal(uint64(14)))
			Expect(pipe.Timing(2).CDB).To(Equal(uint64(15)))
		})
	})

	Context("more ready instructions than free functional units", func() {
		BeforeEach(func() {
			builder.IntOp(1)
			for r := insts.Reg(10); r < 14; r++ {
				builder.IntOp(r, 1)
			}
		})

		It("should start exactly the oldest ones and retry the rest oldest-first", func() {
			Expect(run()).To(Equal(uint64(20)))

			want := []pipeline.Timing{
				{Dispatch: 1, Issue: 2, Execute: 3, CDB: 8},
				{Dispatch: 2, Issue: 3, Execute: 9, CDB: 14},
				{Dispatch: 3, Issue: 4, Execute: 9, CDB: 15},
				{Dispatch: 4, Issue: 5, Execute: 9, CDB: 16},
				{Dispatch: 5, Issue: 6, Execute: 14, CDB: 19},
			}
			Expect(cmp.Diff(want, pipe.Timings())).To(BeEmpty())
		})

		It("should count issue and bus contention", func() {
			run()
			stats := pipe.Stats()
			Expect(stats.IssueStalls).To(Equal(uint64(5)))
			Expect(stats.CDBStalls).To(Equal(uint64(3)))
			Expect(stats.DataHazards).To(Equal(uint64(4)))
			Expect(stats.Broadcasts).To(Equal(uint64(5)))
		})
	})

	Context("a younger instruction finishing first", func() {
		It("should broadcast before the older one", func() {
			builder.FPOp(insts.FPReg(1)).IntOp(1)
			Expect(run()).To(Equal(uint64(11)))

			Expect(pipe.Timing(1).CDB).To(Equal(uint64(9)))
			Expect(pipe.Timing(0).CDB).To(Equal(uint64(10)))
		})
	})

	Context("stores", func() {
		It("should retire at execute completion without broadcasting", func() {
			builder.Store(1, 29)
			Expect(run()).To(Equal(uint64(9)))

			Expect(pipe.Timing(0)).To(Equal(pipeline.Timing{
				Dispatch: 1, Issue: 2, Execute: 3,
			}))
			stats := pipe.Stats()
			Expect(stats.Broadcasts).To(BeZero())
			Expect(stats.StoresRetired).To(Equal(uint64(1)))
		})

		It("should wait for the value they store", func() {
			builder.Load(1, 29).Store(1, 29)
			Expect(run()).To(Equal(uint64(15)))
			Expect(pipe.Timing(1)).To(Equal(pipeline.Timing{
				Dispatch: 2, Issue: 3, Execute: 9,
			}))
		})

		It("should retire while an older instruction holds the bus", func() {
			builder.IntOp(1).Store(2, 29)
			run()

			Expect(pipe.Timing(0).CDB).To(Equal(uint64(8)))
			Expect(pipe.Timing(1).Execute).To(Equal(uint64(4)))
			Expect(pipe.Stats().StoresRetired).To(Equal(uint64(1)))
		})
	})

	Context("control flow", func() {
		It("should leave the queue without a reservation station", func() {
			builder.Branch(1).Call(31).Jump()
			Expect(run()).To(Equal(uint64(5)))

			for i := 0; i < 3; i++ {
				Expect(pipe.Timing(i).Dispatch).To(Equal(uint64(i + 1)))
				Expect(pipe.Timing(i).Issue).To(BeZero())
			}
			Expect(pipe.Stats().ControlBypassed).To(Equal(uint64(3)))
			Expect(pipe.Stats().Dispatched).To(BeZero())
		})

		It("should not rename the link register of a call", func() {
			builder.Call(31).IntOp(1, 31)
			run()

			Expect(pipe.Stats().DataHazards).To(BeZero())
			Expect(pipe.Timing(1).Execute).To(Equal(pipe.Timing(1).Issue + 1))
		})

		It("should let no-ops pass like control flow", func() {
			builder.Nop().IntOp(1)
			Expect(run()).To(Equal(uint64(10)))
			Expect(pipe.Stats().ControlBypassed).To(Equal(uint64(1)))
		})
	})

	Context("traps", func() {
		It("should be skipped at fetch and never timestamped", func() {
			builder.IntOp(1).Trap().IntOp(2)
			Expect(run()).To(Equal(uint64(10)))

			Expect(pipe.Timing(1)).To(Equal(pipeline.Timing{}))
			Expect(pipe.Timing(2).Dispatch).To(Equal(uint64(2)))
			stats := pipe.Stats()
			Expect(stats.TrapsSkipped).To(Equal(uint64(1)))
			Expect(stats.Instructions).To(Equal(uint64(2)))
		})

		It("should finish when the trace ends in traps", func() {
			builder.IntOp(1).Trap().Trap()
			Expect(run()).To(Equal(uint64(9)))
			Expect(pipe.Stats().TrapsSkipped).To(Equal(uint64(2)))
		})

		It("should finish a trace of traps only", func() {
			builder.Trap()
			Expect(run()).To(Equal(uint64(2)))
		})
	})

	Context("instruction queue at capacity", func() {
		const n = 30

		BeforeEach(func() {
			for i := 0; i < n; i++ {
				builder.FPOp(insts.FPReg(i % 8))
			}

			config := latency.DefaultConfig()
			config.FPFULatency = 50
			pipe = pipeline.NewPipeline(builder.Build(), pipeline.WithConfig(config))
		})

		It("should stall fetch without dropping or overwriting entries", func() {
			pipe.RunCycles(19)
			q := pipe.Queue()
			Expect(q.Full()).To(BeTrue())
			Expect(q.Len()).To(Equal(16))

			pipe.RunCycles(5)
			Expect(q.Len()).To(Equal(16))
			Expect(pipe.Stats().FetchStalls).To(Equal(uint64(5)))
			for i := 0; i < q.Len(); i++ {
				Expect(q.At(i)).To(Equal(pipeline.Handle(3 + i)))
			}

			pipe.Run()
			Expect(pipe.Stats().Broadcasts).To(Equal(uint64(n)))
			prev := uint64(0)
			for i := 0; i < n; i++ {
				t := pipe.Timing(i)
				Expect(t.Dispatch).To(BeNumerically(">", prev))
				Expect(t.CDB).NotTo(BeZero())
				prev = t.Dispatch
			}
		})

		It("should count dispatch stalls while stations are full", func() {
			pipe.RunCycles(24)
			Expect(pipe.Stats().DispatchStalls).To(Equal(uint64(20)))
		})
	})

	Describe("Reset", func() {
		It("should reproduce the same run", func() {
			builder.IntOp(1).FPOp(insts.FPReg(0)).IntOp(2, 1).Store(2, 29)
			first := run()
			firstTimings := pipe.Timings()

			pipe.Reset()
			Expect(pipe.Done()).To(BeFalse())
			Expect(pipe.Cycle()).To(Equal(uint64(1)))
			Expect(pipe.Stats().Instructions).To(BeZero())

			Expect(pipe.Run()).To(Equal(first))
			Expect(cmp.Diff(firstTimings, pipe.Timings())).To(BeEmpty())
		})
	})

	Describe("Tick after completion", func() {
		It("should do nothing", func() {
			builder.IntOp(1)
			total := run()
			Expect(pipe.Tick()).To(BeFalse())
			Expect(pipe.Cycle()).To(Equal(total))
			Expect(pipe.RunCycles(10)).To(BeFalse())
		})
	})

	Describe("Simulate", func() {
		It("should run a valid trace", func() {
			trace := builder.IntOp(1, 2, 3).IntOp(4, 1).Build()
			cycles, err := pipeline.Simulate(trace, latency.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(cycles).To(Equal(uint64(15)))
		})

		It("should reject an invalid config", func() {
			config := latency.DefaultConfig()
			config.IntFULatency = 0
			_, err := pipeline.Simulate(builder.Build(), config)
			Expect(err).To(MatchError(ContainSubstring("int_fu_latency")))
		})

		It("should reject an invalid trace", func() {
			trace := builder.IntOp(1, 200).Build()
			_, err := pipeline.Simulate(trace, latency.DefaultConfig())
			Expect(err).To(MatchError(insts.ErrRegisterRange))
		})
	})
})

// oversizedTrace claims more instructions than a Handle can number. It is
// never read past the length check.
type oversizedTrace struct{}

func (oversizedTrace) Len() int {
	n := math.MaxInt32
	return n + 1
}

func (oversizedTrace) At(int) *insts.Instruction { return nil }
