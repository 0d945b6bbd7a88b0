package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
)

var _ = Describe("Trace", func() {
	Describe("TraceBuilder", func() {
		It("should assign increasing indices starting at 1", func() {
			trace := insts.NewTraceBuilder().
				IntOp(1, 2).
				FPOp(insts.FPReg(0), insts.FPReg(1)).
				Load(3, 29).
				Build()

			Expect(trace.Len()).To(Equal(3))
			for i := 0; i < trace.Len(); i++ {
				Expect(trace.At(i).Index).To(Equal(uint64(i + 1)))
			}
			Expect(trace.At(1).PC).To(BeNumerically(">", trace.At(0).PC))
		})

		It("should fill unused slots with RegNone", func() {
			trace := insts.NewTraceBuilder().Store(4, 29).Build()
			st := trace.At(0)

			Expect(st.Op).To(Equal(insts.OpStore))
			Expect(st.Src).To(Equal([3]insts.Reg{4, 29, insts.RegNone}))
			Expect(st.Dst).To(Equal([2]insts.Reg{insts.RegNone, insts.RegNone}))
		})

		It("should record two destinations", func() {
			trace := insts.NewTraceBuilder().IntOp2(insts.RegHI, insts.RegLO, 1, 2).Build()
			Expect(trace.At(0).Dst).To(Equal([2]insts.Reg{insts.RegHI, insts.RegLO}))
		})

		It("should not let later appends change a built trace", func() {
			b := insts.NewTraceBuilder().Nop()
			trace := b.Build()
			b.Nop()

			Expect(trace.Len()).To(Equal(1))
			Expect(b.Len()).To(Equal(2))
		})

		It("should panic on too many sources", func() {
			Expect(func() {
				insts.NewTraceBuilder().IntOp(1, 2, 3, 4, 5)
			}).To(Panic())
		})
	})

	Describe("ValidateTrace", func() {
		It("should accept a well-formed trace", func() {
			trace := insts.NewTraceBuilder().
				IntOp(1, 2, 3).
				Branch(1).
				Call(31).
				Trap().
				Store(1, 29).
				Build()
			Expect(insts.ValidateTrace(trace, insts.NumRegs)).To(Succeed())
		})

		It("should accept an empty trace", func() {
			Expect(insts.ValidateTrace(insts.SliceTrace{}, insts.NumRegs)).To(Succeed())
		})

		It("should reject a nil instruction", func() {
			trace := insts.SliceTrace{nil}
			Expect(insts.ValidateTrace(trace, insts.NumRegs)).To(MatchError(insts.ErrNilInstruction))
		})

		It("should reject an unknown operation class", func() {
			trace := insts.SliceTrace{{Index: 1}}
			Expect(insts.ValidateTrace(trace, insts.NumRegs)).To(MatchError(insts.ErrUnknownOp))
		})

		It("should reject non-increasing indices", func() {
			trace := insts.NewTraceBuilder().Nop().Nop().Build()
			trace[1].Index = trace[0].Index
			Expect(insts.ValidateTrace(trace, insts.NumRegs)).To(MatchError(insts.ErrIndexOrder))
		})

		It("should reject out-of-range registers", func() {
			trace := insts.NewTraceBuilder().IntOp(1, 100).Build()
			Expect(insts.ValidateTrace(trace, insts.NumRegs)).To(MatchError(insts.ErrRegisterRange))

			trace = insts.NewTraceBuilder().IntOp(8).Build()
			Expect(insts.ValidateTrace(trace, 8)).To(MatchError(insts.ErrRegisterRange))
		})

		It("should reject a store with a destination register", func() {
			trace := insts.NewTraceBuilder().Store(1, 29).Build()
			trace[0].Dst[0] = 2
			Expect(insts.ValidateTrace(trace, insts.NumRegs)).To(MatchError(insts.ErrStoreWritesRegister))
		})
	})
})
