package emu_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/eve/emu"
	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/policy"
	"github.com/sarchlab/eve/power"
	"github.com/sarchlab/eve/synth"
	"github.com/sarchlab/eve/workload"
)

var _ = Describe("Emulator", func() {
	var (
		e        *emu.Emulator
		policies []policy.Policy
	)

	BeforeEach(func() {
		store, err := synth.NewGenerator().Store()
		Expect(err).NotTo(HaveOccurred())

		model, err := power.Build(store, power.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		e = emu.Builder{}.
			WithPredictor(model).
			WithWorkload(workload.Workload{
				workload.Op(8, 8, 64),
				workload.Op(16, 16, 256),
			}).
			WithBudget(1e-4).
			WithMemory(hw.DefaultMemoryCapacity()).
			Build()

		policies = []policy.Policy{
			policy.NewGreedy(policy.Options{}),
			policy.NewOptimalMCKP(policy.Options{}),
			policy.NewFixedPE(hw.CPU, 0.9, policy.Options{}),
		}
	})

	It("should store results by policy name in run order", func() {
		results := e.RunMultiple(policies)
		Expect(results).To(HaveLen(3))

		stored := e.Results()
		Expect(stored).To(HaveLen(3))
		for i, p := range policies {
			Expect(stored[i].Policy).To(Equal(p.Name()))

			r, ok := e.Result(p.Name())
			Expect(ok).To(BeTrue())
			Expect(r.RunID).To(Equal(results[i].RunID))
		}

		_, ok := e.Result("missing")
		Expect(ok).To(BeFalse())
	})

	It("should replace a rerun policy in place", func() {
		e.RunMultiple(policies)
		first, _ := e.Result(policies[0].Name())

		again := e.Run(policies[0])

		Expect(e.Results()).To(HaveLen(3))
		Expect(e.Results()[0].RunID).To(Equal(again.RunID))
		Expect(again.RunID).NotTo(Equal(first.RunID))
	})

	It("should summarize successes and failures", func() {
		e.RunMultiple(policies)

		rows := e.ResultsBasic()
		Expect(rows).To(HaveLen(3))

		Expect(rows[0].Success).To(BeTrue())
		Expect(rows[0].EnergyMJ).To(BeNumerically(">", 0))
		Expect(rows[0].AvgTimePerOpMS).To(BeNumerically("~", rows[0].TimeMS/2, 1e-12))
		Expect(rows[1].EnergyMJ).To(BeNumerically("<=", rows[0].EnergyMJ*(1+1e-12)))

		Expect(rows[2].Success).To(BeFalse())
		Expect(rows[2].EnergyMJ).To(BeZero())
		Expect(rows[2].Message).NotTo(BeEmpty())
	})

	It("should write summary and detail tables", func() {
		e.RunMultiple(policies)

		buf := &bytes.Buffer{}
		e.WriteSummary(buf)
		Expect(buf.String()).To(ContainSubstring("Total Energy (mJ)"))
		Expect(buf.String()).To(ContainSubstring("Average Power (mW)"))
		Expect(buf.String()).To(ContainSubstring(policies[0].Name()))
		Expect(buf.String()).NotTo(ContainSubstring("(MJ)"))
		Expect(buf.String()).NotTo(ContainSubstring("(MW)"))

		buf.Reset()
		Expect(e.WriteDetails(buf, policies[1].Name())).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("(16,16,256)"))
		Expect(buf.String()).To(ContainSubstring("Freq (MHz)"))
		Expect(buf.String()).To(ContainSubstring("Energy (mJ)"))
		Expect(buf.String()).To(ContainSubstring("Total"))

		buf.Reset()
		Expect(e.WriteDetails(buf, policies[2].Name())).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("failed"))

		Expect(e.WriteDetails(buf, "missing")).NotTo(Succeed())
	})

	It("should save the summary to a file", func() {
		e.Run(policies[0])

		path := filepath.Join(GinkgoT().TempDir(), "summary.txt")
		Expect(e.SaveSummaryToFile(path)).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(policies[0].Name()))
	})
})
