package power_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/eve/char"
	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/power"
	"github.com/sarchlab/eve/workload"
)

var _ = Describe("PredictMultiPE", func() {
	var model *power.Model

	BeforeEach(func() {
		model = buildModel(power.DefaultConfig())
	})

	It("should charge shared domains once for identical PEs", func() {
		op := workload.Op(8, 8, 128)
		single, err := model.PredictSinglePE(hw.Caesar, op, 0.8, 0)
		Expect(err).NotTo(HaveOccurred())

		mp, err := model.PredictMultiPE(
			[]hw.PE{hw.Caesar, hw.Caesar}, []workload.Operation{op, op}, 0.8, 0)
		Expect(err).NotTo(HaveOccurred())

		Expect(mp.PerPE).To(HaveLen(2))
		Expect(mp.ExecutionTimeNs).To(Equal(single.ExecutionTimeNs))

		shared := 0.0
		local := 0.0
		for _, d := range hw.DefaultDomains(hw.Caesar) {
			if d.Shared() {
				shared += single.Dynamic[d] + single.Static[d]
			} else {
				local += single.Dynamic[d] + single.Static[d]
			}
		}

		Expect(mp.SharedEnergyNJ).To(BeNumerically("~", shared*single.ExecutionTimeNs/1000, 1e-9))
		Expect(mp.PESpecificEnergyNJ).To(BeNumerically("~", 2*local*single.ExecutionTimeNs/1000, 1e-9))
		Expect(mp.TotalEnergyNJ).To(BeNumerically("<", 2*single.TotalEnergyNJ))
		Expect(mp.DomainEnergyNJ[hw.CaesarDomain]).To(BeNumerically("~", mp.PESpecificEnergyNJ, 1e-9))
	})

	It("should take the slowest PE and the largest shared draw", func() {
		small := workload.Op(4, 4, 64)
		large := workload.Op(32, 32, 256)

		a, err := model.PredictSinglePE(hw.Carus, small, 0.65, 0)
		Expect(err).NotTo(HaveOccurred())
		b, err := model.PredictSinglePE(hw.CGRA, large, 0.65, 0)
		Expect(err).NotTo(HaveOccurred())

		mp, err := model.PredictMultiPE(
			[]hw.PE{hw.Carus, hw.CGRA}, []workload.Operation{small, large}, 0.65, 0)
		Expect(err).NotTo(HaveOccurred())

		Expect(mp.ExecutionTimeNs).To(Equal(max(a.ExecutionTimeNs, b.ExecutionTimeNs)))
		Expect(mp.SharedDynamic[hw.CPUDomain]).To(Equal(max(a.Dynamic[hw.CPUDomain], b.Dynamic[hw.CPUDomain])))

		local := (a.Dynamic[hw.CarusDomain]+a.Static[hw.CarusDomain])*a.ExecutionTimeNs/1000 +
			(b.Dynamic[hw.CGRADomain]+b.Static[hw.CGRADomain])*b.ExecutionTimeNs/1000
		Expect(mp.PESpecificEnergyNJ).To(BeNumerically("~", local, 1e-9))
		Expect(mp.TotalEnergyNJ).To(BeNumerically("~", mp.SharedEnergyNJ+mp.PESpecificEnergyNJ, 1e-9))
		Expect(mp.AvgPowerMW).To(BeNumerically("~", mp.TotalEnergyNJ*1000/mp.ExecutionTimeNs, 1e-9))
	})

	It("should drop sub-operations that cannot be predicted", func() {
		op := workload.Op(8, 8, 64)
		mp, err := model.PredictMultiPE(
			[]hw.PE{hw.Carus, hw.PE("npu")}, []workload.Operation{op, op}, 0.9, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(mp.PerPE).To(HaveLen(1))
		Expect(mp.Dropped).To(Equal(1))

		_, err = model.PredictMultiPE(
			[]hw.PE{hw.PE("npu")}, []workload.Operation{op}, 0.9, 0)
		Expect(err).To(MatchError(char.ErrMissingData))

		_, err = model.PredictMultiPE([]hw.PE{hw.Carus}, nil, 0.9, 0)
		Expect(err).To(HaveOccurred())
	})
})
