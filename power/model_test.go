package power_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/eve/char"
	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/power"
	"github.com/sarchlab/eve/regress"
	"github.com/sarchlab/eve/synth"
	"github.com/sarchlab/eve/workload"
)

func buildModel(cfg power.Config) *power.Model {
	store, err := synth.NewGenerator().Store()
	Expect(err).NotTo(HaveOccurred())

	m, err := power.Build(store, cfg)
	Expect(err).NotTo(HaveOccurred())

	return m
}

var _ = Describe("Model", func() {
	var (
		model   *power.Model
		profile synth.Profile
	)

	BeforeEach(func() {
		model = buildModel(power.DefaultConfig())
		profile = synth.DefaultProfiles()[1]
	})

	It("should fit every characterized pair", func() {
		Expect(model.PEs()).To(Equal(hw.KnownPEs()))
		Expect(model.Voltages(hw.Carus)).To(Equal([]hw.Voltage{0.5, 0.65, 0.8, 0.9}))
		Expect(model.Has(hw.Carus, 0.65)).To(BeTrue())
		Expect(model.Samples(hw.Carus, 0.65)).To(Equal(64))
	})

	It("should reproduce the characterization at the reference clock", func() {
		op := workload.Op(16, 8, 64)
		want := profile.Point(op, 0.8, power.DefaultRefFreq)

		p, err := model.Predict(hw.Carus, op, 0.8, power.DefaultRefFreq)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.ExecutionTimeNs).To(BeNumerically("~", want.ExecutionTimeNs, 1e-6))
		Expect(p.Dynamic[hw.CarusDomain]).To(BeNumerically("~", want.Dynamic[hw.CarusDomain], 1e-9))
		Expect(p.StaticPowerMW).To(BeNumerically("~", want.Static.Sum(hw.DefaultDomains(hw.Carus)), 1e-9))
	})

	It("should default to the ceiling frequency and scale", func() {
		op := workload.Op(32, 32, 512)

		ref, err := model.Predict(hw.Carus, op, 0.9, power.DefaultRefFreq)
		Expect(err).NotTo(HaveOccurred())

		p, err := model.Predict(hw.Carus, op, 0.9, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Freq).To(Equal(690 * sim.MHz))

		ratio := 690.0 / 100.0
		Expect(p.ExecutionTimeNs).To(BeNumerically("~", ref.ExecutionTimeNs/ratio, 1e-6))
		Expect(p.DynPowerMW).To(BeNumerically("~", ref.DynPowerMW*ratio, 1e-9))
		Expect(p.StaticPowerMW).To(BeNumerically("~", ref.StaticPowerMW, 1e-12))
	})

	It("should keep energy consistent with power and time", func() {
		for _, pe := range hw.KnownPEs() {
			for _, v := range model.Voltages(pe) {
				p, err := model.Predict(pe, workload.Op(8, 8, 256), v, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(p.TotalEnergyNJ).To(BeNumerically("~",
					(p.DynPowerMW+p.StaticPowerMW)*p.ExecutionTimeNs/1000, 1e-6))
				Expect(p.TotalPowerMW).To(Equal(p.DynPowerMW + p.StaticPowerMW))
			}
		}
	})

	It("should reject frequencies above the ceiling", func() {
		_, err := model.Predict(hw.Carus, workload.Op(8, 8, 8), 0.5, 200*sim.MHz)
		Expect(err).To(MatchError(char.ErrFrequencyOutOfRange))
	})

	It("should report missing pairs", func() {
		_, err := model.Predict(hw.Carus, workload.Op(8, 8, 8), 0.7, 0)
		Expect(err).To(MatchError(char.ErrMissingData))

		_, err = model.Predict(hw.PE("npu"), workload.Op(8, 8, 8), 0.5, 0)
		Expect(err).To(MatchError(char.ErrMissingData))
	})

	It("should fit on the shape triple", func() {
		cfg := power.DefaultConfig()
		cfg.UseTotalOps = false
		cfg.DegreeTime = 3
		cfg.ModelTime = regress.Ridge
		cfg.AlphaTime = 1e-9

		m := buildModel(cfg)
		op := workload.Op(16, 16, 256)
		want := profile.Point(op, 0.65, power.DefaultRefFreq)

		p, err := m.Predict(hw.Carus, op, 0.65, power.DefaultRefFreq)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.ExecutionTimeNs).To(BeNumerically("~", want.ExecutionTimeNs, want.ExecutionTimeNs*1e-3))
	})

	It("should fit aggregate powers without breakdowns", func() {
		cfg := power.DefaultConfig()
		cfg.PerDomain = false

		m := buildModel(cfg)
		op := workload.Op(8, 8, 256)
		want := profile.Point(op, 0.8, power.DefaultRefFreq)

		p, err := m.Predict(hw.Carus, op, 0.8, power.DefaultRefFreq)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Dynamic).To(BeNil())
		Expect(p.DynPowerMW).To(BeNumerically("~", want.Dynamic.Sum(hw.DefaultDomains(hw.Carus)), 1e-9))

		_, err = m.PredictSinglePE(hw.Carus, op, 0.8, 0)
		Expect(err).To(MatchError(power.ErrNoDomainBreakdown))

		_, err = m.PredictMultiPE([]hw.PE{hw.Carus}, []workload.Operation{op}, 0.8, 0)
		Expect(err).To(MatchError(power.ErrNoDomainBreakdown))
	})

	It("should fail without points at the reference clock", func() {
		store, err := synth.NewGenerator().Store()
		Expect(err).NotTo(HaveOccurred())

		cfg := power.DefaultConfig()
		cfg.RefFreq = 50 * sim.MHz

		_, err = power.Build(store, cfg)
		Expect(err).To(MatchError(power.ErrNoModels))
	})

	It("should reject an invalid configuration", func() {
		cfg := power.DefaultConfig()
		cfg.DegreeDyn = -1

		store, err := synth.NewGenerator().Store()
		Expect(err).NotTo(HaveOccurred())

		_, err = power.Build(store, cfg)
		Expect(err).To(HaveOccurred())
	})
})
