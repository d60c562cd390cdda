package char_test

import (
	"path/filepath"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/eve/char"
	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/workload"
)

func carusPoint() char.Measurement {
	return char.Measurement{
		PE:              hw.Carus,
		Op:              workload.Op(8, 8, 256),
		Voltage:         0.8,
		ClockPeriodNs:   10,
		ExecutionTimeNs: 40000,
		Dynamic: hw.DomainPower{
			hw.Sys: 1, hw.CPUDomain: 2, hw.Mem: 3, hw.CarusDomain: 4, hw.CGRADomain: 100},
		Static: hw.DomainPower{
			hw.Sys: 0.5, hw.CPUDomain: 0.5, hw.Mem: 0.5, hw.CarusDomain: 0.5},
	}
}

var _ = Describe("Store", func() {
	var store *char.Store

	BeforeEach(func() {
		store = char.NewStore(hw.DefaultCeilings())
		Expect(store.Load([]char.Measurement{carusPoint()})).To(Succeed())
	})

	It("should return the recorded point without a frequency", func() {
		res, err := store.Query(char.Query{
			PE: hw.Carus, Op: workload.Op(8, 8, 256), Voltage: 0.8})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.ExecutionTimeNs).To(Equal(40000.0))
		Expect(res.Scale).To(Equal(1.0))
		Expect(res.PowerMW).To(Equal(12.0))
		Expect(res.Dynamic).NotTo(HaveKey(hw.CGRADomain))
		Expect(res.EnergyNJ).To(BeNumerically("~", 12.0*40000/1000, 1e-9))
	})

	It("should honor a domain override and power type", func() {
		res, err := store.Query(char.Query{
			PE: hw.Carus, Op: workload.Op(8, 8, 256), Voltage: 0.8,
			PowerType: char.DynamicPower,
			Domains:   hw.DomainSet{hw.CarusDomain, hw.CGRADomain},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.PowerMW).To(Equal(104.0))

		res, err = store.Query(char.Query{
			PE: hw.Carus, Op: workload.Op(8, 8, 256), Voltage: 0.8,
			PowerType: char.StaticPower,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.PowerMW).To(Equal(2.0))
	})

	It("should scale time and dynamic power with the frequency", func() {
		q := char.Query{PE: hw.Carus, Op: workload.Op(8, 8, 256), Voltage: 0.8}

		for _, f := range []sim.Freq{50 * sim.MHz, 200 * sim.MHz, 578 * sim.MHz} {
			q.Freq = f
			res, err := store.Query(q)
			Expect(err).NotTo(HaveOccurred())

			s := float64(f) / float64(100*sim.MHz)
			Expect(res.ExecutionTimeNs * float64(f)).
				To(BeNumerically("~", 40000*float64(100*sim.MHz), 1))
			Expect(res.Dynamic[hw.CarusDomain] / float64(f)).
				To(BeNumerically("~", 4/float64(100*sim.MHz), 1e-18))
			Expect(res.Static[hw.CarusDomain]).To(Equal(0.5))
			Expect(res.Scale).To(BeNumerically("~", s, 1e-12))
		}
	})

	It("should be deterministic", func() {
		q := char.Query{PE: hw.Carus, Op: workload.Op(8, 8, 256), Voltage: 0.8, Freq: 300 * sim.MHz}

		first, err := store.Query(q)
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < 5; i++ {
			again, err := store.Query(q)
			Expect(err).NotTo(HaveOccurred())
			Expect(cmp.Diff(first, again)).To(BeEmpty())
		}
	})

	It("should report misses", func() {
		_, err := store.Query(char.Query{PE: hw.Carus, Op: workload.Op(8, 8, 128), Voltage: 0.8})
		Expect(err).To(MatchError(char.ErrMissingData))

		_, err = store.Query(char.Query{PE: hw.Caesar, Op: workload.Op(8, 8, 256), Voltage: 0.8})
		Expect(err).To(MatchError(char.ErrUnknownPE))

		_, err = store.Query(char.Query{PE: hw.Carus, Op: workload.Op(8, 8, 256), Voltage: 0.7})
		Expect(err).To(MatchError(char.ErrUnknownVoltage))

		_, err = store.Query(char.Query{
			PE: hw.Carus, Op: workload.Op(8, 8, 256), Voltage: 0.8, Freq: 600 * sim.MHz})
		Expect(err).To(MatchError(char.ErrFrequencyOutOfRange))
	})

	It("should reject invalid records and keep the valid ones", func() {
		bad := carusPoint()
		bad.Op = workload.Op(1, 1, 1)
		bad.ClockPeriodNs = 0
		bad.Static = hw.DomainPower{hw.Sys: -1}

		good := carusPoint()
		good.Op = workload.Op(2, 2, 2)

		err := store.Load([]char.Measurement{bad, good})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("clock period"))
		Expect(err.Error()).To(ContainSubstring("non-negative"))
		Expect(store.Len()).To(Equal(2))
	})

	It("should list PEs and voltages", func() {
		p := carusPoint()
		p.Voltage = 0.5
		Expect(store.Load([]char.Measurement{p})).To(Succeed())

		Expect(store.PEs()).To(Equal([]hw.PE{hw.Carus}))
		Expect(store.Voltages(hw.Carus)).To(Equal([]hw.Voltage{0.5, 0.8}))
		Expect(store.Measurements(hw.Carus, 0.5)).To(HaveLen(1))
	})

	It("should round trip through a snapshot", func() {
		path := filepath.Join(GinkgoT().TempDir(), "char.db")
		Expect(store.Save(path)).To(Succeed())

		loaded, err := char.LoadSnapshot(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cmp.Diff(store.All(), loaded.All())).To(BeEmpty())
		Expect(loaded.Ceilings()).To(Equal(hw.DefaultCeilings()))

		Expect(store.Save(path)).To(Succeed())
	})

	It("should answer queries for PEs loaded from a snapshot", func() {
		path := filepath.Join(GinkgoT().TempDir(), "char.db")
		Expect(store.Save(path)).To(Succeed())

		loaded, err := char.LoadSnapshot(path)
		Expect(err).NotTo(HaveOccurred())

		_, err = loaded.Query(char.Query{PE: hw.Carus, Op: workload.Op(8, 8, 256), Voltage: 0.8})
		Expect(err).NotTo(HaveOccurred())

		_, err = loaded.Query(char.Query{PE: hw.CPU, Op: workload.Op(8, 8, 256), Voltage: 0.8})
		Expect(err).To(MatchError(char.ErrUnknownPE))
	})

	It("should read only the ceilings of a snapshot", func() {
		path := filepath.Join(GinkgoT().TempDir(), "char.db")
		custom := char.NewStore(hw.CeilingTable{600: 300 * sim.MHz})
		Expect(custom.Save(path)).To(Succeed())

		c, err := char.LoadCeilings(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(hw.CeilingTable{600: 300 * sim.MHz}))
	})

	It("should fail on a missing snapshot", func() {
		_, err := char.LoadSnapshot(filepath.Join(GinkgoT().TempDir(), "none.db"))
		Expect(err).To(HaveOccurred())
	})
})
