package policy

import (
	"errors"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/ilp"
	"github.com/sarchlab/eve/power"
	"github.com/sarchlab/eve/workload"
)

type cost struct {
	timeNs   float64
	energyNJ float64
}

func prediction(pe hw.PE, op workload.Operation, v hw.Voltage, c cost) power.Prediction {
	powerMW := c.energyNJ * 1000 / c.timeNs
	return power.Prediction{
		PE:              pe,
		Op:              op,
		Voltage:         v,
		Freq:            690 * sim.MHz,
		ExecutionTimeNs: c.timeNs,
		DynPowerMW:      powerMW,
		TotalPowerMW:    powerMW,
		TotalEnergyNJ:   c.energyNJ,
	}
}

// priciestSolver returns a feasible but non-optimal solution that picks the
// most expensive member of every choice constraint.
type priciestSolver struct{}

func (priciestSolver) Solve(p *ilp.Problem) (ilp.Solution, error) {
	sol := ilp.Solution{Values: make([]bool, p.NumVars())}

	for _, con := range p.Constraints {
		if con.Sense != ilp.Equal {
			continue
		}

		pick := con.Terms[0].Var
		for _, t := range con.Terms {
			if p.Cost[t.Var] > p.Cost[pick] {
				pick = t.Var
			}
		}
		sol.Values[pick] = true
	}

	obj, ok := p.Evaluate(sol.Values)
	if !ok {
		return ilp.Solution{}, ilp.ErrInfeasible
	}
	sol.Objective = obj

	return sol, nil
}

var _ = Describe("Greedy and MCKP with a mocked model", func() {
	var (
		mockCtrl  *gomock.Controller
		predictor *MockPredictor
		costs     map[hw.PE]map[int]cost
		wl        workload.Workload
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		predictor = NewMockPredictor(mockCtrl)

		wl = workload.Workload{workload.Op(1, 1, 1), workload.Op(1, 1, 2)}
		costs = map[hw.PE]map[int]cost{
			hw.Carus: {1: {100, 10}, 2: {100, 10}},
			hw.CPU:   {1: {50, 20}, 2: {60, 12}},
		}

		predictor.EXPECT().PEs().Return([]hw.PE{hw.Carus, hw.CPU}).AnyTimes()
		predictor.EXPECT().Voltages(gomock.Any()).Return([]hw.Voltage{0.9}).AnyTimes()
		predictor.EXPECT().Has(gomock.Any(), gomock.Any()).Return(true).AnyTimes()
		predictor.EXPECT().Ceiling(gomock.Any()).Return(690*sim.MHz, true).AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	expectPredictions := func() {
		predictor.EXPECT().
			Predict(gomock.Any(), gomock.Any(), gomock.Any(), sim.Freq(0)).
			DoAndReturn(func(pe hw.PE, op workload.Operation, v hw.Voltage, _ sim.Freq) (power.Prediction, error) {
				return prediction(pe, op, v, costs[pe][op.N]), nil
			}).
			AnyTimes()
	}

	It("should keep the minimum-energy plan when it fits", func() {
		expectPredictions()

		r := NewGreedy(Options{}).Run(predictor, wl, 1e-6, nil)

		Expect(r.Success).To(BeTrue(), r.Message)
		Expect(r.Details[0].PE()).To(Equal(hw.Carus))
		Expect(r.Details[1].PE()).To(Equal(hw.Carus))
		Expect(r.Totals.EnergyNJ).To(Equal(20.0))
	})

	It("should apply the swap with the best time per energy first", func() {
		expectPredictions()

		r := NewGreedy(Options{}).Run(predictor, wl, 170e-9, nil)

		Expect(r.Success).To(BeTrue(), r.Message)
		Expect(r.Details[0].PE()).To(Equal(hw.Carus))
		Expect(r.Details[1].PE()).To(Equal(hw.CPU))
		Expect(r.Totals.EnergyNJ).To(Equal(22.0))
		Expect(r.Totals.TimeNs).To(Equal(160.0))
	})

	It("should find the same optimum with MCKP", func() {
		expectPredictions()

		r := NewOptimalMCKP(Options{}).Run(predictor, wl, 170e-9, nil)

		Expect(r.Success).To(BeTrue(), r.Message)
		Expect(r.Details[1].PE()).To(Equal(hw.CPU))
		Expect(r.Totals.EnergyNJ).To(Equal(22.0))
	})

	It("should fail when swaps are exhausted", func() {
		expectPredictions()

		r := NewGreedy(Options{}).Run(predictor, wl, 100e-9, nil)
		Expect(r.Success).To(BeFalse())
		Expect(r.Message).To(ContainSubstring("infeasible budget"))

		r = NewOptimalMCKP(Options{}).Run(predictor, wl, 100e-9, nil)
		Expect(r.Success).To(BeFalse())
		Expect(r.Totals).To(BeNil())
	})

	It("should drop candidates that cannot be predicted", func() {
		predictor.EXPECT().
			Predict(hw.Carus, gomock.Any(), gomock.Any(), gomock.Any()).
			Return(power.Prediction{}, errors.New("missing")).
			AnyTimes()
		predictor.EXPECT().
			Predict(hw.CPU, gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(pe hw.PE, op workload.Operation, v hw.Voltage, _ sim.Freq) (power.Prediction, error) {
				return prediction(pe, op, v, costs[pe][op.N]), nil
			}).
			AnyTimes()

		r := NewGreedy(Options{}).Run(predictor, wl, 1e-6, nil)

		Expect(r.Success).To(BeTrue(), r.Message)
		Expect(r.Details[0].PE()).To(Equal(hw.CPU))
		Expect(r.Details[1].PE()).To(Equal(hw.CPU))
	})

	It("should fail when no candidate is left", func() {
		predictor.EXPECT().
			Predict(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(power.Prediction{}, errors.New("missing")).
			AnyTimes()

		r := NewGreedy(Options{}).Run(predictor, wl, 1, nil)

		Expect(r.Success).To(BeFalse())
		Expect(r.Message).To(ContainSubstring("no configuration could be predicted"))
	})

	It("should reject unknown PEs before predicting", func() {
		r := NewGreedy(Options{PEs: []hw.PE{hw.CGRA}}).Run(predictor, wl, 1, nil)

		Expect(r.Success).To(BeFalse())
		Expect(r.Message).To(ContainSubstring("configuration error"))
	})

	It("should fall back to greedy when the solver hits its node limit", func() {
		expectPredictions()

		mckp := &OptimalMCKP{Solver: ilp.BranchAndBound{NodeLimit: 1}}
		r := mckp.Run(predictor, wl, 170e-9, nil)
		g := NewGreedy(Options{}).Run(predictor, wl, 170e-9, nil)

		Expect(r.Success).To(BeTrue(), r.Message)
		Expect(r.Totals.EnergyNJ).To(BeNumerically("<=", g.Totals.EnergyNJ))
		Expect(r.Totals.TimeNs).To(BeNumerically("<=", 170.0))
	})

	It("should prefer greedy over a worse non-optimal incumbent", func() {
		expectPredictions()

		mckp := &OptimalMCKP{Solver: priciestSolver{}}
		r := mckp.Run(predictor, wl, 1e-6, nil)

		Expect(r.Success).To(BeTrue(), r.Message)
		Expect(r.Totals.EnergyNJ).To(Equal(20.0))
		Expect(r.Details[0].PE()).To(Equal(hw.Carus))
		Expect(r.Details[1].PE()).To(Equal(hw.Carus))
	})
})

var _ = Describe("MCKP budget tolerance", func() {
	It("should not return a plan over budget by solver rounding", func() {
		all := [][]Configuration{{
			{PEs: []hw.PE{hw.Carus}, ExecutionTimeNs: 1000.0000005, EnergyNJ: 1},
			{PEs: []hw.PE{hw.CPU}, ExecutionTimeNs: 500, EnergyNJ: 10},
		}}

		chosen, err := setup{}.selectMCKP(all, 1000, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(totalTime(chosen)).To(BeNumerically("<=", 1000.0))
		Expect(chosen[0].EnergyNJ).To(Equal(10.0))
	})

	It("should keep a plan that meets the budget exactly", func() {
		all := [][]Configuration{{
			{PEs: []hw.PE{hw.Carus}, ExecutionTimeNs: 1000, EnergyNJ: 1},
			{PEs: []hw.PE{hw.CPU}, ExecutionTimeNs: 500, EnergyNJ: 10},
		}}

		chosen, err := setup{}.selectMCKP(all, 1000, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(chosen[0].EnergyNJ).To(Equal(1.0))
	})
})
