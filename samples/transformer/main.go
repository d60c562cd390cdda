package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sarchlab/eve/char"
	"github.com/sarchlab/eve/emu"
	"github.com/sarchlab/eve/hw"
	"github.com/sarchlab/eve/policy"
	"github.com/sarchlab/eve/power"
	"github.com/sarchlab/eve/synth"
	"github.com/sarchlab/eve/workload"
	"github.com/tebeka/atexit"
)

const (
	seqLen  = 16
	dModel  = 64
	heads   = 4
	dFF     = 256
	budgetS = 2e-3
)

// encoderBlock lists the matmuls of one transformer encoder block.
func encoderBlock() workload.Workload {
	dHead := dModel / heads

	wl := workload.Workload{
		workload.Op(seqLen, dModel, dModel), // Q
		workload.Op(seqLen, dModel, dModel), // K
		workload.Op(seqLen, dModel, dModel), // V
	}

	for h := 0; h < heads; h++ {
		wl = append(wl,
			workload.Op(seqLen, dHead, seqLen),
			workload.Op(seqLen, seqLen, dHead))
	}

	return append(wl,
		workload.Op(seqLen, dModel, dModel),
		workload.Op(seqLen, dModel, dFF),
		workload.Op(seqLen, dFF, dModel))
}

func setupLogging() {
	f, err := os.Create("transformer.json.log")
	if err != nil {
		panic(err)
	}

	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(handler))

	atexit.Register(func() {
		f.Sync()
		f.Close()
	})
}

func buildModel() *power.Model {
	generated, err := synth.NewGenerator().Store()
	if err != nil {
		panic(err)
	}

	snapshot := "transformer_characterization.sqlite"
	if err := generated.Save(snapshot); err != nil {
		panic(err)
	}

	store, err := char.LoadSnapshot(snapshot)
	if err != nil {
		panic(err)
	}

	model, err := power.Build(store, power.DefaultConfig())
	if err != nil {
		panic(err)
	}

	return model
}

func main() {
	setupLogging()

	model := buildModel()
	wl := encoderBlock()

	e := emu.Builder{}.
		WithPredictor(model).
		WithWorkload(wl).
		WithBudget(budgetS).
		WithMemory(hw.DefaultMemoryCapacity()).
		Build()

	accelerators := []hw.PE{hw.Carus, hw.Caesar, hw.CGRA}
	e.RunMultiple([]policy.Policy{
		policy.NewGreedy(policy.Options{PEs: accelerators}),
		policy.NewGreedy(policy.Options{Label: "greedy_energy_tiled", PEs: accelerators, Tiled: true}),
		policy.NewOptimalMCKP(policy.Options{PEs: accelerators, Verbose: true}),
		policy.NewFixedPE(hw.CPU, 0.9, policy.Options{}),
		policy.NewFixedPEWMem(hw.Carus, 0.9, policy.Options{}),
		policy.NewMaxPerformance(policy.Options{}),
		policy.NewMaxPerformanceWMem(policy.Options{}),
		policy.NewOptimalFixedVoltage(0.65, policy.Options{}),
		policy.NewPerOperationFixedVoltage(0.65, policy.Options{}),
		policy.NewParallelTiling(policy.Options{PEs: []hw.PE{hw.Carus, hw.Caesar}}),
	})

	fmt.Printf("Encoder block: %d matmuls, %d MACs\n", len(wl), wl.TotalOps())
	e.WriteSummary(os.Stdout)

	if err := e.WriteDetails(os.Stdout, "optimal_mckp_energy"); err != nil {
		panic(err)
	}

	if err := e.SaveSummaryToFile("transformer_summary.txt"); err != nil {
		panic(err)
	}

	atexit.Exit(0)
}
