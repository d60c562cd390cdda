package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sarchlab/eve/config"
	"github.com/sarchlab/eve/emu"
	"github.com/sarchlab/eve/util"
	"github.com/tebeka/atexit"
)

func main() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: util.LevelTrace,
	})
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load("run.yaml")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	model, err := cfg.Model()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	policies, err := cfg.Policies()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	e := emu.Builder{}.
		WithPredictor(model).
		WithWorkload(cfg.Workload).
		WithBudget(cfg.BudgetS).
		WithMemory(cfg.Memory).
		Build()

	e.RunMultiple(policies)
	e.WriteSummary(os.Stdout)

	for _, r := range e.Results() {
		if err := e.WriteDetails(os.Stdout, r.Policy); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	atexit.Exit(0)
}
