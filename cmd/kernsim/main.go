// cmd/kernsim/main.go
//
// kernsim boots a scheduler instance, starts its per-CPU loops, forks a
// handful of demo workloads under the init process, and streams the
// resulting scheduling events to the console (and, if requested, a CSV
// trace).
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"priosched/internal/job"
	"priosched/internal/sched"
)

func main() {
	configPath := flag.String("config", "config.yml", "scheduler boot configuration")
	csvPath := flag.String("csv", "", "optional CSV trace output path")
	runFor := flag.Duration("for", 2*time.Second, "how long to run the simulation")
	flag.Parse()

	cfg := sched.Load(*configPath)
	fmt.Printf("loaded config: %+v\n", cfg)

	s := sched.New(cfg)

	if *csvPath != "" {
		if err := s.Events.EnableCSVLogging(*csvPath); err != nil {
			fmt.Println("csv logging disabled:", err)
		}
	}
	go s.Events.Run()

	initProc, err := s.UserInit(job.InitLoop(s))
	if err != nil {
		fmt.Println("userinit failed:", err)
		return
	}

	workloads := []struct {
		ticks, status int
	}{
		{10, 0},
		{3, 0},
		{7, 0},
	}
	for _, w := range workloads {
		if _, err := s.Fork(initProc, job.Burst(s, w.ticks, w.status)); err != nil {
			fmt.Println("fork failed:", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *runFor)
	defer cancel()
	s.RunCPUs(ctx, cfg.CPUs)

	s.Clock.Stop()
	s.Events.Close()
}
