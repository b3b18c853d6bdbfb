// cmd/chsched/main.go
//
// chsched is the thin CLI that calls the reconfiguration entry point and
// renders its result, mirroring the original user/chsched.c.
package main

import (
	"fmt"
	"os"
	"strconv"

	"priosched/internal/sched"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintf(os.Stderr, "usage: %s <algorithm> <is_preemptive> <a>\n", os.Args[0])
		os.Exit(0)
	}

	algo, _ := strconv.Atoi(os.Args[1])
	isPreemptive, _ := strconv.Atoi(os.Args[2])
	a, _ := strconv.ParseInt(os.Args[3], 10, 64)

	cfg := sched.Load("config.yml")
	s := sched.New(cfg)

	ret := s.ChangeSched(algo, isPreemptive, a)

	if algo == int(sched.SJF) {
		fmt.Println("algorithm: SJF")
		fmt.Printf("is_preemptive: %d\n", isPreemptive)
		fmt.Printf("a: %d\n", a)
	} else {
		fmt.Println("algorithm: CFS")
	}
	fmt.Printf("return code: %d\n", ret)
	os.Exit(0)
}
