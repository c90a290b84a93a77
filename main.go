// Package main is the entry point for the scrapeforge orchestrator. It
// serves double duty as the worker subprocess image: the dispatcher's
// process pool re-execs this same binary with a sentinel argument instead
// of launching a separate worker executable.
package main

import (
	"fmt"
	"os"

	"scrapeforge.xyz/orchestrator/cmd"
	"scrapeforge.xyz/orchestrator/internal/dispatcher"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == dispatcher.WorkerModeFlag {
		if err := dispatcher.RunWorker(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "worker error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
