// Cvssmerge scores CVSS vectors and reconciles the vectors published for a
// vulnerability into a single score.
//
// Usage:
//
//	cvssmerge score [vector...]
//	cvssmerge evaluate [file]
//
// Run "cvssmerge help" for the flags and environment variables understood.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
