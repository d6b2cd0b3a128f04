// Command pantryctl inspects and edits the pantry inventory from a shell.
//
// It reads the same configuration as the server (.env plus PANTRY_*
// variables) and opens the same storage, so it should not write while the
// server is running against a file or sqlite backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sakif/pantry/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(config.Load, time.Now).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
