package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	flagsnapcmder "github.com/papercomputeco/flagsnap/cmd/flagsnap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := flagsnapcmder.NewFlagsnapCmd()
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
