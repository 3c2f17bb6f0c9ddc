package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	rootcmd "folio/api/cmd/folio/root"
	"folio/api/cmd/folio/shared"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	state := &shared.Context{}
	err := rootcmd.New(state).ExecuteContext(ctx)
	if cerr := state.Close(context.WithoutCancel(ctx)); err == nil {
		err = cerr
	}
	return err
}
