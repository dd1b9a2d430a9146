package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/404FoundingFather/ollama-model-manager/cmd"
	"github.com/404FoundingFather/ollama-model-manager/manager"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.NewCLI().ExecuteContext(ctx); err != nil {
		if errors.Is(err, manager.ErrCancelled) && ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled by user.")
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
