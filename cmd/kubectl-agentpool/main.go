package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"agentpool.run/cmd/kubectl-agentpool/deps"
)

const (
	// ReturnCodeSuccess is passed to os.Exit() when no error is reported.
	ReturnCodeSuccess = 0
	// ReturnCodeError is passed to os.Exit() if a command reports an error.
	ReturnCodeError = 1
)

func main() {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt)
	os.Exit(run(ctx))
}

func run(ctx context.Context) int {
	container, err := deps.Build()
	if err != nil {
		return ReturnCodeError
	}

	if err := container.Invoke(func(cmd *cobra.Command) error {
		return cmd.ExecuteContext(ctx)
	}); err != nil {
		return ReturnCodeError
	}

	return ReturnCodeSuccess
}
