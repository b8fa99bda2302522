package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.refresher.RefreshAll(ctx, func(current, total int, symbol string) {
		fmt.Printf("[%d/%d] %s\n", current, total, symbol)
	})
	if err != nil {
		// A cancelled sweep still reports what it got through.
		fmt.Println(a.refresher.Summary(result))
		return err
	}

	fmt.Println(a.refresher.Summary(result))
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d ticker(s) failed", len(result.Failed))
	}
	return nil
}
