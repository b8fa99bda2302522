package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stockpulse/stockpulse/internal/persistence"
)

func runTickersAdd(cmd *cobra.Command, args []string) error {
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

	var failed int
	for _, symbol := range args {
		ticker, err := a.tickers.Add(ctx, symbol)
		if err != nil {
			if errors.Is(err, persistence.ErrDuplicateTicker) {
				fmt.Printf("%s: already on the watchlist\n", strings.ToUpper(symbol))
			} else {
				fmt.Printf("%s: %v\n", strings.ToUpper(symbol), err)
				failed++
			}
			continue
		}

		// The process exits after this command, so refresh inline rather
		// than in the background.
		count, err := a.refresher.RefreshOne(ctx, ticker)
		if err != nil {
			fmt.Printf("%s: added, but refresh failed: %v\n", ticker.Symbol, err)
			failed++
			continue
		}
		fmt.Printf("%s: added, %d alert(s)\n", ticker.Symbol, count)
	}

	if failed > 0 {
		return fmt.Errorf("%d symbol(s) failed", failed)
	}
	return nil
}

func runTickersRemove(cmd *cobra.Command, args []string) error {
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

	var failed int
	for _, symbol := range args {
		ticker, err := a.tickers.GetBySymbol(ctx, symbol)
		if err != nil {
			if errors.Is(err, persistence.ErrTickerNotFound) {
				fmt.Printf("%s: not on the watchlist\n", strings.ToUpper(symbol))
			} else {
				fmt.Printf("%s: %v\n", strings.ToUpper(symbol), err)
				failed++
			}
			continue
		}

		if err := a.tickers.Remove(ctx, symbol); err != nil {
			fmt.Printf("%s: %v\n", ticker.Symbol, err)
			failed++
			continue
		}
		a.bars.Forget(ctx, ticker.ID)
		fmt.Printf("%s: removed\n", ticker.Symbol)
	}

	if failed > 0 {
		return fmt.Errorf("%d symbol(s) failed", failed)
	}
	return nil
}

func runTickersList(cmd *cobra.Command, args []string) error {
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

	tickers, total, err := a.tickers.List(ctx, 0, 1000)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Println("Watchlist is empty.")
		return nil
	}

	for _, t := range tickers {
		status := "active"
		if !t.Active {
			status = "inactive"
		}
		fmt.Printf("%-8s %-9s added %s\n", t.Symbol, status, t.AddedAt.Format("2006-01-02"))
	}
	fmt.Printf("%d ticker(s)\n", total)
	return nil
}
