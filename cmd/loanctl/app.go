package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/subcommands"

	"github.com/warp/loan-ledger/config"
	"github.com/warp/loan-ledger/ledger"
	"github.com/warp/loan-ledger/store"
)

// app is shared by every command. A CLI run is short lived: each command
// opens the store, loads the ledger, does one thing and closes.
type app struct {
	out      io.Writer
	errOut   io.Writer
	currency string
	now      func() time.Time
	open     func(ctx context.Context) (ledger.KV, func() error, error)
}

func newApp(cfg *config.Config, out, errOut io.Writer) *app {
	return &app{
		out:      out,
		errOut:   errOut,
		currency: cfg.Currency,
		now:      time.Now,
		open: func(ctx context.Context) (ledger.KV, func() error, error) {
			kv, err := store.Open(ctx, cfg.Store)
			if err != nil {
				return nil, nil, err
			}
			return kv, kv.Close, nil
		},
	}
}

// register adds all ledger commands to c.
func register(c *subcommands.Commander, a *app) {
	c.Register(&addPersonCmd{app: a}, "persons")
	c.Register(&deletePersonCmd{app: a}, "persons")
	c.Register(&peopleCmd{app: a}, "persons")
	c.Register(&showCmd{app: a}, "persons")

	c.Register(&addTxCmd{app: a}, "transactions")
	c.Register(&deleteTxCmd{app: a}, "transactions")

	c.Register(&dashboardCmd{app: a}, "reports")

	c.Register(&exportCmd{app: a}, "backup")
	c.Register(&importCmd{app: a}, "backup")
}

// withLedger opens and loads the ledger, then runs fn.
func (a *app) withLedger(ctx context.Context, fn func(*ledger.Ledger) error) subcommands.ExitStatus {
	kv, closeFn, err := a.open(ctx)
	if err != nil {
		fmt.Fprintf(a.errOut, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	l := ledger.New(kv, ledger.WithClock(a.now))
	if err := l.Load(ctx); err != nil {
		fmt.Fprintf(a.errOut, "Warning: stored data could not be read, starting empty: %v\n", err)
	}

	if err := fn(l); err != nil {
		if ledger.IsSaveWarning(err) {
			fmt.Fprintf(a.errOut, "Warning: %v\n", err)
			return subcommands.ExitSuccess
		}
		fmt.Fprintf(a.errOut, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
