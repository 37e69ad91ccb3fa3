package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/warp/loan-ledger/format"
	"github.com/warp/loan-ledger/ledger"
)

// =============================================================================
// PERSONS
// =============================================================================

type addPersonCmd struct {
	*app
}

func (*addPersonCmd) Name() string     { return "add-person" }
func (*addPersonCmd) Synopsis() string { return "add a person to the ledger" }
func (*addPersonCmd) Usage() string {
	return `loanctl add-person <name>

  Adds a person and prints the new id. Names need not be unique.
`
}

func (c *addPersonCmd) SetFlags(f *flag.FlagSet) {}

func (c *addPersonCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name := strings.Join(f.Args(), " ")
	if strings.TrimSpace(name) == "" {
		fmt.Fprintln(c.errOut, "Error: a name is required.")
		return subcommands.ExitUsageError
	}
	return c.withLedger(ctx, func(l *ledger.Ledger) error {
		p, err := l.AddPerson(ctx, name)
		if p.ID != "" {
			fmt.Fprintf(c.out, "Added %s (%s)\n", p.Name, p.ID)
		}
		return err
	})
}

type deletePersonCmd struct {
	*app
}

func (*deletePersonCmd) Name() string     { return "delete-person" }
func (*deletePersonCmd) Synopsis() string { return "delete a person and all their transactions" }
func (*deletePersonCmd) Usage() string {
	return `loanctl delete-person <person-id>
`
}

func (c *deletePersonCmd) SetFlags(f *flag.FlagSet) {}

func (c *deletePersonCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.errOut, "Error: exactly one person id is required.")
		return subcommands.ExitUsageError
	}
	id := f.Arg(0)
	return c.withLedger(ctx, func(l *ledger.Ledger) error {
		p, ok := l.Person(id)
		if !ok {
			fmt.Fprintf(c.out, "No person %s, nothing to delete\n", id)
			return nil
		}
		n := len(l.TransactionsFor(id))
		err := l.DeletePerson(ctx, id)
		fmt.Fprintf(c.out, "Deleted %s and %s\n", p.Name, format.TransactionCount(n))
		return err
	})
}

type peopleCmd struct {
	*app
}

func (*peopleCmd) Name() string     { return "people" }
func (*peopleCmd) Synopsis() string { return "list persons with their balances" }
func (*peopleCmd) Usage() string {
	return `loanctl people

  Lists every person sorted by name with the current balance.
`
}

func (c *peopleCmd) SetFlags(f *flag.FlagSet) {}

func (c *peopleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.withLedger(ctx, func(l *ledger.Ledger) error {
		persons := l.AllPersonsWithBalance()
		if len(persons) == 0 {
			fmt.Fprintln(c.out, "No people yet")
			return nil
		}
		tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tBALANCE\tSTATUS\tTRANSACTIONS\tID")
		for _, p := range persons {
			balance := format.Currency(p.Balance, c.currency)
			if p.Settled() {
				balance = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", p.Name, balance, format.Direction(p.Balance), p.TransactionCount, p.ID)
		}
		return tw.Flush()
	})
}

type showCmd struct {
	*app
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "show a person's balance and transactions" }
func (*showCmd) Usage() string {
	return `loanctl show <person-id>
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.errOut, "Error: exactly one person id is required.")
		return subcommands.ExitUsageError
	}
	id := f.Arg(0)
	return c.withLedger(ctx, func(l *ledger.Ledger) error {
		p, err := l.BalanceFor(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s\n", p.Name)
		if p.Settled() {
			fmt.Fprintln(c.out, "  Settled")
		} else {
			fmt.Fprintf(c.out, "  %s  %s\n", format.Currency(p.Balance, c.currency), format.BalanceLabel(p))
		}
		fmt.Fprintf(c.out, "  Given %s, Borrowed %s\n\n",
			format.Currency(p.TotalGiven, c.currency), format.Currency(p.TotalTaken, c.currency))

		txs := l.TransactionsFor(id)
		if len(txs) == 0 {
			fmt.Fprintln(c.out, "No transactions yet")
			return nil
		}
		tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tTYPE\tAMOUNT\tDESCRIPTION\tID")
		for _, tx := range txs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				format.DateTime(tx.Date, tx.Time), tx.Type.Label(),
				format.Currency(tx.Amount, c.currency), tx.Description, tx.ID)
		}
		return tw.Flush()
	})
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

type addTxCmd struct {
	*app
	person      string
	txType      string
	amount      string
	date        string
	time        string
	description string
}

func (*addTxCmd) Name() string     { return "add-tx" }
func (*addTxCmd) Synopsis() string { return "record money given to or borrowed from a person" }
func (*addTxCmd) Usage() string {
	return `loanctl add-tx -person <id> -type given|taken -amount <n> [-date YYYY-MM-DD] [-time HH:MM] [-m <description>]

  given: you gave money to the person (they owe you more)
  taken: you borrowed money from the person (you owe them more)
  Date and time default to now.
`
}

func (c *addTxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.person, "person", "", "Person id.")
	f.StringVar(&c.txType, "type", "", "given or taken.")
	f.StringVar(&c.amount, "amount", "", "Amount, greater than zero.")
	f.StringVar(&c.date, "date", "", "Date of the movement (YYYY-MM-DD). Defaults to today.")
	f.StringVar(&c.time, "time", "", "Time of the movement (HH:MM). Defaults to now.")
	f.StringVar(&c.description, "m", "", "Optional description.")
}

func (c *addTxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.person == "" {
		fmt.Fprintln(c.errOut, "Error: -person is required.")
		return subcommands.ExitUsageError
	}
	txType, err := ledger.ParseTransactionType(c.txType)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	amount, err := ledger.ParseAmount(c.amount)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	return c.withLedger(ctx, func(l *ledger.Ledger) error {
		tx, err := l.AddTransaction(ctx, ledger.NewTransaction{
			PersonID:    c.person,
			Type:        txType,
			Amount:      amount,
			Date:        c.date,
			Time:        c.time,
			Description: c.description,
		})
		if tx.ID == "" {
			return err
		}
		fmt.Fprintf(c.out, "%s %s on %s (%s)\n",
			tx.Type.Label(), format.Currency(tx.Amount, c.currency), format.DateTime(tx.Date, tx.Time), tx.ID)
		if p, balErr := l.BalanceFor(tx.PersonID); balErr == nil {
			fmt.Fprintf(c.out, "%s: %s\n", format.BalanceLabel(p), format.Currency(p.Balance, c.currency))
		}
		return err
	})
}

type deleteTxCmd struct {
	*app
}

func (*deleteTxCmd) Name() string     { return "delete-tx" }
func (*deleteTxCmd) Synopsis() string { return "delete a transaction" }
func (*deleteTxCmd) Usage() string {
	return `loanctl delete-tx <transaction-id>
`
}

func (c *deleteTxCmd) SetFlags(f *flag.FlagSet) {}

func (c *deleteTxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.errOut, "Error: exactly one transaction id is required.")
		return subcommands.ExitUsageError
	}
	return c.withLedger(ctx, func(l *ledger.Ledger) error {
		err := l.DeleteTransaction(ctx, f.Arg(0))
		fmt.Fprintf(c.out, "Deleted %s\n", f.Arg(0))
		return err
	})
}

// =============================================================================
// REPORTS
// =============================================================================

type dashboardCmd struct {
	*app
}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "show totals across all persons" }
func (*dashboardCmd) Usage() string {
	return `loanctl dashboard
`
}

func (c *dashboardCmd) SetFlags(f *flag.FlagSet) {}

func (c *dashboardCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.withLedger(ctx, func(l *ledger.Ledger) error {
		s := l.DashboardStats()
		tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "People\t%d\n", s.TotalPeople)
		fmt.Fprintf(tw, "Owed to you\t%s\n", format.Currency(s.TotalOwedToMe, c.currency))
		fmt.Fprintf(tw, "You owe\t%s\n", format.Currency(s.TotalIOweThem, c.currency))
		fmt.Fprintf(tw, "%s\t%s\n", format.NetLabel(s), format.Currency(s.Net(), c.currency))
		return tw.Flush()
	})
}

// =============================================================================
// BACKUP
// =============================================================================

type exportCmd struct {
	*app
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write a backup of the whole ledger" }
func (*exportCmd) Usage() string {
	return `loanctl export [-o <file>]

  Writes the ledger as JSON. The default file is loan-manager-backup-<today>.json.
  Use -o - to write to standard output.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file, or - for standard output.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.withLedger(ctx, func(l *ledger.Ledger) error {
		if c.output == "-" {
			return l.WriteExport(c.out)
		}
		name := c.output
		if name == "" {
			name = ledger.ExportFilename(c.now())
		}
		file, err := os.Create(name)
		if err != nil {
			return err
		}
		if err := l.WriteExport(file); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Exported to %s\n", name)
		return nil
	})
}

type importCmd struct {
	*app
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the ledger from a backup file" }
func (*importCmd) Usage() string {
	return `loanctl import <file>

  Replaces persons and/or transactions with those in the file. A collection
  that is missing or malformed in the file is left unchanged. Use - to read
  standard input.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.errOut, "Error: exactly one file is required.")
		return subcommands.ExitUsageError
	}
	data, err := readInput(f.Arg(0))
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	return c.withLedger(ctx, func(l *ledger.Ledger) error {
		result, err := l.Import(ctx, data)
		if err != nil && !ledger.IsSaveWarning(err) {
			return err
		}
		fmt.Fprintf(c.out, "Imported: %d persons (replaced: %t), %d transactions (replaced: %t)\n",
			result.Persons, result.PersonsReplaced, result.Transactions, result.TransactionsReplaced)
		if result.PersonsSkipped != "" {
			fmt.Fprintf(c.errOut, "Warning: kept existing persons: %s\n", result.PersonsSkipped)
		}
		if result.TransactionsSkipped != "" {
			fmt.Fprintf(c.errOut, "Warning: kept existing transactions: %s\n", result.TransactionsSkipped)
		}
		if result.Orphans > 0 {
			fmt.Fprintf(c.errOut, "Warning: %d transactions reference persons not in the ledger\n", result.Orphans)
		}
		return err
	})
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}
