package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/mikey/mailbox-warmup/internal/adapters/dnscheck"
	"github.com/mikey/mailbox-warmup/internal/adapters/store"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/di"
	"github.com/mikey/mailbox-warmup/internal/factory"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

const usage = `Usage: warmupctl [flags] <command> [args]

Commands:
  quota [account_id...]   Show today's quota and sent count per account
  cycle                   Run one warmup cycle
  stats --user ID         Show reputation history and alert state for a user
  domain <domain>         Summarize spam scores and DNS health for a domain
  insights                List the engagement benefit catalog
  status [--limit N]      Show the most recent engagement activities
  migrate                 Apply pending schema migrations

Flags:
`

func main() {
	flags, err := di.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	if len(flags.Args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		flags.Flags.PrintDefaults()
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, container, flags, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, container *dig.Container, flags *di.CLIFlags, out io.Writer) error {
	command, args := flags.Args[0], flags.Args[1:]

	switch command {
	case "migrate":
		// Resolving store.Store would already migrate; go through the factory instead
		return container.Invoke(func(f *factory.StoreFactory, logger *zap.Logger) error {
			defer logger.Sync()
			version, err := f.Migrate()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Schema at version %d\n", version)
			return nil
		})
	case "insights":
		return printJSON(out, core.Insights())
	}

	return container.Invoke(func(
		logger *zap.Logger,
		st store.Store,
		runner *core.CycleRunner,
		analyzer *core.SpamAnalyzer,
		reputation *core.ReputationAggregator,
		checker *dnscheck.Checker,
	) error {
		defer logger.Sync()
		defer st.Close()

		switch command {
		case "quota":
			return quotaCommand(ctx, out, st, runner, args)
		case "cycle":
			return runner.RunCycle(ctx)
		case "stats":
			if flags.UserID == 0 {
				return errors.New("stats requires --user")
			}
			stats, err := reputation.GetStats(ctx, flags.UserID)
			if err != nil {
				return err
			}
			return printJSON(out, stats)
		case "domain":
			if len(args) != 1 {
				return errors.New("domain requires exactly one domain argument")
			}
			return domainCommand(ctx, out, analyzer, checker, args[0])
		case "status":
			activities, err := st.RecentActivities(ctx, flags.Limit)
			if err != nil {
				return err
			}
			if activities == nil {
				activities = []core.Activity{}
			}
			return printJSON(out, activities)
		default:
			return fmt.Errorf("unknown command: %s", command)
		}
	})
}

func quotaCommand(ctx context.Context, out io.Writer, st store.Store, runner *core.CycleRunner, args []string) error {
	accounts, err := st.ListAccounts(ctx)
	if err != nil {
		return err
	}

	wanted := make(map[int64]bool, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid account id %q: %w", arg, err)
		}
		wanted[id] = true
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tMODE\tQUOTA\tSENT")
	for _, account := range accounts {
		if len(wanted) > 0 && !wanted[account.ID] {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\n",
			account.ID,
			account.Email,
			account.WarmupMode,
			runner.ComputeDailyQuota(account),
			runner.SentCount(account.ID))
	}
	return w.Flush()
}

func domainCommand(ctx context.Context, out io.Writer, analyzer *core.SpamAnalyzer, checker *dnscheck.Checker, domain string) error {
	summary, err := analyzer.SummarizeDomain(ctx, domain)
	if err != nil {
		return err
	}
	health, err := checker.Check(ctx, domain)
	if err != nil {
		return err
	}
	return printJSON(out, struct {
		Summary *core.DomainSummary `json:"summary"`
		Health  *dnscheck.Health    `json:"health"`
	}{summary, health})
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
