// supportctl is a terminal client for the support dashboard backend. It keeps
// one session in the configured store, shared by every supportctl process
// pointed at the same store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/spec-kit/support-console/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flagSet := pflag.NewFlagSet("supportctl", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&cfg.API.BaseURL, "api-url", cfg.API.BaseURL, "backend base URL (SUPPORT_API_URL)")
	store := flagSet.String("store", string(cfg.Session.Store), "session store: memory, file, redis or postgres (SESSION_STORE)")
	flagSet.StringVar(&cfg.Session.FilePath, "session-file", cfg.Session.FilePath, "session file for the file store (SESSION_FILE)")
	flagSet.StringVar(&cfg.Logger.Level, "log-level", cfg.Logger.Level, "log level (LOG_LEVEL)")
	help := flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printUsage(flagSet)
			return nil
		}
		return err
	}
	if *help || flagSet.NArg() == 0 {
		printUsage(flagSet)
		return nil
	}
	cfg.Session.Store = config.StoreKind(*store)

	cmd, ok := lookup(flagSet.Arg(0))
	if !ok {
		printUsage(flagSet)
		return fmt.Errorf("unknown command %q", flagSet.Arg(0))
	}

	a, err := newApp(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	return cmd.execute(ctx, a, flagSet.Args()[1:])
}

func printUsage(global *pflag.FlagSet) {
	fmt.Fprintln(os.Stderr, "usage: supportctl [global flags] <command> [flags] [args]")
	fmt.Fprintln(os.Stderr, "\ncommands:")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(os.Stderr, "\nglobal flags:")
	fmt.Fprint(os.Stderr, global.FlagUsages())
}
