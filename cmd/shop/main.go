package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/appcontext"
	"github.com/RoyceAzure/lab/empanada/internal/config"
	"github.com/RoyceAzure/lab/empanada/internal/pkg/errs"
	"github.com/RoyceAzure/lab/empanada/internal/service"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: shop [-config file] <command> [args]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-40s %s\n", c.usage, c.help)
	}
}

func main() {
	configPath := flag.String("config", "", "path of .env config file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cmd, ok := findCommand(flag.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	cf, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := appcontext.NewApplicationContext(ctx, cf, appcontext.WithNotifier(service.NewWriterNotifier(os.Stdout)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	runErr := cmd.run(ctx, app, flag.Args()[1:])

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Application shutdown error")
	}

	if runErr != nil {
		var usageErr *usageError
		if errors.As(runErr, &usageErr) {
			fmt.Fprintf(os.Stderr, "usage: shop %s\n", cmd.usage)
			os.Exit(2)
		}
		// 可由使用者修正的錯誤已透過通知顯示
		if !errs.IsUserCorrectable(runErr) {
			fmt.Fprintln(os.Stderr, errs.ReasonOf(runErr, runErr.Error()))
		}
		os.Exit(1)
	}
}
