package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/segmentio/cli"
)

func main() {

	cli.Exec(cli.CommandSet{
		"view": cli.Command(func(cfg viewConfig) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			exit(runView(ctx, cfg))
		}),
		"dump": cli.Command(func(cfg dumpConfig) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			setupLogging(os.Stderr, verbosity(cfg.Verbose))
			exit(runDump(ctx, cfg, os.Stdout))
		}),
		"add": cli.Command(func(cfg addConfig, fields ...string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			setupLogging(os.Stderr, verbosity(cfg.Verbose))
			exit(runAdd(ctx, cfg, fields))
		}),
		"serve": cli.Command(func(cfg serveConfig) {
			setupLogging(os.Stderr, slog.LevelInfo)
			exit(runServe(cfg))
		}),
	})
}

func verbosity(verbose bool) slog.Level {
	if verbose {
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

func setupLogging(w io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func exit(err error) {

	if err == nil {
		os.Exit(0)
	}

	color.Red("error: %s", err.Error())
	os.Exit(1)
}
