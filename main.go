package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/drewfead/meetlink/internal/auth"
	"github.com/drewfead/meetlink/internal/calendar"
	"github.com/drewfead/meetlink/internal/config"
	"github.com/drewfead/meetlink/internal/desktop"
	"github.com/drewfead/meetlink/internal/ledger"
	"github.com/drewfead/meetlink/internal/logging"
	"github.com/drewfead/meetlink/internal/runner"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const envPrefix = "MEETLINK_"

// app holds the process-wide collaborators that tests replace
type app struct {
	stdout    io.Writer
	stderr    io.Writer
	clipboard runner.Clipboard
	browser   runner.Browser
	flow      auth.FlowOptions
}

func defaultApp() *app {
	desktop.RedirectBrowserOutput(os.Stderr)
	b := desktop.Browser{}
	return &app{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		clipboard: desktop.Clipboard{},
		browser:   b,
		flow:      auth.FlowOptions{OpenURL: b.OpenURL},
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "meetlink",
		Usage:     "create an instant Google Meet link",
		UsageText: "meetlink [--data PATH]",
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "data",
				Aliases:   []string{"d"},
				Usage:     "data directory holding credentials.json, tokencache.json and request_id_cache (~/.meet_data/ by default)",
				TakesFile: true,
				Sources:   cli.EnvVars(envPrefix + "DATA"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
				Sources: cli.EnvVars(envPrefix + "VERBOSE"),
			},
			&cli.StringFlag{
				Name:    "api-endpoint",
				Usage:   "override the Google Calendar API base URL",
				Hidden:  true,
				Sources: cli.EnvVars(envPrefix + "API_ENDPOINT"),
			},
		},
		Action: a.run,
	}
}

func (a *app) run(ctx context.Context, cmd *cli.Command) error {
	logger := logging.New(a.stderr, cmd.Bool("verbose"))
	slog.SetDefault(logger)

	paths, err := config.NewPaths(cmd.String("data"))
	if err != nil {
		return err
	}
	if err := paths.Validate(); err != nil {
		return err
	}
	logger.Debug("using data directory", "path", paths.DataDir)

	flow := a.flow
	flow.Logger = logger
	authorizer := auth.NewAuthorizer(paths.Credentials, paths.TokenCache, logger, auth.WithFlowOptions(flow))

	endpoint := cmd.String("api-endpoint")
	connect := func(ctx context.Context, tok *oauth2.Token) (runner.Session, error) {
		return calendar.NewSession(ctx, tok, endpoint)
	}

	r := runner.New(
		ledger.New(paths.RequestID),
		authorizer,
		connect,
		a.clipboard,
		a.browser,
		a.stdout,
		runner.WithLogger(logger),
	)

	if _, err := r.Run(ctx); err != nil {
		return fmt.Errorf("failed to create meeting link: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := defaultApp().command().Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
