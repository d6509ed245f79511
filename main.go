package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"git.pepabo.com/yukyan/gh-scope-collision/collision"
	"git.pepabo.com/yukyan/gh-scope-collision/config"
	"git.pepabo.com/yukyan/gh-scope-collision/github"
	"git.pepabo.com/yukyan/gh-scope-collision/github/event"
	"git.pepabo.com/yukyan/gh-scope-collision/github/model"
	"git.pepabo.com/yukyan/gh-scope-collision/github/output"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// 終了コード
const (
	exitOK            = 0
	exitFailed        = 1 // collision on a PR in block mode, or an API failure
	exitMisconfigured = 2
)

// ExitError signals a non-zero exit code without calling os.Exit in RunE.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	stop()
	os.Exit(code)
}

// execute はコマンドを実行し、終了コードを返します
func execute(ctx context.Context, args []string, stdout, stderr io.Writer, transport http.RoundTripper) int {
	cmd := newRootCmd(stdout, stderr, transport)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(stdout, exitErr.Err)
		}
		return exitErr.Code
	}

	// Flag parsing errors from cobra
	fmt.Fprintln(stdout, err)
	return exitMisconfigured
}

func newRootCmd(stdout, stderr io.Writer, transport http.RoundTripper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gh-scope-collision",
		Short: "Detect open issues and pull requests that declare the same SCOPE",
		Long: `Reads the triggering issue or pull request event from GITHUB_EVENT_PATH,
extracts its "SCOPE: <token>" line and comments when other open items declare
the same scope. With COORD_MODE=block a collision on a pull request fails the run.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.New(cmd.Flags())
			if err != nil {
				return &ExitError{Code: exitMisconfigured, Err: err}
			}
			cfg, err := config.Load(v)
			if err != nil {
				return &ExitError{Code: exitMisconfigured, Err: err}
			}
			logger := newLogger(stderr, cfg.LogLevel)

			ev, err := event.Load(cfg.EventPath)
			if err != nil {
				return &ExitError{Code: exitMisconfigured, Err: err}
			}

			client, err := github.NewClient(github.Options{
				Host:      cfg.Host,
				Token:     cfg.Token,
				Timeout:   cfg.Timeout,
				Transport: transport,
				Logger:    logger,
			})
			if err != nil {
				return &ExitError{Code: exitCode(err), Err: err}
			}

			runner := collision.NewRunner(client, collision.Options{
				Host:   cfg.Host,
				Mode:   cfg.Mode,
				DryRun: cfg.DryRun,
				Logger: logger,
			})
			report, err := runner.Run(cmd.Context(), ev)
			if err != nil {
				return &ExitError{Code: exitCode(err), Err: err}
			}

			if err := output.WriteReport(stdout, report, cfg.OutputFormat); err != nil {
				logger.Error("failed to write report", "err", err)
			}

			if report.Blocked {
				return &ExitError{Code: exitFailed}
			}
			return nil
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

func exitCode(err error) int {
	if errors.Is(err, model.ErrMisconfigured) {
		return exitMisconfigured
	}
	return exitFailed
}

func newLogger(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "scope-collision",
		Level:  lvl,
	})
}
