// kderelay types on KDE Connect devices through their remote keyboard
// plugin. It talks to the local KDE Connect daemon over the D-Bus session
// bus.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"kderelay/internal/config"
	"kderelay/internal/kdeconnect"
	"kderelay/internal/logging"
	"kderelay/internal/relay"
	"kderelay/internal/store"
)

// bus is the part of a D-Bus connection the commands need.
type bus interface {
	kdeconnect.Caller
	io.Closer
}

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	verbose    bool

	loader *config.Loader
	cfg    *config.Config
	logger *logging.Logger

	// dial opens the bus. Tests replace it with a fake daemon.
	dial func(cfg *config.Config, log *slog.Logger) (bus, error)
}

// exitError carries a process exit code without printing anything more.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

func main() {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, dial: dialBus}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := a.run(ctx, os.Args[1:])
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

func dialBus(cfg *config.Config, log *slog.Logger) (bus, error) {
	return kdeconnect.Dial(kdeconnect.ConnConfig{
		Address:     cfg.DBus.Address,
		Service:     cfg.DBus.Service,
		CallTimeout: cfg.CallTimeout(),
		Logger:      log,
	})
}

func (a *app) run(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("kderelay", pflag.ContinueOnError)
	flags.SetOutput(a.stderr)
	flags.StringVarP(&a.configPath, "config", "c", "", "path to config file (default: "+config.ConfigPath()+")")
	flags.StringVar(&a.logLevel, "log-level", "", "override the configured log level")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "also log to stderr")
	flags.SetInterspersed(false)
	flags.Usage = func() { a.usage(flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := flags.Args()
	if len(rest) == 0 {
		a.usage(flags)
		return &exitError{code: 2, err: errors.New("no command given")}
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "version":
		return a.cmdVersion(cmdArgs)
	case "help":
		a.usage(flags)
		return nil
	}

	if err := a.setup(cmd == "tui"); err != nil {
		return err
	}
	defer a.logger.Close()

	switch cmd {
	case "devices":
		return a.cmdDevices(ctx, cmdArgs)
	case "send":
		return a.cmdSend(ctx, cmdArgs)
	case "tui":
		return a.cmdTUI(ctx, cmdArgs)
	case "history":
		return a.cmdHistory(ctx, cmdArgs)
	case "config":
		return a.cmdConfig(cmdArgs)
	default:
		a.usage(flags)
		return &exitError{code: 2, err: fmt.Errorf("unknown command %q", cmd)}
	}
}

func (a *app) usage(flags *pflag.FlagSet) {
	fmt.Fprintf(a.stderr, `kderelay - type on KDE Connect devices

Usage: kderelay [options] <command> [args]

Commands:
  devices [--all]                 List devices and their keyboard state
  send [--device id] TEXT...      Type TEXT on a device and wait until sent
  tui                             Relay keys typed in this terminal
  history                         Show devices seen and keys delivered
  config [--write]                Print the effective configuration
  version                         Print version information

Options:
%s`, flags.FlagUsages())
}

// setup loads the configuration and installs the logger. Interactive
// commands never log to the terminal they draw on.
func (a *app) setup(interactive bool) error {
	a.loader = config.NewLoader(a.configPath)
	cfg, err := a.loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	lc := logging.FromConfig(cfg.Logging)
	switch {
	case interactive:
		if lc.Output != "file" {
			lc.Output = "discard"
			if lc.FilePath != "" {
				lc.Output = "file"
			}
		}
	case a.verbose && lc.Output == "file":
		lc.Output = "both"
	}

	logger, err := logging.New(lc)
	if err != nil {
		// The log file may be unwritable; keep going on stderr.
		lc.Output = "stderr"
		if logger, err = logging.New(lc); err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}
	}
	logging.SetDefault(logger)
	a.logger = logger
	return nil
}

// connect dials the bus and builds a relay over it.
func (a *app) connect(rec relay.Recorder) (bus, *kdeconnect.Directory, relay.Options, error) {
	conn, err := a.dial(a.cfg, a.logger.WithComponent("dbus").Logger)
	if err != nil {
		return nil, nil, relay.Options{}, fmt.Errorf("connect to D-Bus: %w", err)
	}

	opts := relay.Options{
		OnlyPaired:    a.cfg.Relay.OnlyPaired,
		OnlyReachable: a.cfg.Relay.OnlyReachable,
		RequirePlugin: a.cfg.Relay.RequirePlugin,
		Logger:        a.logger.Logger,
		Recorder:      rec,
	}
	return conn, kdeconnect.NewDirectory(conn), opts, nil
}

// openStore opens the history store when enabled. A store that cannot be
// opened disables history rather than failing the command.
func (a *app) openStore() *store.Store {
	if !a.cfg.Store.Enabled {
		return nil
	}
	s, err := store.Open(a.cfg.Store.Path)
	if err != nil {
		a.logger.Warn("history disabled", "path", a.cfg.Store.Path, "error", err)
		return nil
	}
	return s
}

// recorder avoids storing a typed-nil *store.Store in the interface.
func recorder(s *store.Store) relay.Recorder {
	if s == nil {
		return nil
	}
	return s
}
