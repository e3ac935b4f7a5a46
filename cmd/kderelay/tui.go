package main

import (
	"context"
	"errors"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"kderelay/internal/config"
	"kderelay/internal/instance"
	"kderelay/internal/keystroke"
	"kderelay/internal/relay"
	"kderelay/internal/tui"
)

// timeoutSetter is implemented by connections whose call timeout can change
// at runtime.
type timeoutSetter interface {
	SetCallTimeout(time.Duration)
}

func (a *app) cmdTUI(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("tui", pflag.ContinueOnError)
	flags.SetOutput(a.stderr)
	device := flags.StringP("device", "d", "", "device id to select at start")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if f, ok := a.stdin.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return &exitError{code: 2, err: errors.New("tui needs an interactive terminal")}
	}

	lock, err := instance.Acquire(a.cfg.LockPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	history := a.openStore()
	if history != nil {
		defer history.Close()
	}

	conn, dir, opts, err := a.connect(recorder(history))
	if err != nil {
		return err
	}
	defer conn.Close()

	var restoreID string
	if *device == "" && history != nil {
		if id, err := history.LastSelected(ctx); err == nil {
			restoreID = id
		}
	}

	log := a.logger.WithComponent("tui")
	r := relay.New(dir, keystroke.NewQueue(), opts)
	model := tui.New(ctx, r, tui.Options{
		Interval:               a.cfg.TickInterval(),
		ASCIIOnly:              a.cfg.Input.ASCIIOnly,
		CaptureWhenUnavailable: a.cfg.Input.CaptureWhenUnavailable,
		PreferID:               *device,
		RestoreID:              restoreID,
		OnSelect: func(id string) {
			if history == nil {
				return
			}
			if err := history.SetLastSelected(ctx, id); err != nil {
				log.Warn("save selection failed", "device", id, "error", err)
			}
		},
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if err := a.loader.Watch(); err != nil {
		log.Warn("config hot reload unavailable", "error", err)
	} else {
		defer a.loader.Close()
		a.loader.OnChange(func(cfg *config.Config) {
			log.Info("config reloaded", "tick_interval", cfg.TickInterval(), "call_timeout", cfg.CallTimeout())
			program.Send(tui.IntervalMsg(cfg.TickInterval()))
			if ts, ok := conn.(timeoutSetter); ok {
				ts.SetCallTimeout(cfg.CallTimeout())
			}
		})
		go func() {
			for err := range a.loader.Errors() {
				log.Warn("config reload failed", "error", err)
			}
		}()
	}

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
