// kderelay-gui is a window that relays typed keys to the remote keyboard of
// a KDE Connect device.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget/material"
	"github.com/spf13/pflag"

	"kderelay/cmd/kderelay-gui/internal/theme"
	"kderelay/cmd/kderelay-gui/internal/ui"
	"kderelay/internal/config"
	"kderelay/internal/instance"
	"kderelay/internal/kdeconnect"
	"kderelay/internal/keystroke"
	"kderelay/internal/logging"
	"kderelay/internal/relay"
	"kderelay/internal/store"
)

var (
	configPath = pflag.StringP("config", "c", "", "path to config file")
	deviceID   = pflag.StringP("device", "d", "", "device id to select at start")
)

func main() {
	pflag.Parse()

	go func() {
		w := new(app.Window)
		w.Option(app.Title("KDE Connect Keyboard"))
		w.Option(app.Size(unit.Dp(640), unit.Dp(360)))

		if err := run(w); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}

func run(w *app.Window) error {
	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.FromConfig(cfg.Logging))
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logger.Close()
	logging.SetDefault(logger)
	log := logger.WithComponent("gui")

	lock, err := instance.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	conn, err := kdeconnect.Dial(kdeconnect.ConnConfig{
		Address:     cfg.DBus.Address,
		Service:     cfg.DBus.Service,
		CallTimeout: cfg.CallTimeout(),
		Logger:      logger.WithComponent("dbus").Logger,
	})
	if err != nil {
		return fmt.Errorf("connect to D-Bus: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := relay.Options{
		OnlyPaired:    cfg.Relay.OnlyPaired,
		OnlyReachable: cfg.Relay.OnlyReachable,
		RequirePlugin: cfg.Relay.RequirePlugin,
		Logger:        logger.Logger,
	}

	var history *store.Store
	if cfg.Store.Enabled {
		if history, err = store.Open(cfg.Store.Path); err != nil {
			log.Warn("history disabled", "path", cfg.Store.Path, "error", err)
			history = nil
		} else {
			defer history.Close()
			opts.Recorder = history
		}
	}

	var restoreID string
	if *deviceID == "" && history != nil {
		if id, err := history.LastSelected(ctx); err == nil {
			restoreID = id
		}
	}

	queue := keystroke.NewQueue()
	r := relay.New(kdeconnect.NewDirectory(conn), queue, opts)
	driver := ui.NewDriver(ctx, r, cfg.TickInterval(), w.Invalidate)

	view := ui.NewRelayView(theme.NewTheme(material.NewTheme()), driver, queue, ui.Options{
		ASCIIOnly:              cfg.Input.ASCIIOnly,
		CaptureWhenUnavailable: cfg.Input.CaptureWhenUnavailable,
		PreferID:               *deviceID,
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

	watchConfig(loader, log.Logger, driver, conn)
	defer loader.Close()

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			view.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

// watchConfig applies a reloaded tick interval and call timeout.
func watchConfig(loader *config.Loader, log *slog.Logger, driver *ui.Driver, conn *kdeconnect.Conn) {
	if err := loader.Watch(); err != nil {
		log.Warn("config hot reload unavailable", "error", err)
		return
	}
	loader.OnChange(func(cfg *config.Config) {
		log.Info("config reloaded", "tick_interval", cfg.TickInterval(), "call_timeout", cfg.CallTimeout())
		driver.SetInterval(cfg.TickInterval())
		conn.SetCallTimeout(cfg.CallTimeout())
	})
	go func() {
		for err := range loader.Errors() {
			log.Warn("config reload failed", "error", err)
		}
	}()
}
