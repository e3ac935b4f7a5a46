package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"kderelay/internal/keystroke"
	"kderelay/internal/relay"
)

func (a *app) cmdSend(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("send", pflag.ContinueOnError)
	flags.SetOutput(a.stderr)
	device := flags.StringP("device", "d", "", "device id (default: last selected, else the first listed)")
	timeout := flags.Duration("timeout", 10*time.Second, "give up when keys remain after this long")
	stdin := flags.Bool("stdin", false, "read the text from standard input")
	if err := flags.Parse(args); err != nil {
		return err
	}

	text := strings.Join(flags.Args(), " ")
	if *stdin {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	keys := keystroke.FromText(text, a.cfg.Input.ASCIIOnly)
	if len(keys) == 0 {
		return &exitError{code: 2, err: errors.New("nothing to send")}
	}

	history := a.openStore()
	if history != nil {
		defer history.Close()
	}

	conn, dir, opts, err := a.connect(recorder(history))
	if err != nil {
		return err
	}
	defer conn.Close()

	sel := relay.SelectIndex(0)
	switch {
	case *device != "":
		sel = relay.SelectID(*device)
	case history != nil:
		if id, err := history.LastSelected(ctx); err == nil && id != "" {
			sel = relay.SelectIDOr(id, 0)
		}
	}

	queue := keystroke.NewQueue()
	if err := queue.EnqueueAll(keys); err != nil {
		return err
	}
	r := relay.New(dir, queue, opts)

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	snap, err := r.Drain(ctx, a.cfg.TickInterval(), sel)
	if err != nil {
		return fmt.Errorf("%d of %d keys not delivered (%s): %w",
			snap.Pending, len(keys), describe(snap), err)
	}

	target := "device"
	if ep, ok := snap.Device(); ok {
		target = ep.Label()
	}
	fmt.Fprintf(a.stdout, "sent %d keys to %s\n", len(keys), target)
	return nil
}

// describe explains why a snapshot is not delivering.
func describe(snap relay.Snapshot) string {
	switch snap.State {
	case relay.StateNoEndpoints:
		return "no matching device"
	case relay.StateNotReady:
		ep, _ := snap.Device()
		return ep.Label() + " keyboard is not active"
	default:
		if snap.FailureStreak > 0 {
			return fmt.Sprintf("%d failed sends", snap.FailureStreak)
		}
		return "device ready"
	}
}
