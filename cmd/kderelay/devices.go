package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"kderelay/internal/kdeconnect"
)

func (a *app) cmdDevices(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("devices", pflag.ContinueOnError)
	flags.SetOutput(a.stderr)
	all := flags.Bool("all", false, "include unpaired and unreachable devices")
	if err := flags.Parse(args); err != nil {
		return err
	}

	conn, dir, _, err := a.connect(nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	paired, reachable := a.cfg.Relay.OnlyPaired, a.cfg.Relay.OnlyReachable
	if *all {
		paired, reachable = false, false
	}
	ids, err := dir.Devices(ctx, paired, reachable)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(a.stdout, "No active device")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tREACHABLE\tKEYBOARD\tSTATUS")
	for _, id := range ids {
		dev := dir.Device(id)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			id,
			orDash(dev.Name(ctx)),
			yesNo(dev.Reachable(ctx)),
			yesNo(dev.HasPlugin(ctx, kdeconnect.RemoteKeyboardPlugin)),
			status(dev.Keyboard().Ready(ctx)),
		)
	}
	return w.Flush()
}

func orDash(s string, err error) string {
	if err != nil || s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool, err error) string {
	switch {
	case err != nil:
		return "?"
	case b:
		return "yes"
	default:
		return "no"
	}
}

func status(ready bool, err error) string {
	if err == nil && ready {
		return "Available"
	}
	return "Unavailable"
}
