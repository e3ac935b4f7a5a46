package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"kderelay/internal/store"
)

func (a *app) cmdHistory(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("history", pflag.ContinueOnError)
	flags.SetOutput(a.stderr)
	prune := flags.Duration("prune", 0, "forget devices not seen for this long")
	status := flags.Bool("status", false, "check the history database schema")
	reset := flags.Bool("reset", false, "forget all recorded history")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if !a.cfg.Store.Enabled {
		return errors.New("history is disabled (store.enabled = false)")
	}
	s, err := store.Open(a.cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer s.Close()

	switch {
	case *status:
		return a.historyStatus(s)
	case *reset:
		if err := s.Reset(); err != nil {
			return fmt.Errorf("reset history: %w", err)
		}
		fmt.Fprintln(a.stdout, "history cleared")
		return nil
	}

	if *prune > 0 {
		n, err := s.PruneBefore(ctx, time.Now().Add(-*prune))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "forgot %d devices\n", n)
	}

	recs, err := s.Devices(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.stdout, "No devices recorded")
		return nil
	}

	last, err := s.LastSelected(ctx)
	if err != nil {
		a.logger.Warn("last selection unavailable", "error", err)
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tNAME\tLAST SEEN\tSENT\tFAILED\tLAST SEND")
	for _, rec := range recs {
		marker := ""
		if rec.ID == last {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			marker, rec.ID, rec.Label(), formatTime(rec.LastSeen),
			rec.SendsOK, rec.SendsFailed, formatTime(rec.LastSend))
	}
	return w.Flush()
}

func (a *app) historyStatus(s *store.Store) error {
	st, err := s.Status()
	if err != nil {
		return fmt.Errorf("history schema: %w", err)
	}
	fmt.Fprintf(a.stdout, "%s: schema version %d of %d\n", a.cfg.Store.Path, st.CurrentVersion, st.LatestVersion)

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tAPPLIED\tDESCRIPTION")
	for _, m := range st.Applied {
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.Version, formatTime(m.AppliedAt), m.Description)
	}
	for _, m := range st.Pending {
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.Version, "pending", m.Description)
	}
	return w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
