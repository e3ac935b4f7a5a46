package main

import (
	"fmt"
	"runtime"
)

// Set via -ldflags "-X main.version=... -X main.commit=...".
var (
	version   = "0.1.0-dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func (a *app) cmdVersion(args []string) error {
	fmt.Fprintf(a.stdout, "kderelay %s (%s, %s)\n", version, commit, buildTime)
	fmt.Fprintf(a.stdout, "  Go: %s\n  Platform: %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}
