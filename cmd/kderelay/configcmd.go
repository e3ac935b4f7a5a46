package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"kderelay/internal/config"
)

func (a *app) cmdConfig(args []string) error {
	flags := pflag.NewFlagSet("config", pflag.ContinueOnError)
	flags.SetOutput(a.stderr)
	write := flags.Bool("write", false, "write the default configuration to the config path")
	force := flags.Bool("force", false, "overwrite an existing file with --write")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *write {
		path := a.loader.Path()
		if *force {
			if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
				return err
			}
		} else {
			_, created, err := config.LoadOrCreate(path)
			if err != nil {
				return err
			}
			if !created {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}
		fmt.Fprintf(a.stdout, "wrote %s\n", path)
		return nil
	}

	fmt.Fprintf(a.stdout, "# %s\n", a.loader.Path())
	return toml.NewEncoder(a.stdout).Encode(a.cfg)
}
