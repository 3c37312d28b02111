// Command idxstore-console is an interactive shell over an in-memory registry.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sharedcode/idxstore"
	"github.com/sharedcode/idxstore/console"
	"github.com/sharedcode/idxstore/registry"
)

func main() {
	configPath := flag.String("config", os.Getenv("IDXSTORE_CONFIG"), "JSON configuration file")
	loadPath := flag.String("load", "", "JSON snapshot to load at startup")
	savePath := flag.String("save", "", "JSON snapshot to write on exit")
	history := flag.String("history", ".idxstore_history", "command history file")
	flag.Parse()

	idxstore.ConfigureLogging()
	if err := run(*configPath, *loadPath, *savePath, *history); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(configPath, loadPath, savePath, history string) error {
	opts, err := idxstore.LoadOptions(configPath)
	if err != nil {
		return err
	}
	svc, err := registry.New(opts)
	if err != nil {
		return err
	}
	if loadPath != "" {
		snap, err := registry.ReadSnapshot(loadPath)
		if err != nil {
			return err
		}
		if err := svc.Reload(snap); err != nil {
			return err
		}
	}

	c := console.New(svc, os.Stdout)
	if err := c.Open(history); err != nil {
		return err
	}
	defer c.Close()
	if err := c.Run(); err != nil {
		return err
	}
	if savePath != "" {
		return svc.Snapshot().WriteFile(savePath)
	}
	return nil
}
