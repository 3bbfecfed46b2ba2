// hestiad: reference daemon host for the Hestia settings store
//
// Builds a store from flags and environment, announces committed changes on
// stdout in place of a wire transport, and flushes the store periodically
// and on shutdown. All store calls stay on the main goroutine; the store is
// confined to it by design.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flashflags "github.com/agilira/flash-flags"
	"github.com/agilira/hestia"
)

// lineBroadcaster announces committed changes as key=value lines. A real
// deployment would put the daemon's IPC transport behind this interface.
type lineBroadcaster struct{}

func (lineBroadcaster) Broadcast(key string, value hestia.Value) {
	fmt.Printf("broadcast: %s=%s\n", key, value.Text())
}

func main() {
	flags := flashflags.New("hestiad")
	flags.SetDescription("Settings store host for the power/state daemon")
	flags.SetVersion("1.0.0")

	flags.String("values", "/var/lib/hestia/values.conf", "Persisted values file")
	flags.String("override-dir", "/etc/hestia", "Override file directory")
	flags.Bool("audit", true, "Enable the settings audit trail")
	flags.String("audit-file", "", "Audit output path (empty selects the SQLite backend)")
	flags.Duration("flush-interval", 30*time.Second, "Periodic persistence interval")
	flags.SetEnvPrefix("HESTIAD")

	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "hestiad: %v\n", err)
		flags.PrintHelp()
		os.Exit(1)
	}

	// Environment provides the base configuration, flags override it.
	cfg, err := hestia.LoadConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hestiad: %v\n", err)
		os.Exit(1)
	}
	cfg.ValuesPath = flags.GetString("values")
	cfg.OverrideDir = flags.GetString("override-dir")
	cfg.Broadcaster = lineBroadcaster{}
	cfg.ErrorHandler = func(err error, key string) {
		fmt.Fprintf(os.Stderr, "hestiad: %s: %v\n", key, err)
	}
	if flags.GetBool("audit") {
		cfg.Audit = hestia.DefaultAuditConfig()
		cfg.Audit.OutputFile = flags.GetString("audit-file")
	} else {
		cfg.Audit = hestia.DisabledAuditConfig()
	}

	store, err := hestia.NewStore(*cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hestiad: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("hestiad: %d keys ready, values at %s\n", len(store.Keys()), cfg.ValuesPath)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(flags.GetDuration("flush-interval"))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := store.Flush(); err != nil {
				fmt.Fprintf(os.Stderr, "hestiad: flush: %v\n", err)
			}
		case sig := <-stop:
			fmt.Printf("hestiad: %v, shutting down\n", sig)
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "hestiad: close: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}
}
