// Package cli implements the hestiactl command-line interface for
// inspecting and mutating a Hestia settings store.
//
// Built on the Orpheus framework: git-style subcommands, per-command flags
// and fast argument routing.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"github.com/agilira/orpheus/pkg/orpheus"
)

// Manager wires the hestiactl command set into an Orpheus application.
type Manager struct {
	app *orpheus.App
}

// NewManager creates the hestiactl CLI manager.
func NewManager() *Manager {
	app := orpheus.New("hestiactl").
		SetDescription("Typed settings store control tool for the power/state daemon").
		SetVersion("1.0.0")

	manager := &Manager{
		app: app,
	}

	manager.setupStoreCommands()
	manager.setupExportCommands()

	return manager
}

// Run executes the CLI application with the provided arguments.
func (m *Manager) Run(args []string) error {
	return m.app.Run(args)
}

// addStoreFlags attaches the store-location flags shared by every command.
func addStoreFlags(cmd *orpheus.Command) *orpheus.Command {
	cmd.AddFlag("values", "V", "/var/lib/hestia/values.conf", "Persisted values file")
	cmd.AddFlag("override-dir", "o", "/etc/hestia", "Override file directory")
	cmd.AddBoolFlag("audit", "a", false, "Record an audit trail for this invocation")
	return cmd
}

// setupStoreCommands configures the key inspection and mutation commands.
func (m *Manager) setupStoreCommands() {
	// get <key>
	getCmd := orpheus.NewCommand("get", "Print a key's current value")
	getCmd.SetHandler(m.handleGet)
	getCmd.AddBoolFlag("verbose", "v", false, "Include type code and recorded default")
	addStoreFlags(getCmd)
	m.app.AddCommand(getCmd)

	// set <key> <value>
	setCmd := orpheus.NewCommand("set", "Set a key from its textual form")
	setCmd.SetHandler(m.handleSet)
	addStoreFlags(setCmd)
	m.app.AddCommand(setCmd)

	// list [--prefix=]
	listCmd := orpheus.NewCommand("list", "List keys and current values")
	listCmd.SetHandler(m.handleList)
	listCmd.AddFlag("prefix", "p", "", "Key prefix filter")
	listCmd.AddBoolFlag("modified", "m", false, "Only keys differing from their recorded default")
	addStoreFlags(listCmd)
	m.app.AddCommand(listCmd)

	// reset [filter]
	resetCmd := orpheus.NewCommand("reset", "Reset matching keys to their recorded defaults")
	resetCmd.SetHandler(m.handleReset)
	addStoreFlags(resetCmd)
	m.app.AddCommand(resetCmd)

	// schema
	schemaCmd := orpheus.NewCommand("schema", "Print the compiled-in key table")
	schemaCmd.SetHandler(m.handleSchema)
	m.app.AddCommand(schemaCmd)
}

// setupExportCommands configures the export command.
func (m *Manager) setupExportCommands() {
	// export [--format=yaml|json] [--output=-]
	exportCmd := orpheus.NewCommand("export", "Dump the store with defaults and type codes")
	exportCmd.SetHandler(m.handleExport)
	exportCmd.AddFlag("format", "f", "yaml", "Output format (yaml|json)")
	exportCmd.AddFlag("output", "O", "-", "Output file, - for stdout")
	addStoreFlags(exportCmd)
	m.app.AddCommand(exportCmd)
}
