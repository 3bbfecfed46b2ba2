// Command handlers for the hestiactl CLI
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/agilira/hestia"
	"github.com/agilira/orpheus/pkg/orpheus"
	"go.yaml.in/yaml/v3"
)

// openStore builds a store from the command's location flags. Diagnostics
// from override and values files go to stderr.
func openStore(ctx *orpheus.Context) (*hestia.Store, error) {
	cfg := hestia.Config{
		ValuesPath:  ctx.GetFlagString("values"),
		OverrideDir: ctx.GetFlagString("override-dir"),
		ErrorHandler: func(err error, key string) {
			fmt.Fprintf(os.Stderr, "hestiactl: %s: %v\n", key, err)
		},
	}
	if !ctx.GetFlagBool("audit") {
		cfg.Audit = hestia.DisabledAuditConfig()
	}
	return hestia.NewStore(cfg)
}

// handleGet prints one key's current value.
func (m *Manager) handleGet(ctx *orpheus.Context) error {
	key := ctx.GetArg(0)
	if key == "" {
		return errors.New(hestia.ErrCodeBadKey, "usage: hestiactl get <key>")
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	value, err := store.Get(key)
	if err != nil {
		return err
	}

	if ctx.GetFlagBool("verbose") {
		code, _ := store.TypeCode(key)
		def, _ := store.RecordedDefault(key)
		fmt.Printf("%s (%s) = %s [default: %s]\n", key, code, value.Text(), def)
		return nil
	}

	fmt.Println(value.Text())
	return nil
}

// handleSet parses the textual value per the key's declared type and
// persists the store before exiting.
func (m *Manager) handleSet(ctx *orpheus.Context) error {
	key := ctx.GetArg(0)
	text := ctx.GetArg(1)
	if key == "" {
		return errors.New(hestia.ErrCodeBadKey, "usage: hestiactl set <key> <value>")
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SetFromText(key, text); err != nil {
		return err
	}
	if err := store.Flush(); err != nil {
		return err
	}

	value, _ := store.Get(key)
	fmt.Printf("Set %s = %s\n", key, value.Text())
	return nil
}

// handleList prints keys and values, optionally filtered.
func (m *Manager) handleList(ctx *orpheus.Context) error {
	prefix := ctx.GetFlagString("prefix")
	modifiedOnly := ctx.GetFlagBool("modified")

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	shown := 0
	for _, key := range store.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		value, err := store.Get(key)
		if err != nil {
			return err
		}
		def, _ := store.RecordedDefault(key)
		modified := value.Text() != def
		if modifiedOnly && !modified {
			continue
		}
		marker := ""
		if modified {
			marker = " *"
		}
		fmt.Printf("%s = %s%s\n", key, value.Text(), marker)
		shown++
	}

	if shown == 0 {
		if prefix != "" {
			fmt.Printf("No keys found with prefix '%s'\n", prefix)
		} else {
			fmt.Println("No keys found")
		}
	}
	return nil
}

// handleReset resets matching keys to their recorded defaults.
func (m *Manager) handleReset(ctx *orpheus.Context) error {
	filter := ctx.GetArg(0)

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	count, err := store.ResetToDefaults(filter)
	if err != nil {
		return err
	}
	if err := store.Flush(); err != nil {
		return err
	}

	fmt.Printf("Reset %d key(s)\n", count)
	return nil
}

// handleSchema prints the compiled-in key table.
func (m *Manager) handleSchema(ctx *orpheus.Context) error {
	for _, entry := range hestia.DefaultSchema() {
		fmt.Printf("%-2s  %-45s  %s\n", entry.Type, entry.Key, entry.Default)
	}
	return nil
}

// exportEntry is one key's row in an export document.
type exportEntry struct {
	Key      string `yaml:"key" json:"key"`
	Type     string `yaml:"type" json:"type"`
	Value    string `yaml:"value" json:"value"`
	Default  string `yaml:"default" json:"default"`
	Modified bool   `yaml:"modified" json:"modified"`
}

// handleExport dumps every key with its type code, current value and
// recorded default, as YAML or JSON.
func (m *Manager) handleExport(ctx *orpheus.Context) error {
	format := ctx.GetFlagString("format")
	output := ctx.GetFlagString("output")

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries := make([]exportEntry, 0, len(store.Keys()))
	for _, key := range store.Keys() {
		value, err := store.Get(key)
		if err != nil {
			return err
		}
		code, _ := store.TypeCode(key)
		def, _ := store.RecordedDefault(key)
		entries = append(entries, exportEntry{
			Key:      key,
			Type:     code,
			Value:    value.Text(),
			Default:  def,
			Modified: value.Text() != def,
		})
	}

	var data []byte
	switch format {
	case "yaml", "yml":
		data, err = yaml.Marshal(entries)
	case "json":
		data, err = json.MarshalIndent(entries, "", "  ")
		data = append(data, '\n')
	default:
		return errors.New(hestia.ErrCodeInvalidConfig, "unsupported export format: "+format)
	}
	if err != nil {
		return errors.Wrap(err, hestia.ErrCodeIOError, "export serialization failed")
	}

	if output == "" || output == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return errors.Wrap(err, hestia.ErrCodeIOError, "cannot write "+output)
	}
	fmt.Printf("Exported %d key(s) to %s\n", len(entries), output)
	return nil
}
