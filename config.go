// config.go: Store configuration for the Hestia settings store
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

// Broadcaster announces a committed value change to other processes. The
// store decides whether and when a broadcast is due; how the signal is
// framed on the wire is the transport's concern. A nil Broadcaster disables
// the external channel, but its deduplication state is still maintained.
type Broadcaster interface {
	Broadcast(key string, value Value)
}

// ErrorHandler receives non-fatal diagnostics: malformed override lines,
// best-effort scalar parses, persistence failures. The key argument is the
// affected settings key, or the file path for I/O level problems.
type ErrorHandler func(err error, key string)

// Config configures a Store.
//
// The Store is built for a single-threaded, cooperative event-loop host:
// all mutation and dispatch happen synchronously on one goroutine and
// re-entrancy is handled structurally, not with locks.
type Config struct {
	// ValuesPath is the persisted user-values file, written atomically.
	ValuesPath string

	// OverrideDir is scanned at construction for override files matching
	// the two-digit-prefixed pattern "[0-9][0-9]*.conf", applied in
	// ascending filename order. A missing directory means no overrides.
	OverrideDir string

	// Schema is the key table; nil selects DefaultSchema().
	Schema []SchemaEntry

	// Broadcaster is the external change announcement transport, optional.
	Broadcaster Broadcaster

	// ErrorHandler receives non-fatal diagnostics, optional.
	ErrorHandler ErrorHandler

	// Audit configures the settings-change audit trail.
	Audit AuditConfig
}

// WithDefaults applies sensible defaults to the configuration.
func (c *Config) WithDefaults() *Config {
	config := *c

	if config.ValuesPath == "" {
		config.ValuesPath = "/var/lib/hestia/values.conf"
	}

	if config.OverrideDir == "" {
		config.OverrideDir = "/etc/hestia"
	}

	if config.Schema == nil {
		config.Schema = DefaultSchema()
	}

	if config.Audit == (AuditConfig{}) {
		config.Audit = DefaultAuditConfig()
	}

	return &config
}
