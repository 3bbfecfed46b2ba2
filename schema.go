// schema.go: Compiled-in settings schema for the power/state daemon
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"strings"

	"github.com/agilira/go-errors"
)

// SchemaEntry declares one legal key: its compact type code and the textual
// form of its compiled-in default. The entry order in a schema is
// significant: it is the registration order, which fixes the notification
// order of multi-key operations such as ResetToDefaults.
type SchemaEntry struct {
	Key     string
	Type    string
	Default string
}

// defaultSchema is the key table shipped with the daemon. Keys are opaque
// slash-separated identifiers with no hierarchical semantics.
var defaultSchema = []SchemaEntry{
	{Key: "/system/powersave/enabled", Type: "b", Default: "false"},
	{Key: "/system/powersave/forced", Type: "b", Default: "false"},
	{Key: "/system/powersave/threshold", Type: "i", Default: "20"},

	{Key: "/system/display/brightness", Type: "i", Default: "3"},
	{Key: "/system/display/dim_timeout", Type: "i", Default: "30"},
	{Key: "/system/display/dim_timeouts", Type: "ai", Default: "15,30,60,120,600"},
	{Key: "/system/display/blank_timeout", Type: "i", Default: "3"},
	{Key: "/system/display/adaptive_dimming", Type: "b", Default: "true"},
	{Key: "/system/display/adaptive_dim_threshold", Type: "i", Default: "3000"},
	{Key: "/system/display/use_low_power_mode", Type: "b", Default: "false"},
	{Key: "/system/display/als_enabled", Type: "b", Default: "true"},
	{Key: "/system/display/color_profile", Type: "s", Default: "default"},

	{Key: "/system/led/enabled", Type: "b", Default: "true"},
	{Key: "/system/led/pattern/battery_charging", Type: "b", Default: "true"},
	{Key: "/system/led/pattern/battery_full", Type: "b", Default: "true"},
	{Key: "/system/led/pattern/communication", Type: "b", Default: "true"},
	{Key: "/system/led/pattern/power_on", Type: "b", Default: "true"},
	{Key: "/system/led/pattern/power_off", Type: "b", Default: "true"},

	{Key: "/system/powerkey/action", Type: "i", Default: "1"},
	{Key: "/system/powerkey/long_delay", Type: "i", Default: "1500"},
	{Key: "/system/powerkey/double_delay", Type: "i", Default: "400"},

	{Key: "/system/inactivity/shutdown_delay", Type: "i", Default: "0"},

	{Key: "/system/battery/low_threshold", Type: "i", Default: "10"},
	{Key: "/system/battery/empty_threshold", Type: "i", Default: "3"},
	{Key: "/system/battery/charge_multiplier", Type: "f", Default: "1"},

	{Key: "/system/suspend/policy", Type: "i", Default: "0"},
	{Key: "/system/cpu/scaling_governor", Type: "s", Default: "interactive"},

	{Key: "/system/memnotify/warning_level", Type: "i", Default: "0"},
	{Key: "/system/memnotify/critical_level", Type: "i", Default: "0"},

	{Key: "/system/tklock/autolock_enabled", Type: "b", Default: "false"},
	{Key: "/system/tklock/blank_inhibit", Type: "b", Default: "false"},
}

// DefaultSchema returns a copy of the compiled-in key table.
func DefaultSchema() []SchemaEntry {
	out := make([]SchemaEntry, len(defaultSchema))
	copy(out, defaultSchema)
	return out
}

// validateKey checks key syntax: absolute, slash-separated, non-empty
// segments, segment charset [A-Za-z0-9_.-].
func validateKey(key string) error {
	if key == "" || key[0] != '/' {
		return errors.New(ErrCodeBadKey, "key must be absolute: "+key)
	}
	for _, segment := range strings.Split(key[1:], "/") {
		if segment == "" {
			return errors.New(ErrCodeBadKey, "key has an empty segment: "+key)
		}
		for _, r := range segment {
			switch {
			case r >= 'a' && r <= 'z':
			case r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9':
			case r == '_' || r == '.' || r == '-':
			default:
				return errors.New(ErrCodeBadKey, "key has an illegal character: "+key)
			}
		}
	}
	return nil
}

// compileSchema validates the key table and builds one Setting per entry,
// seeded with its parsed default, in registration order.
func compileSchema(entries []SchemaEntry) ([]*Setting, map[string]*Setting, error) {
	order := make([]*Setting, 0, len(entries))
	byKey := make(map[string]*Setting, len(entries))
	for _, entry := range entries {
		if err := validateKey(entry.Key); err != nil {
			return nil, nil, err
		}
		if _, dup := byKey[entry.Key]; dup {
			return nil, nil, errors.New(ErrCodeDuplicateKey, "duplicate key: "+entry.Key)
		}
		kind, elem, err := ParseTypeCode(entry.Type)
		if err != nil {
			return nil, nil, errors.Wrap(err, ErrCodeBadSchema,
				"bad type code for "+entry.Key)
		}
		value, err := parseValueText(kind, elem, entry.Default)
		if err != nil {
			return nil, nil, errors.Wrap(err, ErrCodeBadDefault,
				"unparseable default for "+entry.Key).
				WithContext("default", entry.Default)
		}
		s := &Setting{
			key:   entry.Key,
			kind:  kind,
			elem:  elem,
			value: value,
		}
		order = append(order, s)
		byKey[entry.Key] = s
	}
	return order, byKey, nil
}
