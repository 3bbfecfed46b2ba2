// schema_test.go: Tests for key validation and schema compilation
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"testing"
)

func TestValidateKey(t *testing.T) {
	valid := []string{
		"/a",
		"/a/b",
		"/system/display/dim_timeout",
		"/x/UPPER/Mixed-1.2_ok",
	}
	for _, key := range valid {
		if err := validateKey(key); err != nil {
			t.Errorf("validateKey(%q) = %v, want nil", key, err)
		}
	}

	invalid := []string{
		"",
		"relative/key",
		"/",
		"//double",
		"/trailing/",
		"/has space",
		"/has/ünïcode",
		"/has/per%cent",
	}
	for _, key := range invalid {
		if err := validateKey(key); err == nil {
			t.Errorf("validateKey(%q) accepted", key)
		}
	}
}

func TestCompileSchema(t *testing.T) {
	t.Run("registration_order_preserved", func(t *testing.T) {
		entries := []SchemaEntry{
			{Key: "/z/last", Type: "i", Default: "1"},
			{Key: "/a/first", Type: "b", Default: "true"},
			{Key: "/m/middle", Type: "s", Default: "x"},
		}
		order, byKey, err := compileSchema(entries)
		if err != nil {
			t.Fatalf("compileSchema failed: %v", err)
		}
		if len(order) != 3 || len(byKey) != 3 {
			t.Fatalf("compiled %d/%d settings, want 3/3", len(order), len(byKey))
		}
		for i, want := range []string{"/z/last", "/a/first", "/m/middle"} {
			if order[i].Key() != want {
				t.Errorf("order[%d] = %s, want %s", i, order[i].Key(), want)
			}
			if byKey[want] != order[i] {
				t.Errorf("byKey[%s] does not alias order[%d]", want, i)
			}
		}
	})

	t.Run("defaults_are_parsed", func(t *testing.T) {
		entries := []SchemaEntry{
			{Key: "/x/list", Type: "ai", Default: " 1, 2 ,3 "},
		}
		order, _, err := compileSchema(entries)
		if err != nil {
			t.Fatalf("compileSchema failed: %v", err)
		}
		if got := order[0].value.Text(); got != "1,2,3" {
			t.Errorf("seeded default = %q, want 1,2,3", got)
		}
	})

	t.Run("rejections", func(t *testing.T) {
		bad := []struct {
			name    string
			entries []SchemaEntry
		}{
			{"relative_key", []SchemaEntry{{Key: "x", Type: "i", Default: "1"}}},
			{"duplicate_key", []SchemaEntry{
				{Key: "/x", Type: "i", Default: "1"},
				{Key: "/x", Type: "b", Default: "true"},
			}},
			{"unknown_type_code", []SchemaEntry{{Key: "/x", Type: "q", Default: "1"}}},
			{"string_list_type", []SchemaEntry{{Key: "/x", Type: "as", Default: "a,b"}}},
			{"unparseable_default", []SchemaEntry{{Key: "/x", Type: "i", Default: "many"}}},
			{"unparseable_list_default", []SchemaEntry{{Key: "/x", Type: "ai", Default: "1,oops"}}},
		}
		for _, tt := range bad {
			t.Run(tt.name, func(t *testing.T) {
				if _, _, err := compileSchema(tt.entries); err == nil {
					t.Errorf("compileSchema accepted %s", tt.name)
				}
			})
		}
	})
}

func TestDefaultSchema(t *testing.T) {
	entries := DefaultSchema()
	if len(entries) == 0 {
		t.Fatal("default schema is empty")
	}

	// Must compile clean; a broken compiled-in table is a programming error.
	order, byKey, err := compileSchema(entries)
	if err != nil {
		t.Fatalf("default schema does not compile: %v", err)
	}
	if len(order) != len(entries) {
		t.Errorf("compiled %d settings from %d entries", len(order), len(entries))
	}

	// Spot-check a few well-known keys.
	if s, ok := byKey["/system/powersave/threshold"]; !ok {
		t.Error("missing /system/powersave/threshold")
	} else if s.value.Text() != "20" {
		t.Errorf("powersave threshold default = %q, want 20", s.value.Text())
	}
	if s, ok := byKey["/system/display/dim_timeouts"]; !ok {
		t.Error("missing /system/display/dim_timeouts")
	} else if s.kind != KindList || s.elem != KindInt {
		t.Errorf("dim_timeouts compiled as %v/%v, want list of int", s.kind, s.elem)
	}

	// The accessor hands out a copy, not the shared table.
	entries[0].Default = "mutated"
	if DefaultSchema()[0].Default == "mutated" {
		t.Error("DefaultSchema exposes the shared table")
	}
}
