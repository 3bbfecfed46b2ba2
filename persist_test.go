// persist_test.go: Tests for file loading, line parsing and atomic writes
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		key  string
		text string
		ok   bool
	}{
		{"plain", "/a/b=1", "/a/b", "1", true},
		{"spaces_around", "  /a/b = 1 ", "/a/b", "1", true},
		{"empty_value", "/a/b=", "/a/b", "", true},
		{"value_with_equals", "/a/b=x=y", "/a/b", "x=y", true},
		{"blank", "   ", "", "", false},
		{"comment", "# comment", "", "", false},
		{"no_equals", "garbage", "", "", true},
		{"leading_equals", "=v", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, text, ok := parseLine(tt.line)
			if key != tt.key || text != tt.text || ok != tt.ok {
				t.Errorf("parseLine(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.line, key, text, ok, tt.key, tt.text, tt.ok)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("malformed_and_unknown_lines_are_skipped", func(t *testing.T) {
		dir := t.TempDir()
		values := filepath.Join(dir, "values.conf")
		writeTestFile(t, values,
			"# header\n"+
				"\n"+
				"/x/threshold=20\n"+
				"this line has no equals\n"+
				"/no/such/key=1\n"+
				"/x/enabled=true\n")

		var diags int
		cfg := Config{
			ValuesPath:  values,
			OverrideDir: filepath.Join(dir, "overrides"),
			Schema:      testSchema(),
			Audit:       DisabledAuditConfig(),
			ErrorHandler: func(err error, key string) {
				diags++
			},
		}
		store, err := NewStore(cfg)
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		defer func() { _ = store.Close() }()

		if got, _ := store.GetInt("/x/threshold"); got != 20 {
			t.Errorf("threshold = %d, want 20", got)
		}
		if got, _ := store.GetBool("/x/enabled"); !got {
			t.Error("enabled not loaded")
		}
		if diags != 2 {
			t.Errorf("diagnostics = %d, want 2 (malformed line, unknown key)", diags)
		}
	})

	t.Run("best_effort_scalar_parse_is_reported_and_applied", func(t *testing.T) {
		dir := t.TempDir()
		values := filepath.Join(dir, "values.conf")
		writeTestFile(t, values, "/x/threshold=15sec\n")

		var diags int
		cfg := Config{
			ValuesPath:  values,
			OverrideDir: filepath.Join(dir, "overrides"),
			Schema:      testSchema(),
			Audit:       DisabledAuditConfig(),
			ErrorHandler: func(err error, key string) {
				diags++
			},
		}
		store, err := NewStore(cfg)
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		defer func() { _ = store.Close() }()

		if got, _ := store.GetInt("/x/threshold"); got != 15 {
			t.Errorf("threshold = %d, want best-effort 15", got)
		}
		if diags == 0 {
			t.Error("expected a diagnostic for the partial parse")
		}
	})
}

func TestAtomicWriteFile(t *testing.T) {
	t.Run("writes_and_renames", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sub", "out.conf")
		if err := atomicWriteFile(path, []byte("a=1\n"), 0664); err != nil {
			t.Fatalf("atomicWriteFile failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "a=1\n" {
			t.Errorf("content = %q", string(data))
		}
	})

	t.Run("leaves_no_temp_files", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.conf")
		if err := atomicWriteFile(path, []byte("a=1\n"), 0664); err != nil {
			t.Fatal(err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("directory has %d entries, want 1", len(entries))
		}
	})

	t.Run("applies_fixed_permission_bits", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("unix permission bits")
		}
		path := filepath.Join(t.TempDir(), "out.conf")
		if err := atomicWriteFile(path, []byte("a=1\n"), 0664); err != nil {
			t.Fatal(err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0664 {
			t.Errorf("mode = %o, want 664", info.Mode().Perm())
		}
	})

	t.Run("replaces_existing_content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.conf")
		if err := atomicWriteFile(path, []byte("old\n"), 0664); err != nil {
			t.Fatal(err)
		}
		if err := atomicWriteFile(path, []byte("new\n"), 0664); err != nil {
			t.Fatal(err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != "new\n" {
			t.Errorf("content = %q, want new", string(data))
		}
	})
}
