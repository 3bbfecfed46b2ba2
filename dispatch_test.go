// dispatch_test.go: Tests for the notification dispatch protocol
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"strings"
	"testing"
)

func TestDispatchDeduplication(t *testing.T) {
	t.Run("distinct_values_dispatch_once_each", func(t *testing.T) {
		store, broadcaster, _ := newTestStore(t, testSchema())
		calls := 0
		if _, err := store.Subscribe("/x/threshold", func(string, Value) { calls++ }); err != nil {
			t.Fatal(err)
		}

		if err := store.SetInt("/x/threshold", 20); err != nil {
			t.Fatal(err)
		}
		if err := store.SetInt("/x/threshold", 30); err != nil {
			t.Fatal(err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
		if len(broadcaster.texts) != 2 {
			t.Errorf("broadcasts = %d, want 2", len(broadcaster.texts))
		}
	})

	t.Run("repeated_value_dispatches_only_first_time", func(t *testing.T) {
		store, broadcaster, _ := newTestStore(t, testSchema())
		calls := 0
		if _, err := store.Subscribe("/x/threshold", func(string, Value) { calls++ }); err != nil {
			t.Fatal(err)
		}

		if err := store.SetInt("/x/threshold", 20); err != nil {
			t.Fatal(err)
		}
		if err := store.SetInt("/x/threshold", 20); err != nil {
			t.Fatal(err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
		if len(broadcaster.texts) != 1 {
			t.Errorf("broadcasts = %d, want 1", len(broadcaster.texts))
		}
	})

	t.Run("setting_the_default_value_is_a_no_op", func(t *testing.T) {
		store, broadcaster, _ := newTestStore(t, testSchema())
		calls := 0
		if _, err := store.Subscribe("/x/threshold", func(string, Value) { calls++ }); err != nil {
			t.Fatal(err)
		}

		// Already 10 from the compiled-in default.
		if err := store.SetInt("/x/threshold", 10); err != nil {
			t.Fatal(err)
		}
		if calls != 0 || len(broadcaster.texts) != 0 {
			t.Errorf("no-op set dispatched (calls=%d broadcasts=%d)", calls, len(broadcaster.texts))
		}
	})

	t.Run("keys_dispatch_independently", func(t *testing.T) {
		store, _, _ := newTestStore(t, testSchema())
		var seen []string
		for _, key := range []string{"/x/threshold", "/x/enabled"} {
			if _, err := store.Subscribe(key, func(k string, _ Value) {
				seen = append(seen, k)
			}); err != nil {
				t.Fatal(err)
			}
		}

		// Mutating another key from inside a notification dispatches it
		// normally: other keys are never blocked by a running dispatch.
		if _, err := store.Subscribe("/x/threshold", func(string, Value) {
			_ = store.SetBool("/x/enabled", true)
		}); err != nil {
			t.Fatal(err)
		}

		if err := store.SetInt("/x/threshold", 20); err != nil {
			t.Fatal(err)
		}
		want := "/x/threshold,/x/enabled"
		if strings.Join(seen, ",") != want {
			t.Errorf("dispatch sequence = %v, want %s", seen, want)
		}
	})
}

func TestDispatchReentrancy(t *testing.T) {
	t.Run("broadcast_fires_once_with_final_value", func(t *testing.T) {
		store, broadcaster, _ := newTestStore(t, testSchema())

		var observed []string
		if _, err := store.Subscribe("/x/enabled", func(_ string, v Value) {
			observed = append(observed, v.Text())
			if on, _ := v.BoolValue(); on {
				// Veto: force the setting back off from inside its own
				// notification.
				if err := store.SetBool("/x/enabled", false); err != nil {
					t.Errorf("nested set failed: %v", err)
				}
			}
		}); err != nil {
			t.Fatal(err)
		}

		if err := store.SetBool("/x/enabled", true); err != nil {
			t.Fatal(err)
		}

		// The subscriber saw both distinct values, in order.
		if strings.Join(observed, ",") != "true,false" {
			t.Errorf("observed = %v, want [true false]", observed)
		}

		// The external broadcast fired exactly once, with the final value.
		if len(broadcaster.texts) != 1 {
			t.Fatalf("broadcasts = %d, want 1", len(broadcaster.texts))
		}
		if broadcaster.texts[0] != "false" {
			t.Errorf("broadcast value = %q, want final value false", broadcaster.texts[0])
		}

		// The store holds the callback's value.
		if on, _ := store.GetBool("/x/enabled"); on {
			t.Error("store does not hold the nested value")
		}
	})

	t.Run("nested_mutation_does_not_recurse", func(t *testing.T) {
		store, _, _ := newTestStore(t, testSchema())

		depth, maxDepth := 0, 0
		if _, err := store.Subscribe("/x/threshold", func(_ string, v Value) {
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
			if n, _ := v.IntValue(); n < 13 {
				_ = store.SetInt("/x/threshold", n+1)
			}
			depth--
		}); err != nil {
			t.Fatal(err)
		}

		if err := store.SetInt("/x/threshold", 11); err != nil {
			t.Fatal(err)
		}
		if maxDepth != 1 {
			t.Errorf("callback nesting depth = %d, want 1 (absorbed into running sweep)", maxDepth)
		}
		if got, _ := store.GetInt("/x/threshold"); got != 13 {
			t.Errorf("final value = %d, want 13", got)
		}
	})

	t.Run("sweep_delivers_the_current_value", func(t *testing.T) {
		store, _, _ := newTestStore(t, testSchema())

		// The first subscriber mutates the key; subscribers later in the
		// same sweep observe the value as it is at their invocation, and
		// the retriggered sweep redelivers to everyone.
		var first, second []string
		if _, err := store.Subscribe("/x/threshold", func(_ string, v Value) {
			first = append(first, v.Text())
			if v.Text() == "20" {
				_ = store.SetInt("/x/threshold", 30)
			}
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Subscribe("/x/threshold", func(_ string, v Value) {
			second = append(second, v.Text())
		}); err != nil {
			t.Fatal(err)
		}

		if err := store.SetInt("/x/threshold", 20); err != nil {
			t.Fatal(err)
		}

		if strings.Join(first, ",") != "20,30" {
			t.Errorf("first subscriber saw %v, want [20 30]", first)
		}
		if strings.Join(second, ",") != "30,30" {
			t.Errorf("second subscriber saw %v, want [30 30]", second)
		}
	})

	t.Run("broadcast_dedup_is_independent_of_internal_dedup", func(t *testing.T) {
		store, broadcaster, _ := newTestStore(t, testSchema())

		// No subscribers at all: the broadcast channel still works and
		// still deduplicates.
		if err := store.SetInt("/x/threshold", 20); err != nil {
			t.Fatal(err)
		}
		if err := store.SetInt("/x/threshold", 20); err != nil {
			t.Fatal(err)
		}
		if len(broadcaster.texts) != 1 {
			t.Fatalf("broadcasts = %d, want 1", len(broadcaster.texts))
		}
		if broadcaster.keys[0] != "/x/threshold" || broadcaster.texts[0] != "20" {
			t.Errorf("broadcast = %s=%s, want /x/threshold=20",
				broadcaster.keys[0], broadcaster.texts[0])
		}
	})

	t.Run("nil_broadcaster_is_tolerated", func(t *testing.T) {
		dir := t.TempDir()
		cfg := Config{
			ValuesPath:  dir + "/values.conf",
			OverrideDir: dir + "/overrides",
			Schema:      testSchema(),
			Audit:       DisabledAuditConfig(),
		}
		store, err := NewStore(cfg)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = store.Close() }()
		if err := store.SetInt("/x/threshold", 20); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("subscriber_added_mid_sweep_waits_for_next_change", func(t *testing.T) {
		store, _, _ := newTestStore(t, testSchema())

		lateCalls := 0
		if _, err := store.Subscribe("/x/threshold", func(string, Value) {
			if lateCalls == 0 {
				// Register a second subscriber from inside the sweep; it
				// must not observe the change already being delivered.
				_, _ = store.Subscribe("/x/threshold", func(string, Value) {
					lateCalls++
				})
			}
		}); err != nil {
			t.Fatal(err)
		}

		if err := store.SetInt("/x/threshold", 20); err != nil {
			t.Fatal(err)
		}
		if lateCalls != 0 {
			t.Errorf("late subscriber invoked %d times for the in-flight change", lateCalls)
		}
		if err := store.SetInt("/x/threshold", 30); err != nil {
			t.Fatal(err)
		}
		if lateCalls != 1 {
			t.Errorf("late subscriber calls = %d, want 1", lateCalls)
		}
	})
}

func TestExampleScenario(t *testing.T) {
	// Schema contains int /x/threshold with default 10.
	store, broadcaster, _ := newTestStore(t, testSchema())
	dispatches := 0
	if _, err := store.Subscribe("/x/threshold", func(string, Value) { dispatches++ }); err != nil {
		t.Fatal(err)
	}

	// Already the default: no dispatch.
	if err := store.SetInt("/x/threshold", 10); err != nil {
		t.Fatal(err)
	}
	if dispatches != 0 || len(broadcaster.texts) != 0 {
		t.Fatalf("no-op set dispatched (%d, %d)", dispatches, len(broadcaster.texts))
	}

	// Real change: one internal dispatch, one broadcast.
	if err := store.SetInt("/x/threshold", 20); err != nil {
		t.Fatal(err)
	}
	if dispatches != 1 || len(broadcaster.texts) != 1 {
		t.Fatalf("change dispatched (%d, %d), want (1, 1)", dispatches, len(broadcaster.texts))
	}
	if got, _ := store.GetInt("/x/threshold"); got != 20 {
		t.Fatalf("value = %d, want 20", got)
	}

	// Reset restores the default: one more dispatch, one more broadcast.
	count, err := store.ResetToDefaults("")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("reset count = %d, want 1", count)
	}
	if dispatches != 2 || len(broadcaster.texts) != 2 {
		t.Fatalf("reset dispatched (%d, %d), want (2, 2)", dispatches, len(broadcaster.texts))
	}
	if broadcaster.texts[1] != "10" {
		t.Errorf("reset broadcast = %q, want 10", broadcaster.texts[1])
	}
}
