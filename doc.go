// Package hestia is an in-process, typed, fixed-schema settings store for a
// device power/state-management daemon. It replaces a session-bus-based
// external configuration service with a flat, typed key-value API backed by
// compiled-in defaults, on-disk override files and a persisted user-values
// file, with re-entrancy safe change notification.
//
// # Data Model
//
// Every legal key and its value type are fixed at compile time by the
// schema, a static table of (key, type code, default text) triples. Values
// carry one of five kinds: Bool, Int (32-bit signed), Float, String, or a
// homogeneous List of one scalar kind. There are no hierarchical keys, no
// pair values, no nested lists and no runtime key creation.
//
// # Load Pipeline
//
// A store is built explicitly and runs a fixed pipeline:
//
//  1. Compiled-in defaults seed every Setting in registration order.
//  2. Override files ("[0-9][0-9]*.conf" in the override directory) are
//     applied in ascending filename order.
//  3. The recorded default is snapshotted per key.
//  4. The persisted user-values file is applied.
//  5. The file is immediately re-saved, normalizing it on disk.
//
// Only values differing from their recorded default are ever persisted, so
// the values file stays minimal and forward compatible with default changes.
//
//	store, err := hestia.NewStore(hestia.Config{
//		ValuesPath:  "/var/lib/hestia/values.conf",
//		OverrideDir: "/etc/hestia",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	timeout, _ := store.GetInt("/system/display/dim_timeout")
//	_ = store.SetInt("/system/display/dim_timeout", timeout*2)
//
// # Change Notification
//
// Subscribers register per exact key and observe every distinct value the
// key passes through. A callback may mutate the key it is being notified
// about: the nested change is absorbed into the running dispatch and
// redelivered by the outer frame rather than recursing. The external
// broadcast channel deduplicates independently and fires at most once per
// outer mutation, carrying the final value.
//
//	id, _ := store.Subscribe("/system/powersave/enabled", func(key string, v hestia.Value) {
//		on, _ := v.BoolValue()
//		powersave.Apply(on)
//	})
//	defer store.Unsubscribe(id)
//
// Tracked accessors bind a key directly to a variable:
//
//	var dimTimeout int32
//	store.TrackInt("/system/display/dim_timeout", &dimTimeout)
//
// # Concurrency
//
// The store is confined to a single goroutine, the daemon's event loop. All
// operations are synchronous and non-blocking; re-entrancy is handled
// structurally, not with locks. The audit trail is internally synchronized
// and flushes in the background.
//
// # Audit Trail
//
// Every applied change is auditable with old and new serialized text and
// its origin (override, persisted, runtime, reset). Events persist to a
// SQLite database in WAL mode, falling back to JSONL when the database is
// unavailable.
//
// Repository: https://github.com/agilira/hestia
package hestia
