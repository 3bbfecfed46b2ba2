// store.go: Typed settings store with re-entrancy safe change notification
//
// The store owns every Setting in schema registration order, loads them
// through the defaults -> overrides -> persisted-values pipeline, and runs
// the notification dispatch protocol on every committed change.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"strings"

	"github.com/agilira/go-errors"
)

// NotifyFunc is invoked for every distinct value a subscribed key passes
// through. The value is a deep clone; mutating it has no effect on the
// store. The callback may call back into the store, including mutating the
// key it is being notified about.
type NotifyFunc func(key string, value Value)

type subscription struct {
	id      uint64
	key     string
	fn      NotifyFunc
	cleanup func()
	removed bool
}

// Store is the daemon's settings store. It is confined to a single
// goroutine: all mutation and dispatch happen synchronously on the caller's
// stack and re-entrant calls from notification callbacks are handled
// structurally rather than with locks.
type Store struct {
	config   *Config
	order    []*Setting
	byKey    map[string]*Setting
	subs     map[string][]*subscription
	subsByID map[uint64]*subscription
	nextSub  uint64
	audit    *AuditLogger
	closed   bool
}

// NewStore builds a store from the configured schema and runs the load
// pipeline: compiled-in defaults, override files in ascending filename
// order, the recorded-default snapshot, the persisted values file, and an
// immediate re-save that normalizes the file on disk.
//
// Missing override and values files are not errors. A broken schema is.
func NewStore(cfg Config) (*Store, error) {
	config := cfg.WithDefaults()

	order, byKey, err := compileSchema(config.Schema)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeBadSchema, "schema compilation failed")
	}

	s := &Store{
		config:   config,
		order:    order,
		byKey:    byKey,
		subs:     make(map[string][]*subscription),
		subsByID: make(map[uint64]*subscription),
	}

	if config.Audit.Enabled {
		audit, err := NewAuditLogger(config.Audit)
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeAuditError, "audit initialization failed")
		}
		s.audit = audit
	}

	s.applyOverrides()
	s.markDefaults()
	s.loadValues()

	// Re-save immediately: a no-op write unless defaults changed since the
	// last run.
	if err := s.saveValues(); err != nil {
		s.diagnostic(err, s.config.ValuesPath)
	}

	if s.audit != nil {
		s.audit.LogStoreEvent("store_ready", s.config.ValuesPath)
	}

	return s, nil
}

// diagnostic reports a non-fatal problem through the configured handler.
func (s *Store) diagnostic(err error, key string) {
	if err == nil {
		return
	}
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err, key)
	}
}

// markDefaults snapshots every Setting's serialized form as its recorded
// default. Called once, after overrides and before persisted values.
func (s *Store) markDefaults() {
	for _, e := range s.order {
		e.recordedDefault = e.value.Text()
	}
}

func (s *Store) lookup(key string) (*Setting, error) {
	if s.closed {
		return nil, errors.New(ErrCodeStoreClosed, "store is closed")
	}
	e, ok := s.byKey[key]
	if !ok {
		// The key set is fixed at compile time, so a miss is a programming
		// error, not a silent absence.
		return nil, errors.New(ErrCodeUnknownKey, "unknown key: "+key)
	}
	return e, nil
}

// Keys returns every key in registration order.
func (s *Store) Keys() []string {
	keys := make([]string, len(s.order))
	for i, e := range s.order {
		keys[i] = e.key
	}
	return keys
}

// Get returns a deep clone of the key's current value.
func (s *Store) Get(key string) (Value, error) {
	e, err := s.lookup(key)
	if err != nil {
		return Value{}, err
	}
	return e.value.Clone(), nil
}

// TypeCode returns the key's compact schema type code.
func (s *Store) TypeCode(key string) (string, error) {
	e, err := s.lookup(key)
	if err != nil {
		return "", err
	}
	return TypeCode(e.kind, e.elem), nil
}

// RecordedDefault returns the key's recorded default text: the serialized
// snapshot taken after defaults and overrides, before persisted values.
func (s *Store) RecordedDefault(key string) (string, error) {
	e, err := s.lookup(key)
	if err != nil {
		return "", err
	}
	return e.recordedDefault, nil
}

// GetBool returns the key's boolean value.
func (s *Store) GetBool(key string) (bool, error) {
	e, err := s.lookup(key)
	if err != nil {
		return false, err
	}
	return e.value.BoolValue()
}

// GetInt returns the key's integer value.
func (s *Store) GetInt(key string) (int32, error) {
	e, err := s.lookup(key)
	if err != nil {
		return 0, err
	}
	return e.value.IntValue()
}

// GetFloat returns the key's float value.
func (s *Store) GetFloat(key string) (float64, error) {
	e, err := s.lookup(key)
	if err != nil {
		return 0, err
	}
	return e.value.FloatValue()
}

// GetString returns the key's string value.
func (s *Store) GetString(key string) (string, error) {
	e, err := s.lookup(key)
	if err != nil {
		return "", err
	}
	return e.value.StringValue()
}

// GetIntList returns the key's list payload as int32 elements.
func (s *Store) GetIntList(key string) ([]int32, error) {
	e, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	items, err := e.value.ListValue()
	if err != nil {
		return nil, err
	}
	out := make([]int32, len(items))
	for i := range items {
		n, err := items[i].IntValue()
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// commit runs the post-mutation bookkeeping shared by every setter: audit
// the transition and enter the dispatch protocol.
func (s *Store) commit(e *Setting, oldText, origin string) {
	if s.audit != nil {
		s.audit.LogSettingChange(e.key, origin, oldText, e.value.Text())
	}
	s.dispatch(e)
}

// SetBool assigns a boolean value. Fails without mutation on unknown key or
// kind mismatch; a real change triggers notification dispatch.
func (s *Store) SetBool(key string, val bool) error {
	e, err := s.lookup(key)
	if err != nil {
		return err
	}
	oldText := e.value.Text()
	changed, err := e.value.SetBool(val)
	if err != nil {
		return errors.Wrap(err, ErrCodeTypeMismatch, "set failed for "+key)
	}
	if changed {
		s.commit(e, oldText, originRuntime)
	}
	return nil
}

// SetInt assigns an integer value, with the same contract as SetBool.
func (s *Store) SetInt(key string, val int32) error {
	e, err := s.lookup(key)
	if err != nil {
		return err
	}
	oldText := e.value.Text()
	changed, err := e.value.SetInt(val)
	if err != nil {
		return errors.Wrap(err, ErrCodeTypeMismatch, "set failed for "+key)
	}
	if changed {
		s.commit(e, oldText, originRuntime)
	}
	return nil
}

// SetFloat assigns a float value, with the same contract as SetBool.
func (s *Store) SetFloat(key string, val float64) error {
	e, err := s.lookup(key)
	if err != nil {
		return err
	}
	oldText := e.value.Text()
	changed, err := e.value.SetFloat(val)
	if err != nil {
		return errors.Wrap(err, ErrCodeTypeMismatch, "set failed for "+key)
	}
	if changed {
		s.commit(e, oldText, originRuntime)
	}
	return nil
}

// SetString assigns a string value, with the same contract as SetBool.
func (s *Store) SetString(key string, val string) error {
	e, err := s.lookup(key)
	if err != nil {
		return err
	}
	oldText := e.value.Text()
	changed, err := e.value.SetString(val)
	if err != nil {
		return errors.Wrap(err, ErrCodeTypeMismatch, "set failed for "+key)
	}
	if changed {
		s.commit(e, oldText, originRuntime)
	}
	return nil
}

// SetList replaces a list value. Every item must match the key's declared
// element kind. Change detection compares serialized forms, so a list that
// serializes identically to the current one is a no-op.
func (s *Store) SetList(key string, items []Value) error {
	e, err := s.lookup(key)
	if err != nil {
		return err
	}
	oldText := e.value.Text()
	changed, err := e.value.SetList(items)
	if err != nil {
		return errors.Wrap(err, ErrCodeTypeMismatch, "set failed for "+key)
	}
	if changed {
		s.commit(e, oldText, originRuntime)
	}
	return nil
}

// SetIntList is a convenience wrapper over SetList for integer lists.
func (s *Store) SetIntList(key string, vals []int32) error {
	items := make([]Value, len(vals))
	for i, n := range vals {
		items[i] = NewIntValue(n)
	}
	return s.SetList(key, items)
}

// SetFromText parses text per the key's declared type and assigns the
// result. Scalar parses are best effort; a diagnostic is reported through
// the error handler but the parsed prefix is still committed.
func (s *Store) SetFromText(key, text string) error {
	e, err := s.lookup(key)
	if err != nil {
		return err
	}
	return s.applyText(e, text, originRuntime)
}

// applyText parses text with the Setting's declared kind and commits the
// result. Used by SetFromText, the file loaders and reset.
func (s *Store) applyText(e *Setting, text, origin string) error {
	value, err := parseValueText(e.kind, e.elem, text)
	oldText := e.value.Text()
	e.value = value
	if e.value.Text() == oldText {
		return err
	}
	if origin == originRuntime {
		s.commit(e, oldText, origin)
		return err
	}
	// Load-time origins apply silently: the store is still being built and
	// no dispatch is due.
	if s.audit != nil {
		s.audit.LogSettingChange(e.key, origin, oldText, e.value.Text())
	}
	return err
}

// ResetToDefaults reparses the recorded default of every Setting whose key
// contains filter (every Setting when filter is empty) and whose current
// serialized form differs from it. All resets are applied first; only then
// are notifications dispatched, in registration order, so a reset triggered
// as a notification side effect can neither be skipped nor double counted.
// Returns the number of Settings that changed.
func (s *Store) ResetToDefaults(filter string) (int, error) {
	if s.closed {
		return 0, errors.New(ErrCodeStoreClosed, "store is closed")
	}
	var changed []*Setting
	for _, e := range s.order {
		if !strings.Contains(e.key, filter) {
			continue
		}
		oldText := e.value.Text()
		if oldText == e.recordedDefault {
			continue
		}
		value, err := parseValueText(e.kind, e.elem, e.recordedDefault)
		if err != nil {
			s.diagnostic(errors.Wrap(err, ErrCodeParseError,
				"bad recorded default for "+e.key), e.key)
		}
		e.value = value
		if s.audit != nil {
			s.audit.LogSettingChange(e.key, originReset, oldText, e.value.Text())
		}
		changed = append(changed, e)
	}
	for _, e := range changed {
		s.dispatch(e)
	}
	return len(changed), nil
}

// Flush persists every Setting whose serialized form differs from its
// recorded default. Settings equal to their recorded default are omitted,
// keeping the file minimal and forward compatible with default changes.
func (s *Store) Flush() error {
	if s.closed {
		return errors.New(ErrCodeStoreClosed, "store is closed")
	}
	return s.saveValues()
}

// Subscribe registers a callback for one exact key. Subscription ids are
// store-unique and never reused.
func (s *Store) Subscribe(key string, fn NotifyFunc) (uint64, error) {
	return s.SubscribeWithCleanup(key, fn, nil)
}

// SubscribeWithCleanup registers a callback plus a cleanup function that
// runs when the subscription is removed.
func (s *Store) SubscribeWithCleanup(key string, fn NotifyFunc, cleanup func()) (uint64, error) {
	e, err := s.lookup(key)
	if err != nil {
		return 0, err
	}
	if fn == nil {
		return 0, errors.New(ErrCodeNilCallback, "notify callback cannot be nil")
	}
	s.nextSub++
	sub := &subscription{
		id:      s.nextSub,
		key:     e.key,
		fn:      fn,
		cleanup: cleanup,
	}
	s.subs[e.key] = append(s.subs[e.key], sub)
	s.subsByID[sub.id] = sub
	return sub.id, nil
}

// Unsubscribe removes a subscription and runs its cleanup function.
// Reports whether the id was known.
func (s *Store) Unsubscribe(id uint64) bool {
	sub, ok := s.subsByID[id]
	if !ok {
		return false
	}
	delete(s.subsByID, id)
	sub.removed = true
	list := s.subs[sub.key]
	for i := range list {
		if list[i] == sub {
			s.subs[sub.key] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if sub.cleanup != nil {
		sub.cleanup()
	}
	return true
}

// Close flushes the store and shuts down the audit trail. Further calls on
// the store fail with ErrCodeStoreClosed.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	flushErr := s.saveValues()
	s.closed = true
	if s.audit != nil {
		s.audit.LogStoreEvent("store_closed", s.config.ValuesPath)
		if err := s.audit.Close(); err != nil && flushErr == nil {
			flushErr = err
		}
	}
	return flushErr
}

// dispatch runs the notification protocol for one Setting after a committed
// mutation. Internal subscribers and the external broadcast deduplicate
// independently against the last serialized text each channel saw.
//
// A callback that mutates the same key re-enters here, is absorbed into the
// running sweep via the Retriggered state, and the outer frame redelivers.
// The external broadcast fires at most once per outer call, carrying the
// final value.
func (s *Store) dispatch(e *Setting) {
	if !e.internalPending() {
		return
	}
	if e.state != dispatchIdle {
		e.state = dispatchRetriggered
		return
	}
	broadcastDue := e.broadcastPending()
	for {
		e.state = dispatchActive
		s.sweep(e)
		if e.broadcastPending() {
			broadcastDue = true
		}
		if e.state != dispatchRetriggered {
			break
		}
	}
	e.state = dispatchIdle
	if broadcastDue && s.config.Broadcaster != nil {
		s.config.Broadcaster.Broadcast(e.key, e.value.Clone())
	}
}

// sweep invokes every live subscription for the Setting's key in
// registration order. The slice is snapshotted so callbacks may subscribe
// and unsubscribe mid-sweep; removed subscriptions are skipped.
func (s *Store) sweep(e *Setting) {
	live := s.subs[e.key]
	snapshot := make([]*subscription, len(live))
	copy(snapshot, live)
	for _, sub := range snapshot {
		if sub.removed {
			continue
		}
		sub.fn(e.key, e.value.Clone())
	}
}
