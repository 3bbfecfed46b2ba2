// setting.go: One fixed key's declared type, current value and dispatch state
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

// dispatchState tracks the notification protocol per Setting. A Setting is
// Idle outside of a dispatch. While its subscribers run it is Dispatching,
// and a re-entrant mutation of the same key moves it to Retriggered so the
// running sweep redelivers instead of recursing.
type dispatchState uint8

const (
	dispatchIdle dispatchState = iota
	dispatchActive
	dispatchRetriggered
)

// Setting binds one schema key to its current Value, the recorded default
// text snapshot, and the transient notification state. All mutation happens
// through the Store.
type Setting struct {
	key   string
	kind  Kind
	elem  Kind
	value Value

	// recordedDefault is the serialized value snapshot taken after defaults
	// and overrides were applied but before the persisted user values file.
	// It is the target of reset operations and the persist filter.
	recordedDefault string

	state dispatchState

	// Per-channel deduplication: the last serialized text delivered to
	// internal subscribers and the last text broadcast externally. Both are
	// populated lazily on first delivery.
	deliveredText string
	hasDelivered  bool
	broadcastText string
	hasBroadcast  bool
}

// Key returns the setting's key.
func (s *Setting) Key() string { return s.key }

// internalPending compares the current serialized text against the last
// text delivered to internal subscribers. On a difference it records the new
// text and reports that delivery is due.
func (s *Setting) internalPending() bool {
	text := s.value.Text()
	if s.hasDelivered && s.deliveredText == text {
		return false
	}
	s.deliveredText = text
	s.hasDelivered = true
	return true
}

// broadcastPending is the external-channel counterpart of internalPending.
func (s *Setting) broadcastPending() bool {
	text := s.value.Text()
	if s.hasBroadcast && s.broadcastText == text {
		return false
	}
	s.broadcastText = text
	s.hasBroadcast = true
	return true
}
