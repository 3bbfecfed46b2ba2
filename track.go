// track.go: Tracked accessors binding a key to a caller variable
//
// A tracked accessor reads the current value into a destination and keeps
// it updated from change notifications, so daemon modules can follow a
// setting with one call instead of a get plus a hand-rolled subscriber.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import "github.com/agilira/go-errors"

// TrackBool loads the key's boolean value into dst and registers a
// subscription that keeps dst updated. Returns the subscription id.
func (s *Store) TrackBool(key string, dst *bool) (uint64, error) {
	if dst == nil {
		return 0, errors.New(ErrCodeNilCallback, "destination cannot be nil")
	}
	val, err := s.GetBool(key)
	if err != nil {
		return 0, err
	}
	*dst = val
	return s.Subscribe(key, func(k string, v Value) {
		if b, err := v.BoolValue(); err == nil {
			*dst = b
		} else {
			s.diagnostic(err, k)
		}
	})
}

// TrackInt loads the key's integer value into dst and keeps it updated.
func (s *Store) TrackInt(key string, dst *int32) (uint64, error) {
	if dst == nil {
		return 0, errors.New(ErrCodeNilCallback, "destination cannot be nil")
	}
	val, err := s.GetInt(key)
	if err != nil {
		return 0, err
	}
	*dst = val
	return s.Subscribe(key, func(k string, v Value) {
		if n, err := v.IntValue(); err == nil {
			*dst = n
		} else {
			s.diagnostic(err, k)
		}
	})
}

// TrackFloat loads the key's float value into dst and keeps it updated.
func (s *Store) TrackFloat(key string, dst *float64) (uint64, error) {
	if dst == nil {
		return 0, errors.New(ErrCodeNilCallback, "destination cannot be nil")
	}
	val, err := s.GetFloat(key)
	if err != nil {
		return 0, err
	}
	*dst = val
	return s.Subscribe(key, func(k string, v Value) {
		if f, err := v.FloatValue(); err == nil {
			*dst = f
		} else {
			s.diagnostic(err, k)
		}
	})
}

// TrackString loads the key's string value into dst and keeps it updated.
func (s *Store) TrackString(key string, dst *string) (uint64, error) {
	if dst == nil {
		return 0, errors.New(ErrCodeNilCallback, "destination cannot be nil")
	}
	val, err := s.GetString(key)
	if err != nil {
		return 0, err
	}
	*dst = val
	return s.Subscribe(key, func(k string, v Value) {
		if str, err := v.StringValue(); err == nil {
			*dst = str
		} else {
			s.diagnostic(err, k)
		}
	})
}
