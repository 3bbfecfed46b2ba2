// persist.go: Override and persisted-values file handling
//
// Both file kinds share one line-oriented format: "key=value", one setting
// per line, "#" comments and blank lines skipped. Malformed or unknown
// lines never abort a load; they are reported through the error handler and
// ignored.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
)

// overrideGlob matches override files: a two-digit ordering prefix and the
// .conf suffix, e.g. "20-vendor.conf".
const overrideGlob = "[0-9][0-9]*.conf"

// valuesFileMode is the permission set of the persisted values file.
const valuesFileMode = 0664

// applyOverrides loads every override file in ascending filename order.
// A missing directory means no overrides.
func (s *Store) applyOverrides() {
	matches, err := filepath.Glob(filepath.Join(s.config.OverrideDir, overrideGlob))
	if err != nil {
		s.diagnostic(errors.Wrap(err, ErrCodeIOError, "override scan failed"), s.config.OverrideDir)
		return
	}
	sort.Strings(matches)
	for _, path := range matches {
		s.loadFile(path, originOverride)
	}
}

// loadValues applies the persisted user-values file. Missing file is not an
// error: it means no user values yet.
func (s *Store) loadValues() {
	s.loadFile(s.config.ValuesPath, originPersisted)
}

// loadFile applies one key=value file to the store without dispatching.
func (s *Store) loadFile(path, origin string) {
	data, err := os.ReadFile(path) // #nosec G304 -- paths come from store configuration
	if err != nil {
		if !os.IsNotExist(err) {
			s.diagnostic(errors.Wrap(err, ErrCodeIOError, "cannot read "+path), path)
		}
		return
	}
	for lineno, line := range strings.Split(string(data), "\n") {
		key, text, ok := parseLine(line)
		if !ok {
			continue
		}
		if key == "" {
			s.diagnostic(errors.New(ErrCodeParseError,
				"malformed line "+strconv.Itoa(lineno+1)+" in "+path), path)
			continue
		}
		e, found := s.byKey[key]
		if !found {
			// Unknown keys in on-disk files are skipped, not fatal: the file
			// may come from a newer or older build.
			s.diagnostic(errors.New(ErrCodeUnknownKey,
				"unknown key in "+path+": "+key), key)
			continue
		}
		if err := s.applyText(e, text, origin); err != nil {
			s.diagnostic(errors.Wrap(err, ErrCodeParseError,
				"bad value in "+path+" for "+key), key)
		}
	}
	if s.audit != nil {
		s.audit.LogStoreEvent("file_applied", path)
	}
}

// parseLine splits one file line into key and value. The third return is
// false for blank lines and comments; a true return with an empty key marks
// a malformed line.
func parseLine(line string) (key, text string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	eq := strings.IndexByte(trimmed, '=')
	if eq <= 0 {
		return "", "", true
	}
	key = strings.TrimSpace(trimmed[:eq])
	text = strings.TrimSpace(trimmed[eq+1:])
	return key, text, true
}

// saveValues writes the persisted values file: only Settings whose current
// serialized form differs from their recorded default, in registration
// order, written atomically.
func (s *Store) saveValues() error {
	var buf bytes.Buffer
	for _, e := range s.order {
		text := e.value.Text()
		if text == e.recordedDefault {
			continue
		}
		buf.WriteString(e.key)
		buf.WriteByte('=')
		buf.WriteString(text)
		buf.WriteByte('\n')
	}
	if err := atomicWriteFile(s.config.ValuesPath, buf.Bytes(), valuesFileMode); err != nil {
		return err
	}
	if s.audit != nil {
		s.audit.LogStoreEvent("values_saved", s.config.ValuesPath)
	}
	return nil
}

// atomicWriteFile writes data through a hidden temp file in the target
// directory (same filesystem) and renames it into place.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	if err := os.MkdirAll(dir, 0775); err != nil {
		return errors.Wrap(err, ErrCodeIOError, "cannot create directory for "+path)
	}

	tempPath := filepath.Join(dir,
		"."+base+".tmp."+strconv.FormatInt(timecache.CachedTimeNano(), 10))

	if err := os.WriteFile(tempPath, data, perm); err != nil {
		return errors.Wrap(err, ErrCodeIOError, "failed to write temp file")
	}

	// WriteFile permissions are subject to the umask; force the fixed bits.
	if err := os.Chmod(tempPath, perm); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, ErrCodeIOError, "failed to set file mode")
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, ErrCodeIOError, "failed to rename temp file")
	}

	return nil
}
