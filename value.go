// value.go: Tagged variant value with parse, serialize and change detection
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"strconv"
	"strings"

	"github.com/agilira/go-errors"
)

// Kind identifies the payload type carried by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
)

// String returns a human readable kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

func (k Kind) typeCode() (byte, bool) {
	switch k {
	case KindBool:
		return 'b', true
	case KindInt:
		return 'i', true
	case KindFloat:
		return 'f', true
	case KindString:
		return 's', true
	case KindList:
		return 'a', true
	default:
		return 0, false
	}
}

func kindFromCode(c byte) Kind {
	switch c {
	case 'b':
		return KindBool
	case 'i':
		return KindInt
	case 'f':
		return KindFloat
	case 's':
		return KindString
	case 'a':
		return KindList
	default:
		return KindInvalid
	}
}

// ParseTypeCode parses a compact schema type code into a kind pair.
// Scalar codes are a single character ("b", "i", "f", "s"); list codes are
// the list marker followed by the element code ("ab", "ai", "af").
// Lists of strings ("as") are rejected: list serialization does not escape
// commas, so string elements are excluded by rule rather than by convention.
func ParseTypeCode(code string) (kind Kind, elem Kind, err error) {
	switch len(code) {
	case 1:
		kind = kindFromCode(code[0])
		if kind == KindInvalid || kind == KindList {
			return KindInvalid, KindInvalid,
				errors.New(ErrCodeBadTypeCode, "invalid type code: "+code)
		}
		return kind, KindInvalid, nil
	case 2:
		if code[0] != 'a' {
			return KindInvalid, KindInvalid,
				errors.New(ErrCodeBadTypeCode, "invalid type code: "+code)
		}
		elem = kindFromCode(code[1])
		switch elem {
		case KindBool, KindInt, KindFloat:
			return KindList, elem, nil
		case KindString:
			return KindInvalid, KindInvalid,
				errors.New(ErrCodeListOfString, "lists of strings are not supported: "+code)
		default:
			return KindInvalid, KindInvalid,
				errors.New(ErrCodeBadTypeCode, "invalid list element code: "+code)
		}
	default:
		return KindInvalid, KindInvalid,
			errors.New(ErrCodeBadTypeCode, "invalid type code: "+code)
	}
}

// TypeCode returns the compact schema code for a kind pair, or "" if the
// combination is not expressible.
func TypeCode(kind, elem Kind) string {
	c, ok := kind.typeCode()
	if !ok {
		return ""
	}
	if kind != KindList {
		return string(c)
	}
	e, ok := elem.typeCode()
	if !ok || elem == KindList {
		return ""
	}
	return string([]byte{c, e})
}

// Value is a tagged variant holding one scalar or a homogeneous list of one
// scalar kind. The kind is fixed at construction; setters fail on kind
// mismatch rather than coercing, and a Value degrades to KindInvalid only on
// an unrecoverable parse failure inside a list.
//
// The zero Value has KindInvalid.
type Value struct {
	kind Kind
	elem Kind // list element kind, KindInvalid for scalars
	b    bool
	i    int32
	f    float64
	s    string
	list []Value
}

// NewBoolValue returns a Bool Value.
func NewBoolValue(v bool) Value { return Value{kind: KindBool, b: v} }

// NewIntValue returns an Int Value. The integer payload is 32-bit signed.
func NewIntValue(v int32) Value { return Value{kind: KindInt, i: v} }

// NewFloatValue returns a Float Value.
func NewFloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }

// NewStringValue returns a String Value.
func NewStringValue(v string) Value { return Value{kind: KindString, s: v} }

// NewListValue returns a List Value with the given element kind, deep
// copying the items. Every item must be a scalar of the element kind.
func NewListValue(elem Kind, items ...Value) (Value, error) {
	v := Value{kind: KindList}
	if err := v.SetListKind(elem); err != nil {
		return Value{}, err
	}
	if _, err := v.SetList(items); err != nil {
		return Value{}, err
	}
	return v, nil
}

// Kind returns the value kind.
func (v *Value) Kind() Kind { return v.kind }

// ListKind returns the list element kind, or KindInvalid for scalars and
// lists whose element kind has not been fixed yet.
func (v *Value) ListKind() Kind { return v.elem }

// Clone returns a deep copy, including list payloads.
func (v Value) Clone() Value {
	out := v
	if v.kind == KindList && v.list != nil {
		out.list = make([]Value, len(v.list))
		copy(out.list, v.list)
	}
	return out
}

func (v *Value) kindError(want Kind) error {
	return errors.New(ErrCodeTypeMismatch,
		"value is "+v.kind.String()+", not "+want.String())
}

// BoolValue returns the boolean payload.
func (v *Value) BoolValue() (bool, error) {
	if v.kind != KindBool {
		return false, v.kindError(KindBool)
	}
	return v.b, nil
}

// IntValue returns the integer payload.
func (v *Value) IntValue() (int32, error) {
	if v.kind != KindInt {
		return 0, v.kindError(KindInt)
	}
	return v.i, nil
}

// FloatValue returns the float payload.
func (v *Value) FloatValue() (float64, error) {
	if v.kind != KindFloat {
		return 0, v.kindError(KindFloat)
	}
	return v.f, nil
}

// StringValue returns the string payload.
func (v *Value) StringValue() (string, error) {
	if v.kind != KindString {
		return "", v.kindError(KindString)
	}
	return v.s, nil
}

// ListValue returns a deep copy of the list payload.
func (v *Value) ListValue() ([]Value, error) {
	if v.kind != KindList {
		return nil, v.kindError(KindList)
	}
	out := make([]Value, len(v.list))
	copy(out, v.list)
	return out, nil
}

// SetBool assigns a boolean payload. Reports whether the payload changed.
func (v *Value) SetBool(val bool) (bool, error) {
	if v.kind != KindBool {
		return false, v.kindError(KindBool)
	}
	if v.b == val {
		return false, nil
	}
	v.b = val
	return true, nil
}

// SetInt assigns an integer payload. Reports whether the payload changed.
func (v *Value) SetInt(val int32) (bool, error) {
	if v.kind != KindInt {
		return false, v.kindError(KindInt)
	}
	if v.i == val {
		return false, nil
	}
	v.i = val
	return true, nil
}

// SetFloat assigns a float payload. Reports whether the payload changed.
func (v *Value) SetFloat(val float64) (bool, error) {
	if v.kind != KindFloat {
		return false, v.kindError(KindFloat)
	}
	if v.f == val {
		return false, nil
	}
	v.f = val
	return true, nil
}

// SetString assigns a string payload. Reports whether the payload changed.
func (v *Value) SetString(val string) (bool, error) {
	if v.kind != KindString {
		return false, v.kindError(KindString)
	}
	if v.s == val {
		return false, nil
	}
	v.s = val
	return true, nil
}

// SetListKind fixes the element kind of a List Value. It is legal exactly
// once, while the element kind is still unset. Lists of lists are illegal,
// and lists of strings are rejected by rule (no comma escaping exists).
func (v *Value) SetListKind(elem Kind) error {
	if v.kind != KindList {
		return v.kindError(KindList)
	}
	if v.elem != KindInvalid {
		return errors.New(ErrCodeListKindSet, "list element kind already fixed to "+v.elem.String())
	}
	switch elem {
	case KindBool, KindInt, KindFloat:
		v.elem = elem
		return nil
	case KindString:
		return errors.New(ErrCodeListOfString, "lists of strings are not supported")
	default:
		return errors.New(ErrCodeBadTypeCode, "illegal list element kind: "+elem.String())
	}
}

// SetList replaces the list payload by deep copy after validating that every
// item is a scalar of the fixed element kind. Change detection compares the
// serialized textual forms of the old and new lists, so two lists that
// serialize identically count as unchanged.
func (v *Value) SetList(items []Value) (bool, error) {
	if v.kind != KindList {
		return false, v.kindError(KindList)
	}
	if v.elem == KindInvalid {
		return false, errors.New(ErrCodeListKindUnset, "list element kind not fixed")
	}
	for idx := range items {
		if items[idx].kind != v.elem {
			return false, errors.New(ErrCodeTypeMismatch,
				"list element "+strconv.Itoa(idx)+" is "+items[idx].kind.String()+
					", not "+v.elem.String())
		}
	}
	next := make([]Value, len(items))
	copy(next, items)
	oldText := v.Text()
	v2 := Value{kind: KindList, elem: v.elem, list: next}
	newText := v2.Text()
	if oldText == newText {
		return false, nil
	}
	v.list = next
	return true, nil
}

// Text serializes the value. Booleans render as "true"/"false", integers in
// base 10, floats in the shortest form that round-trips, strings verbatim,
// and lists as comma-joined elements with no escaping. Invalid values render
// as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(int64(v.i), 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindList:
		if len(v.list) == 0 {
			return ""
		}
		var sb strings.Builder
		for idx := range v.list {
			if idx > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(v.list[idx].Text())
		}
		return sb.String()
	default:
		return ""
	}
}

// String implements fmt.Stringer as an alias for Text.
func (v Value) String() string { return v.Text() }

// ParseText replaces the payload from its textual form, keeping the kind.
// Scalar parses are best effort: a partially valid input still updates the
// payload from the valid prefix, and the error reports the leftover. A list
// with any unparseable element degrades the whole Value to KindInvalid.
// Reports whether the serialized form changed.
func (v *Value) ParseText(text string) (bool, error) {
	switch v.kind {
	case KindBool:
		val, err := parseBoolText(text)
		changed, _ := v.SetBool(val)
		return changed, err
	case KindInt:
		val, err := parseIntText(text)
		changed, _ := v.SetInt(val)
		return changed, err
	case KindFloat:
		val, err := parseFloatText(text)
		changed, _ := v.SetFloat(val)
		return changed, err
	case KindString:
		return v.SetString(text)
	case KindList:
		if v.elem == KindInvalid {
			return false, errors.New(ErrCodeListKindUnset, "list element kind not fixed")
		}
		items, err := parseListText(v.elem, text)
		if err != nil {
			// One bad element invalidates the whole list.
			v.kind = KindInvalid
			v.list = nil
			return true, err
		}
		return v.SetList(items)
	default:
		return false, errors.New(ErrCodeInvalidValue, "cannot parse into an invalid value")
	}
}

// parseValueText builds a fresh Value of the given kind from text.
func parseValueText(kind, elem Kind, text string) (Value, error) {
	v := Value{kind: kind, elem: elem}
	if kind == KindString {
		v.s = text
		return v, nil
	}
	_, err := v.ParseText(text)
	return v, err
}

// stripText trims surrounding whitespace and collapses internal whitespace
// runs to a single space.
func stripText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parseBoolText recognizes the literal words "true/t/yes/y" and
// "false/f/no/n" case-sensitively before falling back to integer parsing,
// where any nonzero value is true.
func parseBoolText(text string) (bool, error) {
	switch text {
	case "true", "t", "yes", "y":
		return true, nil
	case "false", "f", "no", "n":
		return false, nil
	}
	n, err := parseIntText(text)
	return n != 0, err
}

// parseIntText converts text to a 32-bit signed integer, accepting base
// prefixes. The entire input must be consumed; otherwise the longest valid
// prefix is used and a diagnostic is returned alongside it.
func parseIntText(text string) (int32, error) {
	n, err := strconv.ParseInt(text, 0, 32)
	if err == nil {
		return int32(n), nil
	}
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return int32(n), errors.New(ErrCodeParseError, "integer out of range: "+text)
	}
	for end := len(text) - 1; end > 0; end-- {
		if p, perr := strconv.ParseInt(text[:end], 0, 32); perr == nil {
			return int32(p), errors.New(ErrCodeParseError,
				"trailing characters after integer: "+text)
		}
	}
	return 0, errors.New(ErrCodeParseError, "not an integer: "+text)
}

// parseFloatText converts text to a float64 with the same whole-input and
// best-effort-prefix contract as parseIntText.
func parseFloatText(text string) (float64, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err == nil {
		return f, nil
	}
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return f, errors.New(ErrCodeParseError, "float out of range: "+text)
	}
	for end := len(text) - 1; end > 0; end-- {
		if p, perr := strconv.ParseFloat(text[:end], 64); perr == nil {
			return p, errors.New(ErrCodeParseError,
				"trailing characters after float: "+text)
		}
	}
	return 0, errors.New(ErrCodeParseError, "not a float: "+text)
}

// parseListText splits text on commas, strips each element and parses it as
// the element kind. Empty text is an empty list, so an emptied list survives
// a save/load cycle. Any bad element fails the whole parse.
func parseListText(elem Kind, text string) ([]Value, error) {
	if strings.TrimSpace(text) == "" {
		return []Value{}, nil
	}
	parts := strings.Split(text, ",")
	items := make([]Value, 0, len(parts))
	for _, part := range parts {
		item, err := parseValueText(elem, KindInvalid, stripText(part))
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeParseError,
				"bad list element: "+part)
		}
		items = append(items, item)
	}
	return items, nil
}
