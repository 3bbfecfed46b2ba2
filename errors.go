// errors.go: Error codes for the Hestia settings store
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

// Error codes for programmatic error handling.
// All errors returned by the public API carry one of these codes and can be
// inspected with the go-errors package.
const (
	ErrCodeUnknownKey    = "HESTIA_UNKNOWN_KEY"
	ErrCodeTypeMismatch  = "HESTIA_TYPE_MISMATCH"
	ErrCodeParseError    = "HESTIA_PARSE_ERROR"
	ErrCodeBadSchema     = "HESTIA_BAD_SCHEMA"
	ErrCodeBadTypeCode   = "HESTIA_BAD_TYPE_CODE"
	ErrCodeListOfString  = "HESTIA_LIST_OF_STRING"
	ErrCodeIOError       = "HESTIA_IO_ERROR"
	ErrCodeStoreClosed   = "HESTIA_STORE_CLOSED"
	ErrCodeInvalidConfig = "HESTIA_INVALID_CONFIG"
	ErrCodeInvalidValue  = "HESTIA_INVALID_VALUE"
	ErrCodeAuditError    = "HESTIA_AUDIT_ERROR"
	ErrCodeListKindSet   = "HESTIA_LIST_KIND_ALREADY_SET"
	ErrCodeListKindUnset = "HESTIA_LIST_KIND_NOT_SET"
	ErrCodeNilCallback   = "HESTIA_NIL_CALLBACK"
	ErrCodeDuplicateKey  = "HESTIA_DUPLICATE_KEY"
	ErrCodeBadKey        = "HESTIA_BAD_KEY"
	ErrCodeBadDefault    = "HESTIA_BAD_DEFAULT"
)
