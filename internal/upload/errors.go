// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package upload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// ErrNoFile is returned when no file was submitted.
var ErrNoFile = errors.New("no file was uploaded")

// Error codes reported to API clients.
const (
	CodeNoFile           = "NO_FILE"
	CodeUploadTransport  = "UPLOAD_TRANSPORT"
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeUnsupportedType  = "UNSUPPORTED_TYPE"
	CodeInvalidExtension = "INVALID_EXTENSION"
	CodeStorage          = "STORAGE_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
)

// TransportError reports a failure that happened while the file was being
// received, before any validation ran.
type TransportError struct {
	Kind TransferStatus
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case TransferTooLarge:
		return "upload failed: the file exceeds the server's upload size limit"
	case TransferFormTooLarge:
		return "upload failed: the file exceeds the form's size limit"
	case TransferPartial:
		return "upload failed: the file was only partially received"
	case TransferNoTempDir:
		return "upload failed: no temporary storage is available"
	case TransferCantWrite:
		return "upload failed: the file could not be written to temporary storage"
	case TransferBlocked:
		return "upload failed: the upload was stopped by a server extension"
	default:
		return fmt.Sprintf("upload failed: unknown transfer error (%d)", e.Kind)
	}
}

// FileTooLargeError is returned when the file is larger than the configured
// ceiling.
type FileTooLargeError struct {
	Size       int64
	LimitBytes int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file is too large: the maximum upload size is %s",
		humanize.IBytes(uint64(max(e.LimitBytes, 0))))
}

// LimitMB returns the ceiling in megabytes.
func (e *FileTooLargeError) LimitMB() float64 {
	return float64(e.LimitBytes) / (1 << 20)
}

// UnsupportedTypeError is returned when the sniffed content type is not
// allowed.
type UnsupportedTypeError struct {
	Detected string
	Allowed  []string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q: allowed types are %s",
		e.Detected, strings.Join(e.Allowed, ", "))
}

// InvalidExtensionError is returned when the client file name carries an
// extension outside the allow-list.
type InvalidExtensionError struct {
	Extension string
}

func (e *InvalidExtensionError) Error() string {
	if e.Extension == "" {
		return "invalid file extension: the file name has no extension"
	}
	return fmt.Sprintf("invalid file extension %q", e.Extension)
}

// StorageError is returned when the file could not be placed in the content
// tree.
type StorageError struct {
	Reason string
	Err    error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage error: %s: %v", e.Reason, e.Err)
	}
	return "storage error: " + e.Reason
}

func (e *StorageError) Unwrap() error { return e.Err }

// Code maps a pipeline error to its client-facing error code.
func Code(err error) string {
	var (
		transport   *TransportError
		tooLarge    *FileTooLargeError
		unsupported *UnsupportedTypeError
		extension   *InvalidExtensionError
		storage     *StorageError
	)
	switch {
	case errors.Is(err, ErrNoFile):
		return CodeNoFile
	case errors.As(err, &transport):
		return CodeUploadTransport
	case errors.As(err, &tooLarge):
		return CodeFileTooLarge
	case errors.As(err, &unsupported):
		return CodeUnsupportedType
	case errors.As(err, &extension):
		return CodeInvalidExtension
	case errors.As(err, &storage):
		return CodeStorage
	default:
		return CodeInternal
	}
}
