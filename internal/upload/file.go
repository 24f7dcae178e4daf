// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package upload

// TransferStatus describes how the transport layer received a file.
type TransferStatus int

// Transfer statuses reported by the HTTP layer.
const (
	TransferOK TransferStatus = iota
	TransferTooLarge
	TransferFormTooLarge
	TransferPartial
	TransferNoFile
	TransferNoTempDir
	TransferCantWrite
	TransferBlocked
)

// File is an uploaded file as staged by the transport layer.
type File struct {
	// TempPath is where the received bytes currently live.
	TempPath string

	// Filename is the client-supplied original name. Only its extension is
	// used; it never becomes part of the stored name.
	Filename string

	// DeclaredType is the client-declared content type. Informational only:
	// the pipeline sniffs the real type from the bytes.
	DeclaredType string

	Size   int64
	Status TransferStatus
}

// StoredImage locates a persisted image relative to the content root.
type StoredImage struct {
	Path          string `json:"path"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	Filename      string `json:"filename"`
}

// Result is a successful upload. Warnings lists post-processing steps that
// failed without failing the upload.
type Result struct {
	StoredImage
	Warnings []string `json:"warnings,omitempty"`
}

// Degraded reports whether any post-processing step failed.
func (r *Result) Degraded() bool {
	return len(r.Warnings) > 0
}
