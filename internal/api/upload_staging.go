// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomtom215/wayfarer/internal/upload"
)

const (
	// uploadField is the multipart field carrying the image.
	uploadField = "image"
	folderField = "folder"

	// stagingDir sits under the content root so the final move is a rename
	// on the same filesystem.
	stagingDir = ".tmp"

	// formOverheadBytes is allowed on top of the upload ceiling for
	// multipart boundaries and small fields, so a file exactly at the limit
	// still reaches the size check.
	formOverheadBytes = 1 << 20

	maxFieldBytes = 1024
)

// stagedUpload is the result of reading a multipart upload request.
type stagedUpload struct {
	file   *upload.File
	folder string
}

// cleanup removes the staged file if the pipeline did not move it.
func (s *stagedUpload) cleanup() {
	if s.file != nil && s.file.TempPath != "" {
		_ = os.Remove(s.file.TempPath) //nolint:errcheck // usually already moved
	}
}

// stageUpload streams the image part of r into a temp file under
// <contentRoot>/.tmp. Transport failures are reported through the File's
// Status, never as an error, so the pipeline decides the response.
func stageUpload(w http.ResponseWriter, r *http.Request, contentRoot string, maxBytes int64) *stagedUpload {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverheadBytes)
	staged := &stagedUpload{file: &upload.File{Status: upload.TransferNoFile}}

	mr, err := r.MultipartReader()
	if err != nil {
		return staged
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return staged
		}
		if err != nil {
			staged.file.Status = readFailure(err)
			return staged
		}

		switch part.FormName() {
		case folderField:
			v, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			if err != nil {
				staged.file.Status = readFailure(err)
				return staged
			}
			staged.folder = strings.TrimSpace(string(v))
		case uploadField:
			if part.FileName() == "" || staged.file.TempPath != "" {
				break
			}
			staged.file = spool(part, contentRoot)
			if staged.file.Status != upload.TransferOK {
				return staged
			}
		}
		_ = part.Close()
	}
}

// spool copies one file part to disk.
func spool(part *multipart.Part, contentRoot string) *upload.File {
	f := &upload.File{
		Filename:     filepath.Base(part.FileName()),
		DeclaredType: part.Header.Get("Content-Type"),
	}

	dir := filepath.Join(contentRoot, stagingDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		f.Status = upload.TransferNoTempDir
		return f
	}
	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		f.Status = upload.TransferNoTempDir
		return f
	}
	f.TempPath = tmp.Name()

	dst := &trackingWriter{w: tmp}
	n, err := io.Copy(dst, part)
	f.Size = n
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		dst.err = closeErr
		err = closeErr
	}

	switch {
	case err == nil && n == 0:
		f.Status = upload.TransferNoFile
	case err == nil:
		f.Status = upload.TransferOK
	case dst.err != nil:
		f.Status = upload.TransferCantWrite
	default:
		f.Status = readFailure(err)
	}
	return f
}

// readFailure classifies an error from reading the request body.
func readFailure(err error) upload.TransferStatus {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		return upload.TransferTooLarge
	case errors.Is(err, multipart.ErrMessageTooLarge):
		return upload.TransferFormTooLarge
	default:
		return upload.TransferPartial
	}
}

// trackingWriter remembers write errors so they can be told apart from
// read errors after io.Copy.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}
