// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tomtom215/wayfarer/internal/validation"
)

// ContentHandler serves stored images and thumbnails from the content root.
// Directories and hidden path segments such as the staging area are never
// served.
func ContentHandler(root string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, ContentPrefix)
		if !validation.IsContentPath(rel) || hasHiddenSegment(rel) {
			http.NotFound(w, r)
			return
		}

		full := filepath.Join(root, filepath.FromSlash(path.Clean(rel)))
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.ServeFile(w, r, full)
	})
}

func hasHiddenSegment(rel string) bool {
	for _, seg := range strings.Split(path.Clean(rel), "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
