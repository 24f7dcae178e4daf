// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package validation validates request structs with go-playground/validator.
//
// A single validator instance is shared process-wide so struct metadata is
// only parsed once. Field names in errors come from the json tag, which is
// what API clients see:
//
//	type tileMessageRequest struct {
//	    Message string `json:"message" validate:"required,oneof=cleanup clearCache"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// Besides the built-in tags two custom ones are registered: layer_name for
// tile layer identifiers and content_path for slash-separated paths that
// stay inside the content root.
package validation
