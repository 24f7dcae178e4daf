// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"errors"
	"net/http"
	"path"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/settings"
	"github.com/tomtom215/wayfarer/internal/upload"
	"github.com/tomtom215/wayfarer/internal/validation"
)

// ContentPrefix is where the content root is served.
const ContentPrefix = "/content/"

type uploadRequest struct {
	Folder string `json:"folder" validate:"omitempty,content_path"`
}

type pathRequest struct {
	Path string `json:"path" validate:"required,content_path"`
}

// UploadResponse is returned for a stored image. URL fields point at the
// public content route.
type UploadResponse struct {
	*upload.Result
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// UploadImage handles POST /api/v1/uploads.
//
// @Summary Upload an image
// @Description Stores a JPEG or PNG under the content root, bounds it and writes a thumbnail. Processing failures are reported as warnings.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file"
// @Param folder formData string false "Destination folder relative to the content root" default(uploads/points)
// @Success 201 {object} APIResponse{data=UploadResponse} "Image stored"
// @Failure 400 {object} APIResponse "Missing file, bad extension or partial upload"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 415 {object} APIResponse "Unsupported content type"
// @Failure 500 {object} APIResponse "Image could not be stored"
// @Router /api/v1/uploads [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	staged := stageUpload(w, r, h.uploader.ContentRoot(), h.uploader.MaxSizeBytes())
	defer staged.cleanup()

	folder := staged.folder
	if folder == "" {
		folder = r.URL.Query().Get(folderField)
	}
	if verr := validation.ValidateStruct(&uploadRequest{Folder: folder}); verr != nil {
		rw.ValidationError(verr)
		return
	}

	cfg, warnings, err := settings.LoadProcessingConfig(ctx, h.settings)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("component", "upload").Msg("Using default processing settings")
		warnings = append(warnings, "processing settings unavailable; defaults were used")
	}

	res, err := h.uploader.UploadImage(ctx, staged.file, folder, upload.Params{Processing: cfg})
	if err != nil {
		h.respondUploadError(rw, err)
		return
	}
	res.Warnings = append(warnings, res.Warnings...)

	out := UploadResponse{Result: res, URL: contentURL(res.Path)}
	if res.ThumbnailPath != "" {
		out.ThumbnailURL = contentURL(res.ThumbnailPath)
	}
	rw.Created(out)
}

func (h *Handler) respondUploadError(rw *ResponseWriter, err error) {
	code := upload.Code(err)

	var (
		transport *upload.TransportError
		tooLarge  *upload.FileTooLargeError
		storage   *upload.StorageError
	)
	switch {
	case errors.As(err, &tooLarge):
		rw.ErrorWithDetails(http.StatusRequestEntityTooLarge, code, err.Error(), map[string]any{
			"size_bytes":  tooLarge.Size,
			"max_bytes":   tooLarge.LimitBytes,
			"max_size_mb": tooLarge.LimitMB(),
		})
	case errors.As(err, &transport):
		rw.ErrorWithDetails(transportStatus(transport.Kind), code, err.Error(), nil)
	case errors.As(err, &storage):
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Upload storage failed")
		rw.Error(http.StatusInternalServerError, code, "the image could not be stored")
	case code == upload.CodeUnsupportedType:
		rw.Error(http.StatusUnsupportedMediaType, code, err.Error())
	case code == upload.CodeNoFile, code == upload.CodeInvalidExtension:
		rw.Error(http.StatusBadRequest, code, err.Error())
	default:
		rw.InternalError("upload failed", err)
	}
}

func transportStatus(kind upload.TransferStatus) int {
	switch kind {
	case upload.TransferTooLarge, upload.TransferFormTooLarge:
		return http.StatusRequestEntityTooLarge
	case upload.TransferPartial:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DeleteUpload handles DELETE /api/v1/uploads?path=.
//
// @Summary Delete an image
// @Description Removes a stored image and its thumbnail
// @Tags Uploads
// @Produce json
// @Param path query string true "Image path relative to the content root"
// @Success 200 {object} APIResponse "Image deleted"
// @Failure 400 {object} APIResponse "Invalid path"
// @Failure 404 {object} APIResponse "Image not found"
// @Router /api/v1/uploads [delete]
func (h *Handler) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	req := pathRequest{Path: r.URL.Query().Get("path")}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	if !h.uploader.DeleteFile(r.Context(), req.Path) {
		rw.NotFound("image not found")
		return
	}
	rw.Success(map[string]any{"path": req.Path, "deleted": true})
}

// Thumbnail handles GET /api/v1/uploads/thumbnail?path=.
//
// @Summary Look up a thumbnail
// @Tags Uploads
// @Produce json
// @Param path query string true "Image path relative to the content root"
// @Success 200 {object} APIResponse "Thumbnail path and URL"
// @Failure 404 {object} APIResponse "No thumbnail"
// @Router /api/v1/uploads/thumbnail [get]
func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	req := pathRequest{Path: r.URL.Query().Get("path")}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	thumb, ok := h.uploader.ThumbnailPath(req.Path)
	if !ok {
		rw.NotFound("thumbnail not found")
		return
	}
	rw.Success(map[string]string{
		"path":           req.Path,
		"thumbnail_path": thumb,
		"thumbnail_url":  contentURL(thumb),
	})
}

func contentURL(rel string) string {
	return path.Join(ContentPrefix, rel)
}
