// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/tomtom215/wayfarer/internal/imaging"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// Uploader validates, stores and post-processes uploaded images.
type Uploader struct {
	opts Options
	now  func() time.Time
}

// New creates an Uploader rooted at opts.ContentRoot.
func New(opts Options) (*Uploader, error) {
	if opts.ContentRoot == "" {
		return nil, errors.New("upload: content root is required")
	}
	root, err := filepath.Abs(opts.ContentRoot)
	if err != nil {
		return nil, fmt.Errorf("upload: resolve content root: %w", err)
	}
	opts.ContentRoot = root
	return &Uploader{opts: opts.withDefaults(), now: time.Now}, nil
}

// ContentRoot returns the absolute content root.
func (u *Uploader) ContentRoot() string {
	return u.opts.ContentRoot
}

// MaxSizeBytes returns the configured upload ceiling.
func (u *Uploader) MaxSizeBytes() int64 {
	return u.opts.MaxSizeBytes
}

// UploadImage validates f and moves it under folder with a generated name,
// then bounds it and writes a thumbnail. Validation and storage failures are
// returned as errors; post-processing failures only add warnings.
func (u *Uploader) UploadImage(ctx context.Context, f *File, folder string, p Params) (*Result, error) {
	res, err := u.store(ctx, f, folder, p)
	if err != nil {
		metrics.RecordUpload(Code(err), 0)
		logging.Ctx(ctx).Info().
			Str("component", "upload").
			Str("code", Code(err)).
			Err(err).
			Msg("Upload rejected")
		return nil, err
	}

	u.postProcess(ctx, res, p.processing())

	outcome := "success"
	if res.Degraded() {
		outcome = "degraded"
	}
	metrics.RecordUpload(outcome, f.Size)
	logging.Ctx(ctx).Info().
		Str("component", "upload").
		Str("path", res.Path).
		Bool("thumbnail", res.ThumbnailPath != "").
		Int64("size", f.Size).
		Msg("Image stored")
	return res, nil
}

func (u *Uploader) store(ctx context.Context, f *File, folder string, p Params) (*Result, error) {
	if f == nil || f.Status == TransferNoFile {
		return nil, ErrNoFile
	}
	if f.Status != TransferOK {
		return nil, &TransportError{Kind: f.Status}
	}

	limit := u.opts.MaxSizeBytes
	if p.MaxSizeBytes > 0 {
		limit = p.MaxSizeBytes
	}
	if f.Size > limit {
		return nil, &FileTooLargeError{Size: f.Size, LimitBytes: limit}
	}

	allowed := u.opts.AllowedTypes
	if len(p.AllowedTypes) > 0 {
		allowed = normalize(p.AllowedTypes)
	}
	mt, err := mimetype.DetectFile(f.TempPath)
	if err != nil {
		return nil, &StorageError{Reason: "cannot read uploaded file", Err: err}
	}
	if !typeAllowed(mt, allowed) {
		return nil, &UnsupportedTypeError{Detected: mt.String(), Allowed: allowed}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Filename), "."))
	if !slices.Contains(u.opts.AllowedExtensions, ext) {
		return nil, &InvalidExtensionError{Extension: ext}
	}

	if strings.TrimSpace(folder) == "" {
		folder = DefaultFolder
	}
	folder, err = cleanRelative(folder)
	if err != nil {
		return nil, &StorageError{Reason: "invalid destination folder", Err: err}
	}

	dir := u.abs(folder)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // content tree is served publicly
		return nil, &StorageError{Reason: "cannot create destination directory", Err: err}
	}

	name := u.uniqueName(ext)
	dst := filepath.Join(dir, name)
	if err := moveFile(f.TempPath, dst); err != nil {
		return nil, &StorageError{Reason: "cannot move uploaded file", Err: err}
	}
	if err := os.Chmod(dst, 0o644); err != nil { //nolint:gosec // stored images are world-readable
		logging.Ctx(ctx).Warn().Err(err).Str("path", dst).Msg("Failed to set permissions on stored image")
	}

	return &Result{StoredImage: StoredImage{
		Path:     path.Join(folder, name),
		Filename: name,
	}}, nil
}

// postProcess resizes the stored image in place and writes its thumbnail.
// Both steps are best-effort.
func (u *Uploader) postProcess(ctx context.Context, res *Result, cfg imaging.ProcessingConfig) {
	log := logging.Ctx(ctx).With().Str("component", "upload").Str("path", res.Path).Logger()
	stored := u.abs(res.Path)

	start := time.Now()
	err := imaging.ResizeImage(stored, stored, cfg.Image.MaxWidth, cfg.Image.MaxHeight, cfg.Image.Quality)
	metrics.RecordImageProcessing("resize", time.Since(start), err)
	if err != nil {
		log.Warn().Err(err).Msg("Image resize failed; keeping original")
		res.Warnings = append(res.Warnings, "image could not be resized: "+err.Error())
	}

	thumbRel := thumbnailFor(res.Path)
	start = time.Now()
	err = imaging.CreateThumbnail(stored, u.abs(thumbRel),
		cfg.Thumbnail.MaxWidth, cfg.Thumbnail.MaxHeight, cfg.Thumbnail.Quality)
	metrics.RecordImageProcessing("thumbnail", time.Since(start), err)
	if err != nil {
		log.Warn().Err(err).Msg("Thumbnail generation failed")
		res.Warnings = append(res.Warnings, "thumbnail could not be created: "+err.Error())
		return
	}
	res.ThumbnailPath = thumbRel
}

// ThumbnailPath returns the thumbnail path for an image path, if the
// thumbnail exists on disk.
func (u *Uploader) ThumbnailPath(imagePath string) (string, bool) {
	rel, err := cleanRelative(imagePath)
	if err != nil {
		return "", false
	}
	thumb := thumbnailFor(rel)
	if !isRegular(u.abs(thumb)) {
		return "", false
	}
	return thumb, true
}

// DeleteFile removes an image and, best-effort, its thumbnail. It reports
// whether the image itself was removed.
func (u *Uploader) DeleteFile(ctx context.Context, imagePath string) bool {
	rel, err := cleanRelative(imagePath)
	if err != nil {
		return false
	}
	target := u.abs(rel)
	info, err := os.Lstat(target)
	if err != nil {
		return false
	}
	if !info.Mode().IsRegular() {
		logging.Ctx(ctx).Debug().Str("path", rel).Msg("Refusing to delete non-regular file")
		return false
	}
	if err := os.Remove(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Ctx(ctx).Warn().Err(err).Str("path", rel).Msg("Failed to delete image")
		}
		return false
	}
	if err := os.Remove(u.abs(thumbnailFor(rel))); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Ctx(ctx).Debug().Err(err).Str("path", rel).Msg("Failed to delete thumbnail")
	}
	return true
}

func (u *Uploader) abs(rel string) string {
	return filepath.Join(u.opts.ContentRoot, filepath.FromSlash(rel))
}

// uniqueName builds "<unix nanos in hex>_<uuid without dashes>.<ext>".
func (u *Uploader) uniqueName(ext string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%x_%s.%s", u.now().UnixNano(), id, ext)
}

// isRegular reports whether p is a regular file, without following symlinks.
func isRegular(p string) bool {
	info, err := os.Lstat(p)
	return err == nil && info.Mode().IsRegular()
}

func typeAllowed(mt *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if mt.Is(a) {
			return true
		}
	}
	return false
}

// thumbnailFor inserts the thumbs directory before the base name.
func thumbnailFor(rel string) string {
	return path.Join(path.Dir(rel), ThumbsDir, path.Base(rel))
}

// cleanRelative normalizes a slash-separated path and rejects anything that
// would escape the content root.
func cleanRelative(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("empty path")
	}
	p = path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if !filepath.IsLocal(filepath.FromSlash(p)) {
		return "", fmt.Errorf("path %q is outside the content root", p)
	}
	return p, nil
}

// moveFile renames src to dst, falling back to copy and remove when the two
// live on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src) //nolint:gosec // src is a staged upload
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // read-only

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // world-readable image
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()    //nolint:errcheck,gosec // already failing
		os.Remove(dst) //nolint:errcheck,gosec // best-effort cleanup
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst) //nolint:errcheck,gosec // best-effort cleanup
		return err
	}
	os.Remove(src) //nolint:errcheck,gosec // the copy is what matters
	return nil
}
