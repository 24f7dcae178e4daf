// Wayfarer - Travel Map Photo and Tile Services
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package upload

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/wayfarer/internal/imaging"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	return img
}

func jpegData(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// stage writes data to a temp location the way the HTTP layer would.
func stage(t *testing.T, filename string, data []byte) *File {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "upload-part")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return &File{
		TempPath:     tmp,
		Filename:     filename,
		DeclaredType: "application/octet-stream",
		Size:         int64(len(data)),
	}
}

func newTestUploader(t *testing.T) *Uploader {
	t.Helper()
	u, err := New(Options{ContentRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return u
}

func testParams() Params {
	return Params{Processing: imaging.ProcessingConfig{
		Image:     imaging.Bounds{MaxWidth: 400, MaxHeight: 300, Quality: 85},
		Thumbnail: imaging.Bounds{MaxWidth: 100, MaxHeight: 100, Quality: 80},
	}}
}

func TestNew_RequiresContentRoot(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error for empty content root")
	}
}

func TestUploadImage_Success(t *testing.T) {
	u := newTestUploader(t)
	f := stage(t, "Holiday.JPG", jpegData(t, 800, 600))

	res, err := u.UploadImage(context.Background(), f, "", testParams())
	if err != nil {
		t.Fatalf("UploadImage() error = %v", err)
	}

	if !strings.HasPrefix(res.Path, DefaultFolder+"/") {
		t.Errorf("Path = %q, want prefix %q", res.Path, DefaultFolder+"/")
	}
	if !strings.HasSuffix(res.Filename, ".jpg") {
		t.Errorf("Filename = %q, want lower-cased .jpg extension", res.Filename)
	}
	if strings.Contains(res.Filename, "Holiday") {
		t.Errorf("Filename %q must not contain the client name", res.Filename)
	}
	if res.Degraded() {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}

	wantThumb := DefaultFolder + "/thumbs/" + res.Filename
	if res.ThumbnailPath != wantThumb {
		t.Errorf("ThumbnailPath = %q, want %q", res.ThumbnailPath, wantThumb)
	}

	stored := filepath.Join(u.ContentRoot(), filepath.FromSlash(res.Path))
	info, err := os.Stat(stored)
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o644 {
		t.Errorf("stored file mode = %o, want 644", perm)
	}
	if _, err := os.Stat(f.TempPath); !os.IsNotExist(err) {
		t.Error("temp file should have been moved away")
	}

	if w, h := decodedSize(t, stored); w != 400 || h != 300 {
		t.Errorf("stored image = %dx%d, want 400x300", w, h)
	}
	thumb := filepath.Join(u.ContentRoot(), filepath.FromSlash(res.ThumbnailPath))
	if w, h := decodedSize(t, thumb); w != 100 || h != 75 {
		t.Errorf("thumbnail = %dx%d, want 100x75", w, h)
	}
}

func TestUploadImage_CustomFolder(t *testing.T) {
	u := newTestUploader(t)
	f := stage(t, "cover.png", pngData(t, 50, 50))

	res, err := u.UploadImage(context.Background(), f, "uploads/trips", testParams())
	if err != nil {
		t.Fatalf("UploadImage() error = %v", err)
	}
	if !strings.HasPrefix(res.Path, "uploads/trips/") {
		t.Errorf("Path = %q, want uploads/trips/ prefix", res.Path)
	}
	if !strings.HasSuffix(res.Path, ".png") {
		t.Errorf("Path = %q, want .png", res.Path)
	}
}

func TestUploadImage_UniqueNames(t *testing.T) {
	u := newTestUploader(t)
	data := pngData(t, 10, 10)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		res, err := u.UploadImage(context.Background(), stage(t, "same.png", data), "uploads/points", testParams())
		if err != nil {
			t.Fatalf("UploadImage() error = %v", err)
		}
		if seen[res.Filename] {
			t.Fatalf("duplicate filename %q", res.Filename)
		}
		seen[res.Filename] = true
	}
}

func TestUploadImage_Rejections(t *testing.T) {
	u := newTestUploader(t)
	ctx := context.Background()

	t.Run("nil file", func(t *testing.T) {
		_, err := u.UploadImage(ctx, nil, "", testParams())
		if !errors.Is(err, ErrNoFile) {
			t.Errorf("error = %v, want ErrNoFile", err)
		}
		if Code(err) != CodeNoFile {
			t.Errorf("Code() = %q, want %q", Code(err), CodeNoFile)
		}
	})

	t.Run("no file status", func(t *testing.T) {
		_, err := u.UploadImage(ctx, &File{Status: TransferNoFile}, "", testParams())
		if !errors.Is(err, ErrNoFile) {
			t.Errorf("error = %v, want ErrNoFile", err)
		}
	})

	t.Run("partial transfer", func(t *testing.T) {
		f := stage(t, "a.jpg", jpegData(t, 10, 10))
		f.Status = TransferPartial
		_, err := u.UploadImage(ctx, f, "", testParams())
		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("error = %v, want *TransportError", err)
		}
		if te.Kind != TransferPartial {
			t.Errorf("Kind = %d, want TransferPartial", te.Kind)
		}
		if !strings.Contains(te.Error(), "partially") {
			t.Errorf("message %q should describe a partial upload", te.Error())
		}
	})

	t.Run("sniffed type wins over name", func(t *testing.T) {
		f := stage(t, "sneaky.jpg", []byte("<?php echo 'hello'; ?>"))
		f.DeclaredType = "image/jpeg"
		_, err := u.UploadImage(ctx, f, "", testParams())
		var ute *UnsupportedTypeError
		if !errors.As(err, &ute) {
			t.Fatalf("error = %v, want *UnsupportedTypeError", err)
		}
		if Code(err) != CodeUnsupportedType {
			t.Errorf("Code() = %q", Code(err))
		}
	})

	t.Run("extension not allowed", func(t *testing.T) {
		f := stage(t, "photo.gif", pngData(t, 10, 10))
		_, err := u.UploadImage(ctx, f, "", testParams())
		var iee *InvalidExtensionError
		if !errors.As(err, &iee) {
			t.Fatalf("error = %v, want *InvalidExtensionError", err)
		}
		if iee.Extension != "gif" {
			t.Errorf("Extension = %q, want gif", iee.Extension)
		}
	})

	t.Run("missing extension", func(t *testing.T) {
		f := stage(t, "photo", pngData(t, 10, 10))
		_, err := u.UploadImage(ctx, f, "", testParams())
		var iee *InvalidExtensionError
		if !errors.As(err, &iee) {
			t.Fatalf("error = %v, want *InvalidExtensionError", err)
		}
	})

	t.Run("folder escapes content root", func(t *testing.T) {
		f := stage(t, "photo.png", pngData(t, 10, 10))
		_, err := u.UploadImage(ctx, f, "../outside", testParams())
		var se *StorageError
		if !errors.As(err, &se) {
			t.Fatalf("error = %v, want *StorageError", err)
		}
		if _, statErr := os.Stat(f.TempPath); statErr != nil {
			t.Error("rejected upload must not consume the temp file")
		}
	})

	t.Run("destination not creatable", func(t *testing.T) {
		blocker := filepath.Join(u.ContentRoot(), "blocked")
		if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		f := stage(t, "photo.png", pngData(t, 10, 10))
		_, err := u.UploadImage(ctx, f, "blocked/points", testParams())
		if Code(err) != CodeStorage {
			t.Errorf("Code() = %q, want %q (err = %v)", Code(err), CodeStorage, err)
		}
	})
}

func TestUploadImage_SizeBoundary(t *testing.T) {
	u := newTestUploader(t)
	data := pngData(t, 20, 20)
	limit := int64(len(data))

	t.Run("exactly at limit is accepted", func(t *testing.T) {
		p := testParams()
		p.MaxSizeBytes = limit
		if _, err := u.UploadImage(context.Background(), stage(t, "ok.png", data), "", p); err != nil {
			t.Errorf("UploadImage() error = %v", err)
		}
	})

	t.Run("one byte over is rejected", func(t *testing.T) {
		p := testParams()
		p.MaxSizeBytes = limit - 1
		_, err := u.UploadImage(context.Background(), stage(t, "big.png", data), "", p)
		var fte *FileTooLargeError
		if !errors.As(err, &fte) {
			t.Fatalf("error = %v, want *FileTooLargeError", err)
		}
		if fte.LimitBytes != limit-1 {
			t.Errorf("LimitBytes = %d, want %d", fte.LimitBytes, limit-1)
		}
	})

	t.Run("configured ceiling applies", func(t *testing.T) {
		small, err := New(Options{ContentRoot: t.TempDir(), MaxSizeBytes: 2 << 20})
		if err != nil {
			t.Fatal(err)
		}
		f := stage(t, "huge.png", data)
		f.Size = 3 << 20
		_, err = small.UploadImage(context.Background(), f, "", testParams())
		var fte *FileTooLargeError
		if !errors.As(err, &fte) {
			t.Fatalf("error = %v, want *FileTooLargeError", err)
		}
		if fte.LimitMB() != 2 {
			t.Errorf("LimitMB() = %v, want 2", fte.LimitMB())
		}
		if !strings.Contains(fte.Error(), "2.0 MiB") {
			t.Errorf("message %q should carry the human-readable limit", fte.Error())
		}
	})
}

func TestUploadImage_AllowedTypesOverride(t *testing.T) {
	u := newTestUploader(t)
	p := testParams()
	p.AllowedTypes = []string{"image/png"}

	_, err := u.UploadImage(context.Background(), stage(t, "a.jpg", jpegData(t, 10, 10)), "", p)
	var ute *UnsupportedTypeError
	if !errors.As(err, &ute) {
		t.Fatalf("error = %v, want *UnsupportedTypeError", err)
	}
	if ute.Detected != "image/jpeg" {
		t.Errorf("Detected = %q, want image/jpeg", ute.Detected)
	}
}

func TestUploadImage_DegradedPostProcessing(t *testing.T) {
	t.Run("thumbnail directory blocked", func(t *testing.T) {
		u := newTestUploader(t)
		dir := filepath.Join(u.ContentRoot(), "uploads", "points")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, ThumbsDir), []byte("not a dir"), 0o600); err != nil {
			t.Fatal(err)
		}

		res, err := u.UploadImage(context.Background(), stage(t, "a.png", pngData(t, 30, 30)), "", testParams())
		if err != nil {
			t.Fatalf("UploadImage() error = %v, want degraded success", err)
		}
		if res.ThumbnailPath != "" {
			t.Errorf("ThumbnailPath = %q, want empty", res.ThumbnailPath)
		}
		if len(res.Warnings) != 1 {
			t.Errorf("Warnings = %v, want one thumbnail warning", res.Warnings)
		}
	})

	t.Run("undecodable image keeps original", func(t *testing.T) {
		u := newTestUploader(t)
		truncated := jpegData(t, 64, 64)[:40]

		res, err := u.UploadImage(context.Background(), stage(t, "broken.jpg", truncated), "", testParams())
		if err != nil {
			t.Fatalf("UploadImage() error = %v, want degraded success", err)
		}
		if len(res.Warnings) != 2 {
			t.Errorf("Warnings = %v, want resize and thumbnail warnings", res.Warnings)
		}
		got, err := os.ReadFile(filepath.Join(u.ContentRoot(), filepath.FromSlash(res.Path)))
		if err != nil {
			t.Fatalf("stored file missing: %v", err)
		}
		if !bytes.Equal(got, truncated) {
			t.Error("original bytes should be kept when resize fails")
		}
	})
}

func TestUploadImage_ZeroProcessingUsesDefaults(t *testing.T) {
	u := newTestUploader(t)
	res, err := u.UploadImage(context.Background(), stage(t, "wide.jpg", jpegData(t, 2400, 1200)), "", Params{})
	if err != nil {
		t.Fatalf("UploadImage() error = %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("Warnings = %v, want none", res.Warnings)
	}
	if res.ThumbnailPath == "" {
		t.Fatal("ThumbnailPath is empty")
	}

	w, h := decodedSize(t, filepath.Join(u.ContentRoot(), filepath.FromSlash(res.Path)))
	if w != 1920 || h != 960 {
		t.Errorf("image = %dx%d, want 1920x960", w, h)
	}
	w, h = decodedSize(t, filepath.Join(u.ContentRoot(), filepath.FromSlash(res.ThumbnailPath)))
	if w != 400 || h != 200 {
		t.Errorf("thumbnail = %dx%d, want 400x200", w, h)
	}
}

func TestUploadImage_OversizedDeclarationDegrades(t *testing.T) {
	u := newTestUploader(t)
	data := pngData(t, 1, 1)
	// Rewrite the IHDR dimensions to 60000x60000 and fix up its CRC.
	binary.BigEndian.PutUint32(data[16:20], 60000)
	binary.BigEndian.PutUint32(data[20:24], 60000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	res, err := u.UploadImage(context.Background(), stage(t, "huge.png", data), "", testParams())
	if err != nil {
		t.Fatalf("UploadImage() error = %v, want degraded success", err)
	}
	if res.ThumbnailPath != "" {
		t.Errorf("ThumbnailPath = %q, want empty", res.ThumbnailPath)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("Warnings = %v, want resize and thumbnail warnings", res.Warnings)
	}
	for _, w := range res.Warnings {
		if !strings.Contains(w, imaging.ErrImageTooLarge.Error()) {
			t.Errorf("warning %q does not mention the pixel limit", w)
		}
	}
}

func TestUploadImage_FilenameFormat(t *testing.T) {
	u := newTestUploader(t)
	u.now = func() time.Time { return time.Unix(0, 0x18a2b3c4d5e6f708) }

	res, err := u.UploadImage(context.Background(), stage(t, "a.PNG", pngData(t, 4, 4)), "", testParams())
	if err != nil {
		t.Fatal(err)
	}
	pattern := regexp.MustCompile(`^18a2b3c4d5e6f708_[0-9a-f]{32}\.png$`)
	if !pattern.MatchString(res.Filename) {
		t.Errorf("Filename = %q, want <nanos hex>_<uuid>.png", res.Filename)
	}
}

func TestThumbnailPath(t *testing.T) {
	u := newTestUploader(t)
	res, err := u.UploadImage(context.Background(), stage(t, "a.png", pngData(t, 30, 30)), "uploads/routes", testParams())
	if err != nil {
		t.Fatal(err)
	}

	got, ok := u.ThumbnailPath(res.Path)
	if !ok || got != "uploads/routes/thumbs/"+res.Filename {
		t.Errorf("ThumbnailPath() = %q, %v", got, ok)
	}

	if _, ok := u.ThumbnailPath("uploads/routes/missing.png"); ok {
		t.Error("expected no thumbnail for a missing image")
	}
	if _, ok := u.ThumbnailPath("../../etc/passwd"); ok {
		t.Error("expected no thumbnail for a path outside the root")
	}
}

func TestDeleteFile(t *testing.T) {
	u := newTestUploader(t)
	ctx := context.Background()
	res, err := u.UploadImage(ctx, stage(t, "a.jpg", jpegData(t, 200, 200)), "", testParams())
	if err != nil {
		t.Fatal(err)
	}

	if !u.DeleteFile(ctx, res.Path) {
		t.Fatal("first DeleteFile() = false, want true")
	}
	if _, err := os.Stat(filepath.Join(u.ContentRoot(), filepath.FromSlash(res.ThumbnailPath))); !os.IsNotExist(err) {
		t.Error("thumbnail should be removed with the image")
	}
	if u.DeleteFile(ctx, res.Path) {
		t.Error("second DeleteFile() = true, want false")
	}
	if u.DeleteFile(ctx, "../escape.jpg") {
		t.Error("DeleteFile() outside the root = true, want false")
	}
}

func TestDeleteFile_RefusesDirectories(t *testing.T) {
	u := newTestUploader(t)
	ctx := context.Background()
	res, err := u.UploadImage(ctx, stage(t, "a.png", pngData(t, 10, 10)), "", testParams())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(u.ContentRoot(), "emptydir"), 0o755); err != nil {
		t.Fatal(err)
	}
	// Leave uploads/points/thumbs empty so os.Remove alone would succeed.
	if err := os.Remove(filepath.Join(u.ContentRoot(), filepath.FromSlash(res.ThumbnailPath))); err != nil {
		t.Fatal(err)
	}

	for _, rel := range []string{"uploads/points/thumbs", "emptydir", "."} {
		if u.DeleteFile(ctx, rel) {
			t.Errorf("DeleteFile(%q) = true, want false", rel)
		}
	}
	for _, dir := range []string{"uploads/points/thumbs", "emptydir"} {
		if info, err := os.Stat(filepath.Join(u.ContentRoot(), filepath.FromSlash(dir))); err != nil || !info.IsDir() {
			t.Errorf("directory %s was removed", dir)
		}
	}
}

func TestDeleteFile_WithoutThumbnail(t *testing.T) {
	u := newTestUploader(t)
	rel := "uploads/points/lonely.png"
	abs := filepath.Join(u.ContentRoot(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, pngData(t, 5, 5), 0o600); err != nil {
		t.Fatal(err)
	}

	if !u.DeleteFile(context.Background(), rel) {
		t.Error("DeleteFile() = false, want true when only the thumbnail is missing")
	}
}

func decodedSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return cfg.Width, cfg.Height
}
