package controllers

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"toolbank/apperr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	imageSubdir  = "herramientas"
	imagesPrefix = "/uploads/" + imageSubdir + "/"
)

var allowedImages = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var unsafeChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// Uploader stores tool images under Dir/herramientas.
type Uploader struct {
	Dir      string
	MaxBytes int64
}

func NewUploader(dir string, maxBytes int64) *Uploader {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &Uploader{Dir: dir, MaxBytes: maxBytes}
}

func sanitizeBase(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = unsafeChars.ReplaceAllString(strings.ToLower(base), "-")
	base = strings.Trim(base, "-")
	if len(base) > 40 {
		base = base[:40]
	}
	if base == "" {
		base = "imagen"
	}
	return base
}

// Save checks size and sniffed content type, writes the file and returns its
// public reference.
func (u *Uploader) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > u.MaxBytes {
		return "", apperr.Invalid(fmt.Sprintf("image exceeds %d bytes", u.MaxBytes))
	}
	src, err := fh.Open()
	if err != nil {
		return "", apperr.Wrap(err, "open upload")
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", apperr.Wrap(err, "detect image type")
	}
	if !mimetype.EqualsAny(mt.String(), allowedImages...) {
		return "", apperr.Invalid("only JPEG, PNG, GIF and WEBP images are accepted")
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", apperr.Wrap(err, "rewind upload")
	}

	dir := filepath.Join(u.Dir, imageSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Wrap(err, "create upload dir")
	}
	name := fmt.Sprintf("%s-%s%s", sanitizeBase(fh.Filename), uuid.NewString()[:8], mt.Extension())

	if err := writeFile(filepath.Join(dir, name), io.LimitReader(src, u.MaxBytes)); err != nil {
		return "", apperr.Wrap(err, "write image file")
	}
	return path.Join("/uploads", imageSubdir, name), nil
}

// writeFile copies r into a new file at dst. On any failure the partial
// file is removed.
func writeFile(dst string, r io.Reader) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
	}
	return err
}

// Remove deletes a file previously returned by Save. Other references are
// ignored.
func (u *Uploader) Remove(ref string) {
	if !strings.HasPrefix(ref, imagesPrefix) {
		return
	}
	name := filepath.Base(ref)
	_ = os.Remove(filepath.Join(u.Dir, imageSubdir, name))
}
