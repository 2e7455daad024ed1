package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/logging"
)

// Uploads stages multipart file fields on local disk before they are sent to the media host.
type Uploads struct {
	Dir      string
	MaxBytes int64
}

// stagedFiles maps form field names to local paths. Paths that were not consumed by an
// upload are removed by cleanup.
type stagedFiles map[string]string

func (s stagedFiles) cleanup(r *http.Request) {
	for field, path := range s {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(r.Context()).Warn("failed to remove staged upload", "field", field, "path", path, "error", err)
		}
	}
}

// stage parses a multipart request and writes the first file of each named field to disk.
// Missing fields are simply absent from the result.
func (u Uploads) stage(w http.ResponseWriter, r *http.Request, fields ...string) (stagedFiles, error) {
	maxBytes := u.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 512 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.BadRequest("upload is too large")
		}
		return nil, apperr.BadRequest("invalid multipart form")
	}

	dir := u.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Internal("failed to prepare upload directory", err)
	}

	staged := make(stagedFiles, len(fields))
	for _, field := range fields {
		files := r.MultipartForm.File[field]
		if len(files) == 0 {
			continue
		}
		header := files[0]

		src, err := header.Open()
		if err != nil {
			staged.cleanup(r)
			return nil, apperr.BadRequest(fmt.Sprintf("unable to read %s", field))
		}

		ext := strings.ToLower(filepath.Ext(header.Filename))
		dst, err := os.CreateTemp(dir, field+"-*"+ext)
		if err != nil {
			src.Close()
			staged.cleanup(r)
			return nil, apperr.Internal("failed to stage upload", err)
		}

		_, copyErr := io.Copy(dst, src)
		src.Close()
		closeErr := dst.Close()
		staged[field] = dst.Name()
		if err := errors.Join(copyErr, closeErr); err != nil {
			staged.cleanup(r)
			return nil, apperr.Internal("failed to stage upload", err)
		}
	}
	return staged, nil
}
