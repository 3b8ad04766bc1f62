package middleware

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "vidtube/internal/errors"
	"vidtube/internal/reqctx"
	"vidtube/internal/validators"
)

// UploadConfig bounds the files the upload stage accepts.
type UploadConfig struct {
	TempDir string
	MaxSize int64
}

// Upload saves the named multipart file fields into the temp directory and
// records them on the request context. Missing fields are skipped, the
// handler decides which ones are required. Saved files are removed once the
// handler returns.
func Upload(cfg UploadConfig, fields ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rc := reqctx.From(c)
			defer func() {
				for _, f := range rc.Files {
					if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
						zap.L().Warn("Failed to remove temp upload", zap.String("path", f.Path), zap.Error(err))
					}
				}
			}()

			for _, field := range fields {
				header, err := c.FormFile(field)
				if err != nil {
					if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
						continue
					}
					return apperrors.Wrap(apperrors.KindBadRequest, "invalid multipart body", err)
				}

				if cfg.MaxSize > 0 && header.Size > cfg.MaxSize {
					return apperrors.BadRequest(fmt.Sprintf("%s exceeds the %d MB limit", field, cfg.MaxSize>>20))
				}

				saved, err := saveTemp(cfg.TempDir, header)
				if err != nil {
					return fmt.Errorf("save %s: %w", field, err)
				}
				rc.Files[field] = saved
				saved.Field = field

				if err := validators.ImageFile(saved.Path); err != nil {
					return apperrors.Wrap(apperrors.KindBadRequest, "Only image files are allowed", err)
				}
			}

			return next(c)
		}
	}
}

func saveTemp(dir string, header *multipart.FileHeader) (*reqctx.UploadedFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	dst, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(dst.Name())
		return nil, err
	}

	return &reqctx.UploadedFile{
		Path:        dst.Name(),
		Filename:    header.Filename,
		Size:        n,
		ContentType: header.Header.Get(echo.HeaderContentType),
	}, nil
}
