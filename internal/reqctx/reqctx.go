// Package reqctx carries per-request state between pipeline stages and
// handlers: the authenticated account and any files saved by the upload stage.
package reqctx

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"vidtube/internal/model"
)

const contextKey = "vidtube.request"

// UploadedFile is a multipart file saved to local temporary storage.
type UploadedFile struct {
	Field       string
	Path        string
	Filename    string
	Size        int64
	ContentType string
}

// RequestContext is the state stages attach to a request.
type RequestContext struct {
	UserID      uuid.UUID
	User        *model.User
	AccessJTI   string
	AccessUntil time.Time
	Files       map[string]*UploadedFile
}

// From returns the request context, creating it on first use.
func From(c echo.Context) *RequestContext {
	if rc, ok := c.Get(contextKey).(*RequestContext); ok {
		return rc
	}
	rc := &RequestContext{Files: map[string]*UploadedFile{}}
	c.Set(contextKey, rc)
	return rc
}

// File returns the local path of the uploaded field, or "" when absent.
func (rc *RequestContext) File(field string) string {
	if f, ok := rc.Files[field]; ok && f != nil {
		return f.Path
	}
	return ""
}

// Authenticated reports whether the auth stage resolved an account.
func (rc *RequestContext) Authenticated() bool {
	return rc.User != nil
}
