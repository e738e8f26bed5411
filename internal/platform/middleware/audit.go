package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinichq/frontdesk/internal/platform/auth"
)

// AuditEntry captures who accessed which clinic resource, when, and how.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	Resource   string
	Action     string // read, create, update, delete, search
	IPAddress  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries. Tests provide mock implementations.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit returns middleware that records access to /api/v1/* patient-data
// endpoints. Without an explicit recorder it falls back to structured
// zerolog output.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if !strings.HasPrefix(path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(req.Context()),
				UserRoles:  auth.RolesFromContext(req.Context()),
				Resource:   resourceFromPath(path),
				Action:     actionFromMethod(req.Method),
				IPAddress:  c.RealIP(),
				Path:       path,
				Method:     req.Method,
				Timestamp:  time.Now(),
				StatusCode: c.Response().Status,
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			if len(recorders) > 0 {
				for _, rec := range recorders {
					if recErr := rec.RecordAccess(entry); recErr != nil {
						logger.Error().Err(recErr).
							Str("request_id", entry.RequestID).
							Msg("audit record failed")
					}
				}
			} else {
				logger.Info().
					Str("request_id", entry.RequestID).
					Str("user_id", entry.UserID).
					Str("resource", entry.Resource).
					Str("action", entry.Action).
					Str("remote_ip", entry.IPAddress).
					Int("status", entry.StatusCode).
					Msg("access")
			}

			return err
		}
	}
}

// resourceFromPath extracts the resource segment from an /api/v1/<resource>
// path.
func resourceFromPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/v1/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}

func actionFromMethod(method string) string {
	switch method {
	case "GET":
		return "read"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
