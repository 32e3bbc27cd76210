package web

// errors.go turns failures into client responses.
//
// The technical error is logged with the request ID; the client only sees the
// mapped core.UserMessage (message, action, support code). HTMX requests get
// an HTML fragment, everything else JSON.

import (
	"net"
	"net/http"
	"strings"

	"github.com/JonMunkholm/mappoints/internal/core"
	"github.com/JonMunkholm/mappoints/internal/logging"
	"github.com/JonMunkholm/mappoints/internal/web/templates"
)

// ErrorResponse is the JSON body of a failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// rejectionStatus picks the HTTP status for a rejected import from its first
// file-level, merge or internal error.
func rejectionStatus(entries []core.ErrorEntry) int {
	for _, e := range entries {
		switch e.Kind {
		case core.KindFileStructure, core.KindMerge, core.KindInternal:
		default:
			continue
		}
		switch e.Code {
		case core.CodeFileTooLarge:
			return http.StatusRequestEntityTooLarge
		case core.CodeUnknownStrategy:
			return http.StatusBadRequest
		case core.CodeMergeFailed, core.CodeInternal:
			return http.StatusInternalServerError
		default:
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusUnprocessableEntity
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// clientIP strips the port from a RemoteAddr.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return strings.TrimSpace(remoteAddr)
}
