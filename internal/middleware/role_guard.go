// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/olegiv/onews-go/internal/model"
)

// multipartMemory is the in-memory part of a parsed multipart form; larger
// files spill to temporary files.
const multipartMemory = 12 << 20

// RoleFieldResponse is returned when a request tries to set a role.
var RoleFieldResponse = ErrorResponse{
	Error:   "Role assignment is not allowed via API",
	Message: "Admin roles can only be assigned by system administrators",
}

// RejectRoleField refuses write requests whose body carries a non-empty
// "role" field. Roles are only assigned by the create-admin and seed commands.
//
// The body is limited to maxBody bytes. JSON bodies are buffered and restored
// for the next handler; multipart forms are parsed once and left on the request.
func RejectRoleField(maxBody int64, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBody)

			mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
			var hasRole bool

			switch mediaType {
			case "multipart/form-data":
				if err := r.ParseMultipartForm(multipartMemory); err != nil {
					writeBodyError(w, err, "Invalid multipart form")
					return
				}
				for _, v := range r.MultipartForm.Value["role"] {
					if v != "" {
						hasRole = true
					}
				}
			case "application/x-www-form-urlencoded":
				if err := r.ParseForm(); err != nil {
					writeBodyError(w, err, "Invalid form body")
					return
				}
				hasRole = r.PostForm.Get("role") != ""
			default:
				data, err := io.ReadAll(r.Body)
				if err != nil {
					writeBodyError(w, err, "Invalid request body")
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(data))
				hasRole = jsonHasRole(data)
			}

			if hasRole {
				logger.Warn("role assignment attempt blocked",
					"category", model.EventCategoryAuth,
					"ip", ClientIP(r),
					"path", r.URL.Path,
				)
				WriteErrorResponse(w, http.StatusForbidden, RoleFieldResponse)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// jsonHasRole reports whether data is a JSON object with a truthy "role" member.
// Bodies that are not JSON objects are left for the handler to reject.
func jsonHasRole(data []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}

	raw, ok := fields["role"]
	if !ok {
		return false
	}

	switch string(bytes.TrimSpace(raw)) {
	case "null", "false", `""`, "0":
		return false
	}
	return true
}

func writeBodyError(w http.ResponseWriter, err error, message string) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		WriteAPIError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	WriteAPIError(w, http.StatusBadRequest, message)
}
