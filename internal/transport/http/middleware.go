// Copyright 2026 The RateDesk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ratedesk/ratedesk/internal/authz"
	"github.com/ratedesk/ratedesk/internal/observability/logger"
)

// Authorization Principles:
// 1. Organization context comes exclusively from the verified token
// 2. Privileges are derived from role and permissions, never from org identity
// 3. Every denial is a structured decision, never a silent drop
//
// Anti-Patterns (FORBIDDEN):
// - Org context from headers (e.g., X-Org-ID)
// - Hardcoded role checks in handlers (use RequirePermission)

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Log request start
			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// Claims carries the authorization-relevant claims of a RateDesk access token.
// The identity provider issues tokens; this service only verifies them.
type Claims struct {
	jwt.RegisteredClaims
	RoleCode          string   `json:"role"`
	OrganizationID    string   `json:"org"`
	DirectPermissions []string `json:"perms,omitempty"`
}

// AuthMiddleware verifies the bearer token and puts the user snapshot
// into the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.authConfig.JWTSecret), nil
		}, jwt.WithIssuer(h.authConfig.Issuer), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if claims.Subject == "" || claims.RoleCode == "" {
			respondError(w, http.StatusUnauthorized, "token is missing required claims")
			return
		}

		// Security hardening: org context MUST come from the verified
		// token. Reject attempts to smuggle it through a header.
		if r.Header.Get("X-Org-ID") != "" {
			slog.WarnContext(r.Context(), "org header spoofing attempt detected on authenticated route",
				logger.UserID(claims.Subject),
			)
			respondError(w, http.StatusBadRequest, "X-Org-ID header is not allowed; organization is derived from the token")
			return
		}

		user := authz.User{
			ID:                claims.Subject,
			RoleCode:          claims.RoleCode,
			OrganizationID:    claims.OrganizationID,
			DirectPermissions: claims.DirectPermissions,
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), user)))
	})
}

// RequirePermission enforces that the authenticated user holds the given
// permission, directly or through role inheritance. Fail-closed: no
// principal in context means deny.
func (h *Handler) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetPrincipal(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			if !h.engine.HasPermission(r.Context(), user, permission) {
				h.auditLogger.AccessDenied(r.Context(), user.ID, r.URL.Path, "missing_permission", getIPAddress(r))
				respondError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
