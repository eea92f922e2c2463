// @title RateDesk Authorization API
// @version 1.0.0
// @description Authorization engine for the RateDesk freight-rate platform
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ratedesk/ratedesk/internal/authz"
	"github.com/ratedesk/ratedesk/internal/config"
	"github.com/ratedesk/ratedesk/internal/observability/logger"
	"github.com/ratedesk/ratedesk/internal/org"
	"github.com/ratedesk/ratedesk/internal/rbac"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	engine      *authz.Engine
	directory   authz.UserDirectory
	orgService  *org.Service
	registry    *authz.RoleRegistry
	graph       *authz.RoleGraph
	auditLogger *logger.AuditLogger
	authConfig  config.AuthConfig
}

// NewHandler creates a new HTTP handler
func NewHandler(
	engine *authz.Engine,
	directory authz.UserDirectory,
	orgService *org.Service,
	registry *authz.RoleRegistry,
	graph *authz.RoleGraph,
	auditLogger *logger.AuditLogger,
	authConfig config.AuthConfig,
) *Handler {
	return &Handler{
		engine:      engine,
		directory:   directory,
		orgService:  orgService,
		registry:    registry,
		graph:       graph,
		auditLogger: auditLogger,
		authConfig:  authConfig,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes (FAIL-CLOSED: everything below requires a verified token)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		// Decision endpoints
		r.Post("/access/entity", h.CheckEntityAccess)
		r.Post("/access/permission", h.CheckPermission)

		// Introspection
		r.Get("/me/permissions", h.GetMyPermissions)

		// Role catalog (read-only at runtime; roles are seeded at bootstrap)
		r.Route("/roles", func(r chi.Router) {
			r.Get("/", h.ListRoles)
			r.Get("/{code}/permissions", h.GetRolePermissions)
		})

		// Organization management
		r.Route("/orgs", func(r chi.Router) {
			r.With(h.RequirePermission(rbac.PermOrgsView)).Get("/", h.ListOrganizations)
			r.With(h.RequirePermission(rbac.PermOrgsView)).Get("/{orgID}", h.GetOrganization)
			r.With(h.RequirePermission(rbac.PermOrgsManage)).Post("/", h.CreateOrganization)
			r.With(h.RequirePermission(rbac.PermOrgsManage)).Delete("/{orgID}", h.DeactivateOrganization)
		})
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "ratedesk-authz",
	})
}

// EntityAccessRequest asks whether a user may perform an action on an entity
type EntityAccessRequest struct {
	UserID     string `json:"user_id,omitempty" example:"0192a1b2-..."`
	EntityType string `json:"entity_type" example:"rate"`
	EntityID   string `json:"entity_id" example:"0192a1b2-..."`
	Action     string `json:"action" example:"approve"`
}

// EntityAccessResponse carries the decision
type EntityAccessResponse struct {
	Allowed bool     `json:"allowed"`
	Reason  string   `json:"reason"`
	Missing []string `json:"missing_permissions,omitempty"`
}

// CheckEntityAccess evaluates an entity-level access decision
// @Summary Check entity access
// @Description Decide whether a user may perform an action on a domain entity
// @Tags Access
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EntityAccessRequest true "Access Question"
// @Success 200 {object} EntityAccessResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /access/entity [post]
func (h *Handler) CheckEntityAccess(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipal(r.Context())

	var req EntityAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entityID, err := uuid.Parse(req.EntityID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "entity_id must be a UUID")
		return
	}

	subject := principal
	if req.UserID != "" && req.UserID != principal.ID {
		// Asking on behalf of another user requires directory access
		if !h.engine.HasPermission(r.Context(), principal, rbac.PermUsersView) {
			respondError(w, http.StatusForbidden, "insufficient permissions to query other users")
			return
		}
		subject, err = h.directory.Lookup(r.Context(), req.UserID)
		if err != nil {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
	}

	decision, err := h.engine.CanAccessEntity(r.Context(), subject, req.EntityType, entityID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, authz.ErrEntityNotFound):
			respondError(w, http.StatusNotFound, "entity not found")
		case errors.Is(err, authz.ErrUnknownAction):
			// Misconfiguration, not a caller error. Deny and surface it.
			h.auditLogger.ConfigError(r.Context(), req.EntityType+"/"+req.Action, "unmapped action")
			respondError(w, http.StatusForbidden, "action is not authorizable")
		default:
			slog.ErrorContext(r.Context(), "entity access check failed", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "access check failed")
		}
		return
	}

	if decision.Allowed {
		h.auditLogger.AccessGranted(r.Context(), subject.ID, req.EntityType+"/"+req.EntityID, req.Action, getIPAddress(r))
	} else if decision.Reason == authz.ReasonOrgBoundary {
		h.auditLogger.OrgBoundaryDenied(r.Context(), subject.ID, subject.OrganizationID, "", getIPAddress(r))
	} else {
		h.auditLogger.AccessDenied(r.Context(), subject.ID, req.EntityType+"/"+req.EntityID, string(decision.Reason), getIPAddress(r))
	}

	respondJSON(w, http.StatusOK, EntityAccessResponse{
		Allowed: decision.Allowed,
		Reason:  string(decision.Reason),
		Missing: decision.Missing,
	})
}

// PermissionCheckRequest asks whether the caller holds a permission
type PermissionCheckRequest struct {
	Permission string `json:"permission" example:"rates:approve"`
}

// CheckPermission evaluates a bare permission check for the caller
// @Summary Check permission
// @Description Decide whether the authenticated user holds a permission
// @Tags Access
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PermissionCheckRequest true "Permission Question"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Router /access/permission [post]
func (h *Handler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipal(r.Context())

	var req PermissionCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Permission == "" {
		respondError(w, http.StatusBadRequest, "permission is required")
		return
	}

	allowed := h.engine.HasPermission(r.Context(), principal, req.Permission)
	respondJSON(w, http.StatusOK, map[string]bool{
		"allowed": allowed,
		"known":   h.engine.KnownPermission(req.Permission),
	})
}

// GetMyPermissions returns the caller's effective permission set
// @Summary My permissions
// @Description List the authenticated user's effective permissions
// @Tags Access
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Router /me/permissions [get]
func (h *Handler) GetMyPermissions(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipal(r.Context())

	effective := h.engine.EffectivePermissionsForUser(principal)
	permissions := make([]string, 0, len(effective))
	for name := range effective {
		permissions = append(permissions, name)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":     principal.ID,
		"role":        principal.RoleCode,
		"permissions": permissions,
	})
}

// RoleResponse describes a role without its internal wiring
type RoleResponse struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	OrganizationType string `json:"organization_type,omitempty"`
	IsAdmin          bool   `json:"is_admin"`
}

// ListRoles lists registered roles
// @Summary List roles
// @Description List roles, optionally filtered by organization type
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Param org_type query string false "Organization type filter"
// @Success 200 {array} RoleResponse
// @Router /roles [get]
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	var roles []authz.Role
	if orgType := r.URL.Query().Get("org_type"); orgType != "" {
		roles = h.registry.ByOrganizationType(orgType)
	} else {
		roles = h.registry.List()
	}

	out := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, RoleResponse{
			Code:             role.Code,
			Name:             role.Name,
			Description:      role.Description,
			OrganizationType: role.OrganizationType,
			IsAdmin:          role.IsAdmin,
		})
	}

	respondJSON(w, http.StatusOK, out)
}

// GetRolePermissions returns a role's effective permissions
// @Summary Role permissions
// @Description List the effective permissions of a role, including inherited ones
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Param code path string true "Role code"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /roles/{code}/permissions [get]
func (h *Handler) GetRolePermissions(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	effective, err := h.graph.EffectivePermissions(code)
	if err != nil {
		respondError(w, http.StatusNotFound, "role not found")
		return
	}

	permissions := make([]string, 0, len(effective))
	for name := range effective {
		permissions = append(permissions, name)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"role":        code,
		"permissions": permissions,
	})
}

// CreateOrgRequest carries organization creation data
type CreateOrgRequest struct {
	Name string `json:"name" example:"Acme Logistics"`
	Type string `json:"type" example:"carrier"`
}

// CreateOrganization creates a new organization
// @Summary Create organization
// @Description Register a new client or carrier organization
// @Tags Organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateOrgRequest true "Organization Data"
// @Success 201 {object} org.Organization
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orgs [post]
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipal(r.Context())

	var req CreateOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orgService.CreateOrganization(r.Context(), req.Name, req.Type, principal.ID)
	if err != nil {
		switch {
		case errors.Is(err, org.ErrOrgExists):
			respondError(w, http.StatusConflict, "organization already exists")
		case errors.Is(err, org.ErrInvalidType):
			respondError(w, http.StatusBadRequest, "invalid organization type")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

// GetOrganization retrieves an organization
// @Summary Get organization
// @Tags Organizations
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Success 200 {object} org.Organization
// @Failure 404 {object} map[string]string
// @Router /orgs/{orgID} [get]
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipal(r.Context())
	orgID := chi.URLParam(r, "orgID")

	// Boundary check: non-admins only see their own organization
	if !h.engine.CanAccessOrganization(principal, orgID) {
		h.auditLogger.OrgBoundaryDenied(r.Context(), principal.ID, principal.OrganizationID, orgID, getIPAddress(r))
		respondError(w, http.StatusForbidden, "organization boundary")
		return
	}

	o, err := h.orgService.GetOrganization(r.Context(), orgID)
	if err != nil {
		respondError(w, http.StatusNotFound, "organization not found")
		return
	}

	respondJSON(w, http.StatusOK, o)
}

// ListOrganizations lists organizations with pagination
// @Summary List organizations
// @Tags Organizations
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} org.Organization
// @Router /orgs [get]
func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	orgs, err := h.orgService.ListOrganizations(r.Context(), limit, offset)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list organizations", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list organizations")
		return
	}
	if orgs == nil {
		orgs = []*org.Organization{}
	}

	respondJSON(w, http.StatusOK, orgs)
}

// DeactivateOrganization marks an organization inactive
// @Summary Deactivate organization
// @Tags Organizations
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orgs/{orgID} [delete]
func (h *Handler) DeactivateOrganization(w http.ResponseWriter, r *http.Request) {
	principal, _ := GetPrincipal(r.Context())
	orgID := chi.URLParam(r, "orgID")

	if err := h.orgService.DeactivateOrganization(r.Context(), orgID, principal.ID); err != nil {
		if errors.Is(err, org.ErrOrgNotFound) {
			respondError(w, http.StatusNotFound, "organization not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to deactivate organization", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to deactivate organization")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "organization deactivated",
	})
}

// Helper functions
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
