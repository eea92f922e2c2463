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

// Package rbac holds the canonical permission names, role codes and seed
// bundles loaded into the authorization registries at bootstrap. These are
// the stable identifiers referenced by clients and configuration; do not
// rename them without a migration plan for issued tokens.
package rbac

// -----------------------------------------------------------------------------
// Permission Name Constants
// Canonical form is "<category>:<action>"; "<category>:*" is the full-category
// wildcard.
// -----------------------------------------------------------------------------

const (
	PermRatesAll     = "rates:*"
	PermRatesCreate  = "rates:create"
	PermRatesView    = "rates:view"
	PermRatesUpdate  = "rates:update"
	PermRatesDelete  = "rates:delete"
	PermRatesApprove = "rates:approve"
	PermRatesPublish = "rates:publish"

	PermNegotiationsAll     = "negotiations:*"
	PermNegotiationsCreate  = "negotiations:create"
	PermNegotiationsView    = "negotiations:view"
	PermNegotiationsRespond = "negotiations:respond"
	PermNegotiationsClose   = "negotiations:close"

	PermAnalyticsView   = "analytics:view"
	PermAnalyticsExport = "analytics:export"

	PermOrgsView   = "orgs:view"
	PermOrgsManage = "orgs:manage"

	PermUsersView   = "users:view"
	PermUsersManage = "users:manage"

	PermAuditView = "audit:view"
)

// -----------------------------------------------------------------------------
// Role Code Constants
// -----------------------------------------------------------------------------

const (
	// RoleSystemAdmin is the platform-wide administrator role. It is the only
	// role carrying the admin flag that bypasses organization boundaries.
	RoleSystemAdmin = "SYSTEM_ADMIN"

	// RoleClientAdmin administers a single client organization and supervises
	// the rate-administration roles, inheriting their capabilities.
	RoleClientAdmin = "CLIENT_ADMIN"

	// RoleRateAdmin manages the full rate lifecycle within an organization.
	RoleRateAdmin = "RATE_ADMIN"

	// RoleApprover signs off rates pending approval.
	RoleApprover = "APPROVER"

	// RoleAnalyst has read access to analytics.
	RoleAnalyst = "ANALYST"

	// RoleViewer has read-only access to rates and negotiations.
	RoleViewer = "VIEWER"
)

// Organization types a role may be scoped to.
const (
	OrgTypePlatform = "platform"
	OrgTypeClient   = "client"
	OrgTypeCarrier  = "carrier"
)

// Entity types covered by the action-permission table.
const (
	EntityRate        = "rate"
	EntityNegotiation = "negotiation"
	EntityRateCard    = "rate_card"
)

// PermissionSeed describes one catalog entry.
type PermissionSeed struct {
	Name        string
	Category    string
	Description string
}

// RoleSeed describes one role registration.
type RoleSeed struct {
	Code             string
	Name             string
	Description      string
	Permissions      []string
	IsAdmin          bool
	OrganizationType string
}

// EdgeSeed describes one superior -> subordinate hierarchy edge.
type EdgeSeed struct {
	Superior    string
	Subordinate string
}

// ActionSeed describes one action-permission table entry.
type ActionSeed struct {
	EntityType  string
	Action      string
	Permissions []string
}

// Permissions is the canonical catalog loaded at bootstrap.
var Permissions = []PermissionSeed{
	{PermRatesAll, "rates", "All rate operations"},
	{PermRatesCreate, "rates", "Create rates"},
	{PermRatesView, "rates", "View rates"},
	{PermRatesUpdate, "rates", "Update rates"},
	{PermRatesDelete, "rates", "Delete rates"},
	{PermRatesApprove, "rates", "Approve rates"},
	{PermRatesPublish, "rates", "Publish approved rates"},
	{PermNegotiationsAll, "negotiations", "All negotiation operations"},
	{PermNegotiationsCreate, "negotiations", "Open negotiations"},
	{PermNegotiationsView, "negotiations", "View negotiations"},
	{PermNegotiationsRespond, "negotiations", "Respond to negotiations"},
	{PermNegotiationsClose, "negotiations", "Close negotiations"},
	{PermAnalyticsView, "analytics", "View analytics dashboards"},
	{PermAnalyticsExport, "analytics", "Export analytics data"},
	{PermOrgsView, "orgs", "View organizations"},
	{PermOrgsManage, "orgs", "Manage organizations"},
	{PermUsersView, "users", "View organization members"},
	{PermUsersManage, "users", "Manage organization members"},
	{PermAuditView, "audit", "View the audit trail"},
}

// Roles is the canonical role set loaded at bootstrap.
var Roles = []RoleSeed{
	{
		Code:             RoleSystemAdmin,
		Name:             "System Administrator",
		Description:      "Platform-wide administration; bypasses organization boundaries",
		Permissions:      []string{PermOrgsManage, PermOrgsView, PermUsersManage, PermUsersView, PermAuditView},
		IsAdmin:          true,
		OrganizationType: OrgTypePlatform,
	},
	{
		Code:             RoleClientAdmin,
		Name:             "Client Administrator",
		Description:      "Administers a client organization and its members",
		Permissions:      []string{PermOrgsView, PermUsersManage, PermUsersView, PermAuditView},
		OrganizationType: OrgTypeClient,
	},
	{
		Code:        RoleRateAdmin,
		Name:        "Rate Administrator",
		Description: "Full rate and negotiation lifecycle",
		Permissions: []string{PermRatesAll, PermNegotiationsAll},
	},
	{
		Code:        RoleApprover,
		Name:        "Rate Approver",
		Description: "Approves rates pending sign-off",
		Permissions: []string{PermRatesView, PermRatesApprove},
	},
	{
		Code:        RoleAnalyst,
		Name:        "Analyst",
		Description: "Read access to analytics",
		Permissions: []string{PermAnalyticsView, PermAnalyticsExport, PermRatesView},
	},
	{
		Code:        RoleViewer,
		Name:        "Viewer",
		Description: "Read-only access",
		Permissions: []string{PermRatesView, PermNegotiationsView},
	},
}

// Edges is the canonical hierarchy: superiors inherit the capabilities of the
// subordinate roles they supervise.
var Edges = []EdgeSeed{
	{RoleSystemAdmin, RoleClientAdmin},
	{RoleClientAdmin, RoleRateAdmin},
	{RoleClientAdmin, RoleViewer},
	{RoleRateAdmin, RoleApprover},
	{RoleRateAdmin, RoleAnalyst},
}

// Actions is the canonical action-permission table.
var Actions = []ActionSeed{
	{EntityRate, "create", []string{PermRatesCreate}},
	{EntityRate, "view", []string{PermRatesView}},
	{EntityRate, "update", []string{PermRatesUpdate}},
	{EntityRate, "delete", []string{PermRatesDelete}},
	{EntityRate, "approve", []string{PermRatesApprove}},
	{EntityRate, "publish", []string{PermRatesApprove, PermRatesPublish}},
	{EntityNegotiation, "create", []string{PermNegotiationsCreate}},
	{EntityNegotiation, "view", []string{PermNegotiationsView}},
	{EntityNegotiation, "respond", []string{PermNegotiationsRespond}},
	{EntityNegotiation, "close", []string{PermNegotiationsClose}},
	{EntityRateCard, "view", []string{PermRatesView}},
	{EntityRateCard, "update", []string{PermRatesUpdate, PermRatesPublish}},
}
