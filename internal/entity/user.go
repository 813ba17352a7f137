package entity

import "github.com/venuelab/backend/pkg/enum"

type GlobalRole string

var (
	RoleSuperAdmin = enum.New(GlobalRole("super_admin"))
	RoleAdmin      = enum.New(GlobalRole("admin"))
	RoleStaff      = enum.New(GlobalRole("staff"))
)

var (
	GlobalAdminRoles = []GlobalRole{RoleSuperAdmin, RoleAdmin}
	GlobalStaffRoles = []GlobalRole{RoleSuperAdmin, RoleAdmin, RoleStaff}
)

// User is the minimal staff identity the engine needs for capability checks.
// Account management lives in the identity service.
type User struct {
	Base

	Name string
	Role GlobalRole
}
