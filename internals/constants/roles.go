package constants

import "fmt"

const (
	RoleSuperAdmin  = "super_admin"
	RoleBranchAdmin = "branch_admin"
	RoleTeacher     = "teacher"
	RoleStudent     = "student"
)

// Template pesan error role
const (
	ErrOnlyTeachersCanAccess = "❌ Hanya teacher atau admin yang boleh mengakses fitur %s."
	ErrOnlyAdminsCanAccess   = "❌ Hanya admin branch yang boleh mengakses fitur %s."
	ErrOnlyOwnersCanAccess   = "❌ Hanya super admin yang boleh mengakses fitur %s."
)

func RoleErrorTeacher(feature string) string {
	return fmt.Sprintf(ErrOnlyTeachersCanAccess, feature)
}

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorOwner(feature string) string {
	return fmt.Sprintf(ErrOnlyOwnersCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleSuperAdmin,
		RoleBranchAdmin,
		RoleTeacher,
		RoleStudent,
	}

	TeacherAndAbove = []string{
		RoleTeacher,
		RoleBranchAdmin,
		RoleSuperAdmin,
	}

	AdminAndAbove = []string{
		RoleBranchAdmin,
		RoleSuperAdmin,
	}

	OwnerOnly = []string{
		RoleSuperAdmin,
	}
)

// IsSuperAdmin: super admin boleh lintas branch
func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }
