package rbac

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Role-level permissions gate whole routes. Ownership of the specific exam
// or attempt is checked separately by Authorize.
var RolePermissions = map[string][]string{
	RoleStudent: {
		"attempt:create",
		"attempt:submit",
		"attempt:view-own",
		"answer:request-review",
	},
	RoleTeacher: {
		"exam:*",
		"attempt:view-all",
		"answer:review",
		"dashboard:view",
	},
}
