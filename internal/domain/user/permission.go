package user

type Permission string

const (
	// Attendance
	PermissionAttendanceClock   Permission = "attendance.clock"
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionOvertimeApprove   Permission = "attendance.overtime_approve"

	// Late permission gate
	PermissionLatePermissionRequest Permission = "late_permission.request"
	PermissionLatePermissionGrant   Permission = "late_permission.grant"

	// Timesheets
	PermissionTimesheetSubmit Permission = "timesheet.submit"
	PermissionTimesheetReview Permission = "timesheet.review"
	PermissionTimesheetExport Permission = "timesheet.export"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionOvertimeApprove,
		PermissionLatePermissionGrant,
		PermissionTimesheetReview,
		PermissionTimesheetExport,
	},
	RoleOJTSupervisor: {
		PermissionAttendanceViewAll,
		PermissionOvertimeApprove,
		PermissionLatePermissionGrant,
		PermissionTimesheetReview,
		PermissionTimesheetExport,
	},
	RoleOJTTrainee: {
		PermissionAttendanceClock,
		PermissionAttendanceViewOwn,
		PermissionLatePermissionRequest,
		PermissionTimesheetSubmit,
		PermissionTimesheetExport,
	},
	// Storefront roles never touch the OJT module
	RoleCustomer: {},
	RoleSales:    {},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
