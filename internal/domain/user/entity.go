package user

import "time"

type Role string

const (
	RoleCustomer      Role = "customer"
	RoleSales         Role = "sales"
	RoleAdmin         Role = "admin"
	RoleOJTTrainee    Role = "ojt_trainee"
	RoleOJTSupervisor Role = "ojt_supervisor"
)

type User struct {
	ID           string
	Email        string
	PasswordHash *string
	FullName     string
	Role         Role
	SupervisorID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsTrainee checks if user is an OJT trainee
func (u *User) IsTrainee() bool {
	return u.Role == RoleOJTTrainee
}

// IsSupervisor checks if user supervises trainees
func (u *User) IsSupervisor() bool {
	return u.Role == RoleOJTSupervisor
}

// IsAdmin checks if user is an administrator
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanReview reports whether u may decide on requests raised by trainee.
// Admins review everyone, supervisors only their own trainees.
func (u *User) CanReview(trainee User) bool {
	if u.IsAdmin() {
		return true
	}
	if !u.IsSupervisor() || trainee.SupervisorID == nil {
		return false
	}
	return *trainee.SupervisorID == u.ID
}
